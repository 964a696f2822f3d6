package domain

// MetricsRecorder receives pipeline counters
type MetricsRecorder interface {
	ObserveSearch(outcome string)
	ObserveFailedRetailers(retailers []string)
	ObserveRestore(tier string)
}

// NopMetrics discards everything
type NopMetrics struct{}

func (NopMetrics) ObserveSearch(string) {}
func (NopMetrics) ObserveFailedRetailers([]string) {}
func (NopMetrics) ObserveRestore(string) {}
