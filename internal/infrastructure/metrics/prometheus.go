package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder exposes pipeline counters to prometheus
type Recorder struct {
	searches        *prometheus.CounterVec
	failedRetailers *prometheus.CounterVec
	restores        *prometheus.CounterVec
}

// NewRecorder creates the counters and registers them with reg
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		searches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricelens_searches_total",
				Help: "Searches by outcome",
			},
			[]string{"outcome"},
		),
		failedRetailers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricelens_failed_retailers_total",
				Help: "Retailers reported as failed by the retailer search",
			},
			[]string{"retailer"},
		),
		restores: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricelens_session_restores_total",
				Help: "Session restores by the tier that answered",
			},
			[]string{"tier"},
		),
	}
	reg.MustRegister(r.searches, r.failedRetailers, r.restores)
	return r
}

// ObserveSearch counts a finished search
func (r *Recorder) ObserveSearch(outcome string) {
	r.searches.WithLabelValues(outcome).Inc()
}

// ObserveFailedRetailers counts each failed retailer once
func (r *Recorder) ObserveFailedRetailers(retailers []string) {
	for _, name := range retailers {
		r.failedRetailers.WithLabelValues(name).Inc()
	}
}

// ObserveRestore counts a restore attempt
func (r *Recorder) ObserveRestore(tier string) {
	r.restores.WithLabelValues(tier).Inc()
}
