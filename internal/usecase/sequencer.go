package usecase

import "sync"

// Sequencer issues increasing search numbers per client so a slow search
// cannot overwrite the session of one submitted after it.
type Sequencer struct {
	mu   sync.Mutex
	last map[string]uint64
}

// NewSequencer creates an empty sequencer
func NewSequencer() *Sequencer {
	return &Sequencer{last: make(map[string]uint64)}
}

// Next returns the sequence number for a new search by clientID
func (s *Sequencer) Next(clientID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[clientID]++
	return s.last[clientID]
}

// Latest returns the most recently issued number for clientID, 0 if none
func (s *Sequencer) Latest(clientID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last[clientID]
}
