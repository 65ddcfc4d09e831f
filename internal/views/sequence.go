package views

import "sync"

// Sequencer numbers the fetches a view issues so that only the response to
// the latest one is applied. Older responses that arrive late are dropped.
type Sequencer struct {
	mu     sync.Mutex
	latest uint64
}

// Next reserves a new sequence number, superseding all earlier ones
func (s *Sequencer) Next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest++
	return s.latest
}

// Commit runs apply only if seq is still the latest issued number and
// reports whether it did.
func (s *Sequencer) Commit(seq uint64, apply func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.latest {
		return false
	}
	apply()
	return true
}
