package sequencer

import "sync/atomic"

// Sequencer owns the two process-wide monotonic counters: order id
// allocation and arrival sequencing. It is injected into the intake path so
// tests can control ordering deterministically instead of depending on
// package-level state.
//
// Order ids are never reused; gaps are acceptable when a submission fails
// after allocation. The arrival sequence is a single counter shared by both
// sides of the book, so simultaneous buy and sell insertions still have a
// well defined global time order for tie-breaking.
type Sequencer struct {
	orderID atomic.Uint64
	arrival atomic.Uint64
}

// New creates a sequencer starting both counters at zero; the first
// allocated order id is 1.
func New() *Sequencer {
	return &Sequencer{}
}

// NextOrderID allocates the next order id.
func (s *Sequencer) NextOrderID() uint64 {
	return s.orderID.Add(1)
}

// NextArrival allocates the next arrival sequence number.
func (s *Sequencer) NextArrival() uint64 {
	return s.arrival.Add(1)
}

// CurrentOrderID returns the most recently allocated order id.
func (s *Sequencer) CurrentOrderID() uint64 {
	return s.orderID.Load()
}

// CurrentArrival returns the most recently allocated arrival sequence.
func (s *Sequencer) CurrentArrival() uint64 {
	return s.arrival.Load()
}
