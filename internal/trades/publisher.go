// Package trades is the outbound seam for trade events. The matching core
// guarantees exactly one event per pairing; what consumes them (an event
// bus, a settlement service) is a collaborator concern.
package trades

import (
	"context"
	"sync"

	"github.com/nathanyu/matching-engine/internal/domain"
)

// Publisher consumes trade events emitted by the matching engine.
type Publisher interface {
	Publish(ctx context.Context, trade *domain.Trade) error
}

const recorderCapacity = 1024

// Recorder keeps the most recent trades in a fixed-size ring buffer. It is
// the in-process publisher used when no broker is configured, and the test
// double for observing emissions.
type Recorder struct {
	mu    sync.RWMutex
	data  [recorderCapacity]*domain.Trade
	head  int // next write position
	count int
	total uint64
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Publish appends the trade to the ring buffer.
func (r *Recorder) Publish(_ context.Context, trade *domain.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[r.head] = trade
	r.head = (r.head + 1) % recorderCapacity
	if r.count < recorderCapacity {
		r.count++
	}
	r.total++
	return nil
}

// Trades returns the recorded trades in emission order, oldest first.
func (r *Recorder) Trades() []*domain.Trade {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.count == 0 {
		return nil
	}
	result := make([]*domain.Trade, r.count)
	start := (r.head - r.count + recorderCapacity) % recorderCapacity
	for i := 0; i < r.count; i++ {
		result[i] = r.data[(start+i)%recorderCapacity]
	}
	return result
}

// Total returns the number of trades published over the recorder's
// lifetime, including any that have rotated out of the ring.
func (r *Recorder) Total() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total
}
