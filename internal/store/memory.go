package store

import (
	"context"
	"sort"
	"sync"

	"github.com/nathanyu/matching-engine/internal/domain"
)

// Memory is an in-process OrderStore + BookIndex. It is the default backend
// and the fixture the engine tests run against. Both structures are safe
// for concurrent readers alongside a writer, matching the weakly consistent
// snapshot contract.
type Memory struct {
	mu     sync.RWMutex
	orders map[uint64]*domain.Order
	sides  map[domain.Side][]Entry // kept sorted, best first
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		orders: make(map[uint64]*domain.Order),
		sides: map[domain.Side][]Entry{
			domain.SideBuy:  nil,
			domain.SideSell: nil,
		},
	}
}

// Get returns a copy of the stored order.
func (m *Memory) Get(_ context.Context, id uint64) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o.Clone(), nil
}

// Put stores a copy of the order.
func (m *Memory) Put(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.orders[order.ID] = order.Clone()
	return nil
}

// PutAll stores copies of all orders under one lock acquisition.
func (m *Memory) PutAll(_ context.Context, orders ...*domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range orders {
		m.orders[o.ID] = o.Clone()
	}
	return nil
}

// Insert adds an entry at its rank position.
func (m *Memory) Insert(_ context.Context, side domain.Side, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.sides[side]
	i := sort.Search(len(entries), func(i int) bool {
		return less(side, e, entries[i])
	})
	entries = append(entries, Entry{})
	copy(entries[i+1:], entries[i:])
	entries[i] = e
	m.sides[side] = entries
	return nil
}

// PeekBest returns the head entry of the given side.
func (m *Memory) PeekBest(_ context.Context, side domain.Side) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.sides[side]
	if len(entries) == 0 {
		return Entry{}, false, nil
	}
	return entries[0], true, nil
}

// Remove deletes the entry for the given order id, if present.
func (m *Memory) Remove(_ context.Context, side domain.Side, orderID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.sides[side]
	for i, e := range entries {
		if e.OrderID == orderID {
			m.sides[side] = append(entries[:i], entries[i+1:]...)
			return nil
		}
	}
	return nil
}

// Entries returns the side's entries in priority order.
func (m *Memory) Entries(_ context.Context, side domain.Side) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.sides[side]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}
