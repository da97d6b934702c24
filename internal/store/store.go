// Package store holds the order record store and the priority index behind
// narrow interfaces, with an in-memory backend and a Redis backend. The
// matching core depends only on peek-best/remove/insert semantics, not on
// the storage technology.
package store

import (
	"context"

	"github.com/nathanyu/matching-engine/internal/domain"
)

// Entry is a priority-index reference. It carries only the order id and the
// immutable rank fields (price, arrival sequence), never mutable order
// state, so the index cannot go stale relative to the store.
type Entry struct {
	OrderID uint64
	Price   int64
	Seq     uint64
}

// OrderStore is key-value persistence of individual order state.
type OrderStore interface {
	// Get returns the order with the given id, or domain.ErrOrderNotFound.
	Get(ctx context.Context, id uint64) (*domain.Order, error)

	// Put writes an order's durable representation.
	Put(ctx context.Context, order *domain.Order) error

	// PutAll writes several orders together. Backends persist them as one
	// unit where they can, so both sides of a pairing commit or neither
	// does.
	PutAll(ctx context.Context, orders ...*domain.Order) error
}

// BookIndex is the two-sided priority structure ranking order ids by price
// then arrival. Best buy = highest price, best sell = lowest price, ties
// broken by earliest arrival on both sides.
type BookIndex interface {
	// Insert adds an entry to the given side.
	Insert(ctx context.Context, side domain.Side, e Entry) error

	// PeekBest returns the best entry on the given side without removing
	// it. ok is false when the side is empty.
	PeekBest(ctx context.Context, side domain.Side) (e Entry, ok bool, err error)

	// Remove deletes the entry for the given order id from the given side.
	// Removing an id that is not present is not an error.
	Remove(ctx context.Context, side domain.Side, orderID uint64) error

	// Entries returns all entries on the given side in priority order,
	// best first.
	Entries(ctx context.Context, side domain.Side) ([]Entry, error)
}

// less reports whether a ranks strictly before b on the given side.
func less(side domain.Side, a, b Entry) bool {
	if a.Price != b.Price {
		if side == domain.SideBuy {
			return a.Price > b.Price
		}
		return a.Price < b.Price
	}
	return a.Seq < b.Seq
}
