// Package book holds the matching core: order intake, the pairing loop and
// the read-only book query, all operating on the shared order store and
// priority index.
package book

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nathanyu/matching-engine/internal/domain"
	"github.com/nathanyu/matching-engine/internal/middleware"
	"github.com/nathanyu/matching-engine/internal/sequencer"
	"github.com/nathanyu/matching-engine/internal/store"
	"github.com/nathanyu/matching-engine/internal/trades"
)

// Engine is the single mutual-exclusion domain for book mutation. The whole
// {insert into index, run matching loop, persist} sequence of one
// submission runs under one mutex, so any interleaving of concurrent
// submissions is equivalent to some sequential order. Snapshot deliberately
// does not take the mutex; it is a weakly consistent read.
type Engine struct {
	mu sync.Mutex

	store  store.OrderStore
	index  store.BookIndex
	seq    *sequencer.Sequencer
	trades trades.Publisher
	logger *slog.Logger
}

// New creates an engine on the given collaborators.
func New(st store.OrderStore, idx store.BookIndex, seq *sequencer.Sequencer, pub trades.Publisher, logger *slog.Logger) *Engine {
	return &Engine{
		store:  st,
		index:  idx,
		seq:    seq,
		trades: pub,
		logger: logger,
	}
}

// Submit validates and accepts a new limit order, runs the matching loop,
// and returns the possibly already partially filled order. Validation
// failures return domain.ErrInvalidOrder before anything is mutated.
func (e *Engine) Submit(ctx context.Context, userID string, side domain.Side, price, amount int64) (*domain.Order, error) {
	if !side.Valid() {
		return nil, fmt.Errorf("%w: side must be %q or %q", domain.ErrInvalidOrder, domain.SideBuy, domain.SideSell)
	}
	if price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", domain.ErrInvalidOrder)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidOrder)
	}

	order := &domain.Order{
		ID:        e.seq.NextOrderID(),
		UserID:    userID,
		Side:      side,
		Price:     price,
		Amount:    amount,
		Remaining: amount,
		Status:    domain.OrderStatusOpen,
		CreatedAt: time.Now(),
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	order.Seq = e.seq.NextArrival()

	if err := e.store.Put(ctx, order); err != nil {
		middleware.OrdersTotal.WithLabelValues(string(side), "error").Inc()
		return nil, err
	}
	entry := store.Entry{OrderID: order.ID, Price: order.Price, Seq: order.Seq}
	if err := e.index.Insert(ctx, side, entry); err != nil {
		// The record stays in the store for audit but never entered the
		// book, so matching invariants are unaffected.
		middleware.OrdersTotal.WithLabelValues(string(side), "error").Inc()
		return nil, err
	}

	if err := e.match(ctx); err != nil {
		middleware.OrdersTotal.WithLabelValues(string(side), "error").Inc()
		return nil, err
	}

	result, err := e.store.Get(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	middleware.OrdersTotal.WithLabelValues(string(side), "accepted").Inc()
	e.updateDepthGauges(ctx)
	return result, nil
}

// RunMatching drains crossable pairs until none remain. Submit already
// runs it; calling it again with no new orders is a no-op.
func (e *Engine) RunMatching(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.match(ctx)
}

// match is the pairing loop. Caller holds e.mu.
//
// The tops are re-read from the index on every iteration and order state is
// re-read from the store, so the store stays the single source of truth and
// the loop is bounded: every pairing strictly reduces total remaining
// quantity.
func (e *Engine) match(ctx context.Context) error {
	for {
		bestBuy, okBuy, err := e.index.PeekBest(ctx, domain.SideBuy)
		if err != nil {
			return err
		}
		bestSell, okSell, err := e.index.PeekBest(ctx, domain.SideSell)
		if err != nil {
			return err
		}
		if !okBuy || !okSell || bestBuy.Price < bestSell.Price {
			return nil
		}

		buy, err := e.store.Get(ctx, bestBuy.OrderID)
		if err != nil {
			return err
		}
		sell, err := e.store.Get(ctx, bestSell.OrderID)
		if err != nil {
			return err
		}

		qty := min(buy.Remaining, sell.Remaining)
		// Reference pricing rule: the trade always executes at the resting
		// sell order's limit price, even when the sell is the taker.
		tradePrice := sell.Price

		stagedBuy := buy.Clone()
		stagedSell := sell.Clone()
		stagedBuy.Remaining -= qty
		stagedSell.Remaining -= qty
		if stagedBuy.Remaining == 0 {
			stagedBuy.Status = domain.OrderStatusMatched
		}
		if stagedSell.Remaining == 0 {
			stagedSell.Status = domain.OrderStatusMatched
		}

		// Persist both sides together before touching the index. A failure
		// here means the pairing did not happen: the index and both stored
		// orders are unchanged.
		if err := e.store.PutAll(ctx, stagedBuy, stagedSell); err != nil {
			return err
		}

		if stagedBuy.Remaining == 0 {
			if err := e.index.Remove(ctx, domain.SideBuy, stagedBuy.ID); err != nil {
				e.rollbackPairing(ctx, buy, sell, nil)
				return err
			}
		}
		if stagedSell.Remaining == 0 {
			if err := e.index.Remove(ctx, domain.SideSell, stagedSell.ID); err != nil {
				var reinsert *store.Entry
				if stagedBuy.Remaining == 0 {
					reinsert = &store.Entry{OrderID: buy.ID, Price: buy.Price, Seq: buy.Seq}
				}
				e.rollbackPairing(ctx, buy, sell, reinsert)
				return err
			}
		}

		trade := &domain.Trade{
			ID:          uuid.New().String(),
			BuyOrderID:  buy.ID,
			SellOrderID: sell.ID,
			Quantity:    qty,
			Price:       tradePrice,
			Timestamp:   time.Now(),
		}
		if err := e.trades.Publish(ctx, trade); err != nil {
			// Collaborator failure; the pairing itself is committed.
			e.logger.Warn("trade publish failed", "trade_id", trade.ID, "error", err)
		}

		middleware.TradesTotal.Inc()
		middleware.TradeVolume.Add(float64(qty))
		e.logger.Info("matched",
			"buy_order_id", buy.ID,
			"sell_order_id", sell.ID,
			"quantity", qty,
			"price", tradePrice,
		)
	}
}

// rollbackPairing restores both orders' prior state after an index update
// failed mid-pairing, re-inserting an already removed entry if needed. Best
// effort: a store that fails the rollback too is logged and left to the
// operator.
func (e *Engine) rollbackPairing(ctx context.Context, buy, sell *domain.Order, reinsert *store.Entry) {
	if err := e.store.PutAll(ctx, buy, sell); err != nil {
		e.logger.Error("pairing rollback failed", "buy_order_id", buy.ID, "sell_order_id", sell.ID, "error", err)
		return
	}
	if reinsert != nil {
		side := domain.SideBuy
		if reinsert.OrderID == sell.ID {
			side = domain.SideSell
		}
		if err := e.index.Insert(ctx, side, *reinsert); err != nil {
			e.logger.Error("pairing rollback reinsert failed", "order_id", reinsert.OrderID, "error", err)
		}
	}
}

// Snapshot assembles a read-only view of both sides in priority order, best
// first, including partially filled orders. It does not mutate the store or
// the index and may race benignly with concurrent matching.
func (e *Engine) Snapshot(ctx context.Context) (*domain.BookSnapshot, error) {
	buys, err := e.sideOrders(ctx, domain.SideBuy)
	if err != nil {
		return nil, err
	}
	sells, err := e.sideOrders(ctx, domain.SideSell)
	if err != nil {
		return nil, err
	}
	return &domain.BookSnapshot{BuyOrders: buys, SellOrders: sells}, nil
}

func (e *Engine) sideOrders(ctx context.Context, side domain.Side) ([]*domain.Order, error) {
	entries, err := e.index.Entries(ctx, side)
	if err != nil {
		return nil, err
	}

	orders := make([]*domain.Order, 0, len(entries))
	for _, entry := range entries {
		order, err := e.store.Get(ctx, entry.OrderID)
		if err != nil {
			// A record can vanish mid-snapshot under concurrent matching;
			// the snapshot is best effort.
			e.logger.Warn("snapshot skipped order", "order_id", entry.OrderID, "error", err)
			continue
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (e *Engine) updateDepthGauges(ctx context.Context) {
	for _, side := range []domain.Side{domain.SideBuy, domain.SideSell} {
		entries, err := e.index.Entries(ctx, side)
		if err != nil {
			continue
		}
		middleware.BookDepth.WithLabelValues(string(side)).Set(float64(len(entries)))
	}
}
