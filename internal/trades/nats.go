package trades

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/nathanyu/matching-engine/internal/domain"
)

// TradeSubject is the NATS subject trade events are published on.
const TradeSubject = "engine.trades"

// NATSPublisher publishes trade events as JSON messages on a NATS subject.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher creates a publisher on an established NATS connection.
func NewNATSPublisher(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

// Publish sends the trade on TradeSubject.
func (p *NATSPublisher) Publish(_ context.Context, trade *domain.Trade) error {
	data, err := json.Marshal(trade)
	if err != nil {
		return fmt.Errorf("failed to encode trade: %w", err)
	}
	if err := p.conn.Publish(TradeSubject, data); err != nil {
		return fmt.Errorf("failed to publish trade: %w", err)
	}
	return nil
}
