// Package events publishes price observations to a Redis stream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/jonesrussell/partprice/internal/logger"
	"github.com/jonesrussell/partprice/internal/reconcile"
)

// EventPriceObserved is the type of every event on the stream.
const EventPriceObserved = "part.price_observed"

// streamMaxLen caps the stream length (approximate trimming).
const streamMaxLen = 100_000

// PriceObserved is the stream payload for one reconciled part.
type PriceObserved struct {
	EventID       uuid.UUID        `json:"event_id"`
	EventType     string           `json:"event_type"`
	PartID        int64            `json:"part_id"`
	Name          string           `json:"name"`
	Brand         string           `json:"brand"`
	Category      string           `json:"category"`
	Retailer      string           `json:"retailer"`
	Price         decimal.Decimal  `json:"price"`
	PreviousPrice *decimal.Decimal `json:"previous_price,omitempty"`
	Created       bool             `json:"created"`
	ObservedAt    time.Time        `json:"observed_at"`
}

// Publisher writes events with XADD. A nil Publisher is a no-op.
type Publisher struct {
	client *redis.Client
	stream string
	log    logger.Logger
}

// NewPublisher returns nil when client is nil.
func NewPublisher(client *redis.Client, stream string, log logger.Logger) *Publisher {
	if client == nil {
		return nil
	}
	return &Publisher{client: client, stream: stream, log: log}
}

// Publish appends one event to the stream.
func (p *Publisher) Publish(ctx context.Context, event PriceObserved) error {
	if p == nil {
		return nil
	}
	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}
	event.EventType = EventPriceObserved

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]any{"event": string(payload)},
	}).Err()
	if err != nil {
		return fmt.Errorf("publish to stream %s: %w", p.stream, err)
	}
	return nil
}

// Notify publishes one event per observation. Failures are logged and do not
// stop the remaining events.
func (p *Publisher) Notify(ctx context.Context, observations []reconcile.Observation) {
	if p == nil {
		return
	}
	for _, o := range observations {
		event := PriceObserved{
			PartID:     o.PartID,
			Name:       o.Name,
			Brand:      o.Brand,
			Category:   o.Category,
			Retailer:   o.Retailer,
			Price:      o.Price,
			Created:    o.Created,
			ObservedAt: o.ObservedAt,
		}
		if !o.Created {
			prev := o.PreviousPrice
			event.PreviousPrice = &prev
		}
		if err := p.Publish(ctx, event); err != nil {
			p.log.Warn("Failed to publish price event",
				logger.Int64("part_id", o.PartID),
				logger.Error(err),
			)
		}
	}
}
