package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(ctx context.Context, event interface{}) error
}

// Item lifecycle events
type ItemCreatedEvent struct {
	ItemID     uuid.UUID `json:"itemId"`
	Name       string    `json:"name"`
	Quantity   int       `json:"quantity"`
	OccurredAt time.Time `json:"occurredAt"`
}

type ItemUpdatedEvent struct {
	ItemID     uuid.UUID `json:"itemId"`
	Name       string    `json:"name"`
	OccurredAt time.Time `json:"occurredAt"`
}

type ItemDeletedEvent struct {
	ItemID     uuid.UUID `json:"itemId"`
	Name       string    `json:"name"`
	Quantity   int       `json:"quantity"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Stock movement events
type StockChangedEvent struct {
	ItemID           uuid.UUID `json:"itemId"`
	Name             string    `json:"name"`
	ChangeType       string    `json:"changeType"`
	PreviousQuantity int       `json:"previousQuantity"`
	NewQuantity      int       `json:"newQuantity"`
	QuantityChange   int       `json:"quantityChange"`
	OccurredAt       time.Time `json:"occurredAt"`
}

type ItemUsedEvent struct {
	ItemID     uuid.UUID `json:"itemId"`
	Name       string    `json:"name"`
	UsedAt     time.Time `json:"usedAt"`
	OccurredAt time.Time `json:"occurredAt"`
}

type OrderPlacedEvent struct {
	ItemID     uuid.UUID `json:"itemId"`
	Name       string    `json:"name"`
	OrderedAt  time.Time `json:"orderedAt"`
	OccurredAt time.Time `json:"occurredAt"`
}

type CycleCountedEvent struct {
	ItemID     uuid.UUID `json:"itemId"`
	Name       string    `json:"name"`
	CountedAt  time.Time `json:"countedAt"`
	Recounted  bool      `json:"recounted"`
	OccurredAt time.Time `json:"occurredAt"`
}

// InMemoryEventPublisher collects events locally. Used when Kafka is
// disabled or unreachable.
type InMemoryEventPublisher struct {
	logger *zap.Logger
	events []interface{}
}

func NewInMemoryEventPublisher(logger *zap.Logger) *InMemoryEventPublisher {
	return &InMemoryEventPublisher{
		logger: logger,
		events: make([]interface{}, 0),
	}
}

func (p *InMemoryEventPublisher) Publish(ctx context.Context, event interface{}) error {
	p.events = append(p.events, event)
	p.logger.Debug("Event published (in-memory)", zap.Any("event", event))
	return nil
}

// Events returns the collected events
func (p *InMemoryEventPublisher) Events() []interface{} {
	return p.events
}
