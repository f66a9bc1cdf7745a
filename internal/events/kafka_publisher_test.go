package events

import (
	"context"
	"testing"
	"time"

	"github.com/SebbyH09/VFPInventory.github.io/internal/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// These tests cover the routing logic (event type names, topic selection,
// partition keys) without a live broker.

func newTestPublisher() *KafkaEventPublisher {
	return &KafkaEventPublisher{
		logger: zap.NewNop(),
		config: &config.Config{
			KafkaTopicItems: "inventory.items",
			KafkaTopicStock: "inventory.stock",
		},
	}
}

func TestKafkaEventPublisher_GetEventType_AllTypes(t *testing.T) {
	publisher := newTestPublisher()

	testCases := []struct {
		name     string
		event    interface{}
		expected string
	}{
		{"ItemCreated", ItemCreatedEvent{}, "ItemCreated"},
		{"ItemUpdated", ItemUpdatedEvent{}, "ItemUpdated"},
		{"ItemDeleted", ItemDeletedEvent{}, "ItemDeleted"},
		{"StockChanged", StockChangedEvent{}, "StockChanged"},
		{"ItemUsed", ItemUsedEvent{}, "ItemUsed"},
		{"OrderPlaced", OrderPlacedEvent{}, "OrderPlaced"},
		{"CycleCounted", CycleCountedEvent{}, "CycleCounted"},
		{"Unknown", "unknown", "Unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := publisher.getEventType(tc.event)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestKafkaEventPublisher_GetTopicForEvent_AllTypes(t *testing.T) {
	publisher := newTestPublisher()

	testCases := []struct {
		name        string
		event       interface{}
		expected    string
		expectError bool
	}{
		{"ItemCreated", ItemCreatedEvent{}, "inventory.items", false},
		{"ItemUpdated", ItemUpdatedEvent{}, "inventory.items", false},
		{"ItemDeleted", ItemDeletedEvent{}, "inventory.items", false},
		{"StockChanged", StockChangedEvent{}, "inventory.stock", false},
		{"ItemUsed", ItemUsedEvent{}, "inventory.stock", false},
		{"OrderPlaced", OrderPlacedEvent{}, "inventory.stock", false},
		{"CycleCounted", CycleCountedEvent{}, "inventory.stock", false},
		{"Unknown", "unknown", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			topic, err := publisher.getTopicForEvent(tc.event)
			if tc.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, topic)
			}
		})
	}
}

func TestKafkaEventPublisher_GetPartitionKey(t *testing.T) {
	publisher := newTestPublisher()

	itemID := uuid.New()
	event := StockChangedEvent{
		ItemID:     itemID,
		Name:       "Nitrile Gloves",
		ChangeType: "quantity_consumed",
	}

	partitionKey := publisher.getPartitionKey(event)
	assert.Equal(t, itemID.String(), partitionKey)
}

func TestInMemoryEventPublisher_Publish(t *testing.T) {
	publisher := NewInMemoryEventPublisher(zap.NewNop())

	event := ItemCreatedEvent{
		ItemID:     uuid.New(),
		Name:       "Nitrile Gloves",
		Quantity:   100,
		OccurredAt: time.Now(),
	}

	err := publisher.Publish(context.Background(), event)
	assert.NoError(t, err)
	assert.Len(t, publisher.Events(), 1)
}
