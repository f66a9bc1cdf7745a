package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SebbyH09/VFPInventory.github.io/internal/cache"
	"github.com/SebbyH09/VFPInventory.github.io/internal/domain"
	"github.com/SebbyH09/VFPInventory.github.io/internal/events"
	"github.com/SebbyH09/VFPInventory.github.io/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ItemChanges carries a partial update; nil fields are left untouched
type ItemChanges struct {
	Name                 *string          `json:"name"`
	Brand                *string          `json:"brand"`
	Vendor               *string          `json:"vendor"`
	CatalogNumber        *string          `json:"catalogNumber"`
	CurrentQuantity      *int             `json:"currentQuantity"`
	MinimumQuantity      *int             `json:"minimumQuantity"`
	MaximumQuantity      *int             `json:"maximumQuantity"`
	Location             *string          `json:"location"`
	ItemType             *domain.ItemType `json:"itemType"`
	Cost                 *float64         `json:"cost"`
	CycleCountInterval   *int             `json:"cycleCountInterval"`
	OrderFrequencyPeriod *int             `json:"orderFrequencyPeriod"`
	UseCycleCount        *bool            `json:"useCycleCount"`
}

// ItemUpdate pairs an item id with its partial changes
type ItemUpdate struct {
	ID      string      `json:"id"`
	Changes ItemChanges `json:"changes"`
}

// ConsumeRequest records usage of one item
type ConsumeRequest struct {
	ItemID           string `json:"itemId"`
	QuantityConsumed int    `json:"quantityConsumed"`
}

// ImportRow is one parsed spreadsheet row with its 1-based sheet position
type ImportRow struct {
	RowNumber int
	Item      *domain.InventoryItem
}

// BatchError is a per-item failure inside a fail-soft batch
type BatchError struct {
	ItemID string `json:"itemId,omitempty"`
	Row    int    `json:"row,omitempty"`
	Error  string `json:"error"`
}

// InventoryService applies mutation intents: every write updates the item
// store and appends exactly one ledger record per affected item. Ledger and
// event failures are logged, never rolled back.
type InventoryService struct {
	items     repository.ItemRepository
	history   repository.HistoryRepository
	publisher events.EventPublisher
	cache     cache.Cache
	logger    *zap.Logger
}

// NewInventoryService creates a new inventory service
func NewInventoryService(
	items repository.ItemRepository,
	history repository.HistoryRepository,
	publisher events.EventPublisher,
	cacheStore cache.Cache,
	logger *zap.Logger,
) *InventoryService {
	return &InventoryService{
		items:     items,
		history:   history,
		publisher: publisher,
		cache:     cacheStore,
		logger:    logger,
	}
}

// CreateItem inserts one item and records item_created
func (s *InventoryService) CreateItem(ctx context.Context, item *domain.InventoryItem, userID string) error {
	if err := item.Validate(); err != nil {
		return err
	}

	if err := s.items.Create(ctx, item); err != nil {
		return err
	}

	record := domain.NewHistoryRecord(item.ID, item.Name, domain.ChangeItemCreated).
		WithQuantities(0, item.CurrentQuantity).
		WithCost(item.Cost).
		WithUserID(userID)
	s.appendHistory(ctx, record)

	s.publish(ctx, events.ItemCreatedEvent{
		ItemID:     item.ID,
		Name:       item.Name,
		Quantity:   item.CurrentQuantity,
		OccurredAt: time.Now(),
	})
	s.invalidateCache(ctx)

	return nil
}

// CreateItems inserts a batch of items, fail-soft
func (s *InventoryService) CreateItems(ctx context.Context, items []*domain.InventoryItem, userID string) ([]*domain.InventoryItem, []BatchError) {
	saved := []*domain.InventoryItem{}
	batchErrors := []BatchError{}

	for _, item := range items {
		if err := s.CreateItem(ctx, item, userID); err != nil {
			batchErrors = append(batchErrors, BatchError{ItemID: item.ID.String(), Error: err.Error()})
			continue
		}
		saved = append(saved, item)
	}

	return saved, batchErrors
}

// UpdateItem applies a partial update. A quantity edit stamps lastUsedDate
// and records quantity_change; anything else records item_updated.
func (s *InventoryService) UpdateItem(ctx context.Context, id uuid.UUID, changes ItemChanges, userID string) (*domain.InventoryItem, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previousQuantity := item.CurrentQuantity
	applyChanges(item, changes)

	if err := item.Validate(); err != nil {
		return nil, err
	}

	quantityChanged := item.CurrentQuantity != previousQuantity
	if quantityChanged {
		now := time.Now()
		item.LastUsedDate = &now
	}

	if err := s.items.Update(ctx, item); err != nil {
		if errors.Is(err, repository.ErrOptimisticLockFailed) {
			return nil, domain.ErrVersionConflict
		}
		return nil, err
	}
	item.Version++

	var record *domain.HistoryRecord
	if quantityChanged {
		record = domain.NewHistoryRecord(item.ID, item.Name, domain.ChangeQuantityChange).
			WithQuantities(previousQuantity, item.CurrentQuantity).
			WithCost(item.Cost)
	} else {
		record = domain.NewHistoryRecord(item.ID, item.Name, domain.ChangeItemUpdated)
	}
	s.appendHistory(ctx, record.WithUserID(userID))

	if quantityChanged {
		s.publish(ctx, events.StockChangedEvent{
			ItemID:           item.ID,
			Name:             item.Name,
			ChangeType:       string(domain.ChangeQuantityChange),
			PreviousQuantity: previousQuantity,
			NewQuantity:      item.CurrentQuantity,
			QuantityChange:   item.CurrentQuantity - previousQuantity,
			OccurredAt:       time.Now(),
		})
	} else {
		s.publish(ctx, events.ItemUpdatedEvent{
			ItemID:     item.ID,
			Name:       item.Name,
			OccurredAt: time.Now(),
		})
	}
	s.invalidateCache(ctx)

	return item, nil
}

// UpdateItems applies a batch of partial updates, fail-soft
func (s *InventoryService) UpdateItems(ctx context.Context, updates []ItemUpdate, userID string) ([]*domain.InventoryItem, []BatchError) {
	updated := []*domain.InventoryItem{}
	batchErrors := []BatchError{}

	for _, update := range updates {
		id, err := uuid.Parse(update.ID)
		if err != nil {
			batchErrors = append(batchErrors, BatchError{ItemID: update.ID, Error: "invalid item id"})
			continue
		}

		item, err := s.UpdateItem(ctx, id, update.Changes, userID)
		if err != nil {
			batchErrors = append(batchErrors, BatchError{ItemID: update.ID, Error: err.Error()})
			continue
		}
		updated = append(updated, item)
	}

	return updated, batchErrors
}

// Consume reduces stock for a batch of items, fail-soft. The stored
// quantity clamps at zero but the ledger keeps the requested amount, so
// over-consumption stays visible in usage reports.
func (s *InventoryService) Consume(ctx context.Context, requests []ConsumeRequest, userID string) (int, []BatchError) {
	updatedCount := 0
	batchErrors := []BatchError{}

	for _, req := range requests {
		if err := s.consumeOne(ctx, req, userID); err != nil {
			batchErrors = append(batchErrors, BatchError{ItemID: req.ItemID, Error: err.Error()})
			continue
		}
		updatedCount++
	}

	return updatedCount, batchErrors
}

func (s *InventoryService) consumeOne(ctx context.Context, req ConsumeRequest, userID string) error {
	id, err := uuid.Parse(req.ItemID)
	if err != nil {
		return fmt.Errorf("invalid item id")
	}
	if req.QuantityConsumed <= 0 {
		return domain.ErrInvalidConsumeAmount
	}

	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return err
	}

	previousQuantity := item.CurrentQuantity
	now := time.Now()

	if err := s.items.ConsumeQuantity(ctx, id, req.QuantityConsumed, now, item.Version); err != nil {
		if errors.Is(err, repository.ErrOptimisticLockFailed) {
			return domain.ErrVersionConflict
		}
		return err
	}

	newQuantity := previousQuantity - req.QuantityConsumed
	if newQuantity < 0 {
		newQuantity = 0
	}

	// quantityChange is the requested amount, not the clamped delta
	requested := -req.QuantityConsumed
	record := domain.NewHistoryRecord(item.ID, item.Name, domain.ChangeQuantityConsumed).
		WithNotes(fmt.Sprintf("Consumed %d unit(s)", req.QuantityConsumed)).
		WithUserID(userID)
	record.PreviousQuantity = &previousQuantity
	record.NewQuantity = &newQuantity
	record.QuantityChange = &requested
	record.WithCost(item.Cost)
	s.appendHistory(ctx, record)

	s.publish(ctx, events.StockChangedEvent{
		ItemID:           item.ID,
		Name:             item.Name,
		ChangeType:       string(domain.ChangeQuantityConsumed),
		PreviousQuantity: previousQuantity,
		NewQuantity:      newQuantity,
		QuantityChange:   requested,
		OccurredAt:       now,
	})
	s.invalidateCache(ctx)

	return nil
}

// MarkUsed stamps the item's last used date and records item_used
func (s *InventoryService) MarkUsed(ctx context.Context, id uuid.UUID, date *time.Time, userID string) (*domain.InventoryItem, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	usedAt := time.Now()
	if date != nil {
		usedAt = *date
	}

	if err := s.items.MarkUsed(ctx, id, usedAt, item.Version); err != nil {
		if errors.Is(err, repository.ErrOptimisticLockFailed) {
			return nil, domain.ErrVersionConflict
		}
		return nil, err
	}
	item.Version++
	item.LastUsedDate = &usedAt

	record := domain.NewHistoryRecord(item.ID, item.Name, domain.ChangeItemUsed).
		WithChangeDate(usedAt).
		WithUserID(userID)
	s.appendHistory(ctx, record)

	s.publish(ctx, events.ItemUsedEvent{
		ItemID:     item.ID,
		Name:       item.Name,
		UsedAt:     usedAt,
		OccurredAt: time.Now(),
	})
	s.invalidateCache(ctx)

	return item, nil
}

// RecordOrder appends an order to the item's order history and records
// order_placed
func (s *InventoryService) RecordOrder(ctx context.Context, id uuid.UUID, date *time.Time, userID string) (*domain.InventoryItem, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	orderedAt := time.Now()
	if date != nil {
		orderedAt = *date
	}

	if err := s.items.RecordOrder(ctx, id, orderedAt, item.Version); err != nil {
		if errors.Is(err, repository.ErrOptimisticLockFailed) {
			return nil, domain.ErrVersionConflict
		}
		return nil, err
	}
	item.Version++
	item.OrderHistory = append(item.OrderHistory, orderedAt)

	record := domain.NewHistoryRecord(item.ID, item.Name, domain.ChangeOrderPlaced).
		WithChangeDate(orderedAt).
		WithUserID(userID)
	s.appendHistory(ctx, record)

	s.publish(ctx, events.OrderPlacedEvent{
		ItemID:     item.ID,
		Name:       item.Name,
		OrderedAt:  orderedAt,
		OccurredAt: time.Now(),
	})
	s.invalidateCache(ctx)

	return item, nil
}

// CycleCount stamps the last cycle count date; when newQuantity is supplied
// the recount also replaces currentQuantity and the ledger entry carries
// the before/after quantities.
func (s *InventoryService) CycleCount(ctx context.Context, id uuid.UUID, date *time.Time, newQuantity *int, userID string) (*domain.InventoryItem, error) {
	if newQuantity != nil && *newQuantity < 0 {
		return nil, domain.ErrNegativeQuantity
	}

	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	countedAt := time.Now()
	if date != nil {
		countedAt = *date
	}

	previousQuantity := item.CurrentQuantity

	if err := s.items.RecordCycleCount(ctx, id, countedAt, newQuantity, item.Version); err != nil {
		if errors.Is(err, repository.ErrOptimisticLockFailed) {
			return nil, domain.ErrVersionConflict
		}
		return nil, err
	}
	item.Version++
	item.LastCycleCount = &countedAt
	if newQuantity != nil {
		item.CurrentQuantity = *newQuantity
	}

	record := domain.NewHistoryRecord(item.ID, item.Name, domain.ChangeCycleCount).
		WithChangeDate(countedAt).
		WithUserID(userID)
	if newQuantity != nil {
		record.WithQuantities(previousQuantity, *newQuantity).WithCost(item.Cost)
	}
	s.appendHistory(ctx, record)

	s.publish(ctx, events.CycleCountedEvent{
		ItemID:     item.ID,
		Name:       item.Name,
		CountedAt:  countedAt,
		Recounted:  newQuantity != nil,
		OccurredAt: time.Now(),
	})
	s.invalidateCache(ctx)

	return item, nil
}

// DeleteItem removes the item. Its ledger records are retained, so the
// item_deleted entry keeps the denormalized name and final quantity.
func (s *InventoryService) DeleteItem(ctx context.Context, id uuid.UUID, userID string) (*domain.InventoryItem, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.items.Delete(ctx, id); err != nil {
		return nil, err
	}

	record := domain.NewHistoryRecord(item.ID, item.Name, domain.ChangeItemDeleted).
		WithUserID(userID)
	record.PreviousQuantity = &item.CurrentQuantity
	s.appendHistory(ctx, record)

	s.publish(ctx, events.ItemDeletedEvent{
		ItemID:     item.ID,
		Name:       item.Name,
		Quantity:   item.CurrentQuantity,
		OccurredAt: time.Now(),
	})
	s.invalidateCache(ctx)

	return item, nil
}

// ImportRows inserts spreadsheet rows as new items, fail-soft: valid rows
// insert, each invalid row yields its own error.
func (s *InventoryService) ImportRows(ctx context.Context, rows []ImportRow, userID string) (int, []BatchError) {
	imported := 0
	batchErrors := []BatchError{}

	for _, row := range rows {
		if row.Item == nil || row.Item.Name == "" {
			batchErrors = append(batchErrors, BatchError{
				Row:   row.RowNumber,
				Error: fmt.Sprintf("Row %d: item name is required", row.RowNumber),
			})
			continue
		}

		if err := s.CreateItem(ctx, row.Item, userID); err != nil {
			batchErrors = append(batchErrors, BatchError{
				Row:   row.RowNumber,
				Error: fmt.Sprintf("Row %d: %s", row.RowNumber, err.Error()),
			})
			continue
		}
		imported++
	}

	return imported, batchErrors
}

// appendHistory writes a ledger record. Failures are logged and swallowed:
// the item write has already happened and is not rolled back.
func (s *InventoryService) appendHistory(ctx context.Context, record *domain.HistoryRecord) {
	if err := s.history.Insert(ctx, record); err != nil {
		s.logger.Error("Failed to append history record",
			zap.String("item_id", record.ItemID.String()),
			zap.String("change_type", string(record.ChangeType)),
			zap.Error(err),
		)
	}
}

// publish sends a domain event. Failures are logged, not fatal.
func (s *InventoryService) publish(ctx context.Context, event interface{}) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event", zap.Error(err))
	}
}

// invalidateCache drops the cached read models after a mutation
func (s *InventoryService) invalidateCache(ctx context.Context) {
	for _, pattern := range []string{"items:*", "dashboard:*"} {
		if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
			s.logger.Warn("Failed to invalidate cache", zap.String("pattern", pattern), zap.Error(err))
		}
	}
}

func applyChanges(item *domain.InventoryItem, changes ItemChanges) {
	if changes.Name != nil {
		item.Name = *changes.Name
	}
	if changes.Brand != nil {
		item.Brand = *changes.Brand
	}
	if changes.Vendor != nil {
		item.Vendor = *changes.Vendor
	}
	if changes.CatalogNumber != nil {
		item.CatalogNumber = *changes.CatalogNumber
	}
	if changes.CurrentQuantity != nil {
		item.CurrentQuantity = *changes.CurrentQuantity
	}
	if changes.MinimumQuantity != nil {
		item.MinimumQuantity = *changes.MinimumQuantity
	}
	if changes.MaximumQuantity != nil {
		item.MaximumQuantity = *changes.MaximumQuantity
	}
	if changes.Location != nil {
		item.Location = *changes.Location
	}
	if changes.ItemType != nil {
		item.ItemType = *changes.ItemType
	}
	if changes.Cost != nil {
		item.Cost = *changes.Cost
	}
	if changes.CycleCountInterval != nil {
		item.CycleCountInterval = *changes.CycleCountInterval
	}
	if changes.OrderFrequencyPeriod != nil {
		item.OrderFrequencyPeriod = *changes.OrderFrequencyPeriod
	}
	if changes.UseCycleCount != nil {
		item.UseCycleCount = *changes.UseCycleCount
	}
}
