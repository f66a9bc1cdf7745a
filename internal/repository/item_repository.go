package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SebbyH09/VFPInventory.github.io/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ItemSort selects the ordering of item listings
type ItemSort string

const (
	ItemSortCreatedDesc ItemSort = "created_desc"
	ItemSortNameAsc     ItemSort = "name_asc"
)

// ItemRepository defines the persistence interface for inventory items
type ItemRepository interface {
	Create(ctx context.Context, item *domain.InventoryItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error)
	List(ctx context.Context, sort ItemSort) ([]*domain.InventoryItem, error)
	ListRefs(ctx context.Context) ([]domain.ItemRef, error)
	Update(ctx context.Context, item *domain.InventoryItem) error
	ConsumeQuantity(ctx context.Context, id uuid.UUID, amount int, usedAt time.Time, expectedVersion int) error
	MarkUsed(ctx context.Context, id uuid.UUID, usedAt time.Time, expectedVersion int) error
	RecordOrder(ctx context.Context, id uuid.UUID, orderedAt time.Time, expectedVersion int) error
	RecordCycleCount(ctx context.Context, id uuid.UUID, countedAt time.Time, newQuantity *int, expectedVersion int) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SQLiteItemRepository is the SQLite-backed item store
type SQLiteItemRepository struct {
	db     *SingleWriterDB
	logger *zap.Logger
}

// NewSQLiteItemRepository creates a new item repository
func NewSQLiteItemRepository(db *SingleWriterDB, logger *zap.Logger) *SQLiteItemRepository {
	return &SQLiteItemRepository{
		db:     db,
		logger: logger,
	}
}

const itemColumns = `id, name, brand, vendor, catalog_number, current_quantity, minimum_quantity,
	maximum_quantity, location, item_type, cost, cycle_count_interval, order_frequency_period,
	use_cycle_count, last_used_date, last_cycle_count, version, created_at, updated_at`

// Create inserts a new inventory item
func (r *SQLiteItemRepository) Create(ctx context.Context, item *domain.InventoryItem) error {
	query := `
		INSERT INTO inventory_items (` + itemColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
	`

	now := time.Now().UTC()
	useCycleCount := 0
	if item.UseCycleCount {
		useCycleCount = 1
	}

	_, err := r.db.Exec(ctx, query,
		item.ID.String(), item.Name, item.Brand, item.Vendor, item.CatalogNumber,
		item.CurrentQuantity, item.MinimumQuantity, item.MaximumQuantity,
		item.Location, string(item.ItemType), item.Cost,
		item.CycleCountInterval, item.OrderFrequencyPeriod, useCycleCount,
		nullableTime(item.LastUsedDate), nullableTime(item.LastCycleCount),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	return nil
}

// GetByID retrieves an item by ID, including its order history
func (r *SQLiteItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE id = ?`

	item, err := scanItem(r.db.QueryRow(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	orders, err := r.loadOrders(ctx, id)
	if err != nil {
		return nil, err
	}
	item.OrderHistory = orders

	return item, nil
}

// List retrieves all items with their order histories
func (r *SQLiteItemRepository) List(ctx context.Context, sort ItemSort) ([]*domain.InventoryItem, error) {
	orderBy := "created_at DESC"
	if sort == ItemSortNameAsc {
		orderBy = "name COLLATE NOCASE ASC"
	}

	query := `SELECT ` + itemColumns + ` FROM inventory_items ORDER BY ` + orderBy

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*domain.InventoryItem
	byID := make(map[uuid.UUID]*domain.InventoryItem)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
		byID[item.ID] = item
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	// Attach order histories in a single pass
	orderRows, err := r.db.Query(ctx, `SELECT item_id, ordered_at FROM item_orders ORDER BY ordered_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to load order history: %w", err)
	}
	defer orderRows.Close()

	for orderRows.Next() {
		var itemIDStr, orderedAtStr string
		if err := orderRows.Scan(&itemIDStr, &orderedAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		itemID, err := uuid.Parse(itemIDStr)
		if err != nil {
			continue
		}
		if item, ok := byID[itemID]; ok {
			orderedAt, _ := time.Parse(time.RFC3339, orderedAtStr)
			item.OrderHistory = append(item.OrderHistory, orderedAt)
		}
	}

	return items, nil
}

// ListRefs retrieves id/name pairs for all items, name ascending
func (r *SQLiteItemRepository) ListRefs(ctx context.Context) ([]domain.ItemRef, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM inventory_items ORDER BY name COLLATE NOCASE ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list item refs: %w", err)
	}
	defer rows.Close()

	var refs []domain.ItemRef
	for rows.Next() {
		var idStr string
		var ref domain.ItemRef
		if err := rows.Scan(&idStr, &ref.Name); err != nil {
			return nil, fmt.Errorf("failed to scan item ref: %w", err)
		}
		ref.ID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse item id: %w", err)
		}
		refs = append(refs, ref)
	}

	return refs, nil
}

// Update writes the item's fields with optimistic locking
func (r *SQLiteItemRepository) Update(ctx context.Context, item *domain.InventoryItem) error {
	query := `
		UPDATE inventory_items
		SET name = ?, brand = ?, vendor = ?, catalog_number = ?,
		    current_quantity = ?, minimum_quantity = ?, maximum_quantity = ?,
		    location = ?, item_type = ?, cost = ?,
		    cycle_count_interval = ?, order_frequency_period = ?, use_cycle_count = ?,
		    last_used_date = ?, last_cycle_count = ?,
		    version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`

	useCycleCount := 0
	if item.UseCycleCount {
		useCycleCount = 1
	}

	result, err := r.db.Exec(ctx, query,
		item.Name, item.Brand, item.Vendor, item.CatalogNumber,
		item.CurrentQuantity, item.MinimumQuantity, item.MaximumQuantity,
		item.Location, string(item.ItemType), item.Cost,
		item.CycleCountInterval, item.OrderFrequencyPeriod, useCycleCount,
		nullableTime(item.LastUsedDate), nullableTime(item.LastCycleCount),
		time.Now().UTC().Format(time.RFC3339),
		item.ID.String(), item.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	return checkAffected(result)
}

// ConsumeQuantity decrements stock with an SQL-side clamp at zero and
// stamps last_used_date, with optimistic locking
func (r *SQLiteItemRepository) ConsumeQuantity(ctx context.Context, id uuid.UUID, amount int, usedAt time.Time, expectedVersion int) error {
	query := `
		UPDATE inventory_items
		SET current_quantity = MAX(0, current_quantity - ?),
		    last_used_date = ?,
		    version = version + 1,
		    updated_at = ?
		WHERE id = ? AND version = ?
	`

	result, err := r.db.Exec(ctx, query,
		amount,
		usedAt.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
		id.String(), expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to consume quantity: %w", err)
	}

	return checkAffected(result)
}

// MarkUsed stamps last_used_date with optimistic locking
func (r *SQLiteItemRepository) MarkUsed(ctx context.Context, id uuid.UUID, usedAt time.Time, expectedVersion int) error {
	query := `
		UPDATE inventory_items
		SET last_used_date = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`

	result, err := r.db.Exec(ctx, query,
		usedAt.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
		id.String(), expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to mark item used: %w", err)
	}

	return checkAffected(result)
}

// RecordOrder appends an order timestamp to the item's order history
func (r *SQLiteItemRepository) RecordOrder(ctx context.Context, id uuid.UUID, orderedAt time.Time, expectedVersion int) error {
	// Bump the item version first so concurrent mutations are detected
	query := `
		UPDATE inventory_items
		SET version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`

	result, err := r.db.Exec(ctx, query,
		time.Now().UTC().Format(time.RFC3339),
		id.String(), expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to record order: %w", err)
	}
	if err := checkAffected(result); err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = r.db.Exec(ctx,
		`INSERT INTO item_orders (id, item_id, ordered_at, created_at) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), id.String(),
		orderedAt.UTC().Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert order record: %w", err)
	}

	return nil
}

// RecordCycleCount stamps last_cycle_count and optionally sets the
// recounted quantity, with optimistic locking
func (r *SQLiteItemRepository) RecordCycleCount(ctx context.Context, id uuid.UUID, countedAt time.Time, newQuantity *int, expectedVersion int) error {
	var (
		result sql.Result
		err    error
	)

	if newQuantity != nil {
		query := `
			UPDATE inventory_items
			SET last_cycle_count = ?, current_quantity = ?, version = version + 1, updated_at = ?
			WHERE id = ? AND version = ? AND ? >= 0
		`
		result, err = r.db.Exec(ctx, query,
			countedAt.UTC().Format(time.RFC3339), *newQuantity,
			time.Now().UTC().Format(time.RFC3339),
			id.String(), expectedVersion, *newQuantity,
		)
	} else {
		query := `
			UPDATE inventory_items
			SET last_cycle_count = ?, version = version + 1, updated_at = ?
			WHERE id = ? AND version = ?
		`
		result, err = r.db.Exec(ctx, query,
			countedAt.UTC().Format(time.RFC3339),
			time.Now().UTC().Format(time.RFC3339),
			id.String(), expectedVersion,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to record cycle count: %w", err)
	}

	return checkAffected(result)
}

// Delete removes an item. History ledger entries are not touched.
func (r *SQLiteItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM inventory_items WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrItemNotFound
	}

	return nil
}

func (r *SQLiteItemRepository) loadOrders(ctx context.Context, id uuid.UUID) ([]time.Time, error) {
	rows, err := r.db.Query(ctx,
		`SELECT ordered_at FROM item_orders WHERE item_id = ? ORDER BY ordered_at ASC`,
		id.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load order history: %w", err)
	}
	defer rows.Close()

	orders := []time.Time{}
	for rows.Next() {
		var orderedAtStr string
		if err := rows.Scan(&orderedAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orderedAt, _ := time.Parse(time.RFC3339, orderedAtStr)
		orders = append(orders, orderedAt)
	}

	return orders, nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scanning
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(s scanner) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	var idStr, itemTypeStr, createdAtStr, updatedAtStr string
	var lastUsedStr, lastCycleStr sql.NullString
	var useCycleCount int

	err := s.Scan(
		&idStr, &item.Name, &item.Brand, &item.Vendor, &item.CatalogNumber,
		&item.CurrentQuantity, &item.MinimumQuantity, &item.MaximumQuantity,
		&item.Location, &itemTypeStr, &item.Cost,
		&item.CycleCountInterval, &item.OrderFrequencyPeriod, &useCycleCount,
		&lastUsedStr, &lastCycleStr, &item.Version,
		&createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return nil, err
	}

	item.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse item id: %w", err)
	}
	item.ItemType = domain.ItemType(itemTypeStr)
	item.UseCycleCount = useCycleCount == 1
	item.OrderHistory = []time.Time{}
	item.CreatedAt, _ = time.Parse(time.RFC3339, createdAtStr)
	item.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAtStr)

	if lastUsedStr.Valid {
		lastUsed, _ := time.Parse(time.RFC3339, lastUsedStr.String)
		item.LastUsedDate = &lastUsed
	}
	if lastCycleStr.Valid {
		lastCycle, _ := time.Parse(time.RFC3339, lastCycleStr.String)
		item.LastCycleCount = &lastCycle
	}

	return &item, nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func checkAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrOptimisticLockFailed
	}
	return nil
}
