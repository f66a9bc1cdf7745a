package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/SebbyH09/VFPInventory.github.io/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxHistoryResults caps every ledger query
const maxHistoryResults = 1000

// HistoryFilter narrows a ledger query. StartDate is inclusive and
// EndDate is exclusive; nil fields are ignored.
type HistoryFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	ItemID     *uuid.UUID
	ChangeType *domain.ChangeType
	SortBy     string
	SortOrder  string
}

// HistoryRepository defines the persistence interface for the change ledger
type HistoryRepository interface {
	Insert(ctx context.Context, record *domain.HistoryRecord) error
	Query(ctx context.Context, filter HistoryFilter) ([]*domain.HistoryRecord, error)
	Summarize(ctx context.Context, start, end time.Time) ([]domain.ItemSummary, error)
}

// SQLiteHistoryRepository is the SQLite-backed append-only ledger.
// Records are never updated or deleted, even when the referenced item is.
type SQLiteHistoryRepository struct {
	db     *SingleWriterDB
	logger *zap.Logger
}

// NewSQLiteHistoryRepository creates a new history repository
func NewSQLiteHistoryRepository(db *SingleWriterDB, logger *zap.Logger) *SQLiteHistoryRepository {
	return &SQLiteHistoryRepository{
		db:     db,
		logger: logger,
	}
}

// sortColumns whitelists the exposed sort keys against the schema
var sortColumns = map[string]string{
	"changeDate":     "change_date",
	"itemName":       "item_name",
	"changeType":     "change_type",
	"quantityChange": "quantity_change",
	"newQuantity":    "new_quantity",
	"createdAt":      "created_at",
}

// deltaChangeTypes are the change types whose quantityChange represents a
// real stock delta; only these feed the usage summary
const deltaChangeTypes = `('quantity_change', 'quantity_consumed')`

// Insert appends a record to the ledger
func (r *SQLiteHistoryRepository) Insert(ctx context.Context, record *domain.HistoryRecord) error {
	if !domain.IsValidChangeType(record.ChangeType) {
		return domain.ErrInvalidChangeType
	}

	query := `
		INSERT INTO inventory_history
			(id, item_id, item_name, change_type, previous_quantity, new_quantity,
			 quantity_change, cost_per_unit, total_cost, change_date, notes, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(ctx, query,
		record.ID.String(), record.ItemID.String(), record.ItemName, string(record.ChangeType),
		nullableInt(record.PreviousQuantity), nullableInt(record.NewQuantity), nullableInt(record.QuantityChange),
		nullableFloat(record.CostPerUnit), nullableFloat(record.TotalCost),
		record.ChangeDate.UTC().Format(time.RFC3339),
		record.Notes, record.UserID,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}

	return nil
}

// Query retrieves ledger records matching the filter, capped at 1000
func (r *SQLiteHistoryRepository) Query(ctx context.Context, filter HistoryFilter) ([]*domain.HistoryRecord, error) {
	query := `
		SELECT id, item_id, item_name, change_type, previous_quantity, new_quantity,
		       quantity_change, cost_per_unit, total_cost, change_date, notes, user_id, created_at
		FROM inventory_history
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.StartDate != nil {
		query += ` AND change_date >= ?`
		args = append(args, filter.StartDate.UTC().Format(time.RFC3339))
	}
	if filter.EndDate != nil {
		query += ` AND change_date < ?`
		args = append(args, filter.EndDate.UTC().Format(time.RFC3339))
	}
	if filter.ItemID != nil {
		query += ` AND item_id = ?`
		args = append(args, filter.ItemID.String())
	}
	if filter.ChangeType != nil {
		query += ` AND change_type = ?`
		args = append(args, string(*filter.ChangeType))
	}

	sortColumn, ok := sortColumns[filter.SortBy]
	if !ok {
		sortColumn = "change_date"
	}
	direction := "DESC"
	if filter.SortOrder == "asc" {
		direction = "ASC"
	}
	query += fmt.Sprintf(` ORDER BY %s %s LIMIT %d`, sortColumn, direction, maxHistoryResults)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	records := []*domain.HistoryRecord{}
	for rows.Next() {
		record, err := scanHistoryRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}

	return records, nil
}

// Summarize aggregates signed quantity deltas per item over [start, end).
// Only delta-bearing change types participate; results sort by usage.
func (r *SQLiteHistoryRepository) Summarize(ctx context.Context, start, end time.Time) ([]domain.ItemSummary, error) {
	query := `
		SELECT item_id, item_name,
		       SUM(CASE WHEN quantity_change < 0 THEN -quantity_change ELSE 0 END) AS total_used,
		       SUM(CASE WHEN quantity_change > 0 THEN quantity_change ELSE 0 END) AS total_added,
		       SUM(quantity_change) AS net_change,
		       COUNT(*) AS change_count,
		       SUM(CASE WHEN quantity_change < 0 THEN COALESCE(total_cost, 0) ELSE 0 END) AS total_cost_used
		FROM inventory_history
		WHERE change_type IN ` + deltaChangeTypes + `
		  AND quantity_change IS NOT NULL
		  AND change_date >= ? AND change_date < ?
		GROUP BY item_id, item_name
		ORDER BY total_used DESC
	`

	rows, err := r.db.Query(ctx, query,
		start.UTC().Format(time.RFC3339),
		end.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize history: %w", err)
	}
	defer rows.Close()

	summaries := []domain.ItemSummary{}
	for rows.Next() {
		var summary domain.ItemSummary
		var itemIDStr string
		if err := rows.Scan(&itemIDStr, &summary.ItemName,
			&summary.TotalUsed, &summary.TotalAdded, &summary.NetChange, &summary.ChangeCount,
			&summary.TotalCostUsed); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		summary.ItemID, err = uuid.Parse(itemIDStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse item id: %w", err)
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

func scanHistoryRecord(s scanner) (*domain.HistoryRecord, error) {
	var record domain.HistoryRecord
	var idStr, itemIDStr, changeTypeStr, changeDateStr, createdAtStr string
	var prevQty, newQty, qtyChange sql.NullInt64
	var costPerUnit, totalCost sql.NullFloat64

	err := s.Scan(
		&idStr, &itemIDStr, &record.ItemName, &changeTypeStr,
		&prevQty, &newQty, &qtyChange,
		&costPerUnit, &totalCost,
		&changeDateStr, &record.Notes, &record.UserID, &createdAtStr,
	)
	if err != nil {
		return nil, err
	}

	record.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse record id: %w", err)
	}
	record.ItemID, err = uuid.Parse(itemIDStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse item id: %w", err)
	}
	record.ChangeType = domain.ChangeType(changeTypeStr)
	record.ChangeDate, _ = time.Parse(time.RFC3339, changeDateStr)
	record.CreatedAt, _ = time.Parse(time.RFC3339, createdAtStr)

	if prevQty.Valid {
		v := int(prevQty.Int64)
		record.PreviousQuantity = &v
	}
	if newQty.Valid {
		v := int(newQty.Int64)
		record.NewQuantity = &v
	}
	if qtyChange.Valid {
		v := int(qtyChange.Int64)
		record.QuantityChange = &v
	}
	if costPerUnit.Valid {
		v := costPerUnit.Float64
		record.CostPerUnit = &v
	}
	if totalCost.Valid {
		v := totalCost.Float64
		record.TotalCost = &v
	}

	return &record, nil
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
