package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SebbyH09/VFPInventory.github.io/internal/config"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var (
	ErrItemNotFound         = errors.New("item not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrOptimisticLockFailed = errors.New("optimistic lock failed - version mismatch or constraint violation")
)

// SingleWriterDB implements Single Writer Principle for SQLite
// Only one writer can access the database at a time
type SingleWriterDB struct {
	db     *sql.DB
	logger *zap.Logger
	mu     sync.Mutex // Mutex to ensure single writer
}

// NewSingleWriterDB creates a new database connection with single writer principle
func NewSingleWriterDB(cfg *config.Config, logger *zap.Logger) (*SingleWriterDB, error) {
	db, err := sql.Open("sqlite3", cfg.SQLitePath+"?_journal_mode=WAL&_foreign_keys=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // Single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	swdb := &SingleWriterDB{
		db:     db,
		logger: logger,
	}

	// Initialize schema
	if err := swdb.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return swdb, nil
}

// initSchema creates the database schema
func (swdb *SingleWriterDB) initSchema() error {
	schema := `
	-- Inventory items table: the item store
	CREATE TABLE IF NOT EXISTS inventory_items (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		brand TEXT NOT NULL DEFAULT '',
		vendor TEXT NOT NULL DEFAULT '',
		catalog_number TEXT NOT NULL DEFAULT '',
		current_quantity INTEGER NOT NULL DEFAULT 0,
		minimum_quantity INTEGER NOT NULL DEFAULT 0,
		maximum_quantity INTEGER NOT NULL DEFAULT 0,
		location TEXT NOT NULL DEFAULT '',
		item_type TEXT NOT NULL DEFAULT 'Other',
		cost REAL NOT NULL DEFAULT 0,
		cycle_count_interval INTEGER NOT NULL DEFAULT 90,
		order_frequency_period INTEGER NOT NULL DEFAULT 30,
		use_cycle_count INTEGER NOT NULL DEFAULT 0,
		last_used_date TEXT,
		last_cycle_count TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK(current_quantity >= 0),
		CHECK(minimum_quantity >= 0),
		CHECK(maximum_quantity >= 0),
		CHECK(cost >= 0),
		CHECK(use_cycle_count IN (0, 1)),
		CHECK(item_type IN ('Reagent', 'Equipment', 'Consumable', 'Tool', 'Chemical', 'Other'))
	);

	-- Order history table: append-only order timestamps per item
	CREATE TABLE IF NOT EXISTS item_orders (
		id TEXT PRIMARY KEY,
		item_id TEXT NOT NULL,
		ordered_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		FOREIGN KEY (item_id) REFERENCES inventory_items(id) ON DELETE CASCADE
	);

	-- History ledger: append-only audit log of every inventory change.
	-- Deliberately no foreign key: records must survive item deletion.
	CREATE TABLE IF NOT EXISTS inventory_history (
		id TEXT PRIMARY KEY,
		item_id TEXT NOT NULL,
		item_name TEXT NOT NULL,
		change_type TEXT NOT NULL,
		previous_quantity INTEGER,
		new_quantity INTEGER,
		quantity_change INTEGER,
		cost_per_unit REAL,
		total_cost REAL,
		change_date TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		user_id TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		CHECK(change_type IN ('item_created', 'item_updated', 'quantity_change', 'quantity_consumed', 'item_used', 'order_placed', 'cycle_count', 'item_deleted'))
	);

	-- Users table: registered accounts
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Indexes for performance
	CREATE INDEX IF NOT EXISTS idx_inventory_items_name ON inventory_items(name);
	CREATE INDEX IF NOT EXISTS idx_item_orders_item_id ON item_orders(item_id);
	CREATE INDEX IF NOT EXISTS idx_inventory_history_item_id ON inventory_history(item_id);
	CREATE INDEX IF NOT EXISTS idx_inventory_history_change_date ON inventory_history(change_date);
	CREATE INDEX IF NOT EXISTS idx_inventory_history_change_type ON inventory_history(change_type);
	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
	`

	_, err := swdb.db.Exec(schema)
	return err
}

// Exec runs a write statement under the single-writer lock
func (swdb *SingleWriterDB) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	swdb.mu.Lock()
	defer swdb.mu.Unlock()
	return swdb.db.ExecContext(ctx, query, args...)
}

// Query executes a read query (no lock needed)
func (swdb *SingleWriterDB) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return swdb.db.QueryContext(ctx, query, args...)
}

// QueryRow executes a query that returns a single row (no lock needed)
func (swdb *SingleWriterDB) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return swdb.db.QueryRowContext(ctx, query, args...)
}

// Ping checks the database connection
func (swdb *SingleWriterDB) Ping() error {
	return swdb.db.Ping()
}

// Close closes the database connection
func (swdb *SingleWriterDB) Close() error {
	return swdb.db.Close()
}
