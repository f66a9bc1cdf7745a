package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SebbyH09/VFPInventory.github.io/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserRepository defines the persistence interface for accounts
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// SQLiteUserRepository is the SQLite-backed account store
type SQLiteUserRepository struct {
	db     *SingleWriterDB
	logger *zap.Logger
}

// NewSQLiteUserRepository creates a new user repository
func NewSQLiteUserRepository(db *SingleWriterDB, logger *zap.Logger) *SQLiteUserRepository {
	return &SQLiteUserRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new account. A duplicate email maps to ErrDuplicateEmail.
func (r *SQLiteUserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, name, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(ctx, query,
		user.ID.String(), user.Email, user.Name, user.PasswordHash,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByEmail retrieves an account by email
func (r *SQLiteUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT id, email, name, password_hash, created_at FROM users WHERE email = ?`

	var user domain.User
	var idStr, createdAtStr string

	err := r.db.QueryRow(ctx, query, email).Scan(
		&idStr, &user.Email, &user.Name, &user.PasswordHash, &createdAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse user id: %w", err)
	}
	user.CreatedAt, _ = time.Parse(time.RFC3339, createdAtStr)

	return &user, nil
}
