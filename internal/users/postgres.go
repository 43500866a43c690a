package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/genome-variant-explorer/internal/domain"
)

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL user store.
// It expects the database and schema to already exist (created via migrations).
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Upsert inserts or updates a user keyed by ClerkUserID.
func (s *PostgresStore) Upsert(ctx context.Context, user *domain.User) error {
	if err := validateUser(user); err != nil {
		return err
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO users (clerk_user_id, email, first_name, last_name, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (clerk_user_id) DO UPDATE SET
			email = EXCLUDED.email,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			image_url = EXCLUDED.image_url,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		user.ClerkUserID,
		user.Email,
		user.FirstName,
		user.LastName,
		user.ImageURL,
		now,
		now,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	user.UpdatedAt = now
	return nil
}

// Delete removes a user by identity-provider id.
func (s *PostgresStore) Delete(ctx context.Context, clerkUserID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE clerk_user_id = $1", clerkUserID)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// GetByClerkID retrieves a user by identity-provider id.
func (s *PostgresStore) GetByClerkID(ctx context.Context, clerkUserID string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE clerk_user_id = $1 LIMIT 1", clerkUserID)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// List returns users with pagination.
func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var result []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		result = append(result, user)
	}
	return result, rows.Err()
}

// Count returns the total number of users.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// Close closes the store and releases resources.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
