// Package users mirrors identity-provider accounts into the local users table.
package users

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/genome-variant-explorer/internal/domain"
)

// Store defines the interface for user storage operations.
type Store interface {
	// Upsert inserts the user or updates the row with the same ClerkUserID.
	// ID, CreatedAt and UpdatedAt are filled in on return.
	Upsert(ctx context.Context, user *domain.User) error

	// Delete removes the user with the given identity-provider id and
	// reports whether a row existed.
	Delete(ctx context.Context, clerkUserID string) (bool, error)

	// GetByClerkID returns nil, nil when no such user exists.
	GetByClerkID(ctx context.Context, clerkUserID string) (*domain.User, error)

	// List returns users newest first.
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)

	// Count returns the total number of users.
	Count(ctx context.Context) (int64, error)

	// Close closes the store and releases resources.
	Close() error
}

// Export is the JSON document written by ExportJSON.
type Export struct {
	Version    string         `json:"version"`
	ExportedAt time.Time      `json:"exported_at"`
	Count      int            `json:"count"`
	Users      []*domain.User `json:"users"`
}

// maxExportLimit is the maximum number of users to export at once.
const maxExportLimit = 1000000

// ExportJSON writes every user in store to writer.
func ExportJSON(ctx context.Context, store Store, writer io.Writer) error {
	all, err := store.List(ctx, maxExportLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	if all == nil {
		all = []*domain.User{}
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(&Export{
		Version:    "1.0",
		ExportedAt: time.Now().UTC(),
		Count:      len(all),
		Users:      all,
	})
}

func validateUser(user *domain.User) error {
	if user == nil {
		return fmt.Errorf("user is required")
	}
	if strings.TrimSpace(user.ClerkUserID) == "" {
		return domain.NewValidationError("clerk_user_id", "identity provider user id is required", user.ClerkUserID)
	}
	return nil
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*domain.User, error) {
	u := &domain.User{}
	err := s.Scan(
		&u.ID, &u.ClerkUserID, &u.Email,
		&u.FirstName, &u.LastName, &u.ImageURL,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

const userColumns = `id, clerk_user_id, email, first_name, last_name, image_url, created_at, updated_at`
