package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jwhitfield/taskward/internal/domain"
)

// UserStore defines the interface for user data persistence. It is the
// user directory the rest of the application depends on: handlers and
// the reminder scanner never touch the users table directly.
type UserStore interface {
	// Create saves a new user to the store.
	// It handles domain validation and password hashing internally.
	// Returns ErrEmailExists or ErrUsernameExists on unique conflicts.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByUsernameOrEmail retrieves a user whose username or email
	// matches the given identifier (username comparison is lowercased).
	// Returns ErrUserNotFound if no user matches.
	GetByUsernameOrEmail(ctx context.Context, identifier string) (*domain.User, error)

	// Update modifies an existing user's username and email.
	// Returns ErrUserNotFound if the user does not exist, and
	// ErrEmailExists/ErrUsernameExists on unique conflicts.
	Update(ctx context.Context, user *domain.User) error

	// UpdatePassword hashes the given plaintext password and stores it
	// for the user. Returns ErrUserNotFound if the user does not exist.
	UpdatePassword(ctx context.Context, id uuid.UUID, password string) error

	// RecordLogin sets the user's last login time.
	// Returns ErrUserNotFound if the user does not exist.
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error

	// Delete removes a user from the store by their ID.
	// Returns ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new UserStore instance that uses the provided
	// transaction, allowing multiple operations in a single transaction.
	WithTx(tx *sql.Tx) UserStore
}
