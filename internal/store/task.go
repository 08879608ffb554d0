package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jwhitfield/taskward/internal/domain"
)

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task to the store.
	// Returns ErrInvalidEntity if the owning user does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// ListByOwner retrieves all tasks belonging to the given user,
	// ordered by due time ascending.
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// ListAll retrieves every task in the store. The reminder scanner is
	// the only consumer; classification happens in memory, not in SQL.
	ListAll(ctx context.Context) ([]*domain.Task, error)

	// Update persists changes to an existing task's editable fields and
	// notification flag. Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// MarkNotified sets the email notification flag for the task, but only
	// while the flag is still clear and the due time still equals dueAt.
	// This makes the scanner's read-check-write atomic: a concurrent scan
	// or a due-date edit between read and write leaves the row untouched
	// and returns ErrTaskNotFound.
	MarkNotified(ctx context.Context, id uuid.UUID, dueAt time.Time) error

	// Delete removes a task from the store by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByOwner removes every task belonging to the given user and
	// returns the number of tasks removed. Deleting zero tasks is not an
	// error; a user with no tasks is a valid owner.
	DeleteByOwner(ctx context.Context, userID uuid.UUID) (int64, error)

	// WithTx returns a new TaskStore instance that uses the provided
	// transaction, allowing multiple operations in a single transaction.
	WithTx(tx *sql.Tx) TaskStore
}
