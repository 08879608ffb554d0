package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Task-specific validation errors
var (
	ErrTaskIDEmpty     = errors.New("task ID cannot be empty")
	ErrTaskUserIDEmpty = errors.New("task user ID cannot be empty")
	ErrTaskTitleEmpty  = errors.New("task title cannot be empty")
	ErrTaskDueZero     = errors.New("task due time cannot be zero")
	ErrTaskDueInPast   = errors.New("task due time must be in the future")
)

// Task is a user-owned to-do item with a due timestamp and a one-shot
// email notification flag. The flag is cleared whenever the due time
// changes, allowing exactly one reminder per due-date epoch.
type Task struct {
	ID                    uuid.UUID `json:"id"`
	UserID                uuid.UUID `json:"user_id"`
	Title                 string    `json:"title"`
	Description           string    `json:"description"`
	DueAt                 time.Time `json:"due_at"`
	EmailNotificationSent bool      `json:"email_notification_sent"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// NewTask creates a new Task for the given owner. The due time must be
// strictly in the future relative to now.
func NewTask(userID uuid.UUID, title, description string, dueAt, now time.Time) (*Task, error) {
	task := &Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: description,
		DueAt:       dueAt.UTC(),
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}
	if !task.DueAt.After(now) {
		return nil, ErrTaskDueInPast
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// It does not enforce the future-date rule; that applies only at
// create/update time, not to tasks already persisted.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}
	if t.UserID == uuid.Nil {
		return ErrTaskUserIDEmpty
	}
	if t.Title == "" {
		return ErrTaskTitleEmpty
	}
	if t.DueAt.IsZero() {
		return ErrTaskDueZero
	}
	return nil
}

// Apply updates the task's editable fields. A changed due time must be
// strictly in the future and clears the notification flag, re-arming
// exactly one reminder for the new due-date epoch.
func (t *Task) Apply(title, description string, dueAt, now time.Time) error {
	dueAt = dueAt.UTC()
	if !dueAt.After(now) {
		return ErrTaskDueInPast
	}

	if !dueAt.Equal(t.DueAt) {
		t.EmailNotificationSent = false
	}

	t.Title = title
	t.Description = description
	t.DueAt = dueAt
	t.UpdatedAt = now.UTC()

	if err := t.Validate(); err != nil {
		return err
	}
	return nil
}

// Remaining returns the time left until the task is due, relative to now.
// Negative values mean the task is overdue.
func (t *Task) Remaining(now time.Time) time.Duration {
	return t.DueAt.Sub(now)
}
