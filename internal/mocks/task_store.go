package mocks

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwhitfield/taskward/internal/domain"
	"github.com/jwhitfield/taskward/internal/store"
)

// MockTaskStore is a configurable mock implementation of store.TaskStore.
type MockTaskStore struct {
	CreateFn        func(ctx context.Context, task *domain.Task) error
	GetByIDFn       func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	ListByOwnerFn   func(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)
	ListAllFn       func(ctx context.Context) ([]*domain.Task, error)
	UpdateFn        func(ctx context.Context, task *domain.Task) error
	MarkNotifiedFn  func(ctx context.Context, id uuid.UUID, dueAt time.Time) error
	DeleteFn        func(ctx context.Context, id uuid.UUID) error
	DeleteByOwnerFn func(ctx context.Context, userID uuid.UUID) (int64, error)

	// Tasks allows simple tests to seed state instead of wiring functions.
	Tasks map[uuid.UUID]*domain.Task
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// NewMockTaskStore creates a mock with an empty seeded task map.
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{Tasks: make(map[uuid.UUID]*domain.Task)}
}

func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}
	m.Tasks[task.ID] = task
	return nil
}

func (m *MockTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	task, ok := m.Tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return task, nil
}

func (m *MockTaskStore) ListByOwner(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	if m.ListByOwnerFn != nil {
		return m.ListByOwnerFn(ctx, userID)
	}
	var tasks []*domain.Task
	for _, task := range m.Tasks {
		if task.UserID == userID {
			tasks = append(tasks, task)
		}
	}
	sortTasksByDue(tasks)
	return tasks, nil
}

func (m *MockTaskStore) ListAll(ctx context.Context) ([]*domain.Task, error) {
	if m.ListAllFn != nil {
		return m.ListAllFn(ctx)
	}
	tasks := make([]*domain.Task, 0, len(m.Tasks))
	for _, task := range m.Tasks {
		tasks = append(tasks, task)
	}
	sortTasksByDue(tasks)
	return tasks, nil
}

func (m *MockTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, task)
	}
	existing, ok := m.Tasks[task.ID]
	if !ok {
		return store.ErrTaskNotFound
	}
	// Mirrors the conditional write in the real store: an unchanged due
	// date never clears a notification flag already set in the row.
	if existing.DueAt.Equal(task.DueAt) && existing.EmailNotificationSent {
		task.EmailNotificationSent = true
	}
	m.Tasks[task.ID] = task
	return nil
}

func (m *MockTaskStore) MarkNotified(ctx context.Context, id uuid.UUID, dueAt time.Time) error {
	if m.MarkNotifiedFn != nil {
		return m.MarkNotifiedFn(ctx, id, dueAt)
	}
	task, ok := m.Tasks[id]
	if !ok || task.EmailNotificationSent || !task.DueAt.Equal(dueAt) {
		return store.ErrTaskNotFound
	}
	task.EmailNotificationSent = true
	return nil
}

func (m *MockTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	if _, ok := m.Tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(m.Tasks, id)
	return nil
}

func (m *MockTaskStore) DeleteByOwner(ctx context.Context, userID uuid.UUID) (int64, error) {
	if m.DeleteByOwnerFn != nil {
		return m.DeleteByOwnerFn(ctx, userID)
	}
	var deleted int64
	for id, task := range m.Tasks {
		if task.UserID == userID {
			delete(m.Tasks, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MockTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return m
}

func sortTasksByDue(tasks []*domain.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].DueAt.Before(tasks[j].DueAt)
	})
}
