// Package mocks provides hand-rolled test doubles for the store and
// service interfaces. Each mock exposes function fields so tests can
// override exactly the calls they care about.
package mocks

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/jwhitfield/taskward/internal/domain"
	"github.com/jwhitfield/taskward/internal/store"
)

// MockUserStore is a configurable mock implementation of store.UserStore.
type MockUserStore struct {
	CreateFn               func(ctx context.Context, user *domain.User) error
	GetByIDFn              func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsernameOrEmailFn func(ctx context.Context, identifier string) (*domain.User, error)
	UpdateFn               func(ctx context.Context, user *domain.User) error
	UpdatePasswordFn       func(ctx context.Context, id uuid.UUID, password string) error
	RecordLoginFn          func(ctx context.Context, id uuid.UUID, at time.Time) error
	DeleteFn               func(ctx context.Context, id uuid.UUID) error

	// Users allows simple tests to seed state instead of wiring functions.
	Users map[uuid.UUID]*domain.User
}

var _ store.UserStore = (*MockUserStore)(nil)

// NewMockUserStore creates a mock with an empty seeded user map.
func NewMockUserStore() *MockUserStore {
	return &MockUserStore{Users: make(map[uuid.UUID]*domain.User)}
}

func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}
	for _, existing := range m.Users {
		if existing.Email == user.Email {
			return store.ErrEmailExists
		}
		if existing.Username == user.Username {
			return store.ErrUsernameExists
		}
	}
	m.Users[user.ID] = user
	return nil
}

func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	user, ok := m.Users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

func (m *MockUserStore) GetByUsernameOrEmail(ctx context.Context, identifier string) (*domain.User, error) {
	if m.GetByUsernameOrEmailFn != nil {
		return m.GetByUsernameOrEmailFn(ctx, identifier)
	}
	for _, user := range m.Users {
		if user.Username == identifier || user.Email == identifier {
			return user, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (m *MockUserStore) Update(ctx context.Context, user *domain.User) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, user)
	}
	if _, ok := m.Users[user.ID]; !ok {
		return store.ErrUserNotFound
	}
	m.Users[user.ID] = user
	return nil
}

func (m *MockUserStore) UpdatePassword(ctx context.Context, id uuid.UUID, password string) error {
	if m.UpdatePasswordFn != nil {
		return m.UpdatePasswordFn(ctx, id, password)
	}
	user, ok := m.Users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	// Tests that need real hashing should override UpdatePasswordFn.
	user.HashedPassword = "hashed:" + password
	return nil
}

func (m *MockUserStore) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if m.RecordLoginFn != nil {
		return m.RecordLoginFn(ctx, id, at)
	}
	user, ok := m.Users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	user.LastLoginAt = at
	return nil
}

func (m *MockUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	if _, ok := m.Users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(m.Users, id)
	return nil
}

func (m *MockUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return m
}
