package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwhitfield/taskward/internal/domain"
)

func TestNewTask(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	t.Run("valid task", func(t *testing.T) {
		t.Parallel()

		task, err := domain.NewTask(userID, "Submit report", "Quarterly figures", now.Add(time.Hour), now)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, task.ID)
		assert.Equal(t, userID, task.UserID)
		assert.Equal(t, "Submit report", task.Title)
		assert.False(t, task.EmailNotificationSent)
		assert.Equal(t, now, task.CreatedAt)
	})

	t.Run("due time in the past", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewTask(userID, "Submit report", "", now.Add(-time.Minute), now)
		assert.ErrorIs(t, err, domain.ErrTaskDueInPast)
	})

	t.Run("due time exactly now", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewTask(userID, "Submit report", "", now, now)
		assert.ErrorIs(t, err, domain.ErrTaskDueInPast)
	})

	t.Run("empty title", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewTask(userID, "", "", now.Add(time.Hour), now)
		assert.ErrorIs(t, err, domain.ErrTaskTitleEmpty)
	})

	t.Run("missing owner", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewTask(uuid.Nil, "Submit report", "", now.Add(time.Hour), now)
		assert.ErrorIs(t, err, domain.ErrTaskUserIDEmpty)
	})
}

func TestTaskApply(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	newNotifiedTask := func(t *testing.T) *domain.Task {
		t.Helper()
		task, err := domain.NewTask(uuid.New(), "Submit report", "Quarterly figures", now.Add(time.Hour), now)
		require.NoError(t, err)
		task.EmailNotificationSent = true
		return task
	}

	t.Run("changed due time clears notification flag", func(t *testing.T) {
		t.Parallel()

		task := newNotifiedTask(t)
		require.NoError(t, task.Apply(task.Title, task.Description, now.Add(2*time.Hour), now))
		assert.False(t, task.EmailNotificationSent)
		assert.Equal(t, now.Add(2*time.Hour), task.DueAt)
	})

	t.Run("unchanged due time keeps notification flag", func(t *testing.T) {
		t.Parallel()

		task := newNotifiedTask(t)
		require.NoError(t, task.Apply("New title", "New description", task.DueAt, now))
		assert.True(t, task.EmailNotificationSent)
		assert.Equal(t, "New title", task.Title)
	})

	t.Run("due time in the past rejected", func(t *testing.T) {
		t.Parallel()

		task := newNotifiedTask(t)
		err := task.Apply(task.Title, task.Description, now.Add(-time.Minute), now)
		assert.ErrorIs(t, err, domain.ErrTaskDueInPast)
		// The task is unchanged on rejection.
		assert.True(t, task.EmailNotificationSent)
		assert.Equal(t, now.Add(time.Hour), task.DueAt)
	})
}

func TestTaskRemaining(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	task := &domain.Task{DueAt: now.Add(20 * time.Minute)}

	assert.Equal(t, 20*time.Minute, task.Remaining(now))
	assert.Equal(t, -10*time.Minute, task.Remaining(now.Add(30*time.Minute)))
}
