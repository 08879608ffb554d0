package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwhitfield/taskward/internal/api"
	"github.com/jwhitfield/taskward/internal/api/shared"
	"github.com/jwhitfield/taskward/internal/domain"
	"github.com/jwhitfield/taskward/internal/mocks"
	"github.com/jwhitfield/taskward/internal/store"
)

// taskHandlerFixture bundles a TaskHandler with its mock store.
type taskHandlerFixture struct {
	handler *api.TaskHandler
	tasks   *mocks.MockTaskStore
	userID  uuid.UUID
}

func newTaskHandlerFixture(t *testing.T) *taskHandlerFixture {
	t.Helper()

	tasks := mocks.NewMockTaskStore()
	return &taskHandlerFixture{
		handler: api.NewTaskHandler(tasks),
		tasks:   tasks,
		userID:  uuid.New(),
	}
}

func (f *taskHandlerFixture) seedTask(t *testing.T, owner uuid.UUID, dueAt time.Time) *domain.Task {
	t.Helper()

	task := &domain.Task{
		ID:          uuid.New(),
		UserID:      owner,
		Title:       "Submit report",
		Description: "Quarterly figures",
		DueAt:       dueAt,
	}
	f.tasks.Tasks[task.ID] = task
	return task
}

// doTaskRequest issues a request as the fixture's user, optionally binding
// the chi {id} path parameter.
func (f *taskHandlerFixture) doTaskRequest(
	t *testing.T,
	handler http.HandlerFunc,
	method string,
	taskID string,
	body any,
) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, "/api/tasks", reader)
	ctx := context.WithValue(req.Context(), shared.UserIDContextKey, f.userID)

	if taskID != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", taskID)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}

	w := httptest.NewRecorder()
	handler(w, req.WithContext(ctx))
	return w
}

func TestTaskCreate(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		f := newTaskHandlerFixture(t)
		dueAt := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

		w := f.doTaskRequest(t, f.handler.Create, http.MethodPost, "", api.TaskRequest{
			Title:       "Submit report",
			Description: "Quarterly figures",
			DueAt:       dueAt,
		})

		require.Equal(t, http.StatusCreated, w.Code)

		var resp api.TaskResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "Submit report", resp.Title)
		assert.True(t, resp.DueAt.Equal(dueAt))
		assert.False(t, resp.EmailNotificationSent)

		require.Len(t, f.tasks.Tasks, 1)
	})

	t.Run("past due date rejected", func(t *testing.T) {
		t.Parallel()

		f := newTaskHandlerFixture(t)
		w := f.doTaskRequest(t, f.handler.Create, http.MethodPost, "", api.TaskRequest{
			Title: "Submit report",
			DueAt: time.Now().Add(-time.Hour),
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, f.tasks.Tasks)
	})

	t.Run("missing title rejected", func(t *testing.T) {
		t.Parallel()

		f := newTaskHandlerFixture(t)
		w := f.doTaskRequest(t, f.handler.Create, http.MethodPost, "", api.TaskRequest{
			DueAt: time.Now().Add(time.Hour),
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTaskList(t *testing.T) {
	t.Parallel()

	f := newTaskHandlerFixture(t)
	now := time.Now().UTC()

	later := f.seedTask(t, f.userID, now.Add(2*time.Hour))
	sooner := f.seedTask(t, f.userID, now.Add(time.Hour))
	f.seedTask(t, uuid.New(), now.Add(time.Hour)) // someone else's task

	w := f.doTaskRequest(t, f.handler.List, http.MethodGet, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp []api.TaskResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp, 2)

	// Ordered by due date, and scoped to the requesting owner.
	assert.Equal(t, sooner.ID, resp[0].ID)
	assert.Equal(t, later.ID, resp[1].ID)
}

func TestTaskGet(t *testing.T) {
	t.Parallel()

	t.Run("own task", func(t *testing.T) {
		t.Parallel()

		f := newTaskHandlerFixture(t)
		task := f.seedTask(t, f.userID, time.Now().Add(time.Hour))

		w := f.doTaskRequest(t, f.handler.Get, http.MethodGet, task.ID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp api.TaskResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, task.ID, resp.ID)
	})

	t.Run("someone else's task looks like not found", func(t *testing.T) {
		t.Parallel()

		f := newTaskHandlerFixture(t)
		task := f.seedTask(t, uuid.New(), time.Now().Add(time.Hour))

		w := f.doTaskRequest(t, f.handler.Get, http.MethodGet, task.ID.String(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		t.Parallel()

		f := newTaskHandlerFixture(t)
		w := f.doTaskRequest(t, f.handler.Get, http.MethodGet, "not-a-uuid", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestTaskUpdate(t *testing.T) {
	t.Parallel()

	t.Run("changed due date clears notification flag", func(t *testing.T) {
		t.Parallel()

		f := newTaskHandlerFixture(t)
		task := f.seedTask(t, f.userID, time.Now().Add(time.Hour))
		task.EmailNotificationSent = true

		newDue := time.Now().Add(3 * time.Hour).UTC().Truncate(time.Second)
		w := f.doTaskRequest(t, f.handler.Update, http.MethodPut, task.ID.String(), api.TaskRequest{
			Title:       "Submit report",
			Description: "Final figures",
			DueAt:       newDue,
		})

		require.Equal(t, http.StatusOK, w.Code)

		var resp api.TaskResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.False(t, resp.EmailNotificationSent)
		assert.True(t, resp.DueAt.Equal(newDue))
		assert.Equal(t, "Final figures", resp.Description)
	})

	t.Run("same due date keeps notification flag", func(t *testing.T) {
		t.Parallel()

		f := newTaskHandlerFixture(t)
		task := f.seedTask(t, f.userID, time.Now().Add(time.Hour).UTC().Truncate(time.Second))
		task.EmailNotificationSent = true

		w := f.doTaskRequest(t, f.handler.Update, http.MethodPut, task.ID.String(), api.TaskRequest{
			Title: "Renamed task",
			DueAt: task.DueAt,
		})

		require.Equal(t, http.StatusOK, w.Code)

		var resp api.TaskResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.True(t, resp.EmailNotificationSent)
		assert.Equal(t, "Renamed task", resp.Title)
	})

	t.Run("concurrent reminder flag survives an unchanged-due-date edit", func(t *testing.T) {
		t.Parallel()

		f := newTaskHandlerFixture(t)
		task := f.seedTask(t, f.userID, time.Now().Add(15*time.Minute).UTC().Truncate(time.Second))

		// The handler reads a snapshot of the task, then the reminder scan
		// records a dispatched notification before the handler writes back.
		f.tasks.GetByIDFn = func(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
			stored, ok := f.tasks.Tasks[id]
			if !ok {
				return nil, store.ErrTaskNotFound
			}
			snapshot := *stored
			stored.EmailNotificationSent = true
			return &snapshot, nil
		}

		w := f.doTaskRequest(t, f.handler.Update, http.MethodPut, task.ID.String(), api.TaskRequest{
			Title: "Renamed task",
			DueAt: task.DueAt,
		})

		require.Equal(t, http.StatusOK, w.Code)

		// The due date did not change, so the edit must not rearm the
		// reminder the scanner just recorded.
		assert.True(t, f.tasks.Tasks[task.ID].EmailNotificationSent)
		assert.Equal(t, "Renamed task", f.tasks.Tasks[task.ID].Title)
	})

	t.Run("past due date rejected", func(t *testing.T) {
		t.Parallel()

		f := newTaskHandlerFixture(t)
		task := f.seedTask(t, f.userID, time.Now().Add(time.Hour))

		w := f.doTaskRequest(t, f.handler.Update, http.MethodPut, task.ID.String(), api.TaskRequest{
			Title: "Submit report",
			DueAt: time.Now().Add(-time.Hour),
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("someone else's task looks like not found", func(t *testing.T) {
		t.Parallel()

		f := newTaskHandlerFixture(t)
		task := f.seedTask(t, uuid.New(), time.Now().Add(time.Hour))

		w := f.doTaskRequest(t, f.handler.Update, http.MethodPut, task.ID.String(), api.TaskRequest{
			Title: "Hijacked",
			DueAt: time.Now().Add(2 * time.Hour),
		})

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Submit report", task.Title)
	})
}

func TestTaskDelete(t *testing.T) {
	t.Parallel()

	t.Run("own task", func(t *testing.T) {
		t.Parallel()

		f := newTaskHandlerFixture(t)
		task := f.seedTask(t, f.userID, time.Now().Add(time.Hour))

		w := f.doTaskRequest(t, f.handler.Delete, http.MethodDelete, task.ID.String(), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, f.tasks.Tasks)
	})

	t.Run("someone else's task looks like not found", func(t *testing.T) {
		t.Parallel()

		f := newTaskHandlerFixture(t)
		task := f.seedTask(t, uuid.New(), time.Now().Add(time.Hour))

		w := f.doTaskRequest(t, f.handler.Delete, http.MethodDelete, task.ID.String(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Len(t, f.tasks.Tasks, 1)
	})
}

func TestTaskCalendar(t *testing.T) {
	t.Parallel()

	f := newTaskHandlerFixture(t)
	dueAt := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	task := f.seedTask(t, f.userID, dueAt)

	w := f.doTaskRequest(t, f.handler.Calendar, http.MethodGet, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var events []api.CalendarEvent
	require.NoError(t, json.NewDecoder(w.Body).Decode(&events))
	require.Len(t, events, 1)

	assert.Equal(t, task.ID, events[0].ID)
	assert.Equal(t, task.Title, events[0].Title)
	assert.Equal(t, "2025-03-10T12:00:00Z", events[0].Start)
	assert.Equal(t, events[0].Start, events[0].End)
}
