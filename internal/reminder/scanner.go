// Package reminder implements the periodic due-date scan that emails task
// owners as tasks approach their due time. Each task gets at most one
// reminder per due-date epoch: the notification flag is cleared whenever
// the due time changes and set exactly once by a qualifying scan pass.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jwhitfield/taskward/internal/domain"
	"github.com/jwhitfield/taskward/internal/platform/logger"
	"github.com/jwhitfield/taskward/internal/service/mail"
	"github.com/jwhitfield/taskward/internal/store"
)

// DefaultWindow is the due-soon window: a reminder fires once a task's
// remaining time drops below this threshold.
const DefaultWindow = 32 * time.Minute

// Stats summarizes the outcome of a single scan pass.
type Stats struct {
	// Scanned is the number of tasks examined.
	Scanned int

	// Notified is the number of reminders dispatched and recorded.
	Notified int

	// Failed is the number of tasks whose dispatch or flag update failed.
	// Failures never abort the remaining tasks in the batch.
	Failed int
}

// Scanner scans all tasks and dispatches due-soon reminders.
type Scanner struct {
	tasks  store.TaskStore
	users  store.UserStore
	sender mail.Sender
	window time.Duration
	from   string
	logger *slog.Logger

	// mu serializes scan passes so overlapping triggers cannot observe
	// the notification flag concurrently.
	mu sync.Mutex
}

// NewScanner creates a Scanner. A zero window falls back to DefaultWindow;
// a nil logger falls back to the default logger.
func NewScanner(
	tasks store.TaskStore,
	users store.UserStore,
	sender mail.Sender,
	window time.Duration,
	from string,
	log *slog.Logger,
) *Scanner {
	if window <= 0 {
		window = DefaultWindow
	}
	if log == nil {
		log = slog.Default()
	}

	return &Scanner{
		tasks:  tasks,
		users:  users,
		sender: sender,
		window: window,
		from:   from,
		logger: log.With(slog.String("component", "reminder_scanner")),
	}
}

// Scan runs one pass over all tasks at the given time. For each task:
//
//   - overdue (remaining <= 0): skipped, no notification, no state change
//   - inside the window with the flag clear: a reminder is dispatched and
//     the flag is then set via a conditional write
//   - inside the window with the flag set: skipped (already notified)
//   - remaining >= window: skipped (not yet due-soon)
//
// A dispatch failure for one task is logged and does not abort the rest of
// the batch, and the flag is only set after a successful dispatch so the
// reminder is retried on the next pass.
func (s *Scanner) Scan(ctx context.Context, now time.Time) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logger.FromContextOrDefault(ctx, s.logger)

	tasks, err := s.tasks.ListAll(ctx)
	if err != nil {
		log.Error("failed to list tasks for reminder scan",
			slog.String("error", err.Error()))
		return Stats{}, fmt.Errorf("failed to list tasks: %w", err)
	}

	stats := Stats{Scanned: len(tasks)}

	for _, task := range tasks {
		remaining := task.Remaining(now)

		// Overdue tasks get no notification. What to do with overdue,
		// never-notified tasks is deliberately left open.
		if remaining <= 0 {
			continue
		}
		if remaining >= s.window {
			continue
		}
		if task.EmailNotificationSent {
			continue
		}

		if err := s.notify(ctx, task, remaining); err != nil {
			stats.Failed++
			log.Error("failed to send task reminder",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()))
			continue
		}

		if err := s.tasks.MarkNotified(ctx, task.ID, task.DueAt); err != nil {
			if store.IsNotFoundError(err) {
				// The conditional write found no matching row: either a
				// concurrent pass already recorded the reminder or the
				// user just moved the due time. Both are benign.
				log.Debug("reminder flag already recorded or task changed",
					slog.String("task_id", task.ID.String()))
				continue
			}
			stats.Failed++
			log.Error("failed to record reminder flag",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()))
			continue
		}

		stats.Notified++
	}

	if stats.Notified > 0 || stats.Failed > 0 {
		log.Info("reminder scan completed",
			slog.Int("scanned", stats.Scanned),
			slog.Int("notified", stats.Notified),
			slog.Int("failed", stats.Failed))
	}

	return stats, nil
}

// notify builds and dispatches the reminder email for one task.
func (s *Scanner) notify(ctx context.Context, task *domain.Task, remaining time.Duration) error {
	owner, err := s.users.GetByID(ctx, task.UserID)
	if err != nil {
		return fmt.Errorf("failed to look up task owner: %w", err)
	}

	minutes := int(remaining / time.Minute)

	subject := fmt.Sprintf("Taskward: Your task %q is due in %d minutes", task.Title, minutes)
	body := fmt.Sprintf(
		"Dear %s,\n\nThis is a reminder that your task %q is due in %d minutes.\n\n"+
			"Task Details:\nTitle: %s\nDescription: %s\nDue Date: %s\n\n"+
			"Best regards,\nYour Task Management System",
		owner.Username,
		task.Title,
		minutes,
		task.Title,
		task.Description,
		task.DueAt.Format(time.RFC1123),
	)

	msg := mail.Message{
		Subject: subject,
		Body:    body,
		From:    s.from,
		To:      []string{owner.Email},
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to dispatch reminder: %w", err)
	}
	return nil
}
