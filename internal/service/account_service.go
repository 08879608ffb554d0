// Package service implements account-level operations that span more than
// one store and therefore run inside a database transaction.
package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jwhitfield/taskward/internal/platform/logger"
	"github.com/jwhitfield/taskward/internal/service/auth"
	"github.com/jwhitfield/taskward/internal/store"
)

// AccountService provides account lifecycle operations that must update
// multiple rows atomically.
type AccountService interface {
	// ResetPassword verifies the reset token against the user's current
	// credential state and stores the new password, in one transaction.
	// The token is checked against the same row the password update writes,
	// so a token invalidated by a concurrent password change or login can
	// never slip through.
	//
	// Returns store.ErrUserNotFound if the user does not exist and
	// auth.ErrInvalidResetToken if the token does not verify.
	ResetPassword(ctx context.Context, userID uuid.UUID, token, password string) error

	// DeleteAccount removes the user and every task they own, atomically.
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}

type accountService struct {
	users       store.UserStore
	tasks       store.TaskStore
	resetTokens auth.ResetTokenService
	logger      *slog.Logger

	// runTx wraps a function in a database transaction. It is a field so
	// tests can run the same code path without a live *sql.DB.
	runTx func(ctx context.Context, fn store.TxFn) error
}

// NewAccountService creates an AccountService backed by the given database.
// A nil logger falls back to the default logger.
func NewAccountService(
	db *sql.DB,
	users store.UserStore,
	tasks store.TaskStore,
	resetTokens auth.ResetTokenService,
	log *slog.Logger,
) AccountService {
	if log == nil {
		log = slog.Default()
	}

	return &accountService{
		users:       users,
		tasks:       tasks,
		resetTokens: resetTokens,
		logger:      log.With(slog.String("component", "account_service")),
		runTx: func(ctx context.Context, fn store.TxFn) error {
			return store.RunInTransaction(ctx, db, fn)
		},
	}
}

// NewTestAccountService creates an AccountService whose transaction wrapper
// invokes the function directly with a nil transaction, for use with the
// in-memory store mocks.
func NewTestAccountService(
	users store.UserStore,
	tasks store.TaskStore,
	resetTokens auth.ResetTokenService,
) AccountService {
	return &accountService{
		users:       users,
		tasks:       tasks,
		resetTokens: resetTokens,
		logger:      slog.Default(),
		runTx: func(ctx context.Context, fn store.TxFn) error {
			return fn(ctx, nil)
		},
	}
}

// ResetPassword implements AccountService.ResetPassword.
func (s *accountService) ResetPassword(ctx context.Context, userID uuid.UUID, token, password string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txUsers := s.users.WithTx(tx)

		user, err := txUsers.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		if err := s.resetTokens.Verify(user, token); err != nil {
			return err
		}

		if err := txUsers.UpdatePassword(ctx, user.ID, password); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}

		return nil
	})
	if err != nil {
		log.Warn("password reset failed",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return err
	}

	log.Info("password reset completed", slog.String("user_id", userID.String()))
	return nil
}

// DeleteAccount implements AccountService.DeleteAccount.
func (s *accountService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var deleted int64
	err := s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		deleted, err = s.tasks.WithTx(tx).DeleteByOwner(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to delete tasks: %w", err)
		}

		return s.users.WithTx(tx).Delete(ctx, userID)
	})
	if err != nil {
		log.Error("account deletion failed",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return err
	}

	log.Info("account deleted",
		slog.String("user_id", userID.String()),
		slog.Int64("tasks_deleted", deleted))
	return nil
}
