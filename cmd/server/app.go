package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jwhitfield/taskward/internal/config"
	"github.com/jwhitfield/taskward/internal/platform/postgres"
	"github.com/jwhitfield/taskward/internal/reminder"
	"github.com/jwhitfield/taskward/internal/service"
	"github.com/jwhitfield/taskward/internal/service/auth"
	"github.com/jwhitfield/taskward/internal/service/mail"
	"github.com/jwhitfield/taskward/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore store.UserStore
	taskStore store.TaskStore

	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	resetTokens      auth.ResetTokenService
	accountService   service.AccountService
	mailSender       mail.Sender

	reminderRunner *reminder.Runner
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before application
// initialization.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.passwordVerifier = auth.NewBcryptVerifier()

	app.resetTokens, err = auth.NewResetTokenService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize reset token service: %w", err)
	}

	app.userStore = postgres.NewPostgresUserStore(db, bcrypt.DefaultCost, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)

	app.accountService = service.NewAccountService(db, app.userStore, app.taskStore, app.resetTokens, logger)

	sender := mail.NewSMTPSender(cfg.Mail)
	app.mailSender = sender

	scanner := reminder.NewScanner(
		app.taskStore,
		app.userStore,
		app.mailSender,
		time.Duration(cfg.Reminder.WindowMinutes)*time.Minute,
		sender.DefaultFrom(),
		logger,
	)
	app.reminderRunner = reminder.NewRunner(scanner, reminder.RunnerConfig{
		Interval: time.Duration(cfg.Reminder.IntervalSeconds) * time.Second,
	}, logger)

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the reminder runner and the HTTP server, handling lifecycle
// and cleanup. It returns an error if the server fails to start or
// encounters problems.
func (app *application) Run(ctx context.Context) error {
	app.reminderRunner.Start()

	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.reminderRunner != nil {
		app.reminderRunner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
