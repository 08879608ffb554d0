package reminder

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RunnerConfig holds configuration for the periodic scan runner.
type RunnerConfig struct {
	// Interval determines how often the scanner runs.
	// If zero, defaults to one minute.
	Interval time.Duration
}

// Runner triggers the Scanner on a fixed interval. It is the in-process
// replacement for an external cron trigger: one goroutine, one scan at a
// time, stopped via context cancellation.
type Runner struct {
	scanner    *Scanner
	interval   time.Duration
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	logger     *slog.Logger
}

// NewRunner creates a Runner for the given scanner.
func NewRunner(scanner *Scanner, cfg RunnerConfig, log *slog.Logger) *Runner {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if log == nil {
		log = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		scanner:    scanner,
		interval:   cfg.Interval,
		ctx:        ctx,
		cancelFunc: cancel,
		logger:     log.With(slog.String("component", "reminder_runner")),
	}
}

// Start launches the scan loop. The first pass runs immediately rather
// than waiting one full interval.
func (r *Runner) Start() {
	r.wg.Add(1)
	go r.loop()

	r.logger.Info("reminder runner started",
		slog.Duration("interval", r.interval))
}

// Stop cancels the scan loop and waits for an in-flight pass to finish.
func (r *Runner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
	r.logger.Info("reminder runner stopped")
}

func (r *Runner) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.runOnce()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.runOnce()
		}
	}
}

func (r *Runner) runOnce() {
	if _, err := r.scanner.Scan(r.ctx, time.Now().UTC()); err != nil {
		r.logger.Error("reminder scan failed",
			slog.String("error", err.Error()))
	}
}
