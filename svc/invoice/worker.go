package invoice

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/duebook/pkg/logger"
)

// WorkerConfig controls the periodic overdue sweep.
type WorkerConfig struct {
	Interval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1h"`
	Enabled  bool          `env:"SWEEP_ENABLED" envDefault:"true"`
	LockTTL  time.Duration `env:"SWEEP_LOCK_TTL" envDefault:"5m"`
}

// Worker sweeps every account with due Pending invoices on a fixed interval.
type Worker struct {
	svc      *Service
	store    Store
	notifier DigestNotifier
	interval time.Duration
	logger   *slog.Logger
}

// WorkerOption configures the Worker.
type WorkerOption func(*Worker)

// WithDigestNotifier sends an overdue digest after each sweep that changed something.
func WithDigestNotifier(n DigestNotifier) WorkerOption {
	return func(w *Worker) {
		w.notifier = n
	}
}

// WithWorkerLogger sets the logger for the worker.
func WithWorkerLogger(l *slog.Logger) WorkerOption {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWorker creates a sweep worker. Panics if svc or store is nil.
func NewWorker(svc *Service, store Store, cfg WorkerConfig, opts ...WorkerOption) *Worker {
	if svc == nil || store == nil {
		panic("invoice: Service and Store are required")
	}
	w := &Worker{
		svc:      svc,
		store:    store,
		interval: cfg.Interval,
		logger:   slog.Default(),
	}
	if w.interval <= 0 {
		w.interval = time.Hour
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(logger.Component("invoice.worker"))
	return w
}

// Start sweeps immediately and then on every tick until ctx is canceled.
func (w *Worker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.InfoContext(ctx, "overdue sweep worker started", logger.Duration(w.interval))
	w.SweepAll(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("overdue sweep worker shutting down")
			return ctx.Err()
		case <-ticker.C:
			w.SweepAll(ctx)
		}
	}
}

// Run returns a function suitable for errgroup that stops cleanly on cancellation.
func (w *Worker) Run(ctx context.Context) func() error {
	return func() error {
		if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}

// SweepAll sweeps each account with due Pending invoices and returns the total changed.
// Failures are logged per account and do not stop the pass.
func (w *Worker) SweepAll(ctx context.Context) int {
	accounts, err := w.store.AccountsWithPending(ctx, w.svc.Today())
	if err != nil {
		w.logger.ErrorContext(ctx, "failed to list accounts with pending invoices", logger.Error(err))
		return 0
	}

	total := 0
	for _, accountID := range accounts {
		if ctx.Err() != nil {
			break
		}
		n, err := w.svc.SweepOverdue(ctx, accountID)
		total += n
		if err != nil {
			level := slog.LevelError
			if errors.Is(err, ErrSweepInProgress) {
				level = slog.LevelDebug
			}
			w.logger.Log(ctx, level, "account sweep failed", logger.AccountID(accountID), logger.Error(err))
		}
		if n > 0 && w.notifier != nil {
			w.sendDigest(ctx, accountID)
		}
	}

	w.logger.DebugContext(ctx, "sweep pass finished",
		slog.Int("accounts", len(accounts)),
		logger.Count(total),
	)
	return total
}

func (w *Worker) sendDigest(ctx context.Context, accountID uuid.UUID) {
	report, err := w.svc.OverdueStats(ctx, accountID)
	if err != nil {
		w.logger.WarnContext(ctx, "failed to build overdue digest", logger.AccountID(accountID), logger.Error(err))
		return
	}
	if err := w.notifier.OverdueDigest(ctx, report); err != nil {
		w.logger.WarnContext(ctx, "failed to send overdue digest", logger.AccountID(accountID), logger.Error(err))
	}
}
