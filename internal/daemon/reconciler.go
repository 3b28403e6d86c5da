package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/1broseidon/windeck/internal/platform"
)

// WindowLister returns the IDs of the windows that currently exist. It is
// called off the event loop.
type WindowLister func() ([]platform.WindowID, error)

// Target drops references to windows that no longer exist. It runs on the
// event loop.
type Target interface {
	Reconcile(live []platform.WindowID) int
}

// Dispatch runs fn on the event loop and waits for it.
type Dispatch func(ctx context.Context, fn func()) error

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler periodically compares tracked windows with the live client
// list, catching windows destroyed while no notification was delivered.
type Reconciler struct {
	interval    time.Duration
	target      Target
	dispatch    Dispatch
	listWindows WindowLister
	logger      *slog.Logger
}

// NewReconciler creates a new reconciler with the given configuration.
func NewReconciler(cfg ReconcilerConfig, target Target, dispatch Dispatch, listWindows WindowLister) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{
		interval:    interval,
		target:      target,
		dispatch:    dispatch,
		listWindows: listWindows,
		logger:      logger,
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.reconcile(ctx)
		}
	}
}

// ReconcileNow triggers an immediate reconciliation pass.
func (r *Reconciler) ReconcileNow(ctx context.Context) int {
	return r.reconcile(ctx)
}

func (r *Reconciler) reconcile(ctx context.Context) (dropped int) {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	live, err := r.listWindows()
	if err != nil {
		r.logger.Error("reconciler: failed to list windows", "error", err)
		return 0
	}

	if err := r.dispatch(ctx, func() {
		dropped = r.target.Reconcile(live)
	}); err != nil {
		r.logger.Warn("reconciler: dispatch failed", "error", err)
		return 0
	}
	if dropped > 0 {
		r.logger.Info("reconciler: dropped vanished windows", "count", dropped)
	}
	return dropped
}
