package daemon

import (
	"context"
	"errors"
	"testing"

	"github.com/1broseidon/windeck/internal/platform"
)

type recordingTarget struct {
	live  [][]platform.WindowID
	drops int
}

func (r *recordingTarget) Reconcile(live []platform.WindowID) int {
	r.live = append(r.live, live)
	return r.drops
}

func direct(ctx context.Context, fn func()) error {
	fn()
	return nil
}

func TestReconcileNowPassesLiveWindows(t *testing.T) {
	target := &recordingTarget{drops: 2}
	r := NewReconciler(ReconcilerConfig{}, target, direct, func() ([]platform.WindowID, error) {
		return []platform.WindowID{3, 5}, nil
	})

	if got := r.ReconcileNow(context.Background()); got != 2 {
		t.Fatalf("dropped = %d, want 2", got)
	}
	if len(target.live) != 1 || len(target.live[0]) != 2 {
		t.Fatalf("target saw %v", target.live)
	}
}

func TestReconcileSkipsOnListError(t *testing.T) {
	target := &recordingTarget{}
	r := NewReconciler(ReconcilerConfig{}, target, direct, func() ([]platform.WindowID, error) {
		return nil, errors.New("x server gone")
	})

	if got := r.ReconcileNow(context.Background()); got != 0 {
		t.Fatalf("dropped = %d, want 0", got)
	}
	if len(target.live) != 0 {
		t.Fatal("target reconciled against an empty list after a list error")
	}
}

func TestReconcileSurvivesDispatchFailure(t *testing.T) {
	target := &recordingTarget{drops: 1}
	failing := func(ctx context.Context, fn func()) error { return context.Canceled }
	r := NewReconciler(ReconcilerConfig{}, target, failing, func() ([]platform.WindowID, error) {
		return nil, nil
	})
	if got := r.ReconcileNow(context.Background()); got != 0 {
		t.Fatalf("dropped = %d, want 0", got)
	}
}

func TestReconcileRecoversPanics(t *testing.T) {
	r := NewReconciler(ReconcilerConfig{}, &recordingTarget{}, direct, func() ([]platform.WindowID, error) {
		panic("boom")
	})
	if got := r.ReconcileNow(context.Background()); got != 0 {
		t.Fatalf("dropped = %d, want 0", got)
	}
}
