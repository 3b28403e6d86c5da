package eventloop

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLoopRunsPostedTasksInOrder(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx, nil) }()

	var mu sync.Mutex
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}

	callCtx, callCancel := context.WithTimeout(ctx, 2*time.Second)
	defer callCancel()
	if err := l.Call(callCtx, func() {}); err != nil {
		t.Fatalf("Call: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	for i, v := range got {
		if v != i {
			t.Fatalf("tasks ran out of order: %v", got)
		}
	}
	if len(got) != 5 {
		t.Fatalf("ran %d tasks, want 5", len(got))
	}

	cancel()
	if err := <-errCh; err != context.Canceled {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}
}

func TestLoopOffloadPostsCompletion(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx, nil)

	done := make(chan bool, 1)
	var onLoop bool
	l.Offload(func() {
		time.Sleep(5 * time.Millisecond)
	}, func() {
		onLoop = l.Running()
		done <- true
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("offload completion never posted")
	}
	if !onLoop {
		t.Fatal("completion did not run while the loop was running")
	}
}

func TestLoopTickerStops(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx, nil)

	ticks := make(chan struct{}, 16)
	tk := l.Every(time.Millisecond, func() {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})

	select {
	case <-ticks:
	case <-time.After(2 * time.Second):
		t.Fatal("ticker never fired")
	}
	tk.Stop()
	tk.Stop()
}

type fakeSource struct {
	before, after, quit chan struct{}
}

func (s *fakeSource) Ping() (<-chan struct{}, <-chan struct{}, <-chan struct{}) {
	return s.before, s.after, s.quit
}

func TestLoopReturnsWhenSourceQuits(t *testing.T) {
	src := &fakeSource{
		before: make(chan struct{}),
		after:  make(chan struct{}),
		quit:   make(chan struct{}),
	}
	l := New()
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(context.Background(), src) }()

	src.before <- struct{}{}
	src.after <- struct{}{}
	close(src.quit)

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after quit")
	}
}

func TestManualAdvanceFiresTickersInOrder(t *testing.T) {
	m := NewManual()
	var got []string
	fast := m.Every(10*time.Millisecond, func() { got = append(got, "fast") })
	m.Every(25*time.Millisecond, func() { got = append(got, "slow") })

	m.Advance(30 * time.Millisecond)
	want := []string{"fast", "fast", "slow", "fast"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	fast.Stop()
	got = nil
	m.Advance(20 * time.Millisecond)
	if len(got) != 1 || got[0] != "slow" {
		t.Fatalf("after stop got %v, want [slow]", got)
	}
	if m.Active() != 1 {
		t.Fatalf("Active() = %d, want 1", m.Active())
	}
}

func TestManualOffloadRunsOnDrain(t *testing.T) {
	m := NewManual()
	var order []string
	m.Offload(func() { order = append(order, "work") }, func() { order = append(order, "done") })
	if len(order) != 0 {
		t.Fatal("offload ran before drain")
	}
	m.Drain()
	if len(order) != 2 || order[0] != "work" || order[1] != "done" {
		t.Fatalf("order = %v", order)
	}
}
