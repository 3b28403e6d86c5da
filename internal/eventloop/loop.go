// Package eventloop serializes every window mutation onto one goroutine.
//
// Posted tasks, ticker callbacks and the callbacks of an attached
// EventSource (the X event dispatcher) never run concurrently with each
// other. Storage and other blocking work is moved off the loop with
// Offload, whose completion is posted back.
package eventloop

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler is the part of the loop components depend on.
type Scheduler interface {
	// Post queues fn to run on the loop. Safe from any goroutine.
	Post(fn func())
	// Offload runs work off the loop and then posts done (if non-nil).
	Offload(work func(), done func())
	// Every runs fn on the loop once per interval until stopped.
	Every(interval time.Duration, fn func()) Ticker
}

// Ticker is a repeating loop callback.
type Ticker interface {
	Stop()
}

// EventSource is an external dispatcher whose callbacks run on another
// goroutine between a before and an after ping, as xevent.MainPing does.
type EventSource interface {
	Ping() (before, after, quit <-chan struct{})
}

// Loop is the production Scheduler.
type Loop struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}

	running atomic.Bool
}

var _ Scheduler = (*Loop)(nil)

// New creates an idle loop. Tasks posted before Run are kept.
func New() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post queues fn for the loop goroutine.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Offload runs work on a new goroutine and posts done when it returns.
func (l *Loop) Offload(work func(), done func()) {
	go func() {
		work()
		if done != nil {
			l.Post(done)
		}
	}()
}

// Every posts fn once per interval. Ticks arriving while the loop is busy
// are coalesced by the underlying time.Ticker.
func (l *Loop) Every(interval time.Duration, fn func()) Ticker {
	tk := &ticker{
		t:    time.NewTicker(interval),
		quit: make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-tk.t.C:
				l.Post(func() {
					if !tk.stopped.Load() {
						fn()
					}
				})
			case <-tk.quit:
				return
			}
		}
	}()
	return tk
}

// Call runs fn on the loop and waits for it. It must not be used from the
// loop goroutine itself.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running reports whether Run is active.
func (l *Loop) Running() bool {
	return l.running.Load()
}

// Run processes tasks until ctx is cancelled or src quits. src may be nil.
func (l *Loop) Run(ctx context.Context, src EventSource) error {
	l.running.Store(true)
	defer l.running.Store(false)

	var before, after, quit <-chan struct{}
	if src != nil {
		before, after, quit = src.Ping()
	}

	// Drain anything posted before Run.
	l.drain()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
			l.drain()
		case <-before:
			// The source is dispatching its own callbacks now.
			<-after
		case <-quit:
			return nil
		}
	}
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, fn := range batch {
			fn()
		}
	}
}

type ticker struct {
	t       *time.Ticker
	quit    chan struct{}
	stopped atomic.Bool
}

func (tk *ticker) Stop() {
	if tk.stopped.CompareAndSwap(false, true) {
		tk.t.Stop()
		close(tk.quit)
	}
}
