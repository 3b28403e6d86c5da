package eventloop

import "time"

// Manual is a deterministic Scheduler driven by the caller. Offloaded work
// runs inline when the queue is drained. It is not safe for concurrent use.
type Manual struct {
	queue   []func()
	tickers []*manualTicker
	now     time.Duration
}

var _ Scheduler = (*Manual)(nil)

// NewManual returns an empty manual scheduler.
func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Post(fn func()) {
	if fn != nil {
		m.queue = append(m.queue, fn)
	}
}

func (m *Manual) Offload(work func(), done func()) {
	m.Post(func() {
		work()
		m.Post(done)
	})
}

func (m *Manual) Every(interval time.Duration, fn func()) Ticker {
	if interval <= 0 {
		interval = time.Millisecond
	}
	t := &manualTicker{interval: interval, next: m.now + interval, fn: fn}
	m.tickers = append(m.tickers, t)
	return t
}

// Pending returns the number of queued tasks.
func (m *Manual) Pending() int {
	return len(m.queue)
}

// Active returns the number of running tickers.
func (m *Manual) Active() int {
	n := 0
	for _, t := range m.tickers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// Drain runs queued tasks, including ones they post, until none remain.
func (m *Manual) Drain() {
	for len(m.queue) > 0 {
		fn := m.queue[0]
		m.queue = m.queue[1:]
		fn()
	}
}

// Advance moves the clock forward by d, firing due tickers in time order
// and draining the queue after each tick.
func (m *Manual) Advance(d time.Duration) {
	m.Drain()
	target := m.now + d
	for {
		next := m.nextDue(target)
		if next == nil {
			break
		}
		m.now = next.next
		next.next += next.interval
		next.fn()
		m.Drain()
	}
	m.now = target
	m.compact()
}

func (m *Manual) nextDue(limit time.Duration) *manualTicker {
	var due *manualTicker
	for _, t := range m.tickers {
		if t.stopped || t.next > limit {
			continue
		}
		if due == nil || t.next < due.next {
			due = t
		}
	}
	return due
}

func (m *Manual) compact() {
	live := m.tickers[:0]
	for _, t := range m.tickers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	m.tickers = live
}

type manualTicker struct {
	interval time.Duration
	next     time.Duration
	fn       func()
	stopped  bool
}

func (t *manualTicker) Stop() {
	t.stopped = true
}
