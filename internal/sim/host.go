package sim

import (
	"context"
	"time"
)

// ManualScheduler fires frame callbacks only when Advance is called. It is
// what headless runs and tests drive the loop with.
type ManualScheduler struct {
	now   time.Time
	queue []FrameFunc
}

func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{now: start}
}

func (m *ManualScheduler) RequestFrame(fn FrameFunc) {
	m.queue = append(m.queue, fn)
}

// Advance moves the clock by d and fires every callback requested before
// the call. Callbacks requested while firing wait for the next Advance.
func (m *ManualScheduler) Advance(d time.Duration) int {
	m.now = m.now.Add(d)
	due := m.queue
	m.queue = nil
	for _, fn := range due {
		fn(m.now)
	}
	return len(due)
}

// Pending is the number of callbacks waiting for the next frame.
func (m *ManualScheduler) Pending() int { return len(m.queue) }

func (m *ManualScheduler) Now() time.Time { return m.now }

// RealtimeScheduler runs frame callbacks from a ticker. Events from other
// goroutines are funnelled through Post so that everything touching the
// loop runs on the goroutine calling Run.
type RealtimeScheduler struct {
	interval time.Duration
	tasks    chan func()
	done     chan struct{}
	queue    []FrameFunc
}

func NewRealtimeScheduler(interval time.Duration) *RealtimeScheduler {
	if interval <= 0 {
		interval = time.Second / 60
	}
	return &RealtimeScheduler{
		interval: interval,
		tasks:    make(chan func(), 64),
		done:     make(chan struct{}),
	}
}

// RequestFrame must be called from the Run goroutine, either from a frame
// callback or from a posted task.
func (h *RealtimeScheduler) RequestFrame(fn FrameFunc) {
	h.queue = append(h.queue, fn)
}

// Post queues fn for the Run goroutine. It reports false once Run has
// returned.
func (h *RealtimeScheduler) Post(fn func()) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.tasks <- fn:
		return true
	case <-h.done:
		return false
	}
}

// Run serves frames and posted tasks until ctx ends. It must be called once.
func (h *RealtimeScheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-h.tasks:
			fn()
		case now := <-ticker.C:
			due := h.queue
			h.queue = nil
			for _, fn := range due {
				fn(now)
			}
		}
	}
}
