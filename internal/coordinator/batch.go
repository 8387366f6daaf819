// Package coordinator holds the two timing state machines of the watch loop:
// the arrival batch window and the locked-file retry queue. Neither is safe
// for unsynchronized use from several goroutines beyond what their own
// mutex provides; the daemon drives both from one loop.
package coordinator

import (
	"sync"
	"time"
)

// DefaultBatchWindow is the inactivity interval that closes a batch.
const DefaultBatchWindow = 8 * time.Second

// Clock returns the current time.
type Clock func() time.Time

// Batch groups rapid arrivals into a single processing pass.
type Batch struct {
	lastArrival time.Time
	now         Clock
	seen        map[string]struct{}
	files       []string
	window      time.Duration
	mu          sync.Mutex
}

// BatchOption configures a Batch.
type BatchOption func(*Batch)

// WithBatchClock replaces time.Now.
func WithBatchClock(c Clock) BatchOption {
	return func(b *Batch) { b.now = c }
}

// NewBatch creates an idle batch with the given window. Non-positive windows use the default.
func NewBatch(window time.Duration, opts ...BatchOption) *Batch {
	if window <= 0 {
		window = DefaultBatchWindow
	}
	b := &Batch{
		window: window,
		now:    time.Now,
		seen:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add records an arrival and restarts the window. A path already pending is
// not duplicated, but still counts as activity.
func (b *Batch) Add(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.seen[path]; !ok {
		b.seen[path] = struct{}{}
		b.files = append(b.files, path)
	}
	b.lastArrival = b.now()
}

// Ready reports whether the window has elapsed since the last arrival.
func (b *Batch) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.readyLocked()
}

func (b *Batch) readyLocked() bool {
	if len(b.files) == 0 {
		return false
	}
	return b.now().Sub(b.lastArrival) >= b.window
}

// Pop drains the batch and returns to idle. It returns nil unless the batch is ready,
// so exactly one caller receives each accumulated batch.
func (b *Batch) Pop() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.readyLocked() {
		return nil
	}

	out := b.files
	b.files = nil
	b.seen = make(map[string]struct{})
	b.lastArrival = time.Time{}
	return out
}

// Len is the number of pending paths.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.files)
}

