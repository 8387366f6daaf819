package coordinator

import (
	"sort"
	"sync"
	"time"

	"github.com/Veraticus/stow/internal/model"
)

// Retry schedule defaults.
const (
	DefaultMaxRetries = 5
	BaseRetryDelay    = 5 * time.Second
	MaxRetryDelay     = 60 * time.Second
)

// RetryEntry is a file whose move failed because it was locked.
type RetryEntry struct {
	LastRetry  time.Time
	Resolution model.Resolution
	Path       string
	Folder     string
	Attempts   int
}

// Retry queues locked files and releases them on an exponential schedule.
type Retry struct {
	now        Clock
	entries    map[string]*RetryEntry
	maxRetries int
	mu         sync.Mutex
}

// RetryOption configures a Retry.
type RetryOption func(*Retry)

// WithRetryClock replaces time.Now.
func WithRetryClock(c Clock) RetryOption {
	return func(r *Retry) { r.now = c }
}

// NewRetry creates an empty queue. Non-positive maxRetries uses the default.
func NewRetry(maxRetries int, opts ...RetryOption) *Retry {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	r := &Retry{
		maxRetries: maxRetries,
		now:        time.Now,
		entries:    make(map[string]*RetryEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Backoff is the wait after the given number of failed retries: 5s doubling, capped at 60s.
func Backoff(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	// 5s << 4 already exceeds the cap; stop shifting before overflow.
	if attempts >= 4 {
		return MaxRetryDelay
	}
	d := BaseRetryDelay << attempts
	if d > MaxRetryDelay {
		return MaxRetryDelay
	}
	return d
}

// Add queues path with zero attempts. Re-adding a queued path restarts its schedule.
func (r *Retry) Add(path, folder string, res model.Resolution) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[path] = &RetryEntry{
		Path:       path,
		Folder:     folder,
		Resolution: res,
		LastRetry:  r.now(),
	}
}

// Ready returns copies of every entry whose backoff has elapsed, sorted by path.
func (r *Retry) Ready() []RetryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var ready []RetryEntry
	for _, e := range r.entries {
		if now.Sub(e.LastRetry) >= Backoff(e.Attempts) {
			ready = append(ready, *e)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i].Path < ready[j].Path })
	return ready
}

// MarkFailed records another locked attempt. It reports true, and drops the
// entry, once attempts reach the retry limit.
func (r *Retry) MarkFailed(path string) (gaveUp bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[path]
	if !ok {
		return false
	}
	e.Attempts++
	e.LastRetry = r.now()
	if e.Attempts >= r.maxRetries {
		delete(r.entries, path)
		return true
	}
	return false
}

// Remove drops path after success, a permanent failure, or external removal.
func (r *Retry) Remove(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, path)
}

// Has reports whether path is queued.
func (r *Retry) Has(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[path]
	return ok
}

// Len is the queue size.
func (r *Retry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// List returns every queued entry sorted by path.
func (r *Retry) List() []RetryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]RetryEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
