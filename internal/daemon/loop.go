// Package daemon runs the control loop that feeds arriving files to the organizer.
package daemon

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Veraticus/stow/internal/coordinator"
	"github.com/Veraticus/stow/internal/engine"
	"github.com/Veraticus/stow/internal/model"
	"github.com/google/uuid"
)

// DefaultTick is how often readiness is checked.
const DefaultTick = time.Second

// Handler processes drained batches and due retries.
type Handler interface {
	HandleBatch(ctx context.Context, paths []string) []engine.Report
	ProcessRetries(ctx context.Context) []engine.Report
}

// ReportFunc receives the outcome of each drained batch or retry pass.
// batchID is empty for retry passes.
type ReportFunc func(batchID string, reports []engine.Report)

// Loop owns the batch window. Every mutation of coordinator state happens on
// the goroutine running Run.
type Loop struct {
	handler Handler
	batch   *coordinator.Batch
	events  <-chan string
	report  ReportFunc
	logger  *slog.Logger
	filter  Filter
	tick    time.Duration
	paused  atomic.Bool
}

// Option configures a Loop.
type Option func(*Loop)

// WithTick overrides the readiness tick.
func WithTick(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.tick = d
		}
	}
}

// WithReporter sets a callback for batch outcomes.
func WithReporter(fn ReportFunc) Option {
	return func(l *Loop) { l.report = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) { l.logger = logger }
}

// NewLoop creates a loop reading file paths from events.
func NewLoop(handler Handler, batch *coordinator.Batch, events <-chan string, filter Filter, opts ...Option) *Loop {
	l := &Loop{
		handler: handler,
		batch:   batch,
		events:  events,
		filter:  filter,
		tick:    DefaultTick,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Pause suspends readiness checks. It is advisory.
func (l *Loop) Pause() { l.paused.Store(true) }

// Resume re-enables readiness checks.
func (l *Loop) Resume() { l.paused.Store(false) }

// Paused reports whether polling is suspended.
func (l *Loop) Paused() bool { return l.paused.Load() }

// Run processes events until ctx is cancelled. Cancellation is a clean stop.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()

	events := l.events
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("control loop stopped", "pending", l.batch.Len())
			return nil
		case path, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			l.Observe(path)
		case <-ticker.C:
			l.Tick(ctx)
		}
	}
}

// Observe adds path to the batch window if the filter admits it.
func (l *Loop) Observe(path string) {
	if !l.filter.Accept(path) {
		return
	}
	l.batch.Add(path)
	if !l.Paused() {
		l.logger.Debug("file arrived", "file", path, "pending", l.batch.Len())
	}
}

// Tick drains a ready batch and then runs due retries.
func (l *Loop) Tick(ctx context.Context) {
	if l.Paused() || ctx.Err() != nil {
		return
	}

	if paths := l.batch.Pop(); paths != nil {
		l.drain(ctx, paths)
	}

	if ctx.Err() != nil {
		return
	}
	if reports := l.handler.ProcessRetries(ctx); len(reports) > 0 {
		l.emit("", reports)
	}
}

func (l *Loop) drain(ctx context.Context, paths []string) {
	paths = l.filter.Existing(paths)
	if len(paths) == 0 {
		return
	}

	batchID := uuid.NewString()
	logger := l.logger.With("batch_id", batchID)
	logger.Info("processing batch", "files", len(paths))

	start := time.Now()
	reports := l.handler.HandleBatch(ctx, paths)

	moved := 0
	for _, r := range reports {
		if r.Status == engine.StatusMoved {
			moved++
		}
	}
	logger.Info("batch complete", "files", len(paths), "moved", moved, "duration", time.Since(start))
	l.emit(batchID, reports)
}

func (l *Loop) emit(batchID string, reports []engine.Report) {
	if l.report != nil {
		l.report(batchID, reports)
	}
}

// PausingPrompter suspends the loop for as long as the user is being asked.
// Loop may be set after construction, since the loop itself depends on the
// organizer that owns this prompter.
type PausingPrompter struct {
	Prompter engine.Prompter
	Loop     *Loop
}

func (p *PausingPrompter) pause() func() {
	if p.Loop == nil {
		return func() {}
	}
	p.Loop.Pause()
	return p.Loop.Resume
}

// ConfirmMove implements engine.Prompter.
func (p *PausingPrompter) ConfirmMove(ctx context.Context, pending engine.Pending) (model.Resolution, error) {
	defer p.pause()()
	return p.Prompter.ConfirmMove(ctx, pending)
}

// ReviewBatch implements engine.Prompter.
func (p *PausingPrompter) ReviewBatch(ctx context.Context, pending []engine.Pending) ([]model.Resolution, error) {
	defer p.pause()()
	return p.Prompter.ReviewBatch(ctx, pending)
}
