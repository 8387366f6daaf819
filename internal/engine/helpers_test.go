package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/stow/internal/coordinator"
	"github.com/Veraticus/stow/internal/llm"
	"github.com/Veraticus/stow/internal/model"
	"github.com/Veraticus/stow/internal/mover"
	"github.com/Veraticus/stow/internal/storage"
	"github.com/Veraticus/stow/internal/testutil"
)

type fakeClassifier struct {
	answers  map[string]llm.Suggestion
	requests []llm.Request
	mu       sync.Mutex
}

func newFakeClassifier() *fakeClassifier {
	return &fakeClassifier{answers: make(map[string]llm.Suggestion)}
}

func (f *fakeClassifier) answer(filename, folder string, confidence float64) {
	f.answers[filename] = llm.Suggestion{Folder: folder, Confidence: confidence, Reasoning: "fake"}
}

func (f *fakeClassifier) Classify(_ context.Context, req llm.Request) (llm.Suggestion, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	s, ok := f.answers[req.Filename]
	return s, ok
}

func (f *fakeClassifier) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeExtractor map[string]string

func (f fakeExtractor) Extract(path string) string {
	return f[filepath.Base(path)]
}

// fakePrompter answers every prompt with a fixed function of the pending entry.
type fakePrompter struct {
	respond      func(Pending) model.Resolution
	confirmCalls []Pending
	batchCalls   [][]Pending
}

func (f *fakePrompter) ConfirmMove(_ context.Context, p Pending) (model.Resolution, error) {
	f.confirmCalls = append(f.confirmCalls, p)
	return f.respond(p), nil
}

func (f *fakePrompter) ReviewBatch(_ context.Context, pending []Pending) ([]model.Resolution, error) {
	f.batchCalls = append(f.batchCalls, pending)
	out := make([]model.Resolution, len(pending))
	for i, p := range pending {
		out[i] = f.respond(p)
	}
	return out, nil
}

func acceptAll(p Pending) model.Resolution {
	return model.Resolution{Suggested: p.Match.Folder, Target: p.Match.Folder, Action: model.ActionAccept}
}

// lockingMover reports the first locks moves as locked, then delegates.
type lockingMover struct {
	*mover.Mover
	locks int
}

func (l *lockingMover) Move(src, dstFolder string) mover.Result {
	if l.locks > 0 {
		l.locks--
		return mover.Result{Outcome: mover.OutcomeLocked, Err: errors.New("held by another process")}
	}
	return l.Mover.Move(src, dstFolder)
}

type fakeClock struct {
	t  time.Time
	mu sync.Mutex
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixture lays out a downloads directory and a scope root with folders.
type fixture struct {
	store      *storage.SQLiteStorage
	classifier *fakeClassifier
	clock      *fakeClock
	retry      *coordinator.Retry
	downloads  string
	scope      string
}

func newFixture(t *testing.T, folders ...string) *fixture {
	t.Helper()

	root := t.TempDir()
	f := &fixture{
		store:      testutil.SetupTestDB(t),
		classifier: newFakeClassifier(),
		clock:      &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)},
		downloads:  filepath.Join(root, "Downloads"),
		scope:      filepath.Join(root, "Documents"),
	}
	testutil.MakeDirs(t, root, "Downloads", "Documents")
	testutil.MakeDirs(t, f.scope, folders...)
	f.retry = coordinator.NewRetry(coordinator.DefaultMaxRetries, coordinator.WithRetryClock(f.clock.Now))
	return f
}

func (f *fixture) folder(name string) string {
	return filepath.Join(f.scope, name)
}

func (f *fixture) download(t *testing.T, name, content string) string {
	t.Helper()
	return testutil.WriteFile(t, f.downloads, name, content)
}

func (f *fixture) matcher(opts ...MatcherOption) *Matcher {
	opts = append([]MatcherOption{WithClassifier(f.classifier), WithMatcherLogger(quietLogger())}, opts...)
	return NewMatcher(f.store, []string{f.scope}, opts...)
}

// organizer wires an Organizer; a nil prompter means nobody can be asked.
func (f *fixture) organizer(mv Mover, prompter *fakePrompter) *Organizer {
	if mv == nil {
		mv = mover.New()
	}
	var p Prompter
	if prompter != nil {
		p = prompter
	}
	return NewOrganizer(f.store, f.matcher(), mv, p, DefaultConfig(),
		WithRetryQueue(f.retry), WithLogger(quietLogger()))
}
