package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/stow/internal/coordinator"
	"github.com/Veraticus/stow/internal/model"
	"github.com/Veraticus/stow/internal/mover"
	"github.com/Veraticus/stow/internal/storage"
	"github.com/Veraticus/stow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrganizer_AutoMove(t *testing.T) {
	f := newFixture(t, "Economics", "Operations Research")
	ctx := context.Background()
	econ := f.folder("Economics")
	src := f.download(t, "midterm_econ.pdf", "exam")
	f.classifier.answer("midterm_econ.pdf", "Economics", 0.9)

	rep := f.organizer(nil, nil).HandleFile(ctx, src)

	require.NoError(t, rep.Err)
	assert.Equal(t, StatusMoved, rep.Status)
	assert.Equal(t, ActionAutoMove, rep.Decision)
	assert.Equal(t, filepath.Join(econ, "midterm_econ.pdf"), rep.Dest)
	assert.NoFileExists(t, src)
	assert.FileExists(t, rep.Dest)

	folder, found, err := f.store.GetDecision(ctx, "midterm_econ.pdf")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, econ, folder)

	stats, err := f.store.QueryLearningStats(ctx, "midterm_econ.pdf", econ)
	require.NoError(t, err)
	assert.Equal(t, model.LearningStats{Accepts: 1, Total: 1}, stats)

	history, err := f.store.ListUndoHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, src, history[0].Src)
	assert.Equal(t, rep.Dest, history[0].Dst)
}

func TestOrganizer_MemoryAutoMovesAgain(t *testing.T) {
	f := newFixture(t, "Economics")
	ctx := context.Background()
	econ := f.folder("Economics")
	require.NoError(t, f.store.PutDecision(ctx, "weekly.pdf", econ))
	src := f.download(t, "weekly.pdf", "v2")

	rep := f.organizer(nil, nil).HandleFile(ctx, src)

	assert.Equal(t, StatusMoved, rep.Status)
	assert.Equal(t, model.MethodMemory, rep.Match.Method)
	assert.Zero(t, f.classifier.calls())
}

func TestOrganizer_AskUserChoosesOtherFolder(t *testing.T) {
	f := newFixture(t, "Economics", "Operations Research")
	ctx := context.Background()
	econ, or := f.folder("Economics"), f.folder("Operations Research")
	src := f.download(t, "hw1.pdf", "homework")
	f.classifier.answer("hw1.pdf", "Economics", 0.6)

	prompter := &fakePrompter{respond: func(p Pending) model.Resolution {
		return model.Resolution{Suggested: p.Match.Folder, Target: or, Action: model.ActionChoose}
	}}
	rep := f.organizer(nil, prompter).HandleFile(ctx, src)

	require.NoError(t, rep.Err)
	assert.Equal(t, StatusMoved, rep.Status)
	assert.Equal(t, ActionAsk, rep.Decision)
	assert.FileExists(t, filepath.Join(or, "hw1.pdf"))

	require.Len(t, prompter.confirmCalls, 1)
	assert.Equal(t, econ, prompter.confirmCalls[0].Match.Folder)
	assert.Len(t, prompter.confirmCalls[0].Candidates, 2)

	folder, _, err := f.store.GetDecision(ctx, "hw1.pdf")
	require.NoError(t, err)
	assert.Equal(t, or, folder)

	stats, err := f.store.QueryLearningStats(ctx, "hw1.pdf", econ)
	require.NoError(t, err)
	assert.Equal(t, model.LearningStats{Rejects: 1, Total: 1}, stats)
}

func TestOrganizer_AskWithoutPrompterLeavesFile(t *testing.T) {
	f := newFixture(t, "Economics")
	ctx := context.Background()
	src := f.download(t, "hw1.pdf", "homework")
	f.classifier.answer("hw1.pdf", "Economics", 0.6)

	rep := f.organizer(nil, nil).HandleFile(ctx, src)

	assert.ErrorIs(t, rep.Err, ErrNoPrompter)
	assert.Equal(t, StatusSkipped, rep.Status)
	assert.FileExists(t, src)

	n, err := f.store.CountDecisions(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOrganizer_LowConfidenceLeavesFile(t *testing.T) {
	f := newFixture(t, "Economics", "Operations Research")
	src := f.download(t, "midterm_econ.pdf", "exam")
	prompter := &fakePrompter{respond: acceptAll}

	rep := f.organizer(nil, prompter).HandleFile(context.Background(), src)

	assert.Equal(t, ActionIgnore, rep.Decision)
	assert.Equal(t, StatusSkipped, rep.Status)
	assert.Equal(t, f.folder("Economics"), rep.Match.Folder)
	assert.Empty(t, prompter.confirmCalls)
	assert.FileExists(t, src)
}

func TestOrganizer_IgnoredFiles(t *testing.T) {
	f := newFixture(t, "Economics")
	ctx := context.Background()
	require.NoError(t, f.store.MarkIgnored(ctx, "keep.pdf", "user"))
	require.NoError(t, f.store.AddIgnorePattern(ctx, "*.iso", "images"))
	f.classifier.answer("keep.pdf", "Economics", 0.95)
	f.classifier.answer("ubuntu.iso", "Economics", 0.95)

	o := f.organizer(nil, nil)
	for _, name := range []string{"keep.pdf", "ubuntu.iso"} {
		src := f.download(t, name, "data")
		rep := o.HandleFile(ctx, src)
		assert.Equal(t, StatusIgnored, rep.Status, name)
		assert.FileExists(t, src)
	}
	assert.Zero(t, f.classifier.calls())
}

func TestOrganizer_UserIgnoresPermanently(t *testing.T) {
	f := newFixture(t, "Economics")
	ctx := context.Background()
	econ := f.folder("Economics")
	src := f.download(t, "spam.pdf", "junk")
	f.classifier.answer("spam.pdf", "Economics", 0.5)

	prompter := &fakePrompter{respond: func(p Pending) model.Resolution {
		return model.Resolution{Suggested: p.Match.Folder, Action: model.ActionIgnore, Permanent: true}
	}}
	rep := f.organizer(nil, prompter).HandleFile(ctx, src)

	assert.Equal(t, StatusIgnored, rep.Status)
	assert.FileExists(t, src)

	ignored, err := f.store.IsIgnored(ctx, "spam.pdf")
	require.NoError(t, err)
	assert.True(t, ignored)

	stats, err := f.store.QueryLearningStats(ctx, "spam.pdf", econ)
	require.NoError(t, err)
	assert.Equal(t, model.LearningStats{Ignores: 1, Total: 1}, stats)
}

func TestOrganizer_DuplicateIsNotLearned(t *testing.T) {
	f := newFixture(t, "Economics")
	ctx := context.Background()
	econ := f.folder("Economics")
	testutil.WriteFile(t, econ, "notes.pdf", "same bytes")
	src := f.download(t, "notes.pdf", "same bytes")
	f.classifier.answer("notes.pdf", "Economics", 0.9)

	rep := f.organizer(nil, nil).HandleFile(ctx, src)

	assert.Equal(t, StatusDuplicate, rep.Status)
	assert.FileExists(t, src)

	stats, err := f.store.QueryLearningStats(ctx, "notes.pdf", econ)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	_, found, err := f.store.GetDecision(ctx, "notes.pdf")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestOrganizer_LockedFileRetriedAndReplayed(t *testing.T) {
	f := newFixture(t, "Economics", "Operations Research")
	ctx := context.Background()
	econ, or := f.folder("Economics"), f.folder("Operations Research")
	src := f.download(t, "draft.docx", "text")
	f.classifier.answer("draft.docx", "Economics", 0.6)

	mv := &lockingMover{Mover: mover.New(), locks: 1}
	prompter := &fakePrompter{respond: func(p Pending) model.Resolution {
		return model.Resolution{Suggested: p.Match.Folder, Target: or, Action: model.ActionChoose}
	}}
	o := f.organizer(mv, prompter)

	rep := o.HandleFile(ctx, src)
	assert.Equal(t, StatusQueued, rep.Status)
	assert.NoError(t, rep.Err)
	assert.True(t, f.retry.Has(src))

	assert.Empty(t, o.ProcessRetries(ctx), "backoff has not elapsed")

	f.clock.Advance(coordinator.Backoff(0))
	reports := o.ProcessRetries(ctx)
	require.Len(t, reports, 1)
	assert.Equal(t, StatusMoved, reports[0].Status)
	assert.FileExists(t, filepath.Join(or, "draft.docx"))
	assert.Zero(t, f.retry.Len())

	// The original choice is replayed, not re-asked.
	assert.Len(t, prompter.confirmCalls, 1)
	stats, err := f.store.QueryLearningStats(ctx, "draft.docx", econ)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Rejects)
	folder, _, err := f.store.GetDecision(ctx, "draft.docx")
	require.NoError(t, err)
	assert.Equal(t, or, folder)
}

func TestOrganizer_RetryGivesUp(t *testing.T) {
	f := newFixture(t, "Economics")
	ctx := context.Background()
	src := f.download(t, "big.zip", "data")
	f.classifier.answer("big.zip", "Economics", 0.9)

	o := f.organizer(&lockingMover{Mover: mover.New(), locks: 100}, nil)
	require.Equal(t, StatusQueued, o.HandleFile(ctx, src).Status)

	for attempt := 0; attempt < coordinator.DefaultMaxRetries; attempt++ {
		f.clock.Advance(coordinator.Backoff(attempt))
		reports := o.ProcessRetries(ctx)
		require.Len(t, reports, 1, "attempt %d", attempt)
		if attempt < coordinator.DefaultMaxRetries-1 {
			assert.Equal(t, StatusQueued, reports[0].Status)
		} else {
			assert.Equal(t, StatusAbandoned, reports[0].Status)
		}
	}
	assert.Zero(t, f.retry.Len())
	assert.FileExists(t, src)
}

func TestOrganizer_RetryDropsVanishedFile(t *testing.T) {
	f := newFixture(t, "Economics")
	ctx := context.Background()
	src := f.download(t, "temp.pdf", "data")
	f.classifier.answer("temp.pdf", "Economics", 0.9)

	o := f.organizer(&lockingMover{Mover: mover.New(), locks: 1}, nil)
	require.Equal(t, StatusQueued, o.HandleFile(ctx, src).Status)
	require.NoError(t, os.Remove(src))

	f.clock.Advance(coordinator.Backoff(0))
	reports := o.ProcessRetries(ctx)
	require.Len(t, reports, 1)
	assert.Equal(t, StatusMissing, reports[0].Status)
	assert.NoError(t, reports[0].Err)
	assert.Zero(t, f.retry.Len())
}

func TestOrganizer_QueuedFileIsNotReprocessed(t *testing.T) {
	f := newFixture(t, "Economics")
	ctx := context.Background()
	src := f.download(t, "locked.pdf", "data")
	f.classifier.answer("locked.pdf", "Economics", 0.9)

	o := f.organizer(&lockingMover{Mover: mover.New(), locks: 1}, nil)
	require.Equal(t, StatusQueued, o.HandleFile(ctx, src).Status)

	rep := o.HandleFile(ctx, src)
	assert.Equal(t, StatusQueued, rep.Status)
	assert.Equal(t, 1, f.classifier.calls())
}

func TestOrganizer_HandleBatch(t *testing.T) {
	f := newFixture(t, "Economics", "Operations Research")
	ctx := context.Background()
	econ := f.folder("Economics")

	auto := f.download(t, "a.pdf", "a")
	ask := f.download(t, "b.pdf", "b")
	skip := f.download(t, "zzz.bin", "c")
	f.classifier.answer("a.pdf", "Economics", 0.9)
	f.classifier.answer("b.pdf", "Economics", 0.6)

	prompter := &fakePrompter{respond: acceptAll}
	reports := f.organizer(nil, prompter).HandleBatch(ctx, []string{auto, ask, skip})

	require.Len(t, reports, 3)
	byPath := make(map[string]Report)
	for _, r := range reports {
		byPath[r.Path] = r
	}
	assert.Equal(t, StatusMoved, byPath[auto].Status)
	assert.Equal(t, StatusMoved, byPath[ask].Status)
	assert.Equal(t, StatusSkipped, byPath[skip].Status)

	assert.Empty(t, prompter.confirmCalls)
	require.Len(t, prompter.batchCalls, 1)
	require.Len(t, prompter.batchCalls[0], 1)
	assert.Equal(t, ask, prompter.batchCalls[0][0].Path)

	assert.FileExists(t, filepath.Join(econ, "a.pdf"))
	assert.FileExists(t, filepath.Join(econ, "b.pdf"))
	assert.FileExists(t, skip)
}

func TestOrganizer_SingleFileBatchUsesConfirm(t *testing.T) {
	f := newFixture(t, "Economics")
	src := f.download(t, "b.pdf", "b")
	f.classifier.answer("b.pdf", "Economics", 0.6)

	prompter := &fakePrompter{respond: acceptAll}
	reports := f.organizer(nil, prompter).HandleBatch(context.Background(), []string{src})

	require.Len(t, reports, 1)
	assert.Equal(t, StatusMoved, reports[0].Status)
	assert.Len(t, prompter.confirmCalls, 1)
	assert.Empty(t, prompter.batchCalls)
}

func TestOrganizer_Explain(t *testing.T) {
	f := newFixture(t, "Economics", "Operations Research")
	src := f.download(t, "midterm_econ.pdf", "exam")

	res, action, err := f.organizer(nil, nil).Explain(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, f.folder("Economics"), res.Folder)
	assert.Equal(t, ActionIgnore, action)
	assert.FileExists(t, src)
}

// failingWrites loses every decision and learning write.
type failingWrites struct {
	*storage.SQLiteStorage
}

func (failingWrites) PutDecision(context.Context, string, string) error {
	return errors.New("disk I/O error")
}

func (failingWrites) AppendLearning(context.Context, string, string, model.LearningAction) error {
	return errors.New("disk I/O error")
}

func TestOrganizer_MovedButNotLearned(t *testing.T) {
	f := newFixture(t, "Economics")
	ctx := context.Background()
	econ := f.folder("Economics")
	src := f.download(t, "midterm_econ.pdf", "exam")
	f.classifier.answer("midterm_econ.pdf", "Economics", 0.9)

	o := NewOrganizer(failingWrites{f.store}, f.matcher(), mover.New(), nil, DefaultConfig(),
		WithRetryQueue(f.retry), WithLogger(quietLogger()))

	rep := o.HandleFile(ctx, src)

	require.NoError(t, rep.Err)
	assert.Equal(t, StatusMoved, rep.Status)
	assert.NoFileExists(t, src)
	assert.FileExists(t, filepath.Join(econ, "midterm_econ.pdf"))

	_, found, err := f.store.GetDecision(ctx, "midterm_econ.pdf")
	require.NoError(t, err)
	assert.False(t, found)

	records, err := f.store.ListLearning(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, records)

	history, err := f.store.ListUndoHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, src, history[0].Src)
}
