package cli

import (
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/stow/internal/engine"
	"github.com/Veraticus/stow/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestRenderTable(t *testing.T) {
	assert.Empty(t, RenderTable(nil, nil, nil))

	out := RenderTable([]string{"Name", "Count"}, [][]string{{"alpha", "1"}, {"beta"}}, []Alignment{AlignLeft, AlignRight})
	assert.Contains(t, out, "Name")
	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "beta")
}

func TestHistoryTable(t *testing.T) {
	out := HistoryTable([]model.UndoEntry{{
		ID:        7,
		CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Filename:  "a.pdf",
		Src:       "/dl/a.pdf",
		Dst:       "/docs/Econ/a.pdf",
	}})
	assert.Contains(t, out, "7")
	assert.Contains(t, out, "a.pdf")
	assert.Contains(t, out, "/docs/Econ")
}

func TestInsightsTable(t *testing.T) {
	out := InsightsTable([]model.FolderInsight{{Folder: "/docs/Econ", Total: 8, AcceptRate: 0.75, RejectRate: 0.25}})
	assert.Contains(t, out, "Econ")
	assert.Contains(t, out, "75%")
	assert.Contains(t, out, "25%")
}

func TestLearningTable(t *testing.T) {
	out := LearningTable([]model.LearningRecord{
		{Filename: "a.pdf", SuggestedFolder: "/docs/Econ", Action: model.ActionChoose},
	})
	assert.Contains(t, out, "rejected")
}

func TestScoresTable(t *testing.T) {
	out := ScoresTable(model.MatchResult{Confidence: 0.2, Scores: model.ScoreSet{Fuzzy: 0.667, FileTypeWeight: 1}})
	assert.Contains(t, out, "0.667")
	assert.Contains(t, out, "0.200")
	assert.Contains(t, out, "1.00")
}

func TestSummarizeReports(t *testing.T) {
	out := SummarizeReports([]engine.Report{
		{Path: "/dl/a.pdf", Dest: "/docs/Econ/a.pdf", Status: engine.StatusMoved},
		{Path: "/dl/b.pdf", Status: engine.StatusQueued},
		{Path: "/dl/c.pdf", Status: engine.StatusFailed, Err: errors.New("disk full")},
		{Path: "/dl/d.pdf", Status: engine.StatusSkipped},
		{Path: "/dl/e.pdf", Status: engine.StatusSkipped, Decision: engine.ActionAsk,
			Match: model.MatchResult{Folder: "/docs/Econ", Confidence: 0.5}},
	})

	assert.Contains(t, out, "a.pdf → /docs/Econ")
	assert.Contains(t, out, "b.pdf is in use")
	assert.Contains(t, out, "disk full")
	assert.NotContains(t, out, "d.pdf")
	assert.Contains(t, out, "e.pdf left in place (suggested Econ)")
}
