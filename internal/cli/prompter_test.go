package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/Veraticus/stow/internal/engine"
	"github.com/Veraticus/stow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPending(name, folder string, confidence float64) engine.Pending {
	return engine.Pending{
		Path: "/home/u/Downloads/" + name,
		Match: model.MatchResult{
			Folder:     folder,
			Confidence: confidence,
			Method:     model.MethodString,
			Reasoning:  "name similarity",
		},
		Candidates: []model.CandidateFolder{
			{Path: "/home/u/Documents/Economics", Scope: "/home/u/Documents"},
			{Path: "/home/u/Documents/Operations Research", Scope: "/home/u/Documents"},
		},
	}
}

func TestPrompter_ConfirmMove(t *testing.T) {
	econ := "/home/u/Documents/Economics"
	or := "/home/u/Documents/Operations Research"

	tests := []struct {
		name      string
		input     string
		want      model.Resolution
		wantStats Stats
	}{
		{
			name:      "accept",
			input:     "a\n",
			want:      model.Resolution{Suggested: econ, Target: econ, Action: model.ActionAccept},
			wantStats: Stats{Accepted: 1},
		},
		{
			name:      "choose another folder",
			input:     "o\n2\n",
			want:      model.Resolution{Suggested: econ, Target: or, Action: model.ActionChoose},
			wantStats: Stats{Changed: 1},
		},
		{
			name:      "pick the suggested folder from the list",
			input:     "o\n1\n",
			want:      model.Resolution{Suggested: econ, Target: econ, Action: model.ActionAccept},
			wantStats: Stats{Changed: 1},
		},
		{
			name:      "give up while picking",
			input:     "o\n\n",
			want:      model.Resolution{Suggested: econ, Action: model.ActionIgnore},
			wantStats: Stats{Skipped: 1},
		},
		{
			name:      "skip",
			input:     "S\n",
			want:      model.Resolution{Suggested: econ, Action: model.ActionIgnore},
			wantStats: Stats{Skipped: 1},
		},
		{
			name:      "ignore forever",
			input:     "i\n",
			want:      model.Resolution{Suggested: econ, Action: model.ActionIgnore, Permanent: true},
			wantStats: Stats{Ignored: 1},
		},
		{
			name:      "invalid input then accept",
			input:     "x\n9\na\n",
			want:      model.Resolution{Suggested: econ, Target: econ, Action: model.ActionAccept},
			wantStats: Stats{Accepted: 1},
		},
		{
			name:      "invalid folder number then valid",
			input:     "o\n7\nzero\n2\n",
			want:      model.Resolution{Suggested: econ, Target: or, Action: model.ActionChoose},
			wantStats: Stats{Changed: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewCLIPrompter(strings.NewReader(tt.input), &out)

			got, err := p.ConfirmMove(context.Background(), testPending("midterm_econ.pdf", econ, 0.6))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantStats, p.Stats())
			assert.Contains(t, out.String(), "midterm_econ.pdf")
		})
	}
}

func TestPrompter_ConfirmMoveShowsDetails(t *testing.T) {
	var out bytes.Buffer
	p := NewCLIPrompter(strings.NewReader("a\n"), &out)

	_, err := p.ConfirmMove(context.Background(), testPending("midterm_econ.pdf", "/home/u/Documents/Economics", 0.6))
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "/home/u/Documents/Economics")
	assert.Contains(t, s, "60%")
	assert.Contains(t, s, "name similarity")
	assert.Contains(t, s, "[A] Move to")
}

func TestPrompter_NoSuggestionHasNoAcceptOption(t *testing.T) {
	var out bytes.Buffer
	p := NewCLIPrompter(strings.NewReader("a\ns\n"), &out)

	got, err := p.ConfirmMove(context.Background(), testPending("x.bin", "", 0))
	require.NoError(t, err)
	assert.Equal(t, model.ActionIgnore, got.Action)
	assert.NotContains(t, out.String(), "[A]")
	assert.Contains(t, out.String(), "Invalid choice")
}

func TestPrompter_InputTerminated(t *testing.T) {
	p := NewCLIPrompter(strings.NewReader(""), &bytes.Buffer{})

	_, err := p.ConfirmMove(context.Background(), testPending("a.pdf", "/docs/A", 0.5))
	assert.ErrorIs(t, err, ErrInputTerminated)
}

func TestPrompter_CancelledContext(t *testing.T) {
	p := NewCLIPrompter(strings.NewReader("a\n"), &bytes.Buffer{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ConfirmMove(ctx, testPending("a.pdf", "/docs/A", 0.5))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = p.ReviewBatch(ctx, []engine.Pending{testPending("a.pdf", "/docs/A", 0.5)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrompter_ReviewBatch(t *testing.T) {
	econ := "/home/u/Documents/Economics"
	pending := []engine.Pending{
		testPending("a.pdf", econ, 0.7),
		testPending("b.pdf", econ, 0.5),
	}

	t.Run("approve all", func(t *testing.T) {
		var out bytes.Buffer
		p := NewCLIPrompter(strings.NewReader("a\n"), &out)

		got, err := p.ReviewBatch(context.Background(), pending)
		require.NoError(t, err)
		require.Len(t, got, 2)
		for _, r := range got {
			assert.Equal(t, model.Resolution{Suggested: econ, Target: econ, Action: model.ActionAccept}, r)
		}
		assert.Equal(t, Stats{Accepted: 2}, p.Stats())
		assert.Contains(t, out.String(), "2 New Files")
		assert.Contains(t, out.String(), "b.pdf")
	})

	t.Run("skip all", func(t *testing.T) {
		p := NewCLIPrompter(strings.NewReader("s\n"), &bytes.Buffer{})

		got, err := p.ReviewBatch(context.Background(), pending)
		require.NoError(t, err)
		for _, r := range got {
			assert.Equal(t, model.ActionIgnore, r.Action)
			assert.False(t, r.Permanent)
		}
		assert.Equal(t, Stats{Skipped: 2}, p.Stats())
	})

	t.Run("review each", func(t *testing.T) {
		var out bytes.Buffer
		p := NewCLIPrompter(strings.NewReader("r\na\ni\n"), &out)

		got, err := p.ReviewBatch(context.Background(), pending)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, model.ActionAccept, got[0].Action)
		assert.True(t, got[1].Permanent)
		assert.Contains(t, out.String(), "[2/2] b.pdf")
	})

	t.Run("empty", func(t *testing.T) {
		p := NewCLIPrompter(strings.NewReader(""), &bytes.Buffer{})
		got, err := p.ReviewBatch(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestFormatConfidence(t *testing.T) {
	assert.Contains(t, FormatConfidence(0.9), "90%")
	assert.Contains(t, FormatConfidence(0.5), "50%")
	assert.Contains(t, FormatConfidence(0.123), "12%")
}
