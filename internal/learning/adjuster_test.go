package learning

import (
	"context"
	"errors"
	"testing"

	"github.com/Veraticus/stow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStats struct {
	pair    map[[2]string]model.LearningStats
	folders map[string]model.FolderReputation
	pairErr error
}

func (f *fakeStats) QueryLearningStats(_ context.Context, filename, folder string) (model.LearningStats, error) {
	if f.pairErr != nil {
		return model.LearningStats{}, f.pairErr
	}
	return f.pair[[2]string{filename, folder}], nil
}

func (f *fakeStats) QueryFolderReputation(_ context.Context, folder string) (model.FolderReputation, error) {
	return f.folders[folder], nil
}

func TestPairAdjustment(t *testing.T) {
	tests := []struct {
		name  string
		stats model.LearningStats
		want  float64
	}{
		{name: "no history", stats: model.LearningStats{}, want: 0},
		{name: "one accept", stats: model.LearningStats{Accepts: 1, Total: 1}, want: 0.10},
		{name: "five accepts cap at half", stats: model.LearningStats{Accepts: 5, Total: 5}, want: 0.50},
		{name: "ten accepts still capped", stats: model.LearningStats{Accepts: 10, Total: 10}, want: 0.50},
		{name: "one reject", stats: model.LearningStats{Rejects: 1, Total: 1}, want: -0.40},
		{name: "two rejects capped", stats: model.LearningStats{Rejects: 2, Total: 2}, want: -0.50},
		{name: "mixed", stats: model.LearningStats{Accepts: 3, Rejects: 1, Total: 4}, want: -0.10},
		{name: "ignores contribute nothing", stats: model.LearningStats{Ignores: 7, Total: 7}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PairAdjustment(tt.stats), 1e-9)
		})
	}
}

func TestReputationAdjustment(t *testing.T) {
	assert.Zero(t, ReputationAdjustment(model.FolderReputation{Total: 4, AcceptRate: 1}))
	assert.InDelta(t, 0.05, ReputationAdjustment(model.FolderReputation{Total: 5, AcceptRate: 1}), 1e-9)
	assert.InDelta(t, -0.025, ReputationAdjustment(model.FolderReputation{Total: 8, AcceptRate: 0.25, RejectRate: 0.75}), 1e-9)
}

func TestAdjuster_Adjust(t *testing.T) {
	store := &fakeStats{
		pair: map[[2]string]model.LearningStats{
			{"hw.pdf", "/docs/Math"}:    {Accepts: 5, Total: 5},
			{"hw.pdf", "/docs/Physics"}: {Rejects: 3, Total: 3},
		},
		folders: map[string]model.FolderReputation{
			"/docs/Math":    {Total: 10, AcceptRate: 0.8, RejectRate: 0.2},
			"/docs/Physics": {Total: 3, RejectRate: 1},
		},
	}
	adj := NewAdjuster(store)
	ctx := context.Background()

	got, err := adj.Adjust(ctx, 0.3, "hw.pdf", "/docs/Math")
	require.NoError(t, err)
	assert.InDelta(t, 0.3+0.5+0.6*0.05, got, 1e-9)

	got, err = adj.Adjust(ctx, 0.3, "hw.pdf", "/docs/Physics")
	require.NoError(t, err)
	assert.InDelta(t, 0.0, got, 1e-9, "penalty clamps at zero")

	got, err = adj.Adjust(ctx, 0.95, "hw.pdf", "/docs/Math")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-9, "boost clamps at one")

	got, err = adj.Adjust(ctx, 0.42, "other.pdf", "/docs/Unknown")
	require.NoError(t, err)
	assert.InDelta(t, 0.42, got, 1e-9, "no history passes through")
}

func TestAdjuster_Idempotent(t *testing.T) {
	store := &fakeStats{
		pair:    map[[2]string]model.LearningStats{{"a.pdf", "/f"}: {Accepts: 2, Rejects: 1, Total: 3}},
		folders: map[string]model.FolderReputation{"/f": {Total: 6, AcceptRate: 0.5, RejectRate: 0.5}},
	}
	adj := NewAdjuster(store)

	first, err := adj.Adjust(context.Background(), 0.6, "a.pdf", "/f")
	require.NoError(t, err)
	second, err := adj.Adjust(context.Background(), 0.6, "a.pdf", "/f")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAdjuster_StoreErrorKeepsBase(t *testing.T) {
	boom := errors.New("disk on fire")
	adj := NewAdjuster(&fakeStats{pairErr: boom})

	got, err := adj.Adjust(context.Background(), 0.7, "a.pdf", "/f")
	assert.ErrorIs(t, err, boom)
	assert.InDelta(t, 0.7, got, 1e-9)
}
