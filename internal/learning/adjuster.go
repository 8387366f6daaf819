// Package learning biases confidence with the user's past resolutions.
package learning

import (
	"context"
	"fmt"
	"math"

	"github.com/Veraticus/stow/internal/model"
)

// Tunables for the pair and reputation passes.
const (
	AcceptStep = 0.10
	RejectStep = 0.40
	MaxBoost   = 0.50
	MaxPenalty = 0.50

	ReputationMinSamples = 5
	ReputationWeight     = 0.05
)

// StatsReader is the slice of the feedback store the adjuster reads.
type StatsReader interface {
	QueryLearningStats(ctx context.Context, filename, folder string) (model.LearningStats, error)
	QueryFolderReputation(ctx context.Context, folder string) (model.FolderReputation, error)
}

// Adjuster rewrites a base confidence from the ledger. It holds no state of
// its own, so two calls over the same ledger snapshot agree.
type Adjuster struct {
	store StatsReader
}

// NewAdjuster creates an Adjuster reading from store.
func NewAdjuster(store StatsReader) *Adjuster {
	return &Adjuster{store: store}
}

// PairAdjustment is the signed correction earned by one (filename, folder) history.
// Ignores never contribute.
func PairAdjustment(stats model.LearningStats) float64 {
	boost := math.Min(float64(stats.Accepts)*AcceptStep, MaxBoost)
	penalty := math.Min(float64(stats.Rejects)*RejectStep, MaxPenalty)
	return boost - penalty
}

// ReputationAdjustment is the folder-wide nudge, zero below the sample floor.
func ReputationAdjustment(rep model.FolderReputation) float64 {
	if rep.Total < ReputationMinSamples {
		return 0
	}
	return (rep.AcceptRate - rep.RejectRate) * ReputationWeight
}

// Adjust applies the pair correction then the folder reputation to base.
func (a *Adjuster) Adjust(ctx context.Context, base float64, filename, folder string) (float64, error) {
	conf := clamp(base)

	stats, err := a.store.QueryLearningStats(ctx, filename, folder)
	if err != nil {
		return conf, fmt.Errorf("failed to read learning stats: %w", err)
	}
	if stats.Total > 0 {
		conf = clamp(conf + PairAdjustment(stats))
	}

	rep, err := a.store.QueryFolderReputation(ctx, folder)
	if err != nil {
		return conf, fmt.Errorf("failed to read folder reputation: %w", err)
	}
	return clamp(conf + ReputationAdjustment(rep)), nil
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
