// Package engine decides where downloaded files belong, moves them, and
// learns from how each suggestion was resolved.
package engine

import (
	"context"

	"github.com/Veraticus/stow/internal/llm"
	"github.com/Veraticus/stow/internal/model"
	"github.com/Veraticus/stow/internal/mover"
	"github.com/Veraticus/stow/internal/service"
)

// Classifier picks a folder name from a candidate list. ok is false when it has no answer.
type Classifier interface {
	Classify(ctx context.Context, req llm.Request) (s llm.Suggestion, ok bool)
}

// ContentExtractor returns a short text snippet for a file, or "".
type ContentExtractor interface {
	Extract(path string) string
}

// Mover relocates files and reverses relocations.
type Mover interface {
	Move(src, dstFolder string) mover.Result
	Restore(dst, src string) error
}

// Pending is a suggestion awaiting the user.
type Pending struct {
	Path       string
	Match      model.MatchResult
	Candidates []model.CandidateFolder
}

// Prompter defines the contract for user interaction during sorting.
type Prompter interface {
	ConfirmMove(ctx context.Context, pending Pending) (model.Resolution, error)
	// ReviewBatch returns one resolution per pending entry, in order.
	ReviewBatch(ctx context.Context, pending []Pending) ([]model.Resolution, error)
}

// MatchStore is the slice of storage the matcher reads.
type MatchStore interface {
	service.DecisionStore
	service.FeedbackStore
}
