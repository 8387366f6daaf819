package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidAction is returned for learning actions outside the closed set.
var ErrInvalidAction = errors.New("invalid learning action")

// LearningAction records how a suggestion was resolved.
type LearningAction string

// Learning action constants. No other values are valid.
const (
	// ActionAccept means the suggested folder was correct.
	ActionAccept LearningAction = "accept"
	// ActionChoose means a different folder was chosen; the suggestion was wrong.
	ActionChoose LearningAction = "choose"
	// ActionIgnore means the file was not relevant. It carries no learning signal.
	ActionIgnore LearningAction = "ignore"
)

// ParseLearningAction converts a stored string into a LearningAction.
func ParseLearningAction(s string) (LearningAction, error) {
	switch LearningAction(s) {
	case ActionAccept, ActionChoose, ActionIgnore:
		return LearningAction(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}
}

// Valid reports whether a is one of the three known actions.
func (a LearningAction) Valid() bool {
	_, err := ParseLearningAction(string(a))
	return err == nil
}

// LearningRecord is one append-only entry in the feedback ledger.
type LearningRecord struct {
	CreatedAt       time.Time
	Filename        string
	SuggestedFolder string
	Action          LearningAction
	ID              int64
}

// LearningStats aggregates ledger entries for one (filename, folder) pair.
type LearningStats struct {
	Accepts int
	Rejects int
	Ignores int
	Total   int
}

// FolderReputation aggregates ledger entries for one folder across all filenames.
type FolderReputation struct {
	Total      int
	AcceptRate float64
	RejectRate float64
	IgnoreRate float64
}

// FolderInsight summarizes a folder's track record for reporting.
type FolderInsight struct {
	Folder     string
	Total      int
	AcceptRate float64
	RejectRate float64
}
