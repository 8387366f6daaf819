// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/Veraticus/stow/internal/model"
)

// DecisionStore remembers exact filename to folder mappings.
type DecisionStore interface {
	GetDecision(ctx context.Context, filename string) (folder string, found bool, err error)
	PutDecision(ctx context.Context, filename, folder string) error
	DeleteDecision(ctx context.Context, filename string) error
	CountDecisions(ctx context.Context) (int, error)
}

// FeedbackStore reads and writes the append-only learning ledger.
type FeedbackStore interface {
	AppendLearning(ctx context.Context, filename, folder string, action model.LearningAction) error
	QueryLearningStats(ctx context.Context, filename, folder string) (model.LearningStats, error)
	QueryFolderReputation(ctx context.Context, folder string) (model.FolderReputation, error)
	ListLearning(ctx context.Context, limit int) ([]model.LearningRecord, error)
	FolderInsights(ctx context.Context, minSamples int) ([]model.FolderInsight, error)
}

// UndoStore keeps the bounded history of successful moves.
type UndoStore interface {
	AppendUndoEntry(ctx context.Context, filename, src, dst string) error
	ListUndoHistory(ctx context.Context, limit int) ([]model.UndoEntry, error)
	GetUndoEntry(ctx context.Context, id int64) (*model.UndoEntry, error)
	DeleteUndoEntry(ctx context.Context, id int64) error
}

// IgnoreStore holds filenames and glob patterns that are never processed.
type IgnoreStore interface {
	MarkIgnored(ctx context.Context, filename, reason string) error
	IsIgnored(ctx context.Context, filename string) (bool, error)
	ListIgnored(ctx context.Context) ([]string, error)
	AddIgnorePattern(ctx context.Context, pattern, reason string) error
	ListIgnorePatterns(ctx context.Context) ([]model.IgnorePattern, error)
	RemoveIgnorePattern(ctx context.Context, pattern string) error
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	DecisionStore
	FeedbackStore
	UndoStore
	IgnoreStore

	// Database management
	Migrate(ctx context.Context) error
	SchemaVersion(ctx context.Context) (int, error)
	Close() error
}
