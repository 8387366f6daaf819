// Package model defines the core domain models used throughout the application.
package model

import "path/filepath"

// MatchMethod indicates which resolution step produced a match.
type MatchMethod string

// Match method constants.
const (
	MethodMemory MatchMethod = "memory"
	MethodLLM    MatchMethod = "llm"
	MethodString MatchMethod = "string"
)

// ScoreSet holds the raw evidence computed for one (file, candidate) pair.
type ScoreSet struct {
	Memory         float64
	Token          float64
	Fuzzy          float64
	Content        float64
	FileTypeWeight float64
}

// CandidateFolder is a directory directly under a configured scope root.
type CandidateFolder struct {
	Path  string
	Scope string
}

// Name returns the base name used for matching.
func (c CandidateFolder) Name() string {
	return filepath.Base(c.Path)
}

// MatchResult is the outcome of matching a file against the candidate folders.
// An empty Folder or a zero Confidence both mean "no actionable suggestion".
type MatchResult struct {
	Folder     string
	Reasoning  string
	Method     MatchMethod
	Scores     ScoreSet
	Confidence float64
}

// HasSuggestion reports whether the result names a folder with non-zero confidence.
func (r MatchResult) HasSuggestion() bool {
	return r.Folder != "" && r.Confidence > 0
}

// FolderName returns the base name of the suggested folder, or "" if none.
func (r MatchResult) FolderName() string {
	if r.Folder == "" {
		return ""
	}
	return filepath.Base(r.Folder)
}
