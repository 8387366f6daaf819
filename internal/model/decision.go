package model

import "time"

// Decision is a remembered filename to folder mapping.
type Decision struct {
	CreatedAt time.Time
	Filename  string
	Folder    string
}

// UndoEntry records one successful move so it can be reversed.
type UndoEntry struct {
	CreatedAt time.Time
	Filename  string
	Src       string
	Dst       string
	ID        int64
}

// IgnorePattern suppresses processing for every filename matching a shell glob.
type IgnorePattern struct {
	CreatedAt time.Time
	Pattern   string
	Reason    string
}

// Resolution is how a suggestion was settled, by the user or by the auto-move policy.
// It is replayed verbatim when a locked file finally moves.
type Resolution struct {
	// Suggested is the folder the engine proposed, if any.
	Suggested string
	// Target is where the file is being moved.
	Target string
	Action LearningAction
	// Permanent adds an ignore mark for the filename when Action is ignore.
	Permanent bool
}
