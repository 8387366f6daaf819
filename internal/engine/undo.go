package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/Veraticus/stow/internal/common"
	"github.com/Veraticus/stow/internal/model"
)

// Undo reverses the move recorded under id. The file goes back to where it
// came from, the remembered decision is forgotten, and the folder it had been
// filed under gets a choose record so the mistake counts against it.
// If the file cannot be restored nothing is changed.
func (o *Organizer) Undo(ctx context.Context, id int64) (*model.UndoEntry, error) {
	entry, err := o.store.GetUndoEntry(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: no history entry %d", common.ErrNothingToUndo, id)
		}
		return nil, fmt.Errorf("failed to load history entry %d: %w", id, err)
	}

	if err := o.mover.Restore(entry.Dst, entry.Src); err != nil {
		return nil, err
	}

	if err := o.store.DeleteDecision(ctx, entry.Filename); err != nil {
		o.logger.Error("restored but decision not forgotten", "file", entry.Filename, "error", err)
	}
	if err := o.store.AppendLearning(ctx, entry.Filename, filepath.Dir(entry.Dst), model.ActionChoose); err != nil {
		o.logger.Error("restored but correction not recorded", "file", entry.Filename, "error", err)
	}
	if err := o.store.DeleteUndoEntry(ctx, entry.ID); err != nil {
		o.logger.Error("restored but history entry kept", "id", entry.ID, "error", err)
	}

	o.logger.Info("move undone", "file", entry.Filename, "restored_to", entry.Src)
	return entry, nil
}

// UndoLast reverses the most recent move.
func (o *Organizer) UndoLast(ctx context.Context) (*model.UndoEntry, error) {
	history, err := o.store.ListUndoHistory(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to read undo history: %w", err)
	}
	if len(history) == 0 {
		return nil, common.ErrNothingToUndo
	}
	return o.Undo(ctx, history[0].ID)
}
