package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/stow/internal/common"
	"github.com/Veraticus/stow/internal/model"
)

// AppendUndoEntry records a completed move and trims the history to the newest entries.
func (s *SQLiteStorage) AppendUndoEntry(ctx context.Context, filename, src, dst string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(filename, "filename"); err != nil {
		return err
	}
	if err := validateString(src, "src"); err != nil {
		return err
	}
	if err := validateString(dst, "dst"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO undo_history (filename, src, dst, created_at)
		VALUES (?, ?, ?, ?)
	`, filename, src, dst, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to append undo entry: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM undo_history
		WHERE id NOT IN (SELECT id FROM undo_history ORDER BY id DESC LIMIT ?)
	`, s.undoLimit); err != nil {
		return fmt.Errorf("failed to trim undo history: %w", err)
	}

	return tx.Commit()
}

// ListUndoHistory returns up to limit entries, newest first.
func (s *SQLiteStorage) ListUndoHistory(ctx context.Context, limit int) ([]model.UndoEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, src, dst, created_at
		FROM undo_history
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list undo history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.UndoEntry
	for rows.Next() {
		var e model.UndoEntry
		if err := rows.Scan(&e.ID, &e.Filename, &e.Src, &e.Dst, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan undo entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating undo history: %w", err)
	}
	return entries, nil
}

// GetUndoEntry returns one entry by id, or common.ErrNotFound.
func (s *SQLiteStorage) GetUndoEntry(ctx context.Context, id int64) (*model.UndoEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id); err != nil {
		return nil, err
	}

	var e model.UndoEntry
	err := s.db.QueryRowContext(ctx, `
		SELECT id, filename, src, dst, created_at
		FROM undo_history WHERE id = ?
	`, id).Scan(&e.ID, &e.Filename, &e.Src, &e.Dst, &e.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("undo entry %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get undo entry: %w", err)
	}
	return &e, nil
}

// DeleteUndoEntry removes one entry by id.
func (s *SQLiteStorage) DeleteUndoEntry(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM undo_history WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete undo entry: %w", err)
	}
	return nil
}
