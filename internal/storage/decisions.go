package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetDecision returns the remembered folder for filename, if any.
func (s *SQLiteStorage) GetDecision(ctx context.Context, filename string) (string, bool, error) {
	if err := validateContext(ctx); err != nil {
		return "", false, err
	}
	if err := validateString(filename, "filename"); err != nil {
		return "", false, err
	}

	var folder string
	err := s.db.QueryRowContext(ctx, `
		SELECT folder FROM decisions WHERE filename = ?
	`, filename).Scan(&folder)

	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get decision: %w", err)
	}
	return folder, true, nil
}

// PutDecision remembers filename -> folder. An existing mapping is kept as is;
// it only changes by being deleted (undo) and written again.
func (s *SQLiteStorage) PutDecision(ctx context.Context, filename, folder string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(filename, "filename"); err != nil {
		return err
	}
	if err := validateString(folder, "folder"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decisions (filename, folder, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(filename) DO NOTHING
	`, filename, folder, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save decision: %w", err)
	}
	return nil
}

// DeleteDecision forgets filename. Deleting an unknown filename is not an error.
func (s *SQLiteStorage) DeleteDecision(ctx context.Context, filename string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(filename, "filename"); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM decisions WHERE filename = ?`, filename); err != nil {
		return fmt.Errorf("failed to delete decision: %w", err)
	}
	return nil
}

// CountDecisions returns how many filenames are remembered.
func (s *SQLiteStorage) CountDecisions(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM decisions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count decisions: %w", err)
	}
	return n, nil
}
