package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/Veraticus/stow/internal/common"
	"github.com/Veraticus/stow/internal/model"
)

// MarkIgnored suppresses future processing of filename.
func (s *SQLiteStorage) MarkIgnored(ctx context.Context, filename, reason string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(filename, "filename"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ignored_files (filename, reason, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(filename) DO UPDATE SET reason = excluded.reason
	`, filename, reason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark file ignored: %w", err)
	}
	return nil
}

// IsIgnored reports whether filename is marked or matches an ignore pattern.
// Patterns are shell globs matched against the bare filename.
func (s *SQLiteStorage) IsIgnored(ctx context.Context, filename string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(filename, "filename"); err != nil {
		return false, err
	}

	var marked bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM ignored_files WHERE filename = ?)
	`, filename).Scan(&marked)
	if err != nil {
		return false, fmt.Errorf("failed to check ignore mark: %w", err)
	}
	if marked {
		return true, nil
	}

	patterns, err := s.ListIgnorePatterns(ctx)
	if err != nil {
		return false, err
	}

	base := filepath.Base(filename)
	for _, p := range patterns {
		ok, matchErr := filepath.Match(p.Pattern, base)
		if matchErr != nil {
			slog.Warn("Skipping malformed ignore pattern", "pattern", p.Pattern, "error", matchErr)
			continue
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// ListIgnored returns every explicitly ignored filename.
func (s *SQLiteStorage) ListIgnored(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT filename FROM ignored_files ORDER BY filename`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ignored files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan ignored file: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// AddIgnorePattern stores a glob pattern. Re-adding a pattern updates its reason.
func (s *SQLiteStorage) AddIgnorePattern(ctx context.Context, pattern, reason string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePattern(pattern); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ignore_patterns (pattern, reason, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(pattern) DO UPDATE SET reason = excluded.reason
	`, pattern, reason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to add ignore pattern: %w", err)
	}
	return nil
}

// ListIgnorePatterns returns every stored pattern in insertion order.
func (s *SQLiteStorage) ListIgnorePatterns(ctx context.Context) ([]model.IgnorePattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT pattern, reason, created_at FROM ignore_patterns ORDER BY created_at, pattern
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ignore patterns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var patterns []model.IgnorePattern
	for rows.Next() {
		var (
			p      model.IgnorePattern
			reason sql.NullString
		)
		if err := rows.Scan(&p.Pattern, &reason, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ignore pattern: %w", err)
		}
		p.Reason = reason.String
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}

// RemoveIgnorePattern deletes pattern, returning common.ErrNotFound if it was never stored.
func (s *SQLiteStorage) RemoveIgnorePattern(ctx context.Context, pattern string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(pattern, "pattern"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM ignore_patterns WHERE pattern = ?`, pattern)
	if err != nil {
		return fmt.Errorf("failed to remove ignore pattern: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to remove ignore pattern: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("ignore pattern %q: %w", pattern, common.ErrNotFound)
	}
	return nil
}
