package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Veraticus/stow/internal/model"
)

// AppendLearning adds one entry to the feedback ledger.
func (s *SQLiteStorage) AppendLearning(ctx context.Context, filename, folder string, action model.LearningAction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(filename, "filename"); err != nil {
		return err
	}
	if err := validateString(folder, "folder"); err != nil {
		return err
	}
	if err := validateAction(action); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO learning (filename, suggested_folder, action, created_at)
		VALUES (?, ?, ?, ?)
	`, filename, folder, string(action), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to append learning record: %w", err)
	}
	return nil
}

// QueryLearningStats aggregates the ledger for one (filename, folder) pair.
func (s *SQLiteStorage) QueryLearningStats(ctx context.Context, filename, folder string) (model.LearningStats, error) {
	if err := validateContext(ctx); err != nil {
		return model.LearningStats{}, err
	}
	if err := validateString(filename, "filename"); err != nil {
		return model.LearningStats{}, err
	}
	if err := validateString(folder, "folder"); err != nil {
		return model.LearningStats{}, err
	}

	counts, err := s.countActions(ctx, s.db, `
		SELECT action, COUNT(*) FROM learning
		WHERE filename = ? AND suggested_folder = ?
		GROUP BY action
	`, filename, folder)
	if err != nil {
		return model.LearningStats{}, err
	}

	stats := model.LearningStats{
		Accepts: counts[model.ActionAccept],
		Rejects: counts[model.ActionChoose],
		Ignores: counts[model.ActionIgnore],
	}
	stats.Total = stats.Accepts + stats.Rejects + stats.Ignores
	return stats, nil
}

// QueryFolderReputation aggregates the ledger for one folder across all filenames.
func (s *SQLiteStorage) QueryFolderReputation(ctx context.Context, folder string) (model.FolderReputation, error) {
	if err := validateContext(ctx); err != nil {
		return model.FolderReputation{}, err
	}
	if err := validateString(folder, "folder"); err != nil {
		return model.FolderReputation{}, err
	}

	counts, err := s.countActions(ctx, s.db, `
		SELECT action, COUNT(*) FROM learning
		WHERE suggested_folder = ?
		GROUP BY action
	`, folder)
	if err != nil {
		return model.FolderReputation{}, err
	}

	return reputationFrom(counts), nil
}

// ListLearning returns the newest ledger entries first.
func (s *SQLiteStorage) ListLearning(ctx context.Context, limit int) ([]model.LearningRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, suggested_folder, action, created_at
		FROM learning
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list learning records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.LearningRecord
	for rows.Next() {
		var (
			rec    model.LearningRecord
			action string
		)
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.SuggestedFolder, &action, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan learning record: %w", err)
		}
		parsed, err := model.ParseLearningAction(action)
		if err != nil {
			slog.Warn("Skipping learning record with unknown action", "id", rec.ID, "error", err)
			continue
		}
		rec.Action = parsed
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating learning records: %w", err)
	}
	return records, nil
}

// FolderInsights reports every folder with at least minSamples ledger entries,
// busiest first.
func (s *SQLiteStorage) FolderInsights(ctx context.Context, minSamples int) ([]model.FolderInsight, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if minSamples < 1 {
		minSamples = 1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT suggested_folder, action, COUNT(*)
		FROM learning
		GROUP BY suggested_folder, action
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query folder insights: %w", err)
	}
	defer func() { _ = rows.Close() }()

	perFolder := make(map[string]map[model.LearningAction]int)
	for rows.Next() {
		var (
			folder, action string
			n              int
		)
		if err := rows.Scan(&folder, &action, &n); err != nil {
			return nil, fmt.Errorf("failed to scan folder insight: %w", err)
		}
		parsed, err := model.ParseLearningAction(action)
		if err != nil {
			slog.Warn("Ignoring unknown learning action", "folder", folder, "error", err)
			continue
		}
		if perFolder[folder] == nil {
			perFolder[folder] = make(map[model.LearningAction]int)
		}
		perFolder[folder][parsed] += n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating folder insights: %w", err)
	}

	insights := make([]model.FolderInsight, 0, len(perFolder))
	for folder, counts := range perFolder {
		rep := reputationFrom(counts)
		if rep.Total < minSamples {
			continue
		}
		insights = append(insights, model.FolderInsight{
			Folder:     folder,
			Total:      rep.Total,
			AcceptRate: rep.AcceptRate,
			RejectRate: rep.RejectRate,
		})
	}

	sort.Slice(insights, func(i, j int) bool {
		if insights[i].Total != insights[j].Total {
			return insights[i].Total > insights[j].Total
		}
		return insights[i].Folder < insights[j].Folder
	})
	return insights, nil
}

// countActions runs a (action, count) aggregate and folds it into a map.
// Rows carrying an action outside the closed set are logged and skipped.
func (s *SQLiteStorage) countActions(ctx context.Context, q queryable, query string, args ...any) (map[model.LearningAction]int, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query learning stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[model.LearningAction]int, 3)
	for rows.Next() {
		var (
			action string
			n      int
		)
		if err := rows.Scan(&action, &n); err != nil {
			return nil, fmt.Errorf("failed to scan learning stats: %w", err)
		}
		parsed, err := model.ParseLearningAction(action)
		if err != nil {
			slog.Warn("Ignoring unknown learning action", "error", err)
			continue
		}
		counts[parsed] += n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating learning stats: %w", err)
	}
	return counts, nil
}

func reputationFrom(counts map[model.LearningAction]int) model.FolderReputation {
	accepts := counts[model.ActionAccept]
	rejects := counts[model.ActionChoose]
	ignores := counts[model.ActionIgnore]
	total := accepts + rejects + ignores

	rep := model.FolderReputation{Total: total}
	if total == 0 {
		return rep
	}
	rep.AcceptRate = float64(accepts) / float64(total)
	rep.RejectRate = float64(rejects) / float64(total)
	rep.IgnoreRate = float64(ignores) / float64(total)
	return rep
}
