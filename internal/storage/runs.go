package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/leech-actions/internal/model"
)

// SaveRun records a committed or automatic run.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run model.RunSummary) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(&run); err != nil {
		return err
	}

	var finished any
	if !run.FinishedAt.IsZero() {
		finished = run.FinishedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leech_runs (id, mode, started_at, finished_at, total, applied, skipped, failed, interrupted, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, string(run.Mode), run.StartedAt, finished,
		run.Total, run.Applied, run.Skipped, run.Failed, run.Interrupted, run.Summary)
	if err != nil {
		return mapError(fmt.Errorf("failed to save run %s: %w", run.RunID, err))
	}
	return nil
}

// ListRuns returns recorded runs, newest first. A limit of zero returns all.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, mode, started_at, finished_at, total, applied, skipped, failed, interrupted, summary
		FROM leech_runs ORDER BY started_at DESC, id`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to list runs: %w", err))
	}
	defer func() { _ = rows.Close() }()

	var runs []model.RunSummary
	for rows.Next() {
		var (
			run      model.RunSummary
			mode     string
			finished sql.NullTime
		)
		if err := rows.Scan(&run.RunID, &mode, &run.StartedAt, &finished,
			&run.Total, &run.Applied, &run.Skipped, &run.Failed, &run.Interrupted, &run.Summary); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Mode = model.RunMode(mode)
		if finished.Valid {
			run.FinishedAt = finished.Time
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
