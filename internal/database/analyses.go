package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const analysisColumns = `id, user_id, status, sources, topics, region, date_range_start, date_range_end,
	raw_data, analysis_results, error, created_at, updated_at`

// InsertAnalysis persists a new analysis and returns its ID.
func (db *DB) InsertAnalysis(ctx context.Context, a *Analysis) (int64, error) {
	now := time.Now().UTC()
	if a.Status == "" {
		a.Status = AnalysisPending
	}
	a.CreatedAt, a.UpdatedAt = now, now

	sources, err := encodeJSON(a.Sources)
	if err != nil {
		return 0, fmt.Errorf("encoding sources: %w", err)
	}
	topics, err := encodeJSON(a.Topics)
	if err != nil {
		return 0, fmt.Errorf("encoding topics: %w", err)
	}

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO analyses (user_id, status, sources, topics, region, date_range_start, date_range_end, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.UserID, a.Status, sources, topics, a.Region,
		nullableTime(a.DateRangeStart), nullableTime(a.DateRangeEnd), formatTime(now), formatTime(now),
	)
	if err != nil {
		return 0, err
	}
	a.ID, err = result.LastInsertId()
	return a.ID, err
}

// GetAnalysis returns an analysis by ID, or nil if absent.
func (db *DB) GetAnalysis(ctx context.Context, id int64) (*Analysis, error) {
	row := db.conn.QueryRowContext(ctx, "SELECT "+analysisColumns+" FROM analyses WHERE id = ?", id)
	return scanAnalysis(row)
}

// ListAnalysesByUser returns a user's analyses, newest first.
func (db *DB) ListAnalysesByUser(ctx context.Context, userID int64) ([]Analysis, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+analysisColumns+" FROM analyses WHERE user_id = ? ORDER BY id DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// SetAnalysisRawData stores the aggregated source payload.
func (db *DB) SetAnalysisRawData(ctx context.Context, id int64, raw json.RawMessage, at time.Time) error {
	return db.execOne(ctx,
		"UPDATE analyses SET raw_data = ?, updated_at = ? WHERE id = ?",
		string(raw), formatTime(at), id)
}

// CompleteAnalysis records results and moves a pending analysis to completed.
func (db *DB) CompleteAnalysis(ctx context.Context, id int64, results json.RawMessage, at time.Time) error {
	return db.execOne(ctx,
		"UPDATE analyses SET analysis_results = ?, status = ?, error = NULL, updated_at = ? WHERE id = ? AND status = ?",
		string(results), AnalysisCompleted, formatTime(at), id, AnalysisPending)
}

// FailAnalysis records an error and moves a pending analysis to failed.
func (db *DB) FailAnalysis(ctx context.Context, id int64, message string, at time.Time) error {
	return db.execOne(ctx,
		"UPDATE analyses SET status = ?, error = ?, updated_at = ? WHERE id = ? AND status = ?",
		AnalysisFailed, message, formatTime(at), id, AnalysisPending)
}

// DeleteAnalysis removes an analysis; its reports and briefs cascade.
// Returns false if nothing was deleted.
func (db *DB) DeleteAnalysis(ctx context.Context, id int64) (bool, error) {
	result, err := db.conn.ExecContext(ctx, "DELETE FROM analyses WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// CountAnalysesByStatus counts a user's analyses in the given status.
func (db *DB) CountAnalysesByStatus(ctx context.Context, userID int64, status string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM analyses WHERE user_id = ? AND status = ?", userID, status,
	).Scan(&n)
	return n, err
}

// execOne runs an update that must touch exactly one row.
func (db *DB) execOne(ctx context.Context, query string, args ...any) error {
	result, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// ErrNoRowsAffected is returned when an update matched no row, either because
// the record is gone or because it already left the expected state.
var ErrNoRowsAffected = errors.New("no rows affected")

func scanAnalysis(row rowScanner) (*Analysis, error) {
	var (
		a         Analysis
		userID    sql.NullInt64
		sources   sql.NullString
		topics    sql.NullString
		start     sql.NullString
		end       sql.NullString
		rawData   sql.NullString
		results   sql.NullString
		errMsg    sql.NullString
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&a.ID, &userID, &a.Status, &sources, &topics, &a.Region, &start, &end,
		&rawData, &results, &errMsg, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if userID.Valid {
		a.UserID = &userID.Int64
	}
	if err := decodeJSON(sources, &a.Sources); err != nil {
		return nil, fmt.Errorf("decoding sources: %w", err)
	}
	if err := decodeJSON(topics, &a.Topics); err != nil {
		return nil, fmt.Errorf("decoding topics: %w", err)
	}
	a.DateRangeStart = parseNullTime(start)
	a.DateRangeEnd = parseNullTime(end)
	a.RawData = rawJSON(rawData)
	a.AnalysisResults = rawJSON(results)
	a.Error = nullString(errMsg)
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return &a, nil
}
