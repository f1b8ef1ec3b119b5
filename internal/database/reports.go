package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const reportColumns = "id, user_id, analysis_id, type, format, status, content, report_metadata, created_at, updated_at"

// InsertReport persists a new report and returns its ID.
func (db *DB) InsertReport(ctx context.Context, r *Report) (int64, error) {
	now := time.Now().UTC()
	if r.Status == "" {
		r.Status = ReportGenerating
	}
	r.CreatedAt, r.UpdatedAt = now, now

	metadata, err := encodeJSON(r.Metadata)
	if err != nil {
		return 0, fmt.Errorf("encoding report metadata: %w", err)
	}
	content, err := encodeJSON(r.Content)
	if err != nil {
		return 0, fmt.Errorf("encoding content: %w", err)
	}
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO reports (user_id, analysis_id, type, format, status, content, report_metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.UserID, r.AnalysisID, r.Type, r.Format, r.Status, content, metadata, formatTime(now), formatTime(now),
	)
	if err != nil {
		return 0, err
	}
	r.ID, err = result.LastInsertId()
	return r.ID, err
}

// GetReport returns a report by ID, or nil if absent.
func (db *DB) GetReport(ctx context.Context, id int64) (*Report, error) {
	row := db.conn.QueryRowContext(ctx, "SELECT "+reportColumns+" FROM reports WHERE id = ?", id)
	return scanReport(row)
}

// ListReportsByUser returns a user's reports, newest first.
func (db *DB) ListReportsByUser(ctx context.Context, userID int64) ([]Report, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+reportColumns+" FROM reports WHERE user_id = ? ORDER BY id DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// CompleteReport stores content and moves a generating report to completed.
func (db *DB) CompleteReport(ctx context.Context, id int64, content json.RawMessage, at time.Time) error {
	return db.execOne(ctx,
		"UPDATE reports SET content = ?, status = ?, updated_at = ? WHERE id = ? AND status = ?",
		string(content), ReportCompleted, formatTime(at), id, ReportGenerating)
}

// FailReport moves a generating report to failed and merges the error
// message into its report_metadata.
func (db *DB) FailReport(ctx context.Context, id int64, message string, at time.Time) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var raw sql.NullString
	if err := tx.QueryRowContext(ctx,
		"SELECT report_metadata FROM reports WHERE id = ? AND status = ?", id, ReportGenerating,
	).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNoRowsAffected
		}
		return err
	}
	metadata := map[string]any{}
	if err := decodeJSON(raw, &metadata); err != nil {
		return fmt.Errorf("decoding report metadata: %w", err)
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["error"] = message

	encoded, err := encodeJSON(metadata)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE reports SET status = ?, report_metadata = ?, updated_at = ? WHERE id = ?",
		ReportFailed, encoded, formatTime(at), id,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateReport writes the mutable fields of a report: type, format and
// report_metadata.
func (db *DB) UpdateReport(ctx context.Context, r *Report) error {
	r.UpdatedAt = time.Now().UTC()
	metadata, err := encodeJSON(r.Metadata)
	if err != nil {
		return fmt.Errorf("encoding report metadata: %w", err)
	}
	return db.execOne(ctx,
		"UPDATE reports SET type = ?, format = ?, report_metadata = ?, updated_at = ? WHERE id = ?",
		r.Type, r.Format, metadata, formatTime(r.UpdatedAt), r.ID)
}

// DeleteReport removes a report; its brief cascades.
func (db *DB) DeleteReport(ctx context.Context, id int64) (bool, error) {
	result, err := db.conn.ExecContext(ctx, "DELETE FROM reports WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// CountReportsByStatus counts a user's reports in the given status.
func (db *DB) CountReportsByStatus(ctx context.Context, userID int64, status string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reports WHERE user_id = ? AND status = ?", userID, status,
	).Scan(&n)
	return n, err
}

func scanReport(row rowScanner) (*Report, error) {
	var (
		r         Report
		content   sql.NullString
		metadata  sql.NullString
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&r.ID, &r.UserID, &r.AnalysisID, &r.Type, &r.Format, &r.Status,
		&content, &metadata, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	r.Content = rawJSON(content)
	if err := decodeJSON(metadata, &r.Metadata); err != nil {
		return nil, fmt.Errorf("decoding report metadata: %w", err)
	}
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	return &r, nil
}
