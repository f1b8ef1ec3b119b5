package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const briefColumns = `id, report_id, executive_summary, key_findings, recommendations, target_audience,
	resource_requirements, impact_assessment, created_at, updated_at`

// InsertPolicyBrief persists a brief and returns its ID.
func (db *DB) InsertPolicyBrief(ctx context.Context, b *PolicyBrief) (int64, error) {
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now

	cols, err := encodeBriefJSON(b)
	if err != nil {
		return 0, err
	}
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO policy_briefs (report_id, executive_summary, key_findings, recommendations, target_audience,
		resource_requirements, impact_assessment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ReportID, b.ExecutiveSummary, cols[0], cols[1], b.TargetAudience, cols[2], cols[3],
		formatTime(now), formatTime(now),
	)
	if err != nil {
		return 0, err
	}
	b.ID, err = result.LastInsertId()
	return b.ID, err
}

// GetPolicyBrief returns a brief by ID, or nil if absent.
func (db *DB) GetPolicyBrief(ctx context.Context, id int64) (*PolicyBrief, error) {
	row := db.conn.QueryRowContext(ctx, "SELECT "+briefColumns+" FROM policy_briefs WHERE id = ?", id)
	return scanPolicyBrief(row)
}

// GetPolicyBriefByReport returns the brief attached to a report, or nil.
func (db *DB) GetPolicyBriefByReport(ctx context.Context, reportID int64) (*PolicyBrief, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+briefColumns+" FROM policy_briefs WHERE report_id = ? ORDER BY id LIMIT 1", reportID)
	return scanPolicyBrief(row)
}

// UpdatePolicyBrief writes the mutable fields of a brief.
func (db *DB) UpdatePolicyBrief(ctx context.Context, b *PolicyBrief) error {
	b.UpdatedAt = time.Now().UTC()
	cols, err := encodeBriefJSON(b)
	if err != nil {
		return err
	}
	return db.execOne(ctx,
		`UPDATE policy_briefs SET executive_summary = ?, key_findings = ?, recommendations = ?, target_audience = ?,
		resource_requirements = ?, impact_assessment = ?, updated_at = ? WHERE id = ?`,
		b.ExecutiveSummary, cols[0], cols[1], b.TargetAudience, cols[2], cols[3], formatTime(b.UpdatedAt), b.ID)
}

func encodeBriefJSON(b *PolicyBrief) ([4]any, error) {
	var cols [4]any
	for i, v := range []any{b.KeyFindings, b.Recommendations, b.ResourceRequirements, b.ImpactAssessment} {
		enc, err := encodeJSON(v)
		if err != nil {
			return cols, fmt.Errorf("encoding policy brief: %w", err)
		}
		cols[i] = enc
	}
	return cols, nil
}

func scanPolicyBrief(row rowScanner) (*PolicyBrief, error) {
	var (
		b               PolicyBrief
		keyFindings     sql.NullString
		recommendations sql.NullString
		resources       sql.NullString
		impact          sql.NullString
		createdAt       string
		updatedAt       string
	)
	if err := row.Scan(&b.ID, &b.ReportID, &b.ExecutiveSummary, &keyFindings, &recommendations,
		&b.TargetAudience, &resources, &impact, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	for _, f := range []struct {
		raw  sql.NullString
		dest any
	}{
		{keyFindings, &b.KeyFindings},
		{recommendations, &b.Recommendations},
		{resources, &b.ResourceRequirements},
		{impact, &b.ImpactAssessment},
	} {
		if err := decodeJSON(f.raw, f.dest); err != nil {
			return nil, fmt.Errorf("decoding policy brief: %w", err)
		}
	}
	b.CreatedAt = parseTime(createdAt)
	b.UpdatedAt = parseTime(updatedAt)
	return &b, nil
}
