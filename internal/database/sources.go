package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const sourceColumns = "id, name, type, url, status, last_fetch, metadata, created_at, updated_at"

// InsertDataSource registers a provider row and returns its ID.
func (db *DB) InsertDataSource(ctx context.Context, s *DataSource) (int64, error) {
	now := time.Now().UTC()
	if s.Status == "" {
		s.Status = SourceActive
	}
	s.CreatedAt, s.UpdatedAt = now, now

	metadata, err := encodeJSON(s.Metadata)
	if err != nil {
		return 0, fmt.Errorf("encoding metadata: %w", err)
	}
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO data_sources (name, type, url, status, last_fetch, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Name, s.Type, s.URL, s.Status, nullableTime(s.LastFetch), metadata, formatTime(now), formatTime(now),
	)
	if err != nil {
		return 0, err
	}
	s.ID, err = result.LastInsertId()
	return s.ID, err
}

// GetDataSourceByType returns the row for a source type, or nil if absent.
func (db *DB) GetDataSourceByType(ctx context.Context, sourceType string) (*DataSource, error) {
	row := db.conn.QueryRowContext(ctx, "SELECT "+sourceColumns+" FROM data_sources WHERE type = ?", sourceType)
	return scanDataSource(row)
}

// ListDataSources returns all registered sources ordered by ID.
func (db *DB) ListDataSources(ctx context.Context) ([]DataSource, error) {
	rows, err := db.conn.QueryContext(ctx, "SELECT "+sourceColumns+" FROM data_sources ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DataSource
	for rows.Next() {
		s, err := scanDataSource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// SaveDataSources writes status, last_fetch and metadata for every given
// row in a single transaction.
func (db *DB) SaveDataSources(ctx context.Context, sources []DataSource) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := formatTime(time.Now())
	for _, s := range sources {
		metadata, err := encodeJSON(s.Metadata)
		if err != nil {
			return fmt.Errorf("encoding metadata for %s: %w", s.Type, err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE data_sources SET status = ?, last_fetch = ?, metadata = ?, updated_at = ? WHERE id = ?`,
			s.Status, nullableTime(s.LastFetch), metadata, now, s.ID,
		); err != nil {
			return fmt.Errorf("updating %s: %w", s.Type, err)
		}
	}
	return tx.Commit()
}

// RecordFetch stamps last_fetch and merges last_fetch_status into the
// source's metadata.
func (db *DB) RecordFetch(ctx context.Context, sourceType string, at time.Time, status string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var raw sql.NullString
	if err := tx.QueryRowContext(ctx, "SELECT metadata FROM data_sources WHERE type = ?", sourceType).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("data source %s not registered", sourceType)
		}
		return err
	}
	metadata := map[string]any{}
	if err := decodeJSON(raw, &metadata); err != nil {
		return fmt.Errorf("decoding metadata: %w", err)
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["last_fetch_status"] = status

	encoded, err := encodeJSON(metadata)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE data_sources SET last_fetch = ?, metadata = ?, updated_at = ? WHERE type = ?",
		formatTime(at), encoded, formatTime(at), sourceType,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// SetDataSourceStatus changes a source's status, e.g. to take it offline.
func (db *DB) SetDataSourceStatus(ctx context.Context, sourceType, status string) error {
	result, err := db.conn.ExecContext(ctx,
		"UPDATE data_sources SET status = ?, updated_at = ? WHERE type = ?",
		status, formatTime(time.Now()), sourceType,
	)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("data source %s not registered", sourceType)
	}
	return nil
}

func scanDataSource(row rowScanner) (*DataSource, error) {
	var (
		s         DataSource
		lastFetch sql.NullString
		metadata  sql.NullString
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Type, &s.URL, &s.Status, &lastFetch, &metadata, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.LastFetch = parseNullTime(lastFetch)
	if err := decodeJSON(metadata, &s.Metadata); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	s.CreatedAt = parseTime(createdAt)
	s.UpdatedAt = parseTime(updatedAt)
	return &s, nil
}
