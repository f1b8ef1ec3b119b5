package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    email TEXT UNIQUE NOT NULL,
    organization TEXT,
    role TEXT NOT NULL DEFAULT 'user',
    created_at TEXT NOT NULL,
    last_login TEXT
);

CREATE TABLE IF NOT EXISTS data_sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    type TEXT UNIQUE NOT NULL CHECK(type IN ('UNICEF', 'WHO', 'WORLDBANK')),
    url TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'active' CHECK(status IN ('active', 'inactive', 'error')),
    last_fetch TEXT,
    metadata TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS analyses (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER REFERENCES users(id),
    status TEXT NOT NULL CHECK(status IN ('pending', 'completed', 'failed')),
    sources TEXT NOT NULL,
    topics TEXT NOT NULL,
    region TEXT NOT NULL,
    date_range_start TEXT,
    date_range_end TEXT,
    raw_data TEXT,
    analysis_results TEXT,
    error TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS reports (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(id),
    analysis_id INTEGER NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
    type TEXT NOT NULL CHECK(type IN ('summary', 'policy_brief', 'full_report')),
    format TEXT NOT NULL CHECK(format IN ('pdf', 'json', 'html')),
    status TEXT NOT NULL CHECK(status IN ('pending', 'generating', 'completed', 'failed')),
    content TEXT,
    report_metadata TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS policy_briefs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    report_id INTEGER NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
    executive_summary TEXT NOT NULL,
    key_findings TEXT,
    recommendations TEXT,
    target_audience TEXT NOT NULL,
    resource_requirements TEXT,
    impact_assessment TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "index ownership and status lookups",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_analyses_user_status ON analyses(user_id, status);
CREATE INDEX IF NOT EXISTS idx_reports_user_status ON reports(user_id, status);
CREATE INDEX IF NOT EXISTS idx_reports_analysis ON reports(analysis_id);
CREATE INDEX IF NOT EXISTS idx_policy_briefs_report ON policy_briefs(report_id);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
