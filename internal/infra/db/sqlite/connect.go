package sqlite

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"
)

// Open opens a SQLite database with WAL mode enabled and the schema applied.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// in-memory databases are per connection
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates tables if they don't exist
func Migrate(ctx context.Context, db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS wafr_analyses (
	analysis_id TEXT PRIMARY KEY,
	analysis_title TEXT NOT NULL UNIQUE,
	analysis_submitter TEXT NOT NULL,
	analysis_owner TEXT NOT NULL,
	review_owner TEXT NOT NULL,
	workload_desc TEXT NOT NULL,
	selected_lens TEXT NOT NULL,
	lenses TEXT NOT NULL,
	environment TEXT NOT NULL,
	industry_type TEXT NOT NULL,
	analysis_review_type TEXT NOT NULL,
	selected_wafr_pillars TEXT NOT NULL,
	document_bucket TEXT NOT NULL,
	document_s3_key TEXT NOT NULL,
	creation_date TEXT NOT NULL,
	review_status TEXT NOT NULL,
	pillars TEXT,
	architecture_summary TEXT,
	extracted_document TEXT
);

CREATE TABLE IF NOT EXISTS wafr_work_items (
	message_id TEXT PRIMARY KEY,
	body TEXT NOT NULL,
	enqueued_at TEXT NOT NULL
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}
