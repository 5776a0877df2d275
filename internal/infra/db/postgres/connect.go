package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS wafr_analyses (
	analysis_id TEXT PRIMARY KEY,
	analysis_title TEXT NOT NULL,
	analysis_submitter TEXT NOT NULL,
	analysis_owner TEXT NOT NULL,
	review_owner TEXT NOT NULL,
	workload_desc TEXT NOT NULL,
	selected_lens TEXT NOT NULL,
	lenses TEXT NOT NULL,
	environment TEXT NOT NULL,
	industry_type TEXT NOT NULL,
	analysis_review_type TEXT NOT NULL,
	selected_wafr_pillars TEXT[] NOT NULL,
	document_bucket TEXT NOT NULL,
	document_s3_key TEXT NOT NULL,
	creation_date TEXT NOT NULL,
	review_status TEXT NOT NULL,
	pillars JSONB,
	architecture_summary TEXT,
	extracted_document TEXT,
	CONSTRAINT uq_wafr_analyses_title UNIQUE (analysis_title)
);

CREATE TABLE IF NOT EXISTS wafr_work_items (
	message_id TEXT PRIMARY KEY,
	body JSONB NOT NULL,
	enqueued_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate creates tables if they don't exist
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
