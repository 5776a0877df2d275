package mysql

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// test ping
	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// schema, satu statement per Exec (driver tidak mengaktifkan multiStatements)
var schema = []string{
	`CREATE TABLE IF NOT EXISTS wafr_analyses (
	analysis_id VARCHAR(64) NOT NULL PRIMARY KEY,
	analysis_title VARCHAR(255) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL,
	analysis_submitter VARCHAR(255) NOT NULL,
	analysis_owner VARCHAR(255) NOT NULL,
	review_owner VARCHAR(255) NOT NULL,
	workload_desc TEXT NOT NULL,
	selected_lens VARCHAR(255) NOT NULL,
	lenses VARCHAR(255) NOT NULL,
	environment VARCHAR(32) NOT NULL,
	industry_type VARCHAR(128) NOT NULL,
	analysis_review_type VARCHAR(32) NOT NULL,
	selected_wafr_pillars JSON NOT NULL,
	document_bucket VARCHAR(255) NOT NULL,
	document_s3_key VARCHAR(1024) NOT NULL,
	creation_date CHAR(19) NOT NULL,
	review_status VARCHAR(32) NOT NULL,
	pillars JSON NULL,
	architecture_summary LONGTEXT NULL,
	extracted_document LONGTEXT NULL,
	UNIQUE KEY uq_wafr_analyses_title (analysis_title)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS wafr_work_items (
	message_id CHAR(26) NOT NULL PRIMARY KEY,
	body JSON NOT NULL,
	enqueued_at DATETIME(6) NOT NULL,
	KEY idx_wafr_work_items_enqueued (enqueued_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates tables if they don't exist
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
