package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	domain "github.com/bryanwahyu/wafr-accelerator/internal/domain/analyses"
	"github.com/bryanwahyu/wafr-accelerator/internal/infra/db"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(conn *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: conn}
}

// PutItem inserts a new analysis. The unique title index turns a concurrent
// duplicate into ErrDuplicateTitle.
func (r *AnalysisRepository) PutItem(ctx context.Context, rec *domain.AnalysisRecord) error {
	selected, err := db.EncodeList(rec.SelectedPillars)
	if err != nil {
		return err
	}
	q := `INSERT INTO wafr_analyses (` + db.InsertColumns + `)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`

	if _, err := r.db.ExecContext(ctx, q, db.InsertArgs(rec, selected)...); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: wafr_analyses.analysis_title") {
			return fmt.Errorf("%w: %q", domain.ErrDuplicateTitle, rec.Title)
		}
		return err
	}
	return nil
}

// ScanAll returns records matching f. Title comparison is case-sensitive.
func (r *AnalysisRepository) ScanAll(ctx context.Context, f domain.Filter, p domain.Projection) ([]*domain.AnalysisRecord, error) {
	cols, scan := db.FullColumns, db.ScanJSONRecord
	if p == domain.ProjectionTitle {
		cols, scan = db.TitleColumns, db.ScanTitle
	}

	q := `SELECT ` + cols + ` FROM wafr_analyses`
	var args []any
	if f.Title != "" {
		q += ` WHERE analysis_title = ?`
		args = append(args, f.Title)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.AnalysisRecord
	for rows.Next() {
		rec, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Page returns up to limit records after the given id, ordered by id.
func (r *AnalysisRepository) Page(ctx context.Context, after domain.AnalysisID, limit int) ([]*domain.AnalysisRecord, domain.AnalysisID, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT ` + db.FullColumns + ` FROM wafr_analyses
WHERE analysis_id > ? ORDER BY analysis_id LIMIT ?`

	rows, err := r.db.QueryContext(ctx, q, after, limit+1)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var out []*domain.AnalysisRecord
	for rows.Next() {
		rec, err := db.ScanJSONRecord(rows)
		if err != nil {
			return nil, "", err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	page, next := db.PageResult(out, limit)
	return page, next, nil
}

// Get by analysis id
func (r *AnalysisRepository) Get(ctx context.Context, id domain.AnalysisID) (*domain.AnalysisRecord, error) {
	q := `SELECT ` + db.FullColumns + ` FROM wafr_analyses WHERE analysis_id = ?`
	rec, err := db.ScanJSONRecord(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return rec, err
}
