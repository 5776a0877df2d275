package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	domain "github.com/bryanwahyu/wafr-accelerator/internal/domain/analyses"
	"github.com/bryanwahyu/wafr-accelerator/internal/infra/db"
)

// uniqueViolation is SQLSTATE 23505
const uniqueViolation pq.ErrorCode = "23505"

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(conn *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: conn}
}

// PutItem inserts a new analysis; the title constraint rejects duplicates.
func (r *AnalysisRepository) PutItem(ctx context.Context, rec *domain.AnalysisRecord) error {
	selected := rec.SelectedPillars
	if selected == nil {
		selected = []string{}
	}
	const q = `
INSERT INTO wafr_analyses
(` + db.InsertColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,
        $9,$10,$11,$12,$13,$14,$15,$16)`

	if _, err := r.db.ExecContext(ctx, q, db.InsertArgs(rec, pq.Array(selected))...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", domain.ErrDuplicateTitle, rec.Title)
		}
		return err
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func scanRecord(s db.Scanner) (*domain.AnalysisRecord, error) {
	var (
		r        db.Row
		selected []string
	)
	if err := s.Scan(r.Dest(pq.Array(&selected))...); err != nil {
		return nil, err
	}
	if selected == nil {
		selected = []string{}
	}
	return r.Record(selected)
}

// ScanAll returns records matching f. Title equality is case-sensitive.
func (r *AnalysisRepository) ScanAll(ctx context.Context, f domain.Filter, p domain.Projection) ([]*domain.AnalysisRecord, error) {
	cols, scan := db.FullColumns, scanRecord
	if p == domain.ProjectionTitle {
		cols, scan = db.TitleColumns, db.ScanTitle
	}

	q := `SELECT ` + cols + ` FROM wafr_analyses`
	var args []any
	if f.Title != "" {
		q += ` WHERE analysis_title = $1`
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

// Page returns up to limit records after the given id.
func (r *AnalysisRepository) Page(ctx context.Context, after domain.AnalysisID, limit int) ([]*domain.AnalysisRecord, domain.AnalysisID, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT ` + db.FullColumns + `
FROM wafr_analyses
WHERE analysis_id > $1
ORDER BY analysis_id ASC
LIMIT $2`

	rows, err := r.db.QueryContext(ctx, q, after, limit+1)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var out []*domain.AnalysisRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
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

// Get by ID
func (r *AnalysisRepository) Get(ctx context.Context, id domain.AnalysisID) (*domain.AnalysisRecord, error) {
	const q = `SELECT ` + db.FullColumns + ` FROM wafr_analyses WHERE analysis_id = $1`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return rec, err
}
