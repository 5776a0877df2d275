// Package db holds the row mapping shared by the SQL record stores.
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	domain "github.com/bryanwahyu/wafr-accelerator/internal/domain/analyses"
)

const (
	AnalysesTable  = "wafr_analyses"
	WorkItemsTable = "wafr_work_items"

	// InsertColumns are written at submission time.
	InsertColumns = `analysis_id, analysis_title, analysis_submitter, analysis_owner, review_owner,
 workload_desc, selected_lens, lenses, environment, industry_type, analysis_review_type,
 selected_wafr_pillars, document_bucket, document_s3_key, creation_date, review_status`

	// FullColumns adds the worker-owned columns.
	FullColumns = InsertColumns + `, pillars, architecture_summary, extracted_document`

	TitleColumns = `analysis_id, analysis_title, analysis_submitter`
)

// Row is the scan target for FullColumns. Selected pillars are scanned into a
// dialect-specific destination.
type Row struct {
	ID, Title, Submitter, Owner, ReviewOwner, Description string
	Lens, LensARN, Environment, Industry, ReviewType       string
	Bucket, Key, CreationDate, Status                      string

	Pillars, Summary, Extracted sql.NullString
}

// Dest returns scan destinations in FullColumns order.
func (r *Row) Dest(selected any) []any {
	return []any{
		&r.ID, &r.Title, &r.Submitter, &r.Owner, &r.ReviewOwner,
		&r.Description, &r.Lens, &r.LensARN, &r.Environment, &r.Industry, &r.ReviewType,
		selected, &r.Bucket, &r.Key, &r.CreationDate, &r.Status,
		&r.Pillars, &r.Summary, &r.Extracted,
	}
}

// Record converts the scanned row. Null worker columns become "not yet available".
func (r *Row) Record(selected []string) (*domain.AnalysisRecord, error) {
	rec := &domain.AnalysisRecord{
		ID:              domain.AnalysisID(r.ID),
		Title:           r.Title,
		Submitter:       r.Submitter,
		Owner:           r.Owner,
		ReviewOwner:     r.ReviewOwner,
		Description:     r.Description,
		Lens:            r.Lens,
		LensARN:         r.LensARN,
		Environment:     r.Environment,
		IndustryType:    r.Industry,
		ReviewType:      r.ReviewType,
		SelectedPillars: selected,
		Document:        domain.DocumentRef{Bucket: r.Bucket, Key: r.Key},
		Status:          domain.Status(r.Status),
	}
	if t, err := domain.ParseCreationDate(r.CreationDate); err == nil {
		rec.CreatedAt = t
	}
	if r.Pillars.Valid {
		var pillars []domain.PillarResult
		if err := json.Unmarshal([]byte(r.Pillars.String), &pillars); err != nil {
			return nil, fmt.Errorf("decode pillars of %s: %w", r.ID, err)
		}
		rec.Pillars = domain.Some(pillars)
	}
	if r.Summary.Valid {
		rec.SolutionSummary = domain.Some(r.Summary.String)
	}
	if r.Extracted.Valid {
		rec.ExtractedDocument = domain.Some(r.Extracted.String)
	}
	return rec, nil
}

// InsertArgs returns the values for InsertColumns.
func InsertArgs(rec *domain.AnalysisRecord, selected any) []any {
	return []any{
		rec.ID, rec.Title, rec.Submitter, rec.Owner, rec.ReviewOwner,
		rec.Description, rec.Lens, rec.LensARN, rec.Environment, rec.IndustryType, rec.ReviewType,
		selected, rec.Document.Bucket, rec.Document.Key, rec.CreationDate(), string(rec.Status),
	}
}

// EncodeList stores a string list as a JSON array.
func EncodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeList reads a JSON array written by EncodeList. Empty input is an empty list.
func DecodeList(s string) ([]string, error) {
	if s == "" {
		return []string{}, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return out, nil
}

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanTitle reads a TitleColumns row.
func ScanTitle(s Scanner) (*domain.AnalysisRecord, error) {
	var rec domain.AnalysisRecord
	if err := s.Scan(&rec.ID, &rec.Title, &rec.Submitter); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ScanJSONRecord reads a FullColumns row whose selected pillars are a JSON array.
func ScanJSONRecord(s Scanner) (*domain.AnalysisRecord, error) {
	var (
		r        Row
		selected string
	)
	if err := s.Scan(r.Dest(&selected)...); err != nil {
		return nil, err
	}
	list, err := DecodeList(selected)
	if err != nil {
		return nil, err
	}
	return r.Record(list)
}

// PageResult trims a limit+1 result set to limit and derives the next cursor.
func PageResult(recs []*domain.AnalysisRecord, limit int) ([]*domain.AnalysisRecord, domain.AnalysisID) {
	if len(recs) <= limit {
		return recs, ""
	}
	recs = recs[:limit]
	return recs, recs[limit-1].ID
}
