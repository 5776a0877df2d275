package sqlite_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/wafr-accelerator/internal/domain/analyses"
	"github.com/bryanwahyu/wafr-accelerator/internal/infra/db/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func newRecord(id, title string) *domain.AnalysisRecord {
	return &domain.AnalysisRecord{
		ID:              domain.AnalysisID(id),
		Title:           title,
		Submitter:       "bob",
		Owner:           "bob",
		ReviewOwner:     "alice",
		Description:     "desc",
		Lens:            "AWS Well-Architected Framework",
		LensARN:         "wellarchitected",
		Environment:     "PRODUCTION",
		IndustryType:    "Finance",
		ReviewType:      "Quick",
		SelectedPillars: []string{"Security", "Reliability"},
		Document:        domain.DocumentRef{Bucket: "uploads", Key: "bob/analyses/" + id + "/a.pdf"},
		Status:          domain.StatusSubmitted,
		CreatedAt:       time.Date(2026, 5, 6, 7, 8, 9, 0, time.Local),
	}
}

func TestAnalysisRepository_PutAndGet(t *testing.T) {
	t.Parallel()

	repo := sqlite.NewAnalysisRepository(openDB(t))
	ctx := context.Background()
	want := newRecord("a-1", "Payments")

	require.NoError(t, repo.PutItem(ctx, want))

	got, err := repo.Get(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.SelectedPillars, got.SelectedPillars)
	assert.Equal(t, want.Document, got.Document)
	assert.Equal(t, domain.StatusSubmitted, got.Status)
	assert.Equal(t, "2026-05-06 07-08-09", got.CreationDate())
	assert.False(t, got.Pillars.Available())
	assert.False(t, got.SolutionSummary.Available())
	assert.False(t, got.ExtractedDocument.Available())
}

func TestAnalysisRepository_GetNotFound(t *testing.T) {
	t.Parallel()

	repo := sqlite.NewAnalysisRepository(openDB(t))

	_, err := repo.Get(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAnalysisRepository_WorkerColumns(t *testing.T) {
	t.Parallel()

	conn := openDB(t)
	repo := sqlite.NewAnalysisRepository(conn)
	ctx := context.Background()
	require.NoError(t, repo.PutItem(ctx, newRecord("a-1", "Payments")))

	pillars, err := json.Marshal([]domain.PillarResult{{PillarName: "Security", GeneratedResponse: "use KMS"}})
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx,
		`UPDATE wafr_analyses SET pillars = ?, architecture_summary = ?, review_status = ? WHERE analysis_id = ?`,
		string(pillars), "serverless", "Completed", "a-1")
	require.NoError(t, err)

	got, err := repo.Get(ctx, "a-1")
	require.NoError(t, err)

	p, ok := got.Pillar("Security")
	require.True(t, ok)
	assert.Equal(t, "use KMS", p.GeneratedResponse)
	summary, ok := got.SolutionSummary.Get()
	require.True(t, ok)
	assert.Equal(t, "serverless", summary)
	assert.False(t, got.ExtractedDocument.Available())
	assert.Equal(t, domain.Status("Completed"), got.Status)
}

func TestAnalysisRepository_ScanAllTitleIsCaseSensitive(t *testing.T) {
	t.Parallel()

	repo := sqlite.NewAnalysisRepository(openDB(t))
	ctx := context.Background()
	require.NoError(t, repo.PutItem(ctx, newRecord("a-1", "Foo")))
	require.NoError(t, repo.PutItem(ctx, newRecord("a-2", "Bar")))

	matches, err := repo.ScanAll(ctx, domain.Filter{Title: "Foo"}, domain.ProjectionTitle)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, domain.AnalysisID("a-1"), matches[0].ID)
	assert.Equal(t, "bob", matches[0].Submitter)
	assert.Empty(t, matches[0].Description, "title projection leaves other attributes unset")

	matches, err = repo.ScanAll(ctx, domain.Filter{Title: "foo"}, domain.ProjectionTitle)
	require.NoError(t, err)
	assert.Empty(t, matches)

	all, err := repo.ScanAll(ctx, domain.Filter{}, domain.ProjectionFull)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAnalysisRepository_DuplicateTitleRejected(t *testing.T) {
	t.Parallel()

	repo := sqlite.NewAnalysisRepository(openDB(t))
	ctx := context.Background()
	require.NoError(t, repo.PutItem(ctx, newRecord("a-1", "Foo")))

	err := repo.PutItem(ctx, newRecord("a-2", "Foo"))

	require.ErrorIs(t, err, domain.ErrDuplicateTitle)
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestAnalysisRepository_Page(t *testing.T) {
	t.Parallel()

	repo := sqlite.NewAnalysisRepository(openDB(t))
	ctx := context.Background()
	for i := range 5 {
		require.NoError(t, repo.PutItem(ctx, newRecord(fmt.Sprintf("id-%d", i), fmt.Sprintf("t-%d", i))))
	}

	page, next, err := repo.Page(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, domain.AnalysisID("id-1"), next)

	var seen []domain.AnalysisID
	after := domain.AnalysisID("")
	for {
		page, next, err := repo.Page(ctx, after, 2)
		require.NoError(t, err)
		for _, r := range page {
			seen = append(seen, r.ID)
		}
		if next == "" {
			break
		}
		after = next
	}
	assert.Equal(t, []domain.AnalysisID{"id-0", "id-1", "id-2", "id-3", "id-4"}, seen)
}
