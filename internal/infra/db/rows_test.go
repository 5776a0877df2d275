package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/wafr-accelerator/internal/domain/analyses"
)

func TestRowRecord_WorkerColumns(t *testing.T) {
	t.Parallel()

	r := Row{ID: "a-1", CreationDate: "2026-01-02 03-04-05"}
	rec, err := r.Record([]string{"Security"})
	require.NoError(t, err)
	assert.False(t, rec.Pillars.Available())
	assert.False(t, rec.SolutionSummary.Available())
	assert.Equal(t, "2026-01-02 03-04-05", rec.CreationDate())

	r.Pillars = sql.NullString{String: `[{"pillar_name":"Security","llm_response":"ok"}]`, Valid: true}
	r.Summary = sql.NullString{String: "", Valid: true}
	rec, err = r.Record(nil)
	require.NoError(t, err)

	pillars, ok := rec.Pillars.Get()
	require.True(t, ok)
	assert.Equal(t, []domain.PillarResult{{PillarName: "Security", GeneratedResponse: "ok"}}, pillars)
	summary, ok := rec.SolutionSummary.Get()
	assert.True(t, ok, "an empty summary is available, not pending")
	assert.Empty(t, summary)
}

func TestRowRecord_BadPillars(t *testing.T) {
	t.Parallel()

	r := Row{ID: "a-1", Pillars: sql.NullString{String: "{", Valid: true}}
	_, err := r.Record(nil)
	assert.Error(t, err)
}

func TestListRoundTrip(t *testing.T) {
	t.Parallel()

	s, err := EncodeList(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", s)

	list, err := DecodeList(`["a","b"]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, list)

	list, err = DecodeList("")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPageResult(t *testing.T) {
	t.Parallel()

	recs := []*domain.AnalysisRecord{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	page, next := PageResult(recs, 2)
	assert.Len(t, page, 2)
	assert.Equal(t, domain.AnalysisID("b"), next)

	page, next = PageResult(recs, 3)
	assert.Len(t, page, 3)
	assert.Empty(t, next)
}
