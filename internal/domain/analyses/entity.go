package analyses

import (
	"encoding/json"
	"time"
)

// AnalysisID identifier type
type AnalysisID string

// Status enum. This service only ever writes StatusSubmitted; later
// transitions belong to the analysis worker.
type Status string

const (
	StatusSubmitted Status = "Submitted"
)

// CreationDateLayout is the wire format of creation_date ("YYYY-MM-DD HH-MM-SS").
const CreationDateLayout = "2006-01-02 15-04-05"

// DocumentRef locates an uploaded document in the object store.
type DocumentRef struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// PillarResult is one pillar review written back by the worker.
type PillarResult struct {
	PillarName        string `json:"pillar_name"`
	GeneratedResponse string `json:"llm_response"`
}

// Optional holds a worker-populated value that may not be available yet.
// The zero value is "not yet available", which is distinct from an
// available empty value.
type Optional[T any] struct {
	value T
	ok    bool
}

func Some[T any](v T) Optional[T] { return Optional[T]{value: v, ok: true} }

func None[T any]() Optional[T] { return Optional[T]{} }

// Get returns the value and whether it is available.
func (o Optional[T]) Get() (T, bool) { return o.value, o.ok }

func (o Optional[T]) Available() bool { return o.ok }

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.ok {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*o = None[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// Aggregate Root: AnalysisRecord
type AnalysisRecord struct {
	ID              AnalysisID  `json:"analysis_id"`
	Title           string      `json:"analysis_title"`
	Submitter       string      `json:"analysis_submitter"`
	Owner           string      `json:"analysis_owner"`
	ReviewOwner     string      `json:"review_owner"`
	Description     string      `json:"workload_desc"`
	Lens            string      `json:"selected_lens"`
	LensARN         string      `json:"lenses"`
	Environment     string      `json:"environment"`
	IndustryType    string      `json:"industry_type"`
	ReviewType      string      `json:"analysis_review_type"`
	SelectedPillars []string    `json:"selected_wafr_pillars"`
	Document        DocumentRef `json:"document"`
	Status          Status      `json:"review_status"`
	CreatedAt       time.Time   `json:"-"`

	Pillars           Optional[[]PillarResult] `json:"pillars"`
	SolutionSummary   Optional[string]         `json:"architecture_summary"`
	ExtractedDocument Optional[string]         `json:"extracted_document"`
}

// CreationDate renders CreatedAt in the persisted creation_date format.
func (r *AnalysisRecord) CreationDate() string {
	return r.CreatedAt.Format(CreationDateLayout)
}

// MarshalJSON adds creation_date in its persisted format.
func (r AnalysisRecord) MarshalJSON() ([]byte, error) {
	type plain AnalysisRecord
	return json.Marshal(struct {
		plain
		CreationDate string `json:"creation_date"`
	}{plain(r), r.CreationDate()})
}

// ParseCreationDate parses a persisted creation_date value.
func ParseCreationDate(s string) (time.Time, error) {
	return time.ParseInLocation(CreationDateLayout, s, time.Local)
}

// Pillar returns the generated response for a pillar by exact name.
func (r *AnalysisRecord) Pillar(name string) (PillarResult, bool) {
	pillars, ok := r.Pillars.Get()
	if !ok {
		return PillarResult{}, false
	}
	for _, p := range pillars {
		if p.PillarName == name {
			return p, true
		}
	}
	return PillarResult{}, false
}
