package analyses

// WorkItem is the queued payload the analysis worker consumes.
// Field names are the queue wire contract.
type WorkItem struct {
	AnalysisID      AnalysisID `json:"analysis_id"`
	AnalysisName    string     `json:"analysis_name"`
	Lens            string     `json:"wafr_lens"`
	Submitter       string     `json:"analysis_submitter"`
	SelectedPillars []string   `json:"selected_pillars"`
	DocumentKey     string     `json:"document_s3_key"`
	ReviewOwner     string     `json:"review_owner"`
	Owner           string     `json:"analysis_owner"`
	LensARN         string     `json:"lenses"`
	Environment     string     `json:"environment"`
	Description     string     `json:"workload_desc"`
	IndustryType    string     `json:"industry_type"`
	ReviewType      string     `json:"analysis_review_type"`
}

// NewWorkItem builds the queue payload for a record that is about to be created.
func NewWorkItem(r *AnalysisRecord) WorkItem {
	return WorkItem{
		AnalysisID:      r.ID,
		AnalysisName:    r.Title,
		Lens:            r.Lens,
		Submitter:       r.Submitter,
		SelectedPillars: r.SelectedPillars,
		DocumentKey:     r.Document.Key,
		ReviewOwner:     r.ReviewOwner,
		Owner:           r.Owner,
		LensARN:         r.LensARN,
		Environment:     r.Environment,
		Description:     r.Description,
		IndustryType:    r.IndustryType,
		ReviewType:      r.ReviewType,
	}
}
