package analyses

import "context"

// Filter selects records in ScanAll. An empty Title matches every record.
type Filter struct {
	Title string
}

// Projection limits the attributes ScanAll materializes.
type Projection int

const (
	ProjectionTitle Projection = iota
	ProjectionFull
)

// RecordStore port (durable table keyed by analysis id)
type RecordStore interface {
	PutItem(ctx context.Context, r *AnalysisRecord) error
	ScanAll(ctx context.Context, f Filter, p Projection) ([]*AnalysisRecord, error)
	Page(ctx context.Context, afterID AnalysisID, limit int) ([]*AnalysisRecord, AnalysisID, error)
	Get(ctx context.Context, id AnalysisID) (*AnalysisRecord, error)
}

// ObjectStore port (document blobs)
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, content []byte, contentType string) (DocumentRef, error)
}

// WorkQueue port (at-least-once queue of JSON payloads)
type WorkQueue interface {
	Send(ctx context.Context, payload []byte) (string, error)
}

// WorkloadSummary is one entry of the external review tool listing.
type WorkloadSummary struct {
	ID   string `json:"WorkloadId"`
	Name string `json:"WorkloadName"`
}

// WorkloadPage is one page of ListWorkloads. An empty NextToken ends the listing.
type WorkloadPage struct {
	Workloads []WorkloadSummary `json:"WorkloadSummaries"`
	NextToken string            `json:"NextToken,omitempty"`
}

// WorkloadRegistry port (external review tool)
type WorkloadRegistry interface {
	ListWorkloads(ctx context.Context, token string) (WorkloadPage, error)
}
