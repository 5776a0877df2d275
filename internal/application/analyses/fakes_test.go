package analyses_test

import (
	"context"
	"sort"
	"sync"

	domain "github.com/bryanwahyu/wafr-accelerator/internal/domain/analyses"
)

type fakeRecords struct {
	mu      sync.Mutex
	items   map[domain.AnalysisID]*domain.AnalysisRecord
	scanErr error
	putErr  error
	scans   int
}

func newFakeRecords(existing ...*domain.AnalysisRecord) *fakeRecords {
	f := &fakeRecords{items: map[domain.AnalysisID]*domain.AnalysisRecord{}}
	for _, r := range existing {
		f.items[r.ID] = r
	}
	return f
}

func (f *fakeRecords) PutItem(_ context.Context, r *domain.AnalysisRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	cp := *r
	f.items[r.ID] = &cp
	return nil
}

func (f *fakeRecords) ScanAll(_ context.Context, flt domain.Filter, _ domain.Projection) ([]*domain.AnalysisRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	var out []*domain.AnalysisRecord
	for _, r := range f.items {
		if flt.Title == "" || r.Title == flt.Title {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecords) Page(_ context.Context, after domain.AnalysisID, limit int) ([]*domain.AnalysisRecord, domain.AnalysisID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.items))
	for id := range f.items {
		if after == "" || string(id) > string(after) {
			ids = append(ids, string(id))
		}
	}
	sort.Strings(ids)
	var next domain.AnalysisID
	if len(ids) > limit {
		ids = ids[:limit]
		next = domain.AnalysisID(ids[limit-1])
	}
	out := make([]*domain.AnalysisRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.items[domain.AnalysisID(id)])
	}
	return out, next, nil
}

func (f *fakeRecords) Get(_ context.Context, id domain.AnalysisID) (*domain.AnalysisRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

func (f *fakeRecords) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

type fakeObjects struct {
	blobs map[string][]byte
	err   error
}

func newFakeObjects() *fakeObjects { return &fakeObjects{blobs: map[string][]byte{}} }

func (f *fakeObjects) Put(_ context.Context, bucket, key string, content []byte, _ string) (domain.DocumentRef, error) {
	if f.err != nil {
		return domain.DocumentRef{}, f.err
	}
	f.blobs[bucket+"/"+key] = content
	return domain.DocumentRef{Bucket: bucket, Key: key}, nil
}

type fakeQueue struct {
	messages [][]byte
	err      error
}

func (f *fakeQueue) Send(_ context.Context, payload []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.messages = append(f.messages, payload)
	return "msg-1", nil
}

type fakeRegistry struct {
	pages  []domain.WorkloadPage
	calls  int
	err    error
	repeat bool // serve the first page for every token
}

func (f *fakeRegistry) ListWorkloads(_ context.Context, token string) (domain.WorkloadPage, error) {
	f.calls++
	if f.err != nil {
		return domain.WorkloadPage{}, f.err
	}
	if f.repeat && len(f.pages) > 0 {
		return f.pages[0], nil
	}
	idx := 0
	if token != "" {
		for i := range f.pages {
			if f.pages[i].NextToken == token {
				idx = i + 1
			}
		}
	}
	if idx >= len(f.pages) {
		return domain.WorkloadPage{}, nil
	}
	return f.pages[idx], nil
}
