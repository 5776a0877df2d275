package analyses

import (
	"context"
	"fmt"
	"strings"

	domain "github.com/bryanwahyu/wafr-accelerator/internal/domain/analyses"
)

// TitleTaken reports whether a record with exactly this title exists.
// The comparison is case-sensitive and scans every record.
func (s *Service) TitleTaken(ctx context.Context, title string) (bool, error) {
	matches, err := s.Records.ScanAll(ctx, domain.Filter{Title: title}, domain.ProjectionTitle)
	if err != nil {
		return false, fmt.Errorf("%w: scan records: %w", domain.ErrDuplicateCheck, err)
	}
	for _, m := range matches {
		if m.Title == title {
			return true, nil
		}
	}
	return false, nil
}

// WorkloadExists reports whether the review tool already has a workload with
// this name, compared case-insensitively. Pages are fetched sequentially and
// "not found" is only returned once the listing is exhausted.
func (s *Service) WorkloadExists(ctx context.Context, name string) (bool, error) {
	if s.Registry == nil {
		return false, nil
	}

	var token string
	seen := map[string]struct{}{}
	for {
		if err := ctx.Err(); err != nil {
			return false, fmt.Errorf("%w: list workloads: %w", domain.ErrDuplicateCheck, err)
		}
		page, err := s.Registry.ListWorkloads(ctx, token)
		if err != nil {
			return false, fmt.Errorf("%w: list workloads: %w", domain.ErrDuplicateCheck, err)
		}
		for _, w := range page.Workloads {
			if strings.EqualFold(w.Name, name) {
				return true, nil
			}
		}
		if page.NextToken == "" {
			return false, nil
		}
		if _, ok := seen[page.NextToken]; ok {
			return false, fmt.Errorf("%w: registry repeated page token %q", domain.ErrDuplicateCheck, page.NextToken)
		}
		seen[page.NextToken] = struct{}{}
		token = page.NextToken
	}
}
