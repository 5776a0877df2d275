package chat

import (
	"fmt"
	"strings"

	domain "github.com/bryanwahyu/wafr-accelerator/internal/domain/analyses"
)

const (
	AreaSummary         = "Summary"
	AreaSolutionSummary = "Solution Summary"
	AreaDocument        = "Document"

	// NotFoundContext is used when the selected area does not exist on the record.
	NotFoundContext = "No data"

	notAvailable = "(not yet available)"
)

// Areas lists the selectable chat areas of a record: the fixed areas
// followed by one entry per reviewed pillar.
func Areas(rec *domain.AnalysisRecord) []string {
	areas := []string{AreaSummary, AreaSolutionSummary, AreaDocument}
	if pillars, ok := rec.Pillars.Get(); ok {
		for _, p := range pillars {
			areas = append(areas, p.PillarName)
		}
	}
	return areas
}

// BuildContext renders the context block for the selected area.
func BuildContext(rec *domain.AnalysisRecord, area string) string {
	switch area {
	case AreaSummary:
		return summaryContext(rec)
	case AreaSolutionSummary:
		return "Solution Summary:\n" + orPending(rec.SolutionSummary)
	case AreaDocument:
		return "Document:\n" + orPending(rec.ExtractedDocument)
	}

	// A reviewed pillar with an empty response yields an empty context.
	p, ok := rec.Pillar(area)
	if !ok {
		return NotFoundContext
	}
	return p.GeneratedResponse
}

// Prompt joins the context block and the user question.
func Prompt(context, question string) string {
	return strings.TrimSpace(context) + "\n\nUser Question: " + question
}

// Truncate keeps at most n characters of s.
func Truncate(s string, n int) string {
	if n < 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func summaryContext(rec *domain.AnalysisRecord) string {
	var b strings.Builder
	b.WriteString("WAFR Analysis Summary:\n")
	fmt.Fprintf(&b, "Workload Name: %s\n", rec.Title)
	fmt.Fprintf(&b, "Description: %s\n", rec.Description)
	fmt.Fprintf(&b, "Status: %s\n", rec.Status)
	fmt.Fprintf(&b, "Lens: %s\n", rec.Lens)
	fmt.Fprintf(&b, "Created By: %s\n", rec.Submitter)
	fmt.Fprintf(&b, "Review Owner: %s\n", rec.ReviewOwner)
	fmt.Fprintf(&b, "Date: %s\n", rec.CreationDate())
	fmt.Fprintf(&b, "Pillars: %s\n", strings.Join(rec.SelectedPillars, ", "))
	fmt.Fprintf(&b, "Solution Summary: %s\n", orPending(rec.SolutionSummary))
	return b.String()
}

func orPending(o domain.Optional[string]) string {
	v, ok := o.Get()
	if !ok {
		return notAvailable
	}
	return v
}
