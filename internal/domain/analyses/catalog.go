package analyses

import "fmt"

const ReviewTypeQuick = "Quick"

// Lenses maps the lens display name to the review-tool lens alias.
var Lenses = map[string]string{
	"AWS Well-Architected Framework":   "wellarchitected",
	"Data Analytics Lens":              "arn:aws:wellarchitected::aws:lens/dataanalytics",
	"Financial Services Industry Lens": "arn:aws:wellarchitected::aws:lens/financialservices",
}

var Pillars = []string{
	"Operational Excellence",
	"Security",
	"Reliability",
	"Performance Efficiency",
	"Cost Optimization",
	"Sustainability",
}

var Environments = []string{"PRODUCTION", "PREPRODUCTION"}

var Industries = []string{"Agriculture", "Education", "Healthcare", "Finance", "Technology"}

// LensARN resolves a lens display name; unknown names pass through unchanged.
func LensARN(lens string) string {
	if arn, ok := Lenses[lens]; ok {
		return arn
	}
	return lens
}

// ValidateClassification checks the enumerated submission fields.
func ValidateClassification(lens, environment, industry string, pillars []string) error {
	if _, ok := Lenses[lens]; !ok {
		return fmt.Errorf("%w: unknown lens %q", ErrValidation, lens)
	}
	if !contains(Environments, environment) {
		return fmt.Errorf("%w: unknown environment %q", ErrValidation, environment)
	}
	if !contains(Industries, industry) {
		return fmt.Errorf("%w: unknown industry %q", ErrValidation, industry)
	}
	for _, p := range pillars {
		if !contains(Pillars, p) {
			return fmt.Errorf("%w: unknown pillar %q", ErrValidation, p)
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
