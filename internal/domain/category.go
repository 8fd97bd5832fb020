package domain

import "strings"

// Category is the severity class of a candidate disease label.
type Category string

const (
	// CategoryMild covers self-limiting conditions.
	CategoryMild Category = "mild"
	// CategoryModerate covers infections and inflammatory conditions.
	CategoryModerate Category = "moderate"
	// CategorySerious covers chronic and long-term conditions.
	CategorySerious Category = "serious"
	// CategoryCritical covers conditions needing urgent attention.
	CategoryCritical Category = "critical"
)

// CategoryTable classifies disease labels by keyword patterns. One shared
// table backs both the safety constraint rules and the recommendation text,
// so a label is never "critical" for one and not the other.
type CategoryTable struct {
	critical []string
	serious  []string
	moderate []string
}

// DefaultCategoryTable returns the built-in classification keyword sets.
func DefaultCategoryTable() CategoryTable {
	return CategoryTable{
		critical: []string{
			"myocardial infarction", "heart attack", "stroke", "cerebral",
			"pneumonia", "acute", "emergency", "life threatening",
		},
		serious: []string{
			"chronic", "cancer", "diabetes", "hypertension", "arthritis",
			"tuberculosis", "hepatitis",
		},
		moderate: []string{
			"infection", "inflammatory",
		},
	}
}

// WithCritical replaces the critical keyword set, keeping the rest.
func (t CategoryTable) WithCritical(keywords []string) CategoryTable {
	if len(keywords) == 0 {
		return t
	}
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}
	t.critical = lowered
	return t
}

// Categorize maps a disease label to its severity category. Matching is
// case-insensitive substring containment, most severe class first.
func (t CategoryTable) Categorize(disease string) Category {
	lower := strings.ToLower(disease)
	switch {
	case containsAny(lower, t.critical):
		return CategoryCritical
	case containsAny(lower, t.serious):
		return CategorySerious
	case containsAny(lower, t.moderate):
		return CategoryModerate
	default:
		return CategoryMild
	}
}

// IsCritical reports whether the label matches the critical keyword set.
func (t CategoryTable) IsCritical(disease string) bool {
	return containsAny(strings.ToLower(disease), t.critical)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
