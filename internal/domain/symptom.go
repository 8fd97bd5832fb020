package domain

import (
	"fmt"
	"strings"
)

// Severity is a reported symptom severity grade.
type Severity string

// Known severity grades. Values outside this set are kept as-is and fall
// back to the tier's default multiplier at weighting time.
const (
	SeverityMild       Severity = "mild"
	SeverityModerate   Severity = "moderate"
	SeveritySevere     Severity = "severe"
	SeverityVerySevere Severity = "very severe"
)

// Duration is a reported symptom duration bucket.
type Duration string

// Known duration buckets. Individual tiers may key their multiplier tables
// by a different bucket set; unknown values fall back to the tier default.
const (
	DurationUnderWeek Duration = "less than 1 week"
	DurationOneWeek   Duration = "1 week"
	DurationTwoWeeks  Duration = "2+ weeks"
	DurationOverMonth Duration = "more than 1 month"
)

// SymptomReport is a single reported symptom with its evidence qualifiers.
// Immutable, created once per request.
type SymptomReport struct {
	name     string
	severity Severity
	duration Duration
}

// NewSymptomReport creates a symptom report. The name is required; severity
// and duration default to moderate / 1 week when empty. Severity and
// duration are lower-cased but otherwise preserved even when they fall
// outside the known sets, matching the lenient upstream contract.
func NewSymptomReport(name, severity, duration string) (SymptomReport, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return SymptomReport{}, fmt.Errorf("%w: name is required", ErrMalformedSymptom)
	}

	sev := Severity(strings.ToLower(strings.TrimSpace(severity)))
	if sev == "" {
		sev = SeverityModerate
	}
	dur := Duration(strings.ToLower(strings.TrimSpace(duration)))
	if dur == "" {
		dur = DurationOneWeek
	}

	return SymptomReport{name: name, severity: sev, duration: dur}, nil
}

// NewLegacySymptomReport converts a plain-string symptom into a report with
// default qualifiers. This conversion is part of the public contract.
func NewLegacySymptomReport(name string) (SymptomReport, error) {
	return NewSymptomReport(name, string(SeverityModerate), string(DurationOneWeek))
}

// Name returns the raw reported symptom name.
func (r SymptomReport) Name() string { return r.name }

// Severity returns the reported severity grade.
func (r SymptomReport) Severity() Severity { return r.severity }

// Duration returns the reported duration bucket.
func (r SymptomReport) Duration() Duration { return r.duration }
