package tier

import (
	"fmt"

	"github.com/cliniview/triage/internal/domain"
)

// Scheme selects the severity/duration weighting formula of a tier.
type Scheme string

const (
	// SchemeGraded scales a graded severity score by a duration multiplier.
	SchemeGraded Scheme = "graded"
	// SchemeWeightedKB multiplies per-symptom base weights from the
	// knowledge base by severity and duration, clipped to [1, 8].
	SchemeWeightedKB Scheme = "weighted_kb"
	// SchemeBinaryEnhanced tracks an enhancement weight per symptom and
	// writes its normalized value into the feature vector.
	SchemeBinaryEnhanced Scheme = "binary_enhanced"
)

// The multiplier tables below are tier-specific configuration data carried
// over verbatim from the trained models' preprocessing. They are not
// medically consistent across tiers and must not be unified.
var (
	gradedSeverityScores = map[domain.Severity]float64{
		domain.SeverityMild:     2.0,
		domain.SeverityModerate: 4.5,
		domain.SeveritySevere:   7.0,
	}
	gradedDurationMultipliers = map[domain.Duration]float64{
		"1 day":    0.7,
		"2-3 days": 1.0,
		"1 week":   1.3,
		"2+ weeks": 1.8,
	}

	scaledSeverityMultipliersKB = map[domain.Severity]float64{
		domain.SeverityMild:       0.7,
		domain.SeverityModerate:   1.0,
		domain.SeveritySevere:     1.4,
		domain.SeverityVerySevere: 1.8,
	}
	scaledSeverityMultipliersEnhanced = map[domain.Severity]float64{
		domain.SeverityMild:       0.7,
		domain.SeverityModerate:   1.0,
		domain.SeveritySevere:     1.5,
		domain.SeverityVerySevere: 2.0,
	}
	scaledDurationMultipliers = map[domain.Duration]float64{
		domain.DurationUnderWeek: 0.8,
		domain.DurationOneWeek:   1.0,
		domain.DurationTwoWeeks:  1.3,
		domain.DurationOverMonth: 1.6,
	}
)

// SymptomWeight is the computed evidence weight of one matched symptom.
type SymptomWeight struct {
	// Value is written into the feature vector slot.
	Value float64
	// Enhancement is the raw enhancement weight, populated only by schemes
	// that track it (used for the confidence corroboration rules).
	Enhancement float64
}

// Weighting computes per-symptom feature values for one tier. Unknown
// severity or duration values silently fall back to the scheme default,
// matching the lenient behavior of the original preprocessing.
type Weighting struct {
	scheme      Scheme
	baseWeights map[string]float64 // per-feature overrides from bundle metadata
}

// NewWeighting creates a weighting for the given scheme. baseWeights may be
// nil; entries override the scheme's flat default base weight per symptom.
func NewWeighting(scheme Scheme, baseWeights map[string]float64) (Weighting, error) {
	switch scheme {
	case SchemeGraded, SchemeWeightedKB, SchemeBinaryEnhanced:
	default:
		return Weighting{}, fmt.Errorf("unknown weighting scheme %q", scheme)
	}
	return Weighting{scheme: scheme, baseWeights: baseWeights}, nil
}

// Scheme returns the weighting scheme.
func (w Weighting) Scheme() Scheme { return w.scheme }

// TracksEnhancement reports whether the scheme produces enhancement weights
// feeding the corroboration rules and the reported enhancement factor.
func (w Weighting) TracksEnhancement() bool {
	return w.scheme == SchemeBinaryEnhanced
}

// Weight computes the feature value for one normalized symptom.
func (w Weighting) Weight(feature string, sev domain.Severity, dur domain.Duration) SymptomWeight {
	switch w.scheme {
	case SchemeGraded:
		score, ok := gradedSeverityScores[sev]
		if !ok {
			score = gradedSeverityScores[domain.SeverityModerate]
		}
		mult, ok := gradedDurationMultipliers[dur]
		if !ok {
			mult = 1.0
		}
		// Intentionally unclipped: severe long-lasting symptoms exceed 1.0.
		return SymptomWeight{Value: (score / 7.0) * mult}

	case SchemeWeightedKB:
		weight := w.base(feature, 4.0) * lookup(scaledSeverityMultipliersKB, sev) * lookup(scaledDurationMultipliers, dur)
		return SymptomWeight{Value: clip(weight, 1.0, 8.0)}

	case SchemeBinaryEnhanced:
		enhancement := clip(
			w.base(feature, 1.0)*lookup(scaledSeverityMultipliersEnhanced, sev)*lookup(scaledDurationMultipliers, dur),
			0.5, 3.0,
		)
		return SymptomWeight{Value: enhancement / 3.0, Enhancement: enhancement}

	default:
		return SymptomWeight{}
	}
}

func (w Weighting) base(feature string, flat float64) float64 {
	if bw, ok := w.baseWeights[feature]; ok {
		return bw
	}
	return flat
}

func lookup[K comparable](table map[K]float64, key K) float64 {
	if m, ok := table[key]; ok {
		return m
	}
	return 1.0
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
