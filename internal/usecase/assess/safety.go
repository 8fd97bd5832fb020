package assess

import (
	"sort"

	"github.com/cliniview/triage/internal/domain"
	"github.com/cliniview/triage/internal/tier"
)

// InsufficientInformation is the synthetic label inserted when no prediction
// clears the minimum useful confidence.
const InsufficientInformation = "Insufficient Information"

// SafetyConfig tunes the deterministic confidence adjustments.
type SafetyConfig struct {
	// Ceiling is the policy cap on any returned confidence. The system must
	// never claim near-certainty.
	Ceiling float64
	// Floor drops predictions below this adjusted confidence.
	Floor float64
	// LowConfidenceTop triggers the synthetic insufficient-information entry
	// when the best adjusted confidence falls below it.
	LowConfidenceTop float64
	// SingleSymptomMultiplier applies to non-critical labels when exactly
	// one symptom was reported.
	SingleSymptomMultiplier float64
}

// DefaultSafetyConfig returns the standard adjustment policy.
func DefaultSafetyConfig() SafetyConfig {
	return SafetyConfig{
		Ceiling:                 0.85,
		Floor:                   0.03,
		LowConfidenceTop:        0.15,
		SingleSymptomMultiplier: 0.4,
	}
}

const (
	criticalSingleSymptomMultiplier = 0.1
	criticalCorroborationMultiplier = 0.4
	highEnhancementThreshold        = 1.5
	highEnhancementBoost            = 1.2
	lowEnhancementThreshold         = 0.8
	lowEnhancementDampening         = 0.6
	corroborationBonus              = 1.1
	corroborationSymptomCount       = 3
)

// SafetyEngine applies the medical safety constraints to raw predictions.
// The rules apply different multipliers per label, so a non-critical disease
// can overtake a critical one after adjustment — that rank inversion is the
// intended safety property.
type SafetyEngine struct {
	cfg   SafetyConfig
	table domain.CategoryTable
}

// NewSafetyEngine creates a safety engine over the shared category table.
func NewSafetyEngine(cfg SafetyConfig, table domain.CategoryTable) SafetyEngine {
	return SafetyEngine{cfg: cfg, table: table}
}

// Apply adjusts, caps, filters, and re-sorts the predictions. enhancements
// holds the per-symptom enhancement weights for tiers that track them; an
// empty slice disables the enhancement-factor rules.
func (e SafetyEngine) Apply(
	preds []tier.RawPrediction, symptomCount int, enhancements []float64,
) []tier.RawPrediction {
	factor := meanOrZero(enhancements)

	adjusted := make([]tier.RawPrediction, 0, len(preds))
	for _, p := range preds {
		confidence := p.Confidence
		critical := e.table.IsCritical(p.Disease)

		if symptomCount == 1 {
			if critical {
				confidence *= criticalSingleSymptomMultiplier
			} else {
				confidence *= e.cfg.SingleSymptomMultiplier
			}
		}

		// Critical labels need corroborating symptoms. The single-symptom
		// rule above already penalizes count 1 harder, so this rule covers
		// the remaining sparse-evidence case only.
		if critical && symptomCount > 1 && symptomCount < corroborationSymptomCount {
			confidence *= criticalCorroborationMultiplier
		}

		if len(enhancements) > 0 && critical {
			if factor > highEnhancementThreshold {
				confidence *= highEnhancementBoost
			} else if factor < lowEnhancementThreshold {
				confidence *= lowEnhancementDampening
			}
		}

		if symptomCount >= corroborationSymptomCount {
			confidence *= corroborationBonus
		}

		if confidence > e.cfg.Ceiling {
			confidence = e.cfg.Ceiling
		}
		if confidence < e.cfg.Floor {
			continue
		}

		adjusted = append(adjusted, tier.RawPrediction{Disease: p.Disease, Confidence: confidence})
	}

	sort.SliceStable(adjusted, func(i, j int) bool {
		return adjusted[i].Confidence > adjusted[j].Confidence
	})

	if len(adjusted) == 0 || adjusted[0].Confidence < e.cfg.LowConfidenceTop {
		adjusted = append([]tier.RawPrediction{{Disease: InsufficientInformation, Confidence: 0}}, adjusted...)
	}

	return adjusted
}

// EnhancementFactor is the mean per-symptom enhancement weight, or 0 when
// the tier does not track enhancement.
func EnhancementFactor(enhancements []float64) float64 {
	return meanOrZero(enhancements)
}

func meanOrZero(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
