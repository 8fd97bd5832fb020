package tier

import (
	"context"

	"github.com/cliniview/triage/internal/domain"
	"github.com/cliniview/triage/internal/vocab"
)

// overlapMinScore drops diseases with negligible symptom overlap.
const overlapMinScore = 0.05

// KBDisease is one curated disease entry with weighted symptoms.
type KBDisease struct {
	Name     string
	Symptoms map[string]float64
}

// KB is a curated disease-to-symptom dictionary. It is the last-resort
// backend: no trained model involved.
type KB struct {
	Diseases []KBDisease
	// SymptomWeights assigns significance to individual symptoms on the
	// reporting side; symptoms absent from the map weigh 1.0.
	SymptomWeights map[string]float64
}

// OverlapTier scores curated diseases by weighted symptom overlap.
type OverlapTier struct {
	id        string
	vocab     *vocab.Vocabulary
	weighting Weighting
	kb        KB
	info      domain.ModelInfo
}

var _ Tier = (*OverlapTier)(nil)

// NewOverlapTier creates the rule-based fallback tier from a curated KB.
func NewOverlapTier(id string, v *vocab.Vocabulary, w Weighting, kb KB) *OverlapTier {
	return &OverlapTier{
		id: id, vocab: v, weighting: w, kb: kb,
		info: domain.ModelInfo{
			TierID:        id,
			DiseasesCount: len(kb.Diseases),
			FeaturesCount: v.Len(),
		},
	}
}

// ID returns the tier identifier.
func (t *OverlapTier) ID() string { return t.id }

// Vocabulary returns the tier's symptom vocabulary.
func (t *OverlapTier) Vocabulary() *vocab.Vocabulary { return t.vocab }

// Weighting returns the tier's severity/duration weighting.
func (t *OverlapTier) Weighting() Weighting { return t.weighting }

// Info returns the tier's metadata.
func (t *OverlapTier) Info() domain.ModelInfo { return t.info }

// Predict scores every curated disease against the normalized symptoms:
//
//	match = Σ weight(s) for s in user ∩ disease
//	score = 0.7 * 2*match/(userTotal + diseaseTotal) + 0.3 * |∩|/|disease|
//
// a weighted Dice coefficient blended with plain symptom coverage.
// User-side weights come from the request's severity/duration weighting;
// symptoms without one take the KB's symptom weight. Diseases below the
// minimum score are dropped.
func (t *OverlapTier) Predict(ctx context.Context, in Input) ([]RawPrediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	userTotal := 0.0
	userWeight := make(map[string]float64, len(in.Symptoms))
	for _, s := range in.Symptoms {
		key := vocab.Key(s)
		w, ok := in.Weights[s]
		if !ok {
			w = t.symptomWeight(key)
		}
		userWeight[key] = w
		userTotal += w
	}

	var preds []RawPrediction
	for _, d := range t.kb.Diseases {
		if len(d.Symptoms) == 0 {
			continue
		}

		match := 0.0
		overlap := 0
		diseaseTotal := 0.0
		for sym, w := range d.Symptoms {
			key := vocab.Key(sym)
			diseaseTotal += w
			if uw, ok := userWeight[key]; ok {
				match += uw
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}

		score := 0.7*(2*match)/(userTotal+diseaseTotal) +
			0.3*float64(overlap)/float64(len(d.Symptoms))
		if score < overlapMinScore {
			continue
		}
		preds = append(preds, RawPrediction{Disease: d.Name, Confidence: score})
	}

	return preds, nil
}

func (t *OverlapTier) symptomWeight(key string) float64 {
	if w, ok := t.kb.SymptomWeights[key]; ok {
		return w
	}
	return 1.0
}
