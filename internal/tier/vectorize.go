package tier

import (
	"github.com/cliniview/triage/internal/domain"
	"github.com/cliniview/triage/internal/vocab"
)

// VectorResult is the outcome of building one request's feature vector.
type VectorResult struct {
	// Vector is the dense feature vector, len == vocabulary size.
	Vector []float64
	// Enhancements holds the raw enhancement weight per matched symptom,
	// in report order. Empty unless the weighting tracks enhancement.
	Enhancements []float64
	// Processed records every matched symptom with its final weight.
	Processed []domain.ProcessedSymptom
	// Unmatched lists reported names that missed the vocabulary.
	Unmatched []string
}

// BuildVector normalizes the reports against the vocabulary and writes each
// matched symptom's weight into its feature slot. Later reports overwrite
// earlier ones at the same slot; duplicates are not deduplicated upstream.
func BuildVector(v *vocab.Vocabulary, w Weighting, reports []domain.SymptomReport) VectorResult {
	res := VectorResult{Vector: make([]float64, v.Len())}

	for _, r := range reports {
		normalized, ok := v.Normalize(r.Name())
		if !ok {
			res.Unmatched = append(res.Unmatched, r.Name())
			continue
		}
		slot, ok := v.Slot(normalized)
		if !ok {
			res.Unmatched = append(res.Unmatched, r.Name())
			continue
		}

		sw := w.Weight(normalized, r.Severity(), r.Duration())
		res.Vector[slot] = sw.Value

		if w.TracksEnhancement() {
			res.Enhancements = append(res.Enhancements, sw.Enhancement)
		}
		res.Processed = append(res.Processed, domain.ProcessedSymptom{
			Original:   r.Name(),
			Normalized: normalized,
			Severity:   r.Severity(),
			Duration:   r.Duration(),
			Weight:     sw.Value,
		})
	}

	return res
}

// InputFrom assembles the backend input for a built vector.
func InputFrom(res VectorResult) Input {
	symptoms := make([]string, 0, len(res.Processed))
	weights := make(map[string]float64, len(res.Processed))
	for _, p := range res.Processed {
		symptoms = append(symptoms, p.Normalized)
		weights[p.Normalized] = p.Weight
	}
	return Input{Vector: res.Vector, Symptoms: symptoms, Weights: weights}
}
