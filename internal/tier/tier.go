// Package tier implements the configured inference backends and the
// fallback routing between them.
package tier

import (
	"context"

	"github.com/cliniview/triage/internal/domain"
	"github.com/cliniview/triage/internal/vocab"
)

// RawPrediction is one backend output before safety adjustment.
type RawPrediction struct {
	Disease    string
	Confidence float64
}

// Input carries the per-request evidence a backend may consume. Learned
// backends read the feature vector; the overlap backend reads the
// normalized symptoms and their weights. Both fields are always populated
// so dispatch never probes for capabilities.
type Input struct {
	Vector   []float64
	Symptoms []string
	Weights  map[string]float64
}

// Tier is one independently configured inference backend with its own
// symptom and label vocabularies. Implementations are read-only after
// construction and safe for concurrent use.
type Tier interface {
	ID() string
	Vocabulary() *vocab.Vocabulary
	Weighting() Weighting
	Info() domain.ModelInfo
	Predict(ctx context.Context, in Input) ([]RawPrediction, error)
}
