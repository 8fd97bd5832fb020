package tier

import (
	"context"
	"fmt"

	"github.com/cliniview/triage/internal/domain"
	"github.com/cliniview/triage/internal/vocab"
)

// Classifier is the trained-model collaborator contract: given a feature
// vector it returns a probability distribution aligned 1:1 with the tier's
// label vocabulary.
type Classifier interface {
	PredictProba(ctx context.Context, vector []float64) ([]float64, error)
}

// ClassifierTier wraps a trained classifier and its vocabularies.
type ClassifierTier struct {
	id        string
	vocab     *vocab.Vocabulary
	labels    []string
	weighting Weighting
	clf       Classifier
	info      domain.ModelInfo
}

var _ Tier = (*ClassifierTier)(nil)

// NewClassifierTier creates a learned tier. The label vocabulary order must
// match the classifier's output layout.
func NewClassifierTier(
	id string, v *vocab.Vocabulary, labels []string,
	w Weighting, clf Classifier, training domain.ModelInfo,
) (*ClassifierTier, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("tier %s: label vocabulary must not be empty", id)
	}
	owned := make([]string, len(labels))
	copy(owned, labels)

	info := training
	info.TierID = id
	info.DiseasesCount = len(labels)
	info.FeaturesCount = v.Len()

	return &ClassifierTier{
		id: id, vocab: v, labels: owned,
		weighting: w, clf: clf, info: info,
	}, nil
}

// ID returns the tier identifier.
func (t *ClassifierTier) ID() string { return t.id }

// Vocabulary returns the tier's symptom vocabulary.
func (t *ClassifierTier) Vocabulary() *vocab.Vocabulary { return t.vocab }

// Weighting returns the tier's severity/duration weighting.
func (t *ClassifierTier) Weighting() Weighting { return t.weighting }

// Info returns the tier's model metadata.
func (t *ClassifierTier) Info() domain.ModelInfo { return t.info }

// Predict runs the classifier over the feature vector and zips the returned
// probabilities with the label vocabulary. No re-normalization is applied;
// the collaborator guarantees a single-label multiclass distribution.
func (t *ClassifierTier) Predict(ctx context.Context, in Input) ([]RawPrediction, error) {
	probs, err := t.clf.PredictProba(ctx, in.Vector)
	if err != nil {
		return nil, fmt.Errorf("%w: tier %s: %w", domain.ErrPredictionFailed, t.id, err)
	}
	if len(probs) != len(t.labels) {
		return nil, fmt.Errorf("%w: tier %s: got %d probabilities for %d labels",
			domain.ErrPredictionFailed, t.id, len(probs), len(t.labels))
	}

	preds := make([]RawPrediction, len(probs))
	for i, p := range probs {
		preds[i] = RawPrediction{Disease: t.labels[i], Confidence: p}
	}
	return preds, nil
}
