package model

import (
	"context"
	"fmt"
	"math"
)

// LinearSoftmax evaluates serialized multinomial logistic parameters. It is
// the in-process realization of the classifier collaborator: the pipeline
// treats it as a black box that turns a feature vector into a probability
// distribution over the label vocabulary.
type LinearSoftmax struct {
	weights [][]float64 // labels x features
	bias    []float64
}

// NewLinearSoftmax builds an evaluator from validated bundle parameters.
func NewLinearSoftmax(p Parameters) (*LinearSoftmax, error) {
	if p.Kind != "linear_softmax" {
		return nil, fmt.Errorf("unsupported parameters kind %q", p.Kind)
	}
	if len(p.Weights) == 0 || len(p.Weights) != len(p.Bias) {
		return nil, fmt.Errorf("weights/bias shape mismatch: %d rows, %d bias", len(p.Weights), len(p.Bias))
	}
	return &LinearSoftmax{weights: p.Weights, bias: p.Bias}, nil
}

// PredictProba returns softmax probabilities aligned with the label
// vocabulary the parameters were trained against.
func (m *LinearSoftmax) PredictProba(ctx context.Context, vector []float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(vector) != len(m.weights[0]) {
		return nil, fmt.Errorf("feature vector length %d, want %d", len(vector), len(m.weights[0]))
	}

	logits := make([]float64, len(m.weights))
	maxLogit := math.Inf(-1)
	for i, row := range m.weights {
		z := m.bias[i]
		for j, w := range row {
			z += w * vector[j]
		}
		logits[i] = z
		if z > maxLogit {
			maxLogit = z
		}
	}

	// Stable softmax: shift by the max logit before exponentiating.
	sum := 0.0
	probs := make([]float64, len(logits))
	for i, z := range logits {
		e := math.Exp(z - maxLogit)
		probs[i] = e
		sum += e
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs, nil
}
