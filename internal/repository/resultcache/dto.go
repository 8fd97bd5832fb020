package resultcache

import (
	"encoding/json"
	"fmt"

	"github.com/cliniview/triage/internal/domain"
)

// assessmentRow is the JSON-serializable representation of a cached assessment.
type assessmentRow struct {
	Predictions       []predictionRow `json:"predictions"`
	TotalSymptoms     int             `json:"total_symptoms"`
	ProcessedSymptoms int             `json:"processed_symptoms"`
	EnhancementFactor string          `json:"enhancement_factor,omitempty"`
	Unmatched         []string        `json:"unmatched,omitempty"`
	Processed         []symptomRow    `json:"processed,omitempty"`
	Model             modelRow        `json:"model"`
}

type predictionRow struct {
	Disease              string  `json:"disease"`
	Confidence           float64 `json:"confidence"`
	ConfidencePercentage string  `json:"confidence_percentage"`
	Recommendation       string  `json:"recommendation"`
	SeverityCategory     string  `json:"severity_category"`
}

type symptomRow struct {
	Original   string  `json:"original"`
	Normalized string  `json:"normalized"`
	Severity   string  `json:"severity"`
	Duration   string  `json:"duration"`
	Weight     float64 `json:"weight"`
}

type modelRow struct {
	TierID          string  `json:"tier_id"`
	DiseasesCount   int     `json:"diseases_count"`
	FeaturesCount   int     `json:"features_count"`
	Accuracy        float64 `json:"accuracy"`
	TrainingSamples int     `json:"training_samples"`
}

func assessmentToBytes(a *domain.Assessment) ([]byte, error) {
	row := assessmentRow{
		TotalSymptoms:     a.TotalSymptoms,
		ProcessedSymptoms: a.ProcessedSymptoms,
		EnhancementFactor: a.EnhancementFactor,
		Unmatched:         a.Unmatched,
		Model: modelRow{
			TierID:          a.Model.TierID,
			DiseasesCount:   a.Model.DiseasesCount,
			FeaturesCount:   a.Model.FeaturesCount,
			Accuracy:        a.Model.Accuracy,
			TrainingSamples: a.Model.TrainingSamples,
		},
	}
	for _, p := range a.Predictions {
		row.Predictions = append(row.Predictions, predictionRow{
			Disease:              p.Disease,
			Confidence:           p.Confidence,
			ConfidencePercentage: p.ConfidencePercentage,
			Recommendation:       p.Recommendation,
			SeverityCategory:     string(p.SeverityCategory),
		})
	}
	for _, s := range a.ProcessedDetails {
		row.Processed = append(row.Processed, symptomRow{
			Original:   s.Original,
			Normalized: s.Normalized,
			Severity:   string(s.Severity),
			Duration:   string(s.Duration),
			Weight:     s.Weight,
		})
	}

	data, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("marshal assessment: %w", err)
	}
	return data, nil
}

func assessmentFromBytes(data []byte) (*domain.Assessment, error) {
	var row assessmentRow
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("unmarshal assessment: %w", err)
	}

	a := &domain.Assessment{
		TotalSymptoms:     row.TotalSymptoms,
		ProcessedSymptoms: row.ProcessedSymptoms,
		EnhancementFactor: row.EnhancementFactor,
		Unmatched:         row.Unmatched,
		Model: domain.ModelInfo{
			TierID:          row.Model.TierID,
			DiseasesCount:   row.Model.DiseasesCount,
			FeaturesCount:   row.Model.FeaturesCount,
			Accuracy:        row.Model.Accuracy,
			TrainingSamples: row.Model.TrainingSamples,
		},
	}
	for _, p := range row.Predictions {
		a.Predictions = append(a.Predictions, domain.Prediction{
			Disease:              p.Disease,
			Confidence:           p.Confidence,
			ConfidencePercentage: p.ConfidencePercentage,
			Recommendation:       p.Recommendation,
			SeverityCategory:     domain.Category(p.SeverityCategory),
		})
	}
	for _, s := range row.Processed {
		a.ProcessedDetails = append(a.ProcessedDetails, domain.ProcessedSymptom{
			Original:   s.Original,
			Normalized: s.Normalized,
			Severity:   domain.Severity(s.Severity),
			Duration:   domain.Duration(s.Duration),
			Weight:     s.Weight,
		})
	}
	return a, nil
}
