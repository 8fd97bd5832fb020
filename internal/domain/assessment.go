package domain

import "fmt"

// Prediction is one ranked candidate disease after safety adjustment.
type Prediction struct {
	Disease              string
	Confidence           float64
	ConfidencePercentage string
	Recommendation       string
	SeverityCategory     Category
}

// ProcessedSymptom records how one reported symptom was mapped and weighted.
type ProcessedSymptom struct {
	Original   string
	Normalized string
	Severity   Severity
	Duration   Duration
	Weight     float64
}

// ModelInfo describes the tier that answered a request.
type ModelInfo struct {
	TierID          string
	DiseasesCount   int
	FeaturesCount   int
	Accuracy        float64
	TrainingSamples int
}

// Assessment is the full result of one symptom-check request.
type Assessment struct {
	Predictions       []Prediction
	TotalSymptoms     int
	ProcessedSymptoms int
	EnhancementFactor string // e.g. "1.25x"; empty for schemes that do not track it
	Unmatched         []string
	ProcessedDetails  []ProcessedSymptom
	Model             ModelInfo
}

// FormatConfidence renders a confidence as a percentage string, e.g. "34.5%".
func FormatConfidence(confidence float64) string {
	return fmt.Sprintf("%.1f%%", confidence*100)
}

// FormatEnhancement renders an enhancement factor, e.g. "1.25x".
func FormatEnhancement(factor float64) string {
	return fmt.Sprintf("%.2fx", factor)
}
