package chi

import (
	"encoding/json"
	"fmt"

	"github.com/cliniview/triage/internal/domain"
	"github.com/cliniview/triage/internal/tier"
)

// ErrorResponseCode identifies an API error class.
type ErrorResponseCode string

const (
	ErrorResponseCodeBadRequest         ErrorResponseCode = "bad_request"
	ErrorResponseCodeNoSymptoms         ErrorResponseCode = "no_symptoms"
	ErrorResponseCodeMalformedSymptom   ErrorResponseCode = "malformed_symptom"
	ErrorResponseCodeBackendUnavailable ErrorResponseCode = "backend_unavailable"
	ErrorResponseCodePredictionFailed   ErrorResponseCode = "prediction_failed"
	ErrorResponseCodeInternalError      ErrorResponseCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// symptomInput accepts either a bare string (legacy clients) or a structured
// object with severity and duration.
type symptomInput struct {
	Name     string `json:"name"`
	Severity string `json:"severity,omitempty"`
	Duration string `json:"duration,omitempty"`
}

func (s *symptomInput) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return fmt.Errorf("parse symptom string: %w", err)
		}
		*s = symptomInput{Name: name}
		return nil
	}

	type plain symptomInput
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("parse symptom object: %w", err)
	}
	*s = symptomInput(p)
	return nil
}

// SymptomCheckRequest is the POST /symptom-check body.
type SymptomCheckRequest struct {
	Symptoms []symptomInput `json:"symptoms"`
	TopK     int            `json:"top_k,omitempty"`
}

func (r SymptomCheckRequest) reports() ([]domain.SymptomReport, error) {
	reports := make([]domain.SymptomReport, 0, len(r.Symptoms))
	for _, s := range r.Symptoms {
		rep, err := domain.NewSymptomReport(s.Name, s.Severity, s.Duration)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

// PredictionItem is one ranked candidate in the response.
type PredictionItem struct {
	Disease              string  `json:"disease"`
	Confidence           float64 `json:"confidence"`
	ConfidencePercentage string  `json:"confidence_percentage"`
	Recommendation       string  `json:"recommendation"`
	SeverityCategory     string  `json:"severity_category"`
}

// ProcessedSymptomItem describes how one reported symptom was interpreted.
type ProcessedSymptomItem struct {
	Original   string  `json:"original"`
	Normalized string  `json:"normalized"`
	Severity   string  `json:"severity"`
	Duration   string  `json:"duration"`
	Weight     float64 `json:"weight"`
}

// ModelInfoBody describes the tier that produced a response.
type ModelInfoBody struct {
	TierID          string  `json:"tier_id"`
	DiseasesCount   int     `json:"diseases_count"`
	FeaturesCount   int     `json:"features_count"`
	Accuracy        float64 `json:"accuracy,omitempty"`
	TrainingSamples int     `json:"training_samples,omitempty"`
}

// SymptomCheckResponse is the POST /symptom-check body.
type SymptomCheckResponse struct {
	Predictions       []PredictionItem       `json:"predictions"`
	TotalSymptoms     int                    `json:"total_symptoms"`
	ProcessedSymptoms int                    `json:"processed_symptoms"`
	EnhancementFactor string                 `json:"enhancement_factor,omitempty"`
	UnmatchedSymptoms []string               `json:"unmatched_symptoms,omitempty"`
	ProcessedDetails  []ProcessedSymptomItem `json:"processed_symptom_details,omitempty"`
	Model             ModelInfoBody          `json:"model_info"`
}

// TierStatusItem is one configured tier in the model-info response.
type TierStatusItem struct {
	ID        string `json:"id"`
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
}

// ModelInfoResponse is the GET /model-info body.
type ModelInfoResponse struct {
	ActiveTier *ModelInfoBody   `json:"active_tier,omitempty"`
	Tiers      []TierStatusItem `json:"tiers"`
}

// HealthResponse is the GET /healthz body.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func assessmentToResponse(a *domain.Assessment) SymptomCheckResponse {
	resp := SymptomCheckResponse{
		Predictions:       make([]PredictionItem, len(a.Predictions)),
		TotalSymptoms:     a.TotalSymptoms,
		ProcessedSymptoms: a.ProcessedSymptoms,
		EnhancementFactor: a.EnhancementFactor,
		UnmatchedSymptoms: a.Unmatched,
		Model:             modelInfoToBody(a.Model),
	}
	for i, p := range a.Predictions {
		resp.Predictions[i] = PredictionItem{
			Disease:              p.Disease,
			Confidence:           p.Confidence,
			ConfidencePercentage: p.ConfidencePercentage,
			Recommendation:       p.Recommendation,
			SeverityCategory:     string(p.SeverityCategory),
		}
	}
	for _, s := range a.ProcessedDetails {
		resp.ProcessedDetails = append(resp.ProcessedDetails, ProcessedSymptomItem{
			Original:   s.Original,
			Normalized: s.Normalized,
			Severity:   string(s.Severity),
			Duration:   string(s.Duration),
			Weight:     s.Weight,
		})
	}
	return resp
}

func modelInfoToBody(m domain.ModelInfo) ModelInfoBody {
	return ModelInfoBody{
		TierID:          m.TierID,
		DiseasesCount:   m.DiseasesCount,
		FeaturesCount:   m.FeaturesCount,
		Accuracy:        m.Accuracy,
		TrainingSamples: m.TrainingSamples,
	}
}

func tierStatusesToItems(statuses []tier.Status) []TierStatusItem {
	items := make([]TierStatusItem, len(statuses))
	for i, st := range statuses {
		items[i] = TierStatusItem{ID: st.ID, Available: st.Available, Detail: st.Detail}
	}
	return items
}
