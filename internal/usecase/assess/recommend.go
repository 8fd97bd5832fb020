package assess

import "github.com/cliniview/triage/internal/domain"

const insufficientInfoRecommendation = "Unable to determine condition from provided symptoms. " +
	"Please consult a healthcare provider for professional evaluation."

// Recommender maps an adjusted prediction to a patient-facing recommendation
// and severity category.
type Recommender struct {
	table domain.CategoryTable
}

// NewRecommender creates a recommender over the shared category table.
func NewRecommender(table domain.CategoryTable) Recommender {
	return Recommender{table: table}
}

// Recommend classifies the disease and picks the advice band for the adjusted
// confidence. Critical diseases always get an urgency-oriented message
// regardless of confidence.
func (r Recommender) Recommend(disease string, confidence float64) (string, domain.Category) {
	if disease == InsufficientInformation {
		return insufficientInfoRecommendation, domain.CategoryMild
	}

	category := r.table.Categorize(disease)

	if category == domain.CategoryCritical {
		if confidence > 0.3 {
			return "URGENT: Seek immediate emergency medical attention", category
		}
		return "Consult healthcare provider promptly if symptoms persist", category
	}

	switch {
	case confidence < 0.2:
		return "Low confidence - Monitor symptoms and consult healthcare provider if they worsen", category
	case confidence < 0.4:
		return "Moderate confidence - Consider consulting a healthcare provider", category
	case confidence < 0.6:
		return "High confidence - Recommend consulting a healthcare provider for evaluation", category
	default:
		return "Very high confidence - Strongly recommend consultation with a healthcare provider", category
	}
}
