// Package assess implements the symptom assessment pipeline: vectorization,
// tiered inference with fallback, safety adjustment, and recommendations.
package assess

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cliniview/triage/internal/domain"
	"github.com/cliniview/triage/internal/logger"
	"github.com/cliniview/triage/internal/metrics"
	"github.com/cliniview/triage/internal/tier"
)

const defaultTopK = 5

// Request is one symptom-check request.
type Request struct {
	Reports []domain.SymptomReport
	TopK    int
}

// Service orchestrates one assessment end to end. Construct with New and the
// With* options, then treat as read-only.
type Service struct {
	tiers           TierSelector
	safety          SafetyEngine
	recommend       Recommender
	cache           ResultCache
	timeout         time.Duration
	topK            int
	fallbackOnError bool
}

// New creates an assessment service without caching or fallback.
func New(tiers TierSelector, safety SafetyEngine, recommend Recommender) *Service {
	return &Service{
		tiers:     tiers,
		safety:    safety,
		recommend: recommend,
		timeout:   5 * time.Second,
		topK:      defaultTopK,
	}
}

// WithCache enables the deterministic result cache. A nil cache is a no-op.
func (s *Service) WithCache(cache ResultCache) *Service {
	s.cache = cache
	return s
}

// WithTopK sets the candidate count used when a request does not ask for one.
func (s *Service) WithTopK(k int) *Service {
	if k > 0 {
		s.topK = k
	}
	return s
}

// WithTimeout bounds each backend prediction call.
func (s *Service) WithTimeout(timeout time.Duration) *Service {
	if timeout > 0 {
		s.timeout = timeout
	}
	return s
}

// WithFallback enables trying the next configured tier when a prediction fails.
func (s *Service) WithFallback(enabled bool) *Service {
	s.fallbackOnError = enabled
	return s
}

// Assess runs the full pipeline for one request.
func (s *Service) Assess(ctx context.Context, req Request) (*domain.Assessment, error) {
	log := logger.FromContext(ctx)

	if len(req.Reports) == 0 {
		return nil, fmt.Errorf("%w: request contains no symptoms", domain.ErrNoSymptoms)
	}
	topK := req.TopK
	if topK <= 0 {
		topK = s.topK
	}

	t, ok := s.tiers.Pick()
	if !ok {
		return nil, domain.ErrNoBackendAvailable
	}

	key := cacheKey(t.ID(), req.Reports, topK)
	if s.cache != nil {
		if cached, hit := s.cache.Get(ctx, key); hit {
			metrics.AssessmentCacheTotal.WithLabelValues("hit").Inc()
			return cached, nil
		}
		metrics.AssessmentCacheTotal.WithLabelValues("miss").Inc()
	}

	assessment, err := s.assessWith(ctx, t, req.Reports, topK)
	if err != nil {
		metrics.AssessmentsTotal.WithLabelValues(t.ID(), "error").Inc()
		if !s.fallbackOnError {
			return nil, err
		}

		// Walk the remaining tiers in configured order. Each tier has its
		// own vocabulary, so the vector is rebuilt per attempt.
		for prev := t; ; {
			next, ok := s.tiers.After(prev.ID())
			if !ok {
				return nil, err
			}
			log.Warn("tier prediction failed, falling back",
				zap.String("from", prev.ID()),
				zap.String("to", next.ID()),
				zap.Error(err))
			metrics.TierFallbacksTotal.WithLabelValues(prev.ID(), next.ID()).Inc()

			assessment, err = s.assessWith(ctx, next, req.Reports, topK)
			if err == nil {
				t = next
				break
			}
			metrics.AssessmentsTotal.WithLabelValues(next.ID(), "error").Inc()
			prev = next
		}
		key = cacheKey(t.ID(), req.Reports, topK)
	}

	metrics.AssessmentsTotal.WithLabelValues(t.ID(), "ok").Inc()
	if n := len(assessment.Unmatched); n > 0 {
		metrics.UnmatchedSymptomsTotal.Add(float64(n))
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, assessment)
	}
	return assessment, nil
}

func (s *Service) assessWith(
	ctx context.Context, t tier.Tier, reports []domain.SymptomReport, topK int,
) (*domain.Assessment, error) {
	res := tier.BuildVector(t.Vocabulary(), t.Weighting(), reports)

	predictCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	raw, err := t.Predict(predictCtx, tier.InputFrom(res))
	metrics.PredictionDuration.WithLabelValues(t.ID()).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	adjusted := s.safety.Apply(raw, len(reports), res.Enhancements)
	if len(adjusted) > topK {
		adjusted = adjusted[:topK]
	}

	predictions := make([]domain.Prediction, 0, len(adjusted))
	for _, p := range adjusted {
		recommendation, category := s.recommend.Recommend(p.Disease, p.Confidence)
		predictions = append(predictions, domain.Prediction{
			Disease:              p.Disease,
			Confidence:           p.Confidence,
			ConfidencePercentage: domain.FormatConfidence(p.Confidence),
			Recommendation:       recommendation,
			SeverityCategory:     category,
		})
	}

	assessment := &domain.Assessment{
		Predictions:       predictions,
		TotalSymptoms:     len(reports),
		ProcessedSymptoms: len(res.Processed),
		Unmatched:         res.Unmatched,
		ProcessedDetails:  res.Processed,
		Model:             t.Info(),
	}
	if t.Weighting().TracksEnhancement() && len(res.Enhancements) > 0 {
		assessment.EnhancementFactor = domain.FormatEnhancement(EnhancementFactor(res.Enhancements))
	}
	return assessment, nil
}

// cacheKey derives a deterministic key from the serving tier and the exact
// request. Report order matters: it affects last-write-wins vectorization.
func cacheKey(tierID string, reports []domain.SymptomReport, topK int) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d", tierID, topK)
	for _, r := range reports {
		fmt.Fprintf(h, "|%s;%s;%s", r.Name(), r.Severity(), r.Duration())
	}
	return hex.EncodeToString(h.Sum(nil))
}
