package assess

import (
	"context"
	"errors"
	"testing"

	"github.com/cliniview/triage/internal/domain"
	"github.com/cliniview/triage/internal/tier"
	"github.com/cliniview/triage/internal/vocab"
)

// --- Mocks ---

type mockTier struct {
	id        string
	voc       *vocab.Vocabulary
	weighting tier.Weighting
	preds     []tier.RawPrediction
	err       error
	calls     int
}

func (m *mockTier) ID() string                    { return m.id }
func (m *mockTier) Vocabulary() *vocab.Vocabulary { return m.voc }
func (m *mockTier) Weighting() tier.Weighting     { return m.weighting }
func (m *mockTier) Info() domain.ModelInfo {
	return domain.ModelInfo{TierID: m.id}
}

func (m *mockTier) Predict(context.Context, tier.Input) ([]tier.RawPrediction, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.preds, nil
}

type mockSelector struct {
	tiers []tier.Tier
}

func (m *mockSelector) Pick() (tier.Tier, bool) {
	if len(m.tiers) == 0 {
		return nil, false
	}
	return m.tiers[0], true
}

func (m *mockSelector) After(id string) (tier.Tier, bool) {
	for i, t := range m.tiers {
		if t.ID() == id && i+1 < len(m.tiers) {
			return m.tiers[i+1], true
		}
	}
	return nil, false
}

type mockCache struct {
	stored map[string]*domain.Assessment
	canned *domain.Assessment
	gets   int
	sets   int
}

func (m *mockCache) Get(_ context.Context, key string) (*domain.Assessment, bool) {
	m.gets++
	if m.canned != nil {
		return m.canned, true
	}
	a, ok := m.stored[key]
	return a, ok
}

func (m *mockCache) Set(_ context.Context, key string, a *domain.Assessment) {
	m.sets++
	if m.stored == nil {
		m.stored = make(map[string]*domain.Assessment)
	}
	m.stored[key] = a
}

func newTestTier(t *testing.T, id string, scheme tier.Scheme, preds []tier.RawPrediction, err error) *mockTier {
	t.Helper()
	voc, verr := vocab.New([]string{"fever", "cough", "headache"}, nil)
	if verr != nil {
		t.Fatalf("vocab.New: %v", verr)
	}
	w, werr := tier.NewWeighting(scheme, nil)
	if werr != nil {
		t.Fatalf("tier.NewWeighting: %v", werr)
	}
	return &mockTier{id: id, voc: voc, weighting: w, preds: preds, err: err}
}

func newTestService(tiers ...tier.Tier) *Service {
	table := domain.DefaultCategoryTable()
	return New(
		&mockSelector{tiers: tiers},
		NewSafetyEngine(DefaultSafetyConfig(), table),
		NewRecommender(table),
	)
}

func reports(t *testing.T, names ...string) []domain.SymptomReport {
	t.Helper()
	out := make([]domain.SymptomReport, 0, len(names))
	for _, n := range names {
		r, err := domain.NewSymptomReport(n, "severe", "1 week")
		if err != nil {
			t.Fatalf("NewSymptomReport(%q): %v", n, err)
		}
		out = append(out, r)
	}
	return out
}

// --- Tests ---

func TestAssess_NoSymptoms(t *testing.T) {
	backend := newTestTier(t, "tier_a", tier.SchemeGraded, nil, nil)
	svc := newTestService(backend)

	_, err := svc.Assess(context.Background(), Request{})
	if !errors.Is(err, domain.ErrNoSymptoms) {
		t.Fatalf("expected ErrNoSymptoms, got %v", err)
	}
	if backend.calls != 0 {
		t.Errorf("backend must not be called for an empty request, got %d calls", backend.calls)
	}
}

func TestAssess_NoBackendAvailable(t *testing.T) {
	svc := newTestService()

	_, err := svc.Assess(context.Background(), Request{Reports: reports(t, "fever")})
	if !errors.Is(err, domain.ErrNoBackendAvailable) {
		t.Fatalf("expected ErrNoBackendAvailable, got %v", err)
	}
}

func TestAssess_Success(t *testing.T) {
	backend := newTestTier(t, "tier_a", tier.SchemeGraded, []tier.RawPrediction{
		{Disease: "Influenza", Confidence: 0.5},
		{Disease: "Common Cold", Confidence: 0.3},
	}, nil)
	svc := newTestService(backend)

	got, err := svc.Assess(context.Background(), Request{Reports: reports(t, "fever", "cough", "headache")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Model.TierID != "tier_a" {
		t.Errorf("expected model info from tier_a, got %q", got.Model.TierID)
	}
	if got.TotalSymptoms != 3 || got.ProcessedSymptoms != 3 {
		t.Errorf("expected 3/3 symptoms, got %d/%d", got.TotalSymptoms, got.ProcessedSymptoms)
	}
	if len(got.Predictions) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(got.Predictions))
	}
	// Three symptoms trigger the corroboration bonus: 0.5*1.1 = 0.55.
	top := got.Predictions[0]
	if top.Disease != "Influenza" || !almost(top.Confidence, 0.55) {
		t.Errorf("unexpected top prediction: %+v", top)
	}
	if top.Recommendation == "" || top.SeverityCategory == "" {
		t.Errorf("prediction must carry recommendation and category: %+v", top)
	}
	if got.EnhancementFactor != "" {
		t.Errorf("graded weighting must not report an enhancement factor, got %q", got.EnhancementFactor)
	}
}

func TestAssess_TopK(t *testing.T) {
	backend := newTestTier(t, "tier_a", tier.SchemeGraded, []tier.RawPrediction{
		{Disease: "Influenza", Confidence: 0.6},
		{Disease: "Common Cold", Confidence: 0.5},
		{Disease: "Bronchitis", Confidence: 0.4},
	}, nil)
	svc := newTestService(backend)

	got, err := svc.Assess(context.Background(), Request{
		Reports: reports(t, "fever", "cough", "headache"),
		TopK:    2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Predictions) != 2 {
		t.Errorf("expected predictions trimmed to 2, got %d", len(got.Predictions))
	}
}

func TestAssess_ConfiguredTopK(t *testing.T) {
	backend := newTestTier(t, "tier_a", tier.SchemeGraded, []tier.RawPrediction{
		{Disease: "Influenza", Confidence: 0.6},
		{Disease: "Common Cold", Confidence: 0.5},
		{Disease: "Bronchitis", Confidence: 0.4},
	}, nil)
	svc := newTestService(backend).WithTopK(1)

	// Request omits top_k: the configured default applies.
	got, err := svc.Assess(context.Background(), Request{
		Reports: reports(t, "fever", "cough", "headache"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Predictions) != 1 {
		t.Errorf("expected the configured top-k of 1, got %d predictions", len(got.Predictions))
	}

	// An explicit request top_k still wins over the configured default.
	got, err = svc.Assess(context.Background(), Request{
		Reports: reports(t, "fever", "cough", "headache"),
		TopK:    2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Predictions) != 2 {
		t.Errorf("expected the request top-k of 2, got %d predictions", len(got.Predictions))
	}
}

func TestAssess_UnmatchedSymptoms(t *testing.T) {
	backend := newTestTier(t, "tier_a", tier.SchemeGraded, []tier.RawPrediction{
		{Disease: "Influenza", Confidence: 0.5},
	}, nil)
	svc := newTestService(backend)

	got, err := svc.Assess(context.Background(), Request{
		Reports: reports(t, "fever", "itchy elbow"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ProcessedSymptoms != 1 {
		t.Errorf("expected 1 processed symptom, got %d", got.ProcessedSymptoms)
	}
	if len(got.Unmatched) != 1 || got.Unmatched[0] != "itchy elbow" {
		t.Errorf("unexpected unmatched list: %v", got.Unmatched)
	}
}

func TestAssess_EnhancementFactor(t *testing.T) {
	backend := newTestTier(t, "tier_c", tier.SchemeBinaryEnhanced, []tier.RawPrediction{
		{Disease: "Influenza", Confidence: 0.5},
	}, nil)
	svc := newTestService(backend)

	got, err := svc.Assess(context.Background(), Request{Reports: reports(t, "fever", "cough", "headache")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.EnhancementFactor == "" {
		t.Error("binary_enhanced weighting must report an enhancement factor")
	}
}

func TestAssess_FallbackDisabled(t *testing.T) {
	primary := newTestTier(t, "tier_a", tier.SchemeGraded, nil, errors.New("model exploded"))
	secondary := newTestTier(t, "tier_b", tier.SchemeGraded, []tier.RawPrediction{
		{Disease: "Influenza", Confidence: 0.5},
	}, nil)
	svc := newTestService(primary, secondary)

	_, err := svc.Assess(context.Background(), Request{Reports: reports(t, "fever")})
	if err == nil {
		t.Fatal("expected the primary tier error to surface")
	}
	if secondary.calls != 0 {
		t.Errorf("secondary tier must not be tried without fallback, got %d calls", secondary.calls)
	}
}

func TestAssess_FallbackToNextTier(t *testing.T) {
	primary := newTestTier(t, "tier_a", tier.SchemeGraded, nil, errors.New("model exploded"))
	secondary := newTestTier(t, "tier_b", tier.SchemeGraded, []tier.RawPrediction{
		{Disease: "Influenza", Confidence: 0.5},
	}, nil)
	svc := newTestService(primary, secondary).WithFallback(true)

	got, err := svc.Assess(context.Background(), Request{Reports: reports(t, "fever")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Model.TierID != "tier_b" {
		t.Errorf("expected the fallback tier to serve, got %q", got.Model.TierID)
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Errorf("expected one call each, got primary=%d secondary=%d", primary.calls, secondary.calls)
	}
}

func TestAssess_FallbackExhausted(t *testing.T) {
	primary := newTestTier(t, "tier_a", tier.SchemeGraded, nil, errors.New("model exploded"))
	secondary := newTestTier(t, "tier_b", tier.SchemeGraded, nil, errors.New("kb corrupt"))
	svc := newTestService(primary, secondary).WithFallback(true)

	_, err := svc.Assess(context.Background(), Request{Reports: reports(t, "fever")})
	if err == nil {
		t.Fatal("expected an error when every tier fails")
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Errorf("expected one call each, got primary=%d secondary=%d", primary.calls, secondary.calls)
	}
}

func TestAssess_CacheHit(t *testing.T) {
	backend := newTestTier(t, "tier_a", tier.SchemeGraded, []tier.RawPrediction{
		{Disease: "Influenza", Confidence: 0.5},
	}, nil)
	cached := &domain.Assessment{TotalSymptoms: 1}
	svc := newTestService(backend).WithCache(&mockCache{canned: cached})

	got, err := svc.Assess(context.Background(), Request{Reports: reports(t, "fever")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != cached {
		t.Error("expected the cached assessment back")
	}
	if backend.calls != 0 {
		t.Errorf("backend must not be called on a cache hit, got %d calls", backend.calls)
	}
}

func TestAssess_CacheSetOnSuccess(t *testing.T) {
	backend := newTestTier(t, "tier_a", tier.SchemeGraded, []tier.RawPrediction{
		{Disease: "Influenza", Confidence: 0.5},
	}, nil)
	cache := &mockCache{}
	svc := newTestService(backend).WithCache(cache)

	first, err := svc.Assess(context.Background(), Request{Reports: reports(t, "fever")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("expected one cache write, got %d", cache.sets)
	}

	// Same request again: served from the cache, backend untouched.
	second, err := svc.Assess(context.Background(), Request{Reports: reports(t, "fever")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != first {
		t.Error("expected the second call to return the cached assessment")
	}
	if backend.calls != 1 {
		t.Errorf("expected a single backend call, got %d", backend.calls)
	}
}

func almost(got, want float64) bool {
	d := got - want
	return d > -1e-9 && d < 1e-9
}
