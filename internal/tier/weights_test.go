package tier

import (
	"math"
	"testing"

	"github.com/cliniview/triage/internal/domain"
)

const weightEps = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < weightEps
}

func TestNewWeighting_UnknownScheme(t *testing.T) {
	if _, err := NewWeighting("bayesian", nil); err == nil {
		t.Fatal("expected error for unknown scheme")
	}
}

func TestWeight_Graded(t *testing.T) {
	w, err := NewWeighting(SchemeGraded, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		sev  domain.Severity
		dur  domain.Duration
		want float64
	}{
		{"severe long-lasting exceeds one", domain.SeveritySevere, "2+ weeks", 1.8},
		{"mild one day", domain.SeverityMild, "1 day", (2.0 / 7.0) * 0.7},
		{"moderate 2-3 days", domain.SeverityModerate, "2-3 days", 4.5 / 7.0},
		{"unknown severity falls back to moderate", "excruciating", "1 week", (4.5 / 7.0) * 1.3},
		{"unknown duration multiplier is one", domain.SeveritySevere, "forever", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := w.Weight("fever", tt.sev, tt.dur)
			if !almostEqual(got.Value, tt.want) {
				t.Errorf("Weight = %v, want %v", got.Value, tt.want)
			}
			if got.Enhancement != 0 {
				t.Errorf("graded scheme must not track enhancement, got %v", got.Enhancement)
			}
		})
	}

	if w.TracksEnhancement() {
		t.Error("graded scheme must not report enhancement tracking")
	}
}

func TestWeight_WeightedKB(t *testing.T) {
	w, err := NewWeighting(SchemeWeightedKB, map[string]float64{"chest pain": 6.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// flat base 4.0: 4.0 * 0.7 * 0.8 = 2.24
	got := w.Weight("fever", domain.SeverityMild, domain.DurationUnderWeek)
	if !almostEqual(got.Value, 2.24) {
		t.Errorf("expected 2.24, got %v", got.Value)
	}

	// base override: 6.0 * 1.8 * 1.6 = 17.28, clipped to 8
	got = w.Weight("chest pain", domain.SeverityVerySevere, domain.DurationOverMonth)
	if !almostEqual(got.Value, 8.0) {
		t.Errorf("expected upper clip 8.0, got %v", got.Value)
	}

	// lower clip: 4.0 * 0.7 * 0.8 = 2.24 stays, but a tiny base clips up to 1
	low, err := NewWeighting(SchemeWeightedKB, map[string]float64{"fever": 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got = low.Weight("fever", domain.SeverityMild, domain.DurationUnderWeek)
	if !almostEqual(got.Value, 1.0) {
		t.Errorf("expected lower clip 1.0, got %v", got.Value)
	}
}

func TestWeight_BinaryEnhanced(t *testing.T) {
	w, err := NewWeighting(SchemeBinaryEnhanced, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.TracksEnhancement() {
		t.Fatal("binary_enhanced must track enhancement")
	}

	// 1.0 * 1.5 * 1.3 = 1.95
	got := w.Weight("fever", domain.SeveritySevere, domain.DurationTwoWeeks)
	if !almostEqual(got.Enhancement, 1.95) {
		t.Errorf("expected enhancement 1.95, got %v", got.Enhancement)
	}
	if !almostEqual(got.Value, 1.95/3.0) {
		t.Errorf("expected vector value %v, got %v", 1.95/3.0, got.Value)
	}

	// 1.0 * 0.7 * 0.8 = 0.56, inside the clip range
	got = w.Weight("fever", domain.SeverityMild, domain.DurationUnderWeek)
	if !almostEqual(got.Enhancement, 0.56) {
		t.Errorf("expected enhancement 0.56, got %v", got.Enhancement)
	}

	// base 3.0 * 2.0 * 1.6 = 9.6, clipped to 3.0 -> value 1.0
	boosted, err := NewWeighting(SchemeBinaryEnhanced, map[string]float64{"chest pain": 3.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got = boosted.Weight("chest pain", domain.SeverityVerySevere, domain.DurationOverMonth)
	if !almostEqual(got.Enhancement, 3.0) || !almostEqual(got.Value, 1.0) {
		t.Errorf("expected clipped enhancement 3.0 / value 1.0, got %v / %v", got.Enhancement, got.Value)
	}
}
