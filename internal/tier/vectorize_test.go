package tier

import (
	"testing"

	"github.com/cliniview/triage/internal/domain"
	"github.com/cliniview/triage/internal/vocab"
)

func vectorizeFixture(t *testing.T, scheme Scheme) (*vocab.Vocabulary, Weighting) {
	t.Helper()
	v, err := vocab.New([]string{"fever", "cough", "headache"}, map[string]string{"pyrexia": "fever"})
	if err != nil {
		t.Fatalf("vocab: %v", err)
	}
	w, err := NewWeighting(scheme, nil)
	if err != nil {
		t.Fatalf("weighting: %v", err)
	}
	return v, w
}

func mustReport(t *testing.T, name, sev, dur string) domain.SymptomReport {
	t.Helper()
	r, err := domain.NewSymptomReport(name, sev, dur)
	if err != nil {
		t.Fatalf("report %q: %v", name, err)
	}
	return r
}

func TestBuildVector_MatchedAndUnmatched(t *testing.T) {
	v, w := vectorizeFixture(t, SchemeGraded)

	res := BuildVector(v, w, []domain.SymptomReport{
		mustReport(t, "Pyrexia", "severe", "2+ weeks"),
		mustReport(t, "itchy elbow", "", ""),
		mustReport(t, "cough", "mild", "1 day"),
	})

	if len(res.Vector) != 3 {
		t.Fatalf("expected vector length 3, got %d", len(res.Vector))
	}
	if res.Vector[0] != 1.8 {
		t.Errorf("expected fever slot 1.8, got %v", res.Vector[0])
	}
	if res.Vector[2] != 0 {
		t.Errorf("expected empty headache slot, got %v", res.Vector[2])
	}
	if len(res.Unmatched) != 1 || res.Unmatched[0] != "itchy elbow" {
		t.Errorf("unexpected unmatched: %v", res.Unmatched)
	}
	if len(res.Processed) != 2 {
		t.Fatalf("expected 2 processed symptoms, got %d", len(res.Processed))
	}
	if res.Processed[0].Normalized != "fever" || res.Processed[0].Original != "Pyrexia" {
		t.Errorf("unexpected first processed symptom: %+v", res.Processed[0])
	}
	if len(res.Enhancements) != 0 {
		t.Errorf("graded scheme must not produce enhancements, got %v", res.Enhancements)
	}
}

func TestBuildVector_LastWriteWins(t *testing.T) {
	v, w := vectorizeFixture(t, SchemeGraded)

	res := BuildVector(v, w, []domain.SymptomReport{
		mustReport(t, "fever", "mild", "1 day"),
		mustReport(t, "fever", "severe", "2+ weeks"),
	})

	if res.Vector[0] != 1.8 {
		t.Errorf("later duplicate must overwrite the slot, got %v", res.Vector[0])
	}
	if len(res.Processed) != 2 {
		t.Errorf("both duplicates must be recorded as processed, got %d", len(res.Processed))
	}
}

func TestBuildVector_TracksEnhancements(t *testing.T) {
	v, w := vectorizeFixture(t, SchemeBinaryEnhanced)

	res := BuildVector(v, w, []domain.SymptomReport{
		mustReport(t, "fever", "severe", "2+ weeks"),
		mustReport(t, "cough", "", ""),
	})

	if len(res.Enhancements) != 2 {
		t.Fatalf("expected one enhancement per matched symptom, got %d", len(res.Enhancements))
	}
	if !almostEqual(res.Enhancements[0], 1.95) {
		t.Errorf("expected enhancement 1.95, got %v", res.Enhancements[0])
	}
}

func TestInputFrom(t *testing.T) {
	v, w := vectorizeFixture(t, SchemeGraded)
	res := BuildVector(v, w, []domain.SymptomReport{
		mustReport(t, "fever", "severe", "2+ weeks"),
		mustReport(t, "cough", "", ""),
	})

	in := InputFrom(res)
	if len(in.Vector) != 3 {
		t.Errorf("expected vector length 3, got %d", len(in.Vector))
	}
	if len(in.Symptoms) != 2 || in.Symptoms[0] != "fever" || in.Symptoms[1] != "cough" {
		t.Errorf("unexpected symptoms: %v", in.Symptoms)
	}
	if in.Weights["fever"] != 1.8 {
		t.Errorf("expected fever weight 1.8, got %v", in.Weights["fever"])
	}
}
