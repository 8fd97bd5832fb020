package model

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cliniview/triage/internal/domain"
)

const validBundleJSON = `{
  "format_version": 1,
  "feature_vocabulary": ["fever", "cough"],
  "label_vocabulary": ["Influenza", "Common Cold"],
  "parameters": {
    "kind": "linear_softmax",
    "weights": [[1.5, 0.5], [0.2, 1.1]],
    "bias": [0.1, -0.1]
  },
  "symptom_metadata": {
    "fever": {"base_weight": 1.2, "aliases": ["pyrexia", "high temperature"]}
  },
  "training_metadata": {"accuracy": 0.9, "training_samples": 1200}
}`

func writeBundle(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bundle.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write bundle: %v", err)
	}
	return path
}

func TestLoadBundle_Valid(t *testing.T) {
	b, err := LoadBundle(writeBundle(t, validBundleJSON))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(b.FeatureVocabulary) != 2 || len(b.LabelVocabulary) != 2 {
		t.Errorf("unexpected vocabularies: %+v", b)
	}
	if b.TrainingMetadata.Accuracy != 0.9 {
		t.Errorf("expected accuracy 0.9, got %v", b.TrainingMetadata.Accuracy)
	}

	aliases := b.Aliases()
	if aliases["pyrexia"] != "fever" || aliases["high temperature"] != "fever" {
		t.Errorf("unexpected aliases: %v", aliases)
	}

	base := b.BaseWeights()
	if base["fever"] != 1.2 {
		t.Errorf("expected fever base weight 1.2, got %v", base["fever"])
	}
	if _, ok := base["cough"]; ok {
		t.Error("cough has no metadata and must not appear in base weights")
	}
}

func TestLoadBundle_MissingFile(t *testing.T) {
	if _, err := LoadBundle(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadBundle_InvalidJSON(t *testing.T) {
	_, err := LoadBundle(writeBundle(t, "{not json"))
	if !errors.Is(err, domain.ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}
}

func TestLoadBundle_SchemaViolation(t *testing.T) {
	// label_vocabulary missing entirely.
	_, err := LoadBundle(writeBundle(t, `{
	  "format_version": 1,
	  "feature_vocabulary": ["fever"],
	  "parameters": {"kind": "linear_softmax", "weights": [[1.0]], "bias": [0]}
	}`))
	if !errors.Is(err, domain.ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}

	var se *domain.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected typed SchemaError, got %T", err)
	}
}

func TestLoadBundle_CrossChecks(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"wrong format version", `{
		  "format_version": 2,
		  "feature_vocabulary": ["fever"],
		  "label_vocabulary": ["Flu"],
		  "parameters": {"kind": "linear_softmax", "weights": [[1.0]], "bias": [0]}
		}`},
		{"unsupported kind", `{
		  "format_version": 1,
		  "feature_vocabulary": ["fever"],
		  "label_vocabulary": ["Flu"],
		  "parameters": {"kind": "decision_tree", "weights": [[1.0]], "bias": [0]}
		}`},
		{"weights rows mismatch", `{
		  "format_version": 1,
		  "feature_vocabulary": ["fever"],
		  "label_vocabulary": ["Flu", "Cold"],
		  "parameters": {"kind": "linear_softmax", "weights": [[1.0]], "bias": [0, 0]}
		}`},
		{"weights columns mismatch", `{
		  "format_version": 1,
		  "feature_vocabulary": ["fever", "cough"],
		  "label_vocabulary": ["Flu"],
		  "parameters": {"kind": "linear_softmax", "weights": [[1.0]], "bias": [0]}
		}`},
		{"bias length mismatch", `{
		  "format_version": 1,
		  "feature_vocabulary": ["fever"],
		  "label_vocabulary": ["Flu"],
		  "parameters": {"kind": "linear_softmax", "weights": [[1.0]], "bias": [0, 1]}
		}`},
		{"metadata for unknown feature", `{
		  "format_version": 1,
		  "feature_vocabulary": ["fever"],
		  "label_vocabulary": ["Flu"],
		  "parameters": {"kind": "linear_softmax", "weights": [[1.0]], "bias": [0]},
		  "symptom_metadata": {"cough": {"base_weight": 1.0}}
		}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBundle(writeBundle(t, tt.body))
			if !errors.Is(err, domain.ErrInvalidSchema) {
				t.Fatalf("expected ErrInvalidSchema, got %v", err)
			}
		})
	}
}

func TestLoadKB_Valid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.json")
	body := `{
	  "format_version": 1,
	  "diseases": {
	    "Influenza": {"symptoms": {"fever": 0.9, "cough": 0.8}}
	  },
	  "symptom_weights": {"fever": 1.5}
	}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write kb: %v", err)
	}

	kb, err := LoadKB(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(kb.Diseases) != 1 || kb.SymptomWeights["fever"] != 1.5 {
		t.Errorf("unexpected kb: %+v", kb)
	}
}

func TestLoadKB_SchemaViolation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.json")
	if err := os.WriteFile(path, []byte(`{"format_version": 1, "diseases": {}}`), 0o644); err != nil {
		t.Fatalf("write kb: %v", err)
	}

	if _, err := LoadKB(path); !errors.Is(err, domain.ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}
}

func TestDefaultKB(t *testing.T) {
	kb, err := DefaultKB()
	if err != nil {
		t.Fatalf("embedded kb must parse: %v", err)
	}
	if kb.FormatVersion != FormatVersion {
		t.Errorf("unexpected format version %d", kb.FormatVersion)
	}
	if len(kb.Diseases) == 0 {
		t.Error("embedded kb must carry diseases")
	}
	if _, ok := kb.Diseases["Common Cold"]; !ok {
		t.Error("embedded kb should include Common Cold")
	}
}
