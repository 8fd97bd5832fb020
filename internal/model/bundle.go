// Package model loads serialized inference artifacts: trained classifier
// bundles and curated knowledge base files. Every file is validated against
// an embedded versioned JSON Schema before use, so malformed artifacts fail
// at load time instead of deep inside prediction.
package model

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/cliniview/triage/internal/domain"
)

// FormatVersion is the only bundle format this build understands.
const FormatVersion = 1

//go:embed bundle_schema.json
var bundleSchemaJSON []byte

//go:embed kb_schema.json
var kbSchemaJSON []byte

// Parameters holds the serialized classifier parameters. Opaque to the
// pipeline: training and vocabulary derivation happen offline.
type Parameters struct {
	Kind    string      `json:"kind"`
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
}

// SymptomMeta is per-symptom metadata from the offline-built vocabulary.
type SymptomMeta struct {
	BaseWeight float64  `json:"base_weight"`
	Aliases    []string `json:"aliases"`
}

// TrainingMetadata describes the offline training run.
type TrainingMetadata struct {
	Accuracy        float64 `json:"accuracy"`
	TrainingSamples int     `json:"training_samples"`
}

// Bundle is a validated, deserialized model bundle.
type Bundle struct {
	FormatVersion     int                    `json:"format_version"`
	FeatureVocabulary []string               `json:"feature_vocabulary"`
	LabelVocabulary   []string               `json:"label_vocabulary"`
	Parameters        Parameters             `json:"parameters"`
	SymptomMetadata   map[string]SymptomMeta `json:"symptom_metadata"`
	TrainingMetadata  TrainingMetadata       `json:"training_metadata"`
}

// BaseWeights extracts the per-symptom base weight overrides.
func (b *Bundle) BaseWeights() map[string]float64 {
	if len(b.SymptomMetadata) == 0 {
		return nil
	}
	out := make(map[string]float64, len(b.SymptomMetadata))
	for sym, meta := range b.SymptomMetadata {
		if meta.BaseWeight > 0 {
			out[sym] = meta.BaseWeight
		}
	}
	return out
}

// Aliases extracts the hand-curated synonym table (alias -> feature).
func (b *Bundle) Aliases() map[string]string {
	aliases := make(map[string]string)
	for sym, meta := range b.SymptomMetadata {
		for _, a := range meta.Aliases {
			aliases[a] = sym
		}
	}
	return aliases
}

// LoadBundle reads, schema-validates, and cross-checks a model bundle file.
// All failures are typed SchemaError values wrapping ErrInvalidSchema.
func LoadBundle(path string) (*Bundle, error) {
	raw, parsed, err := readArtifact(path)
	if err != nil {
		return nil, err
	}

	schema, err := compiledBundleSchema()
	if err != nil {
		return nil, fmt.Errorf("compile bundle schema: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return nil, domain.NewSchemaError(path, err)
	}

	var b Bundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, domain.NewSchemaError(path, err)
	}
	if err := b.crossCheck(); err != nil {
		return nil, domain.NewSchemaError(path, err)
	}
	return &b, nil
}

// crossCheck verifies shape constraints the JSON Schema cannot express.
func (b *Bundle) crossCheck() error {
	if b.FormatVersion != FormatVersion {
		return fmt.Errorf("unsupported format_version %d, want %d", b.FormatVersion, FormatVersion)
	}
	if b.Parameters.Kind != "linear_softmax" {
		return fmt.Errorf("unsupported parameters kind %q", b.Parameters.Kind)
	}
	labels, features := len(b.LabelVocabulary), len(b.FeatureVocabulary)
	if len(b.Parameters.Weights) != labels {
		return fmt.Errorf("weights rows %d != labels %d", len(b.Parameters.Weights), labels)
	}
	for i, row := range b.Parameters.Weights {
		if len(row) != features {
			return fmt.Errorf("weights row %d has %d columns, want %d", i, len(row), features)
		}
	}
	if len(b.Parameters.Bias) != labels {
		return fmt.Errorf("bias length %d != labels %d", len(b.Parameters.Bias), labels)
	}
	for sym := range b.SymptomMetadata {
		if !containsString(b.FeatureVocabulary, sym) {
			return fmt.Errorf("symptom_metadata entry %q not in feature_vocabulary", sym)
		}
	}
	return nil
}

func readArtifact(path string) (raw []byte, parsed any, err error) {
	raw, err = os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err = json.Unmarshal(raw, &parsed); err != nil {
		return nil, nil, domain.NewSchemaError(path, fmt.Errorf("invalid JSON: %w", err))
	}
	return raw, parsed, nil
}

var (
	bundleSchemaOnce sync.Once
	bundleSchema     *jsonschema.Schema
	bundleSchemaErr  error

	kbSchemaOnce sync.Once
	kbSchema     *jsonschema.Schema
	kbSchemaErr  error
)

func compiledBundleSchema() (*jsonschema.Schema, error) {
	bundleSchemaOnce.Do(func() {
		bundleSchema, bundleSchemaErr = compileSchema("bundle", bundleSchemaJSON)
	})
	return bundleSchema, bundleSchemaErr
}

func compiledKBSchema() (*jsonschema.Schema, error) {
	kbSchemaOnce.Do(func() {
		kbSchema, kbSchemaErr = compileSchema("kb", kbSchemaJSON)
	})
	return kbSchema, kbSchemaErr
}

func compileSchema(name string, def []byte) (*jsonschema.Schema, error) {
	var parsed any
	if err := json.Unmarshal(def, &parsed); err != nil {
		return nil, fmt.Errorf("parse embedded %s schema: %w", name, err)
	}
	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://%s.json", name)
	if err := c.AddResource(url, parsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	return c.Compile(url)
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
