package model

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/cliniview/triage/internal/domain"
)

//go:embed kb_default.json
var defaultKBJSON []byte

// KBDiseaseFile is the serialized form of one curated disease entry.
type KBDiseaseFile struct {
	Symptoms map[string]float64 `json:"symptoms"`
}

// KBFile is a validated, deserialized knowledge base file.
type KBFile struct {
	FormatVersion  int                      `json:"format_version"`
	Diseases       map[string]KBDiseaseFile `json:"diseases"`
	SymptomWeights map[string]float64       `json:"symptom_weights"`
}

// LoadKB reads and schema-validates a knowledge base file.
func LoadKB(path string) (*KBFile, error) {
	raw, parsed, err := readArtifact(path)
	if err != nil {
		return nil, err
	}
	return parseKB(path, raw, parsed)
}

// DefaultKB returns the knowledge base compiled into the binary, used when
// a fallback tier is configured without an explicit KB path.
func DefaultKB() (*KBFile, error) {
	var parsed any
	if err := json.Unmarshal(defaultKBJSON, &parsed); err != nil {
		return nil, fmt.Errorf("embedded kb: %w", err)
	}
	return parseKB("embedded", defaultKBJSON, parsed)
}

func parseKB(path string, raw []byte, parsed any) (*KBFile, error) {
	schema, err := compiledKBSchema()
	if err != nil {
		return nil, fmt.Errorf("compile kb schema: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return nil, domain.NewSchemaError(path, err)
	}

	var kb KBFile
	if err := json.Unmarshal(raw, &kb); err != nil {
		return nil, domain.NewSchemaError(path, err)
	}
	if kb.FormatVersion != FormatVersion {
		return nil, domain.NewSchemaError(path,
			fmt.Errorf("unsupported format_version %d, want %d", kb.FormatVersion, FormatVersion))
	}
	return &kb, nil
}
