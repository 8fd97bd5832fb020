package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSymptoms signals a request without any symptoms.
	ErrNoSymptoms = errors.New("no symptoms provided")
	// ErrMalformedSymptom signals a symptom entry without a name.
	ErrMalformedSymptom = errors.New("malformed symptom")
	// ErrBackendUnavailable signals that a single tier failed to initialize.
	ErrBackendUnavailable = errors.New("inference backend unavailable")
	// ErrNoBackendAvailable signals that every configured tier failed to initialize.
	ErrNoBackendAvailable = errors.New("no inference backend available")
	// ErrPredictionFailed signals that the selected backend raised at call time.
	ErrPredictionFailed = errors.New("prediction failed")
	// ErrInvalidSchema signals an invalid model bundle or knowledge base file.
	ErrInvalidSchema = errors.New("invalid bundle schema")
)

// SchemaError wraps ErrInvalidSchema with the offending file path and detail.
type SchemaError struct {
	Path string
	Err  error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidSchema.Error(), e.Path, e.Err.Error())
}

func (e *SchemaError) Unwrap() error { return ErrInvalidSchema }

// NewSchemaError creates a schema validation error for a bundle file.
func NewSchemaError(path string, err error) error {
	return &SchemaError{Path: path, Err: err}
}
