// Package vocab holds a tier's fixed symptom vocabulary and maps free-form
// symptom names onto it.
package vocab

import (
	"fmt"
	"strings"
)

// Vocabulary is the fixed, ordered symptom vocabulary of one tier. The
// feature order defines the feature vector layout. Loaded once at tier
// initialization, never mutated afterwards.
type Vocabulary struct {
	features []string
	keys     []string       // canonical key per feature, same order
	slots    map[string]int // canonical key -> feature slot
	aliases  map[string]string
}

// New creates a vocabulary from ordered features and an optional alias table
// mapping hand-curated synonyms to vocabulary entries.
func New(features []string, aliases map[string]string) (*Vocabulary, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("vocabulary must not be empty")
	}

	v := &Vocabulary{
		features: make([]string, len(features)),
		keys:     make([]string, len(features)),
		slots:    make(map[string]int, len(features)),
		aliases:  make(map[string]string, len(aliases)),
	}
	copy(v.features, features)

	for i, f := range features {
		key := Key(f)
		v.keys[i] = key
		if _, dup := v.slots[key]; dup {
			return nil, fmt.Errorf("duplicate vocabulary entry %q", f)
		}
		v.slots[key] = i
	}

	for alias, target := range aliases {
		if _, ok := v.slots[Key(target)]; !ok {
			return nil, fmt.Errorf("alias %q targets unknown entry %q", alias, target)
		}
		v.aliases[Key(alias)] = target
	}

	return v, nil
}

// Len returns the vocabulary size, which equals the feature vector length.
func (v *Vocabulary) Len() int { return len(v.features) }

// Features returns a copy of the ordered vocabulary entries.
func (v *Vocabulary) Features() []string {
	out := make([]string, len(v.features))
	copy(out, v.features)
	return out
}

// Slot returns the feature vector index of a canonical vocabulary entry.
func (v *Vocabulary) Slot(feature string) (int, bool) {
	i, ok := v.slots[Key(feature)]
	return i, ok
}

// Normalize maps a raw symptom name onto a canonical vocabulary entry.
// Matching is attempted in order, stopping at first success: alias table,
// case-insensitive exact, substring containment in either direction, and
// token-set intersection. Returns false when nothing matches; an unmatched
// symptom is a diagnostic, not an error.
func (v *Vocabulary) Normalize(raw string) (string, bool) {
	key := Key(raw)
	if key == "" {
		return "", false
	}

	if target, ok := v.aliases[key]; ok {
		return target, true
	}

	if i, ok := v.slots[key]; ok {
		return v.features[i], true
	}

	for i, fk := range v.keys {
		if strings.Contains(fk, key) || strings.Contains(key, fk) {
			return v.features[i], true
		}
	}

	tokens := tokenSet(key)
	for i, fk := range v.keys {
		if intersects(tokens, tokenSet(fk)) {
			return v.features[i], true
		}
	}

	return "", false
}

// Key canonicalizes a symptom name: lower-cased, trimmed, with spaces and
// hyphens collapsed to single underscores.
func Key(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})
	return strings.Join(fields, "_")
}

func tokenSet(key string) map[string]struct{} {
	parts := strings.Split(key, "_")
	set := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		if p != "" {
			set[p] = struct{}{}
		}
	}
	return set
}

func intersects(a, b map[string]struct{}) bool {
	for t := range a {
		if _, ok := b[t]; ok {
			return true
		}
	}
	return false
}
