package tier

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cliniview/triage/internal/domain"
	"github.com/cliniview/triage/internal/model"
	"github.com/cliniview/triage/internal/vocab"
)

// Spec describes one tier to load. A spec with a BundlePath loads a trained
// classifier; otherwise it builds the rule-based overlap tier from KBPath
// (empty = the embedded default KB).
type Spec struct {
	ID         string
	Scheme     Scheme
	BundlePath string
	KBPath     string
}

// LoadSlots attempts to load every configured tier in order. A failing tier
// is recorded as unavailable and must never abort the other tiers; the
// availability decision is made once here and never retried.
func LoadSlots(specs []Spec, logger *zap.Logger) []Slot {
	slots := make([]Slot, 0, len(specs))
	for _, spec := range specs {
		t, err := load(spec)
		if err != nil {
			err = fmt.Errorf("%w: tier %s: %w", domain.ErrBackendUnavailable, spec.ID, err)
			logger.Warn("tier failed to load, marked unavailable",
				zap.String("tier", spec.ID), zap.Error(err))
			slots = append(slots, Slot{ID: spec.ID, Err: err})
			continue
		}
		info := t.Info()
		logger.Info("tier loaded",
			zap.String("tier", spec.ID),
			zap.String("scheme", string(spec.Scheme)),
			zap.Int("diseases", info.DiseasesCount),
			zap.Int("features", info.FeaturesCount),
		)
		slots = append(slots, Slot{ID: spec.ID, Tier: t})
	}
	return slots
}

func load(spec Spec) (Tier, error) {
	if spec.BundlePath != "" {
		return loadClassifierTier(spec)
	}
	return loadOverlapTier(spec)
}

func loadClassifierTier(spec Spec) (Tier, error) {
	bundle, err := model.LoadBundle(spec.BundlePath)
	if err != nil {
		return nil, err
	}

	v, err := vocab.New(bundle.FeatureVocabulary, bundle.Aliases())
	if err != nil {
		return nil, fmt.Errorf("vocabulary: %w", err)
	}

	weighting, err := NewWeighting(spec.Scheme, bundle.BaseWeights())
	if err != nil {
		return nil, err
	}

	clf, err := model.NewLinearSoftmax(bundle.Parameters)
	if err != nil {
		return nil, err
	}

	return NewClassifierTier(spec.ID, v, bundle.LabelVocabulary, weighting, clf, domain.ModelInfo{
		Accuracy:        bundle.TrainingMetadata.Accuracy,
		TrainingSamples: bundle.TrainingMetadata.TrainingSamples,
	})
}

func loadOverlapTier(spec Spec) (Tier, error) {
	var (
		kbFile *model.KBFile
		err    error
	)
	if spec.KBPath != "" {
		kbFile, err = model.LoadKB(spec.KBPath)
	} else {
		kbFile, err = model.DefaultKB()
	}
	if err != nil {
		return nil, err
	}

	kb := KB{SymptomWeights: kbFile.SymptomWeights}
	featureSet := make(map[string]struct{})
	names := make([]string, 0, len(kbFile.Diseases))
	for name := range kbFile.Diseases {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		entry := kbFile.Diseases[name]
		kb.Diseases = append(kb.Diseases, KBDisease{Name: name, Symptoms: entry.Symptoms})
		for sym := range entry.Symptoms {
			featureSet[vocab.Key(sym)] = struct{}{}
		}
	}

	features := make([]string, 0, len(featureSet))
	for f := range featureSet {
		features = append(features, f)
	}
	sort.Strings(features)

	v, err := vocab.New(features, nil)
	if err != nil {
		return nil, fmt.Errorf("vocabulary: %w", err)
	}

	weighting, err := NewWeighting(spec.Scheme, kbFile.SymptomWeights)
	if err != nil {
		return nil, err
	}

	return NewOverlapTier(spec.ID, v, weighting, kb), nil
}
