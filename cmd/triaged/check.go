package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cliniview/triage/internal/config"
	"github.com/cliniview/triage/internal/domain"
	logpkg "github.com/cliniview/triage/internal/logger"
	"github.com/cliniview/triage/internal/tier"
	assessuc "github.com/cliniview/triage/internal/usecase/assess"
)

var checkTopK int

var checkCmd = &cobra.Command{
	Use:   "check <symptom> [symptom...]",
	Short: "Run a one-shot assessment from the command line",
	Long: `Check runs one assessment against the configured tiers and prints the
result as JSON.

Each symptom is either a bare name or name:severity:duration, e.g.

  triaged check fever "cough:severe:2+ weeks"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(args)
	},
}

func init() {
	checkCmd.Flags().IntVar(&checkTopK, "top-k", 5, "number of candidates to return")
}

func runCheck(args []string) error {
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, "warn")
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	selector, err := tier.NewSelector(tier.LoadSlots(tierSpecs(cfg.Tiers), logger))
	if err != nil {
		return fmt.Errorf("load tiers: %w", err)
	}

	reports, err := parseSymptomArgs(args)
	if err != nil {
		return err
	}

	svc := buildCheckService(cfg, selector)
	ctx := logpkg.ContextWithLogger(context.Background(), logger)
	assessment, err := svc.Assess(ctx, assessuc.Request{Reports: reports, TopK: checkTopK})
	if err != nil {
		return fmt.Errorf("assess: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(checkOutput(assessment)); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}

// buildCheckService assembles the pipeline without the result cache; a
// one-shot invocation gains nothing from caching.
func buildCheckService(cfg config.Config, selector *tier.Selector) *assessuc.Service {
	table := domain.DefaultCategoryTable()
	if len(cfg.Safety.CriticalKeywords) > 0 {
		table = table.WithCritical(cfg.Safety.CriticalKeywords)
	}
	safety := assessuc.NewSafetyEngine(assessuc.SafetyConfig{
		Ceiling:                 cfg.Safety.Ceiling,
		Floor:                   cfg.Safety.Floor,
		LowConfidenceTop:        cfg.Safety.LowConfidenceTop,
		SingleSymptomMultiplier: cfg.Safety.SingleSymptomMultiplier,
	}, table)
	return assessuc.New(selector, safety, assessuc.NewRecommender(table)).
		WithFallback(cfg.Prediction.FallbackOnError)
}

func parseSymptomArgs(args []string) ([]domain.SymptomReport, error) {
	reports := make([]domain.SymptomReport, 0, len(args))
	for _, arg := range args {
		parts := strings.SplitN(arg, ":", 3)
		var severity, duration string
		if len(parts) > 1 {
			severity = parts[1]
		}
		if len(parts) > 2 {
			duration = parts[2]
		}
		r, err := domain.NewSymptomReport(parts[0], severity, duration)
		if err != nil {
			return nil, fmt.Errorf("symptom %q: %w", arg, err)
		}
		reports = append(reports, r)
	}
	return reports, nil
}

type checkResult struct {
	Disease        string `json:"disease"`
	Confidence     string `json:"confidence"`
	Category       string `json:"category"`
	Recommendation string `json:"recommendation"`
}

type checkReport struct {
	Tier        string        `json:"tier"`
	Predictions []checkResult `json:"predictions"`
	Unmatched   []string      `json:"unmatched,omitempty"`
	Enhancement string        `json:"enhancement_factor,omitempty"`
}

func checkOutput(a *domain.Assessment) checkReport {
	out := checkReport{
		Tier:        a.Model.TierID,
		Unmatched:   a.Unmatched,
		Enhancement: a.EnhancementFactor,
	}
	for _, p := range a.Predictions {
		out.Predictions = append(out.Predictions, checkResult{
			Disease:        p.Disease,
			Confidence:     p.ConfidencePercentage,
			Category:       string(p.SeverityCategory),
			Recommendation: p.Recommendation,
		})
	}
	return out
}
