package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "triaged",
	Short: "Symptom triage inference service",
	Long: `Triaged maps reported symptoms to ranked disease candidates with
safety-adjusted confidences and patient-facing recommendations.

Inference runs over configured tiers in priority order, falling back to
simpler backends when a tier is unavailable.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	Execute()
}
