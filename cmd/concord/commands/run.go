package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jaehyun-dev/concord/internal/contracts"
	"github.com/jaehyun-dev/concord/internal/engine"
	"github.com/jaehyun-dev/concord/pkg/database"
)

// runCmd executes one full pipeline run and prints the outcome.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full analysis pipeline once",
	Long: `Evaluates the configured universe, aggregates the strategy views,
applies the guardrail and regime filters, and prints the tiered
consensus list with portfolio weights.

Results are persisted when DATABASE_URL is set and --no-persist is not given.

Example:
  go run ./cmd/concord run
  go run ./cmd/concord run --timeout 10m`,
	RunE: runPipeline,
}

var (
	runTimeout   time.Duration
	runNoPersist bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Minute, "run timeout")
	runCmd.Flags().BoolVar(&runNoPersist, "no-persist", false, "skip database persistence")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	var db *database.DB
	if !runNoPersist && cfg.Database.URL != "" {
		db, err = database.New(cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
	}

	eng, err := buildEngine(cfg, log, db, nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
	defer cancel()

	result, err := eng.Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	printResult(result)
	return nil
}

func printResult(result *engine.Result) {
	fmt.Printf("\nRun %s (%s regime, breadth %.2f)\n",
		result.Run.RunID, result.Run.Regime, result.Run.Breadth)
	fmt.Printf("Evaluated %d/%d instruments (%d cache hits, %d failures) in %s\n\n",
		result.Report.Analyzed, result.Report.Requested,
		result.Report.CacheHits, len(result.Report.Failures), result.Duration.Round(time.Millisecond))

	printTier := func(name string, records []*contracts.ConsensusRecord) {
		if len(records) == 0 {
			return
		}
		fmt.Printf("%s:\n", name)
		for _, rec := range records {
			fmt.Printf("  %-8s %6.1f  %d/%d agree  %-11s conf %.2f  %s\n",
				rec.Symbol, rec.Score, rec.AgreeCount, rec.StrategiesRun,
				rec.Recommendation, rec.Confidence, rec.Risk)
		}
		fmt.Println()
	}
	printTier("HIGHEST conviction", result.Tiers.Highest)
	printTier("HIGH conviction", result.Tiers.High)
	printTier("MODERATE conviction", result.Tiers.Moderate)

	if len(result.RemovedByGuardrail)+len(result.RemovedByRegime) > 0 {
		fmt.Printf("Removed: %d by guardrail, %d by regime filter, %d replaced\n",
			len(result.RemovedByGuardrail), len(result.RemovedByRegime), len(result.Replacements))
	}

	if len(result.Portfolio.Entries) > 0 {
		fmt.Printf("\nPortfolio (%d positions, total weight %.1f%%):\n",
			len(result.Portfolio.Entries), result.Portfolio.TotalWeight()*100)
		for _, e := range result.Portfolio.Entries {
			fmt.Printf("  %-8s %5.1f%%  entry %.2f  stop %.2f  target %.2f\n",
				e.Symbol, e.Weight*100, e.Entry, e.Stop, e.Target)
		}
	}

	for _, f := range result.Report.Failures {
		fmt.Printf("  failed: %s (%s: %s)\n", f.Symbol, f.Stage, f.Reason)
	}
}
