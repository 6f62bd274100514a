package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jaehyun-dev/concord/internal/store"
	"github.com/jaehyun-dev/concord/pkg/database"
)

// consensusCmd prints the consensus list of a persisted run.
var consensusCmd = &cobra.Command{
	Use:   "consensus [run-id]",
	Short: "Show the consensus list of a stored run",
	Long: `Prints the ranked consensus records of a persisted run. Without an
argument the most recent run is shown. Requires DATABASE_URL.

Example:
  go run ./cmd/concord consensus
  go run ./cmd/concord consensus run_20260828_173000`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConsensus,
}

func init() {
	rootCmd.AddCommand(consensusCmd)
}

func runConsensus(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required for stored run lookups")
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	repo := store.NewRepository(db.Pool)

	runID := ""
	if len(args) == 1 {
		runID = args[0]
	} else {
		latest, err := repo.LatestRun(ctx)
		if err != nil {
			return fmt.Errorf("load latest run: %w", err)
		}
		if latest == nil {
			return fmt.Errorf("no runs stored yet")
		}
		runID = latest.RunID
		fmt.Printf("Run %s (%s, %s regime, breadth %.2f, %d/%d analyzed)\n\n",
			latest.RunID, latest.Date.Format("2006-01-02"), latest.Regime,
			latest.Breadth, latest.Analyzed, latest.Requested)
	}

	records, err := repo.ConsensusRecords(ctx, runID)
	if err != nil {
		return fmt.Errorf("load consensus records: %w", err)
	}
	if len(records) == 0 {
		fmt.Printf("No consensus records for run %s\n", runID)
		return nil
	}

	fmt.Printf("%-4s %-8s %-20s %6s %7s %-11s %5s %-8s %s\n",
		"#", "SYMBOL", "SECTOR", "SCORE", "AGREE", "LABEL", "CONF", "TIER", "RISK")
	for i, rec := range records {
		fmt.Printf("%-4d %-8s %-20s %6.1f %4d/%-2d %-11s %5.2f %-8s %s\n",
			i+1, rec.Symbol, rec.Sector, rec.Score, rec.AgreeCount, rec.StrategiesRun,
			rec.Recommendation, rec.Confidence, rec.Tier, rec.Risk)
		if rec.ReplacementFor != "" {
			fmt.Printf("     replaced %s\n", rec.ReplacementFor)
		}
	}
	return nil
}
