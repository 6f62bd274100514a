package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jaehyun-dev/concord/internal/scheduler"
	"github.com/jaehyun-dev/concord/internal/scheduler/jobs"
	"github.com/jaehyun-dev/concord/pkg/database"
)

// schedulerCmd runs the cron scheduler with the daily analysis job.
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the analysis pipeline on a schedule",
	Long: `Registers the daily analysis job with the cron scheduler and blocks
until interrupted. The schedule is taken from ANALYSIS_SCHEDULE
(cron format with seconds) and defaults to weekdays at 17:30.

Example:
  go run ./cmd/concord scheduler`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	var db *database.DB
	if cfg.Database.URL != "" {
		db, err = database.New(cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
	} else {
		log.Warn("DATABASE_URL not set, scheduled runs will not be persisted")
	}

	eng, err := buildEngine(cfg, log, db, nil)
	if err != nil {
		return err
	}

	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewAnalysisJob(eng, cfg.Analysis.Schedule, log)); err != nil {
		return fmt.Errorf("register analysis job: %w", err)
	}

	sched.Start()
	defer sched.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.WithFields(map[string]interface{}{"signal": sig.String()}).Info("Stopping scheduler")

	return nil
}
