// Package jobs implements the scheduled jobs.
package jobs

import (
	"context"
	"fmt"

	"github.com/jaehyun-dev/concord/internal/engine"
	"github.com/jaehyun-dev/concord/pkg/logger"
)

// DefaultAnalysisSchedule runs after the close on weekdays (with seconds).
const DefaultAnalysisSchedule = "0 30 17 * * 1-5"

// AnalysisJob executes one full pipeline run per trading day.
type AnalysisJob struct {
	eng      *engine.Engine
	schedule string
	logger   *logger.Logger
}

// NewAnalysisJob creates the daily analysis job. An empty schedule uses the
// default post-close weekday schedule.
func NewAnalysisJob(eng *engine.Engine, schedule string, log *logger.Logger) *AnalysisJob {
	if schedule == "" {
		schedule = DefaultAnalysisSchedule
	}
	return &AnalysisJob{
		eng:      eng,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name.
func (j *AnalysisJob) Name() string { return "daily_analysis" }

// Schedule returns the cron expression.
func (j *AnalysisJob) Schedule() string { return j.schedule }

// Run executes one pipeline run.
func (j *AnalysisJob) Run(ctx context.Context) error {
	result, err := j.eng.Run(ctx)
	if err != nil {
		return fmt.Errorf("daily analysis run: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":    result.Run.RunID,
		"analyzed":  result.Report.Analyzed,
		"records":   len(result.Records),
		"positions": len(result.Portfolio.Entries),
	}).Info("Daily analysis completed")

	return nil
}
