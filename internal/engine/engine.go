// Package engine coordinates the full scoring pipeline: universe resolution,
// batch evaluation, lens aggregation, safety and regime filtering,
// replacement, and portfolio weighting.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/jaehyun-dev/concord/internal/consensus"
	"github.com/jaehyun-dev/concord/internal/contracts"
	"github.com/jaehyun-dev/concord/internal/evaluate"
	"github.com/jaehyun-dev/concord/internal/portfolio"
	"github.com/jaehyun-dev/concord/pkg/logger"
)

// UniverseProvider resolves the instruments to evaluate for a run.
type UniverseProvider interface {
	Universe(ctx context.Context) ([]contracts.Instrument, error)
}

// RegimeProvider assesses the market-wide risk posture. A failed assessment
// degrades to NORMAL rather than blocking the run.
type RegimeProvider interface {
	Assess(ctx context.Context, date time.Time) (contracts.Regime, float64, error)
}

// Store persists completed runs. Optional; a nil store skips persistence.
type Store interface {
	SaveRun(ctx context.Context, result *Result) error
}

// ProgressEvent is one stage-level status update for live observers.
type ProgressEvent struct {
	RunID   string                 `json:"run_id"`
	Stage   string                 `json:"stage"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
	At      time.Time              `json:"at"`
}

// ProgressSink receives progress events. Optional; a nil sink drops them.
type ProgressSink interface {
	Publish(event ProgressEvent)
}

// TierBuckets groups the final records by conviction tier.
type TierBuckets struct {
	Highest  []*contracts.ConsensusRecord `json:"highest"`
	High     []*contracts.ConsensusRecord `json:"high"`
	Moderate []*contracts.ConsensusRecord `json:"moderate"`
}

// Result is the complete outcome of one pipeline run.
type Result struct {
	Run     contracts.RunContext   `json:"run"`
	Report  *contracts.BatchReport `json:"report"`

	Records            []*contracts.ConsensusRecord `json:"records"` // final list, kept plus replacements
	Tiers              TierBuckets                  `json:"tiers"`
	RemovedByGuardrail []contracts.Removal          `json:"removed_by_guardrail"`
	RemovedByRegime    []contracts.Removal          `json:"removed_by_regime"`
	Replacements       []*contracts.ConsensusRecord `json:"replacements"`
	Portfolio          *contracts.Portfolio         `json:"portfolio"`

	Duration time.Duration `json:"duration"`
}

// Engine wires the pipeline stages together. One engine serves many runs.
type Engine struct {
	universe UniverseProvider
	regime   RegimeProvider
	batch    *evaluate.Batch
	agg      *consensus.Aggregator
	guard    *consensus.Guardrail
	filter   *consensus.RegimeFilter
	replacer *consensus.Replacer
	weighter *portfolio.Weighter
	store    Store
	progress ProgressSink
	dataMode string
	logger   *logger.Logger
}

// NewEngine creates a pipeline engine. store and progress may be nil.
func NewEngine(
	universe UniverseProvider,
	regime RegimeProvider,
	batch *evaluate.Batch,
	agg *consensus.Aggregator,
	guard *consensus.Guardrail,
	filter *consensus.RegimeFilter,
	replacer *consensus.Replacer,
	weighter *portfolio.Weighter,
	store Store,
	progress ProgressSink,
	dataMode string,
	log *logger.Logger,
) *Engine {
	return &Engine{
		universe: universe,
		regime:   regime,
		batch:    batch,
		agg:      agg,
		guard:    guard,
		filter:   filter,
		replacer: replacer,
		weighter: weighter,
		store:    store,
		progress: progress,
		dataMode: dataMode,
		logger:   log,
	}
}

// Run executes the complete pipeline for one universe resolution.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	rc, err := e.buildRunContext(ctx)
	if err != nil {
		return nil, err
	}

	e.logger.WithFields(map[string]interface{}{
		"run_id":    rc.RunID,
		"regime":    rc.Regime,
		"breadth":   rc.Breadth,
		"data_mode": rc.DataMode,
	}).Info("Starting pipeline run")
	e.publish(rc, "run", "run started", nil)

	instruments, err := e.universe.Universe(ctx)
	if err != nil {
		return nil, fmt.Errorf("universe resolution: %w", err)
	}
	e.publish(rc, "universe", "universe resolved", map[string]interface{}{"size": len(instruments)})

	report, err := e.RunAnalysis(ctx, rc, instruments)
	if err != nil {
		return nil, err
	}
	e.publish(rc, "evaluate", "batch evaluation completed", map[string]interface{}{
		"analyzed":   report.Analyzed,
		"failed":     len(report.Failures),
		"cache_hits": report.CacheHits,
	})

	result := e.RunConsensus(rc, report)
	result.Duration = time.Since(start)
	e.publish(rc, "consensus", "consensus completed", map[string]interface{}{
		"records":   len(result.Records),
		"positions": len(result.Portfolio.Entries),
	})

	if e.store != nil {
		if err := e.store.SaveRun(ctx, result); err != nil {
			// Persistence is best-effort; a run's output is still usable.
			e.logger.WithError(err).Warn("Run persistence failed")
		}
	}

	e.logger.WithFields(map[string]interface{}{
		"run_id":   rc.RunID,
		"duration": result.Duration.Seconds(),
	}).Info("Pipeline run completed")
	e.publish(rc, "run", "run completed", nil)

	return result, nil
}

// RunAnalysis evaluates the universe once under the given run context.
func (e *Engine) RunAnalysis(ctx context.Context, rc contracts.RunContext, instruments []contracts.Instrument) (*contracts.BatchReport, error) {
	report, err := e.batch.Run(ctx, rc, instruments)
	if err != nil {
		return nil, fmt.Errorf("batch evaluation: %w", err)
	}
	return report, nil
}

// RunConsensus derives the filtered, weighted consensus output from a batch
// report. Pure aggregation; no I/O.
func (e *Engine) RunConsensus(rc contracts.RunContext, report *contracts.BatchReport) *Result {
	pool := e.agg.Aggregate(rc, report.Results)

	kept, byGuardrail := e.guard.Apply(pool)
	kept, byRegime := e.filter.Apply(rc, kept)

	removed := make([]contracts.Removal, 0, len(byGuardrail)+len(byRegime))
	removed = append(removed, byGuardrail...)
	removed = append(removed, byRegime...)
	replacements := e.replacer.Replace(pool, kept, removed)

	final := make([]*contracts.ConsensusRecord, 0, len(kept)+len(replacements))
	final = append(final, kept...)
	final = append(final, replacements...)

	return &Result{
		Run:                rc,
		Report:             report,
		Records:            final,
		Tiers:              bucketByTier(final),
		RemovedByGuardrail: byGuardrail,
		RemovedByRegime:    byRegime,
		Replacements:       replacements,
		Portfolio:          e.weighter.Build(rc, final),
	}
}

// buildRunContext computes the per-run market snapshot once.
func (e *Engine) buildRunContext(ctx context.Context) (contracts.RunContext, error) {
	now := time.Now()
	rc := contracts.RunContext{
		RunID:    GenerateRunID(now),
		Date:     now,
		Regime:   contracts.RegimeNormal,
		Breadth:  0.5,
		DataMode: e.dataMode,
		Lenses:   e.agg.Lenses(),
	}

	regime, breadth, err := e.regime.Assess(ctx, now)
	if err != nil {
		e.logger.WithError(err).Warn("Regime assessment failed, assuming NORMAL")
		return rc, nil
	}
	rc.Regime = regime
	rc.Breadth = breadth
	return rc, nil
}

// publish sends a progress event if a sink is attached.
func (e *Engine) publish(rc contracts.RunContext, stage, message string, data map[string]interface{}) {
	if e.progress == nil {
		return
	}
	e.progress.Publish(ProgressEvent{
		RunID:   rc.RunID,
		Stage:   stage,
		Message: message,
		Data:    data,
		At:      time.Now(),
	})
}

// bucketByTier groups records by conviction tier, preserving rank order.
func bucketByTier(records []*contracts.ConsensusRecord) TierBuckets {
	var buckets TierBuckets
	for _, rec := range records {
		switch rec.Tier {
		case contracts.TierHighest:
			buckets.Highest = append(buckets.Highest, rec)
		case contracts.TierHigh:
			buckets.High = append(buckets.High, rec)
		case contracts.TierModerate:
			buckets.Moderate = append(buckets.Moderate, rec)
		}
	}
	return buckets
}

// GenerateRunID builds a time-derived run identifier.
func GenerateRunID(t time.Time) string {
	return fmt.Sprintf("run_%s", t.Format("20060102_150405"))
}
