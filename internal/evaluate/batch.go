package evaluate

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/jaehyun-dev/concord/internal/cache"
	"github.com/jaehyun-dev/concord/internal/contracts"
	"github.com/jaehyun-dev/concord/pkg/logger"
)

// hardMaxWorkers caps concurrency regardless of configuration, so a large
// core count never floods the upstream data providers.
const hardMaxWorkers = 8

// SeriesProvider is the bulk historical data collaborator. It may return
// partial results: missing symbols are simply absent from the map.
type SeriesProvider interface {
	FetchSeries(ctx context.Context, symbols []string, period, interval string) (map[string]*contracts.PriceSeries, error)
}

// SideDataProvider returns the optional per-instrument bundles. A failed
// lookup degrades to an empty SideData, never to an error for the batch.
type SideDataProvider interface {
	FetchSideData(ctx context.Context, symbol string) (contracts.SideData, error)
}

// ResultCache is the per-run evaluation cache: read-many, write-once per key.
type ResultCache interface {
	Get(ctx context.Context, key string) (*contracts.EvaluatorResult, bool)
	SetIfAbsent(ctx context.Context, key string, result *contracts.EvaluatorResult) bool
}

// BatchConfig tunes the batch scheduler.
type BatchConfig struct {
	ChunkSize      int
	ChunkPause     time.Duration
	MaxConcurrency int // 0 = derive from CPU count
	Period         string
	Interval       string
}

// DefaultBatchConfig returns the default scheduler tuning.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		ChunkSize:  25,
		ChunkPause: 150 * time.Millisecond,
		Period:     "1y",
		Interval:   "1d",
	}
}

// Batch runs the evaluator over a whole universe exactly once, with bounded
// parallelism, chunked submission, and per-result caching. The central
// invariant: one evaluation per instrument per run, reused by every lens.
type Batch struct {
	evaluator *Evaluator
	series    SeriesProvider
	side      SideDataProvider
	cache     ResultCache
	config    BatchConfig
	logger    *logger.Logger
}

// NewBatch creates a new batch scheduler.
func NewBatch(evaluator *Evaluator, series SeriesProvider, side SideDataProvider, resultCache ResultCache, config BatchConfig, log *logger.Logger) *Batch {
	return &Batch{
		evaluator: evaluator,
		series:    series,
		side:      side,
		cache:     resultCache,
		config:    config,
		logger:    log,
	}
}

// Run evaluates the universe and returns a full accounting of results and
// failures. Per-instrument failures never abort the run; the only top-level
// error is ErrTotalOutage, raised when nothing at all could be evaluated.
func (b *Batch) Run(ctx context.Context, rc contracts.RunContext, universe []contracts.Instrument) (*contracts.BatchReport, error) {
	universe = dedupe(universe)

	report := &contracts.BatchReport{
		Requested: len(universe),
		Results:   make(map[string]*contracts.EvaluatorResult, len(universe)),
	}
	if len(universe) == 0 {
		return report, nil
	}

	workers := b.workerCount()
	b.logger.WithFields(map[string]interface{}{
		"run_id":     rc.RunID,
		"requested":  report.Requested,
		"workers":    workers,
		"chunk_size": b.config.ChunkSize,
	}).Info("Starting batch evaluation")

	var mu sync.Mutex
	sem := make(chan struct{}, workers)

	for start := 0; start < len(universe); start += b.config.ChunkSize {
		end := start + b.config.ChunkSize
		if end > len(universe) {
			end = len(universe)
		}
		chunk := universe[start:end]

		b.runChunk(ctx, rc, chunk, report, &mu, sem)

		// Short pause between chunks so downstream providers are not
		// hammered with back-to-back bulk requests.
		if end < len(universe) && b.config.ChunkPause > 0 {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(b.config.ChunkPause):
			}
		}
	}

	report.Analyzed = len(report.Results)

	b.logger.WithFields(map[string]interface{}{
		"run_id":     rc.RunID,
		"requested":  report.Requested,
		"analyzed":   report.Analyzed,
		"failed":     len(report.Failures),
		"cache_hits": report.CacheHits,
	}).Info("Batch evaluation completed")

	if report.Analyzed == 0 {
		return report, fmt.Errorf("%w: 0 of %d instruments evaluated", contracts.ErrTotalOutage, report.Requested)
	}

	return report, nil
}

// runChunk bulk-fetches one chunk's series and fans evaluations out over the
// worker pool, fanning back in before returning.
func (b *Batch) runChunk(ctx context.Context, rc contracts.RunContext, chunk []contracts.Instrument, report *contracts.BatchReport, mu *sync.Mutex, sem chan struct{}) {
	symbols := make([]string, len(chunk))
	for i, inst := range chunk {
		symbols[i] = inst.Symbol
	}

	seriesMap, err := b.series.FetchSeries(ctx, symbols, b.config.Period, b.config.Interval)
	if err != nil {
		mu.Lock()
		for _, s := range symbols {
			report.Failures = append(report.Failures, contracts.Failure{
				Symbol: s,
				Stage:  "fetch",
				Reason: err.Error(),
			})
		}
		mu.Unlock()
		return
	}

	var wg sync.WaitGroup
	for _, inst := range chunk {
		inst := inst

		series, ok := seriesMap[inst.Symbol]
		if !ok || series == nil || series.Len() == 0 {
			mu.Lock()
			report.Failures = append(report.Failures, contracts.Failure{
				Symbol: inst.Symbol,
				Stage:  "fetch",
				Reason: "provider returned no series",
			})
			mu.Unlock()
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			b.evaluateOne(ctx, rc, inst, series, report, mu)
		}()
	}
	wg.Wait()
}

// evaluateOne resolves one instrument through the cache or the evaluator.
func (b *Batch) evaluateOne(ctx context.Context, rc contracts.RunContext, inst contracts.Instrument, series *contracts.PriceSeries, report *contracts.BatchReport, mu *sync.Mutex) {
	key := cache.Key(inst.Symbol, series.Fingerprint())

	if cached, ok := b.cache.Get(ctx, key); ok {
		mu.Lock()
		report.Results[inst.Symbol] = cached
		report.CacheHits++
		mu.Unlock()
		return
	}

	side, err := b.side.FetchSideData(ctx, inst.Symbol)
	if err != nil {
		// Missing side data degrades to neutral defaults inside the
		// evaluator; it is not a failure for the instrument.
		b.logger.WithFields(map[string]interface{}{
			"symbol": inst.Symbol,
			"error":  err.Error(),
		}).Debug("Side data unavailable, using neutral defaults")
		side = contracts.SideData{}
	}

	result, err := b.evaluator.Evaluate(rc, inst, series, side)
	if err != nil {
		mu.Lock()
		report.Failures = append(report.Failures, contracts.Failure{
			Symbol: inst.Symbol,
			Stage:  "evaluate",
			Reason: err.Error(),
		})
		mu.Unlock()
		return
	}

	b.cache.SetIfAbsent(ctx, key, result)

	mu.Lock()
	report.Results[inst.Symbol] = result
	mu.Unlock()
}

// workerCount resolves the effective concurrency limit.
func (b *Batch) workerCount() int {
	n := b.config.MaxConcurrency
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	if n > hardMaxWorkers {
		n = hardMaxWorkers
	}
	return n
}

// dedupe keeps the first occurrence of each symbol so every instrument is
// evaluated exactly once even if the universe list repeats itself.
func dedupe(universe []contracts.Instrument) []contracts.Instrument {
	seen := make(map[string]bool, len(universe))
	out := universe[:0:0]
	for _, inst := range universe {
		if seen[inst.Symbol] {
			continue
		}
		seen[inst.Symbol] = true
		out = append(out, inst)
	}
	return out
}
