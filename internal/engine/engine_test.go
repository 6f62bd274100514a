package engine

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/jaehyun-dev/concord/internal/cache"
	"github.com/jaehyun-dev/concord/internal/consensus"
	"github.com/jaehyun-dev/concord/internal/contracts"
	"github.com/jaehyun-dev/concord/internal/evaluate"
	"github.com/jaehyun-dev/concord/internal/portfolio"
	"github.com/jaehyun-dev/concord/internal/strategy"
	"github.com/jaehyun-dev/concord/pkg/logger"
)

type staticUniverse struct {
	instruments []contracts.Instrument
}

func (u *staticUniverse) Universe(ctx context.Context) ([]contracts.Instrument, error) {
	return u.instruments, nil
}

type staticRegime struct {
	regime  contracts.Regime
	breadth float64
}

func (r *staticRegime) Assess(ctx context.Context, date time.Time) (contracts.Regime, float64, error) {
	return r.regime, r.breadth, nil
}

// fakeSeries serves deterministic uptrending series and can hide symbols to
// simulate per-instrument provider failures.
type fakeSeries struct {
	missing map[string]bool
}

func (f *fakeSeries) FetchSeries(ctx context.Context, symbols []string, period, interval string) (map[string]*contracts.PriceSeries, error) {
	out := make(map[string]*contracts.PriceSeries, len(symbols))
	for _, s := range symbols {
		if f.missing[s] {
			continue
		}
		out[s] = uptrend(s)
	}
	return out, nil
}

type fakeSide struct{}

func (fakeSide) FetchSideData(ctx context.Context, symbol string) (contracts.SideData, error) {
	return contracts.SideData{}, nil
}

type memCache struct {
	store *cache.Store
}

func (m *memCache) Get(ctx context.Context, key string) (*contracts.EvaluatorResult, bool) {
	return m.store.Get(key)
}

func (m *memCache) SetIfAbsent(ctx context.Context, key string, result *contracts.EvaluatorResult) bool {
	return m.store.SetIfAbsent(key, result)
}

type recordingSink struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (s *recordingSink) Publish(event ProgressEvent) {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
}

type recordingStore struct {
	saved *Result
}

func (s *recordingStore) SaveRun(ctx context.Context, result *Result) error {
	s.saved = result
	return nil
}

func uptrend(symbol string) *contracts.PriceSeries {
	candles := make([]contracts.Candle, 120)
	price := 100.0
	day := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range candles {
		wobble := 0.004 * math.Sin(float64(i))
		price = price * (1 + 0.002 + wobble)
		candles[i] = contracts.Candle{
			Date:   day.AddDate(0, 0, i),
			Open:   price * 0.995,
			High:   price * 1.01,
			Low:    price * 0.99,
			Close:  price,
			Volume: 2_000_000,
		}
	}
	return &contracts.PriceSeries{Symbol: symbol, Candles: candles}
}

func newTestEngine(t *testing.T, series *fakeSeries, regime *staticRegime, universe []contracts.Instrument, sink ProgressSink, store Store) *Engine {
	t.Helper()
	log := logger.NewNop()

	weights := evaluate.DefaultWeightConfig()
	evaluator := evaluate.NewEvaluator(weights, log)
	batch := evaluate.NewBatch(evaluator, series, fakeSide{}, &memCache{store: cache.NewStore(time.Hour)}, evaluate.DefaultBatchConfig(), log)

	guard := consensus.NewGuardrail(consensus.DefaultGuardrailConfig(), log)
	return NewEngine(
		&staticUniverse{instruments: universe},
		regime,
		batch,
		consensus.NewAggregator(strategy.DefaultLenses(), consensus.DefaultTierConfig(), log),
		guard,
		consensus.NewRegimeFilter(consensus.DefaultRegimeConfig(), log),
		consensus.NewReplacer(guard, true, log),
		portfolio.NewWeighter(portfolio.DefaultWeighterConfig(), portfolio.DefaultConstraints(), log),
		store,
		sink,
		"live",
		log,
	)
}

func testUniverse(symbols ...string) []contracts.Instrument {
	sectors := []string{"Technology", "Healthcare", "Financials", "Energy", "Utilities"}
	out := make([]contracts.Instrument, len(symbols))
	for i, s := range symbols {
		out[i] = contracts.Instrument{
			Symbol:    s,
			Sector:    sectors[i%len(sectors)],
			MarketCap: 50e9,
		}
	}
	return out
}

func TestEngine_FullRun(t *testing.T) {
	sink := &recordingSink{}
	store := &recordingStore{}
	eng := newTestEngine(t, &fakeSeries{}, &staticRegime{regime: contracts.RegimeNormal, breadth: 0.6},
		testUniverse("A", "B", "C", "D", "E"), sink, store)

	result, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Report.Analyzed != 5 || len(result.Report.Failures) != 0 {
		t.Errorf("analyzed %d, failures %d; want 5, 0", result.Report.Analyzed, len(result.Report.Failures))
	}
	if len(result.Records) != 5 {
		t.Errorf("got %d records, want 5", len(result.Records))
	}
	if result.Run.RunID == "" || len(result.Run.Lenses) != 4 {
		t.Errorf("run context incomplete: %+v", result.Run)
	}
	if result.Portfolio == nil || len(result.Portfolio.Entries) == 0 {
		t.Error("expected a non-empty portfolio")
	}
	if result.Duration <= 0 {
		t.Error("duration not recorded")
	}
	if store.saved != result {
		t.Error("store did not receive the run result")
	}

	stages := map[string]bool{}
	for _, ev := range sink.events {
		stages[ev.Stage] = true
		if ev.RunID != result.Run.RunID {
			t.Errorf("event run id %q != %q", ev.RunID, result.Run.RunID)
		}
	}
	for _, want := range []string{"run", "universe", "evaluate", "consensus"} {
		if !stages[want] {
			t.Errorf("missing progress events for stage %q", want)
		}
	}
}

func TestEngine_FailedSymbolIsIsolated(t *testing.T) {
	eng := newTestEngine(t,
		&fakeSeries{missing: map[string]bool{"B": true}},
		&staticRegime{regime: contracts.RegimeNormal, breadth: 0.6},
		testUniverse("A", "B", "C"), nil, nil)

	result, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Report.Analyzed != 2 {
		t.Errorf("analyzed %d, want 2", result.Report.Analyzed)
	}
	if len(result.Report.Failures) != 1 || result.Report.Failures[0].Symbol != "B" {
		t.Fatalf("unexpected failures: %+v", result.Report.Failures)
	}
	if result.Report.Failures[0].Reason == "" {
		t.Error("failure missing reason")
	}
	for _, rec := range result.Records {
		if rec.Symbol == "B" {
			t.Error("failed symbol appeared in consensus output")
		}
	}
	for _, e := range result.Portfolio.Entries {
		if e.Symbol == "B" {
			t.Error("failed symbol appeared in portfolio")
		}
	}
}

func TestEngine_CautionRegimeFlowsThrough(t *testing.T) {
	eng := newTestEngine(t, &fakeSeries{},
		&staticRegime{regime: contracts.RegimeCaution, breadth: 0.3},
		testUniverse("A", "B", "C", "D", "E", "F", "G", "H"), nil, nil)

	result, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Run.Regime != contracts.RegimeCaution {
		t.Errorf("regime = %v, want CAUTION", result.Run.Regime)
	}
	if len(result.Records) == 0 {
		t.Error("caution regime emptied the output despite fallback")
	}
}

func TestEngine_TierBucketsPreserveMembership(t *testing.T) {
	eng := newTestEngine(t, &fakeSeries{}, &staticRegime{regime: contracts.RegimeNormal, breadth: 0.6},
		testUniverse("A", "B", "C", "D"), nil, nil)

	result, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	bucketed := len(result.Tiers.Highest) + len(result.Tiers.High) + len(result.Tiers.Moderate)
	untiered := 0
	for _, rec := range result.Records {
		if rec.Tier == contracts.TierNone {
			untiered++
		}
	}
	if bucketed+untiered != len(result.Records) {
		t.Errorf("buckets %d + untiered %d != records %d", bucketed, untiered, len(result.Records))
	}
}
