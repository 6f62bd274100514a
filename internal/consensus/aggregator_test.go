package consensus

import (
	"testing"

	"github.com/jaehyun-dev/concord/internal/contracts"
	"github.com/jaehyun-dev/concord/internal/strategy"
	"github.com/jaehyun-dev/concord/pkg/logger"
)

// fixedLens always produces the same adjusted score, so tests can force
// exact agreement patterns.
type fixedLens struct {
	name  string
	score float64
}

func (l fixedLens) Name() string { return l.name }

func (l fixedLens) View(r *contracts.EvaluatorResult) contracts.StrategyView {
	return contracts.StrategyView{
		Symbol:         r.Symbol,
		Strategy:       l.name,
		Score:          l.score,
		Recommendation: contracts.Classify(l.score),
	}
}

func fixedPanel(scores ...float64) []strategy.Lens {
	names := []string{"alpha", "beta", "gamma", "delta"}
	lenses := make([]strategy.Lens, len(scores))
	for i, s := range scores {
		lenses[i] = fixedLens{name: names[i%len(names)], score: s}
	}
	return lenses
}

func resultFor(symbol string) map[string]*contracts.EvaluatorResult {
	return map[string]*contracts.EvaluatorResult{
		symbol: {
			Symbol:    symbol,
			Sector:    "Technology",
			Composite: 75,
			Price:     120,
			Risk:      contracts.RiskMedium,
			Scores:    contracts.SubScores{Momentum: 60, Volatility: 40},
		},
	}
}

func TestAggregator_AllLensesStrongBuy(t *testing.T) {
	agg := NewAggregator(fixedPanel(90, 85, 88, 92), DefaultTierConfig(), logger.NewNop())

	records := agg.Aggregate(contracts.RunContext{}, resultFor("A"))
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.AgreeCount != 4 {
		t.Errorf("agree count = %d, want 4", rec.AgreeCount)
	}
	if rec.Recommendation != contracts.StrongBuy {
		t.Errorf("recommendation = %v, want STRONG_BUY", rec.Recommendation)
	}
	if rec.Confidence < 0.90 {
		t.Errorf("confidence = %v, want >= 0.90", rec.Confidence)
	}
	if rec.Tier != contracts.TierHighest {
		t.Errorf("tier = %v, want HIGHEST", rec.Tier)
	}
}

func TestAggregator_ConsensusRules(t *testing.T) {
	tests := []struct {
		name     string
		scores   []float64
		wantRec  contracts.Recommendation
		wantConf float64
	}{
		{"full agreement", []float64{85, 84, 78, 75}, contracts.StrongBuy, 0.95},
		{"three strong buys", []float64{90, 90, 90, 55}, contracts.StrongBuy, 0.90},
		{"n-2 agree at 70", []float64{85, 85, 76, 50}, contracts.Buy, 0.70},
		{"one agree above 65", []float64{80, 64, 63, 62}, contracts.WeakBuy, 0.60},
		{"no agreement", []float64{70, 70, 65, 60}, contracts.Hold, 0.50},
		{"low everything", []float64{40, 35, 30, 25}, contracts.Hold, 0.50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator(fixedPanel(tt.scores...), DefaultTierConfig(), logger.NewNop())
			records := agg.Aggregate(contracts.RunContext{}, resultFor("X"))

			rec := records[0]
			if rec.Recommendation != tt.wantRec {
				t.Errorf("recommendation = %v, want %v", rec.Recommendation, tt.wantRec)
			}
			if rec.Confidence != tt.wantConf {
				t.Errorf("confidence = %v, want %v", rec.Confidence, tt.wantConf)
			}
			if rec.AgreeCount > rec.StrategiesRun || rec.StrategiesRun > 4 {
				t.Errorf("invariant violated: agree %d, total %d", rec.AgreeCount, rec.StrategiesRun)
			}
		})
	}
}

func TestAggregator_SortsByAgreementThenScore(t *testing.T) {
	// Real lens panel: higher-composite results get higher adjusted scores.
	agg := NewAggregator(strategy.DefaultLenses(), DefaultTierConfig(), logger.NewNop())

	results := map[string]*contracts.EvaluatorResult{}
	for symbol, composite := range map[string]float64{"LOW": 40, "MID": 68, "TOP": 90} {
		results[symbol] = &contracts.EvaluatorResult{
			Symbol:    symbol,
			Sector:    "Industrials",
			Composite: composite,
			MarketCap: 50e9,
			Risk:      contracts.RiskMedium,
			Scores:    contracts.SubScores{Momentum: 55, Volatility: 45, Fundamental: 55, Volume: 55, Technical: 55},
			Details:   contracts.ResultDetails{PER: 15, PBR: 2, Consistency: 50},
		}
	}

	records := agg.Aggregate(contracts.RunContext{}, results)
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Symbol != "TOP" || records[2].Symbol != "LOW" {
		t.Errorf("unexpected order: %s, %s, %s", records[0].Symbol, records[1].Symbol, records[2].Symbol)
	}

	for _, rec := range records {
		if rec.Rationale == "" {
			t.Errorf("record %s missing rationale", rec.Symbol)
		}
	}
}
