package strategy

import (
	"testing"

	"github.com/jaehyun-dev/concord/internal/contracts"
)

func baseResult() *contracts.EvaluatorResult {
	return &contracts.EvaluatorResult{
		Symbol:    "AAPL",
		Sector:    "Technology",
		MarketCap: 50e9,
		Composite: 70,
		Risk:      contracts.RiskMedium,
		Scores: contracts.SubScores{
			Technical:   55,
			Fundamental: 55,
			Sentiment:   50,
			Momentum:    55,
			Volume:      60,
			Volatility:  50,
			Macro:       50,
		},
		Details: contracts.ResultDetails{
			PER:           25,
			PBR:           4,
			ProfitMargin:  8,
			RevenueGrowth: 5,
			Consistency:   50,
		},
		Recommendation: contracts.Classify(70),
	}
}

func TestDefaultLenses(t *testing.T) {
	lenses := DefaultLenses()
	if len(lenses) != 4 {
		t.Fatalf("expected 4 lenses, got %d", len(lenses))
	}

	want := []string{NameStability, NameMomentum, NameValue, NameRiskAverse}
	for i, name := range Names(lenses) {
		if name != want[i] {
			t.Errorf("lens[%d] = %s, want %s", i, name, want[i])
		}
	}
}

func TestLenses_AlwaysReclassify(t *testing.T) {
	// The base result sits at 70 (WEAK_BUY); boosts that push the adjusted
	// score over 72 must flip the label to BUY even though the original
	// evaluation said otherwise.
	r := baseResult()
	r.MarketCap = 500e9
	r.Scores.Volatility = 20
	r.Scores.Fundamental = 80

	v := NewStability(DefaultStabilityConfig()).View(r)
	if v.Score <= r.Composite {
		t.Fatalf("expected boosted score, got %v", v.Score)
	}
	if v.Recommendation != contracts.Classify(v.Score) {
		t.Error("lens must classify from the adjusted score")
	}
	if v.Recommendation == r.Recommendation && v.Score >= contracts.ScoreBuy {
		t.Error("label must be recomputed, not copied from the evaluation")
	}
}

func TestLenses_ScoreStaysInRange(t *testing.T) {
	r := baseResult()
	r.Composite = 98
	r.MarketCap = 500e9
	r.Scores = contracts.SubScores{
		Technical: 90, Fundamental: 90, Sentiment: 90,
		Momentum: 90, Volume: 90, Volatility: 10, Macro: 80,
	}
	r.Details.PER = 12
	r.Details.PBR = 1.5
	r.Details.ProfitMargin = 25
	r.Details.RevenueGrowth = 30
	r.Details.Consistency = 70
	r.Risk = contracts.RiskLow

	for _, lens := range DefaultLenses() {
		v := lens.View(r)
		if v.Score < 0 || v.Score > 100 {
			t.Errorf("%s score %v out of [0,100]", lens.Name(), v.Score)
		}
	}
}

func TestStability_PrefersLargeCalmCaps(t *testing.T) {
	lens := NewStability(DefaultStabilityConfig())

	large := baseResult()
	large.MarketCap = 200e9
	large.Scores.Volatility = 25
	large.Scores.Fundamental = 75

	small := baseResult()
	small.MarketCap = 1e9
	small.Scores.Volatility = 80
	small.Scores.Fundamental = 30

	if lens.View(large).Score <= lens.View(small).Score {
		t.Error("stability lens must prefer the large calm instrument")
	}
}

func TestMomentum_PenalizesStaleTrend(t *testing.T) {
	lens := NewMomentum(DefaultMomentumConfig())

	hot := baseResult()
	hot.Scores.Momentum = 85
	hot.Scores.Technical = 75
	hot.Scores.Volume = 80
	hot.Details.RevenueGrowth = 20

	stale := baseResult()
	stale.Scores.Momentum = 20

	if lens.View(hot).Score <= hot.Composite {
		t.Error("hot trend must be boosted")
	}
	if lens.View(stale).Score >= stale.Composite {
		t.Error("stale trend must be penalized")
	}
}

func TestValue_BandsAndPenalties(t *testing.T) {
	lens := NewValue(DefaultValueConfig())

	cheap := baseResult()
	cheap.Details.PER = 12
	cheap.Details.PBR = 1.2
	cheap.Scores.Fundamental = 70
	cheap.Details.ProfitMargin = 18

	rich := baseResult()
	rich.Details.PER = 95

	lossMaking := baseResult()
	lossMaking.Details.PER = -5

	if lens.View(cheap).Score <= cheap.Composite {
		t.Error("moderate valuation must be boosted")
	}
	if lens.View(rich).Score >= rich.Composite {
		t.Error("rich valuation must be penalized")
	}
	if lens.View(lossMaking).Score >= lossMaking.Composite {
		t.Error("negative earnings must be penalized")
	}
}

func TestRiskAverse_OrdersByRisk(t *testing.T) {
	lens := NewRiskAverse(DefaultRiskAverseConfig())

	low := baseResult()
	low.Risk = contracts.RiskLow
	low.Scores.Volatility = 20
	low.Details.Consistency = 60

	high := baseResult()
	high.Risk = contracts.RiskHigh
	high.Scores.Volatility = 85

	if lens.View(low).Score <= lens.View(high).Score {
		t.Error("risk-averse lens must rank low risk above high risk")
	}
}
