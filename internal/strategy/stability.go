package strategy

import "github.com/jaehyun-dev/concord/internal/contracts"

// StabilityConfig holds the boost factors for the stability-biased lens.
type StabilityConfig struct {
	LargeCapFloor  float64 // market cap for the full boost
	MidCapFloor    float64 // market cap for the partial boost
	LargeCapBoost  float64
	MidCapBoost    float64
	CalmVolCeiling float64 // volatility score at or below gets the boost
	CalmVolBoost   float64
	FundFloor      float64 // fundamental score for the boost
	FundBoost      float64
	WeakFundFloor  float64 // below this, penalize
	WeakFundFactor float64
}

// DefaultStabilityConfig returns the default stability boosts.
func DefaultStabilityConfig() StabilityConfig {
	return StabilityConfig{
		LargeCapFloor:  100e9,
		MidCapFloor:    10e9,
		LargeCapBoost:  1.08,
		MidCapBoost:    1.04,
		CalmVolCeiling: 35,
		CalmVolBoost:   1.06,
		FundFloor:      70,
		FundBoost:      1.06,
		WeakFundFloor:  40,
		WeakFundFactor: 0.94,
	}
}

// Stability favors large, calm, fundamentally sound instruments.
type Stability struct {
	config StabilityConfig
}

// NewStability creates the stability-biased lens.
func NewStability(config StabilityConfig) *Stability {
	return &Stability{config: config}
}

// Name returns the lens name.
func (s *Stability) Name() string { return NameStability }

// View derives the stability-adjusted view of one evaluation.
func (s *Stability) View(r *contracts.EvaluatorResult) contracts.StrategyView {
	factor := 1.0

	switch {
	case r.MarketCap >= s.config.LargeCapFloor:
		factor *= s.config.LargeCapBoost
	case r.MarketCap >= s.config.MidCapFloor:
		factor *= s.config.MidCapBoost
	}

	if r.Scores.Volatility <= s.config.CalmVolCeiling {
		factor *= s.config.CalmVolBoost
	}

	if r.Scores.Fundamental >= s.config.FundFloor {
		factor *= s.config.FundBoost
	} else if r.Scores.Fundamental < s.config.WeakFundFloor {
		factor *= s.config.WeakFundFactor
	}

	return view(s.Name(), r, r.Composite*factor)
}
