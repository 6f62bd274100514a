package strategy

import "github.com/jaehyun-dev/concord/internal/contracts"

// RiskAverseConfig holds the boost factors for the risk-averse lens.
type RiskAverseConfig struct {
	LowRiskBoost     float64
	HighRiskFactor   float64
	CalmVolCeiling   float64
	CalmVolBoost     float64
	WildVolFloor     float64 // at or above, penalize
	WildVolFactor    float64
	ConsistencyFloor float64 // pct of up days for the boost
	ConsistencyBoost float64
}

// DefaultRiskAverseConfig returns the default risk-averse boosts.
func DefaultRiskAverseConfig() RiskAverseConfig {
	return RiskAverseConfig{
		LowRiskBoost:     1.08,
		HighRiskFactor:   0.85,
		CalmVolCeiling:   30,
		CalmVolBoost:     1.05,
		WildVolFloor:     70,
		WildVolFactor:    0.90,
		ConsistencyFloor: 55,
		ConsistencyBoost: 1.04,
	}
}

// RiskAverse favors low-risk classifications, low volatility, and steady
// day-to-day behavior.
type RiskAverse struct {
	config RiskAverseConfig
}

// NewRiskAverse creates the risk-averse lens.
func NewRiskAverse(config RiskAverseConfig) *RiskAverse {
	return &RiskAverse{config: config}
}

// Name returns the lens name.
func (a *RiskAverse) Name() string { return NameRiskAverse }

// View derives the risk-averse view of one evaluation.
func (a *RiskAverse) View(r *contracts.EvaluatorResult) contracts.StrategyView {
	factor := 1.0

	switch r.Risk {
	case contracts.RiskLow:
		factor *= a.config.LowRiskBoost
	case contracts.RiskHigh:
		factor *= a.config.HighRiskFactor
	}

	if r.Scores.Volatility <= a.config.CalmVolCeiling {
		factor *= a.config.CalmVolBoost
	} else if r.Scores.Volatility >= a.config.WildVolFloor {
		factor *= a.config.WildVolFactor
	}

	if r.Details.Consistency >= a.config.ConsistencyFloor {
		factor *= a.config.ConsistencyBoost
	}

	return view(a.Name(), r, r.Composite*factor)
}
