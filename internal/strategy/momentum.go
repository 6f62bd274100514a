package strategy

import "github.com/jaehyun-dev/concord/internal/contracts"

// MomentumConfig holds the boost factors for the momentum-biased lens.
type MomentumConfig struct {
	TechFloor       float64
	TechBoost       float64
	MomentumFloor   float64
	MomentumBoost   float64
	GrowthFloorPct  float64 // revenue growth for the boost
	GrowthBoost     float64
	LiquidityFloor  float64 // volume score for the boost
	LiquidityBoost  float64
	StaleMomCeiling float64 // below this momentum score, penalize
	StaleMomFactor  float64
}

// DefaultMomentumConfig returns the default momentum boosts.
func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{
		TechFloor:       65,
		TechBoost:       1.05,
		MomentumFloor:   70,
		MomentumBoost:   1.08,
		GrowthFloorPct:  10,
		GrowthBoost:     1.04,
		LiquidityFloor:  70,
		LiquidityBoost:  1.04,
		StaleMomCeiling: 40,
		StaleMomFactor:  0.92,
	}
}

// Momentum favors strong trends, accelerating growth and deep liquidity.
type Momentum struct {
	config MomentumConfig
}

// NewMomentum creates the momentum-biased lens.
func NewMomentum(config MomentumConfig) *Momentum {
	return &Momentum{config: config}
}

// Name returns the lens name.
func (m *Momentum) Name() string { return NameMomentum }

// View derives the momentum-adjusted view of one evaluation.
func (m *Momentum) View(r *contracts.EvaluatorResult) contracts.StrategyView {
	factor := 1.0

	if r.Scores.Technical >= m.config.TechFloor {
		factor *= m.config.TechBoost
	}

	if r.Scores.Momentum >= m.config.MomentumFloor {
		factor *= m.config.MomentumBoost
	} else if r.Scores.Momentum < m.config.StaleMomCeiling {
		factor *= m.config.StaleMomFactor
	}

	if r.Details.RevenueGrowth >= m.config.GrowthFloorPct {
		factor *= m.config.GrowthBoost
	}

	if r.Scores.Volume >= m.config.LiquidityFloor {
		factor *= m.config.LiquidityBoost
	}

	return view(m.Name(), r, r.Composite*factor)
}
