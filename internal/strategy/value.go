package strategy

import "github.com/jaehyun-dev/concord/internal/contracts"

// ValueConfig holds the boost factors for the value-biased lens.
type ValueConfig struct {
	PERBandLow      float64 // moderate valuation band
	PERBandHigh     float64
	PERBandBoost    float64
	PBRBandLow      float64
	PBRBandHigh     float64
	PBRBandBoost    float64
	FundFloor       float64
	FundBoost       float64
	MarginFloorPct  float64 // profitability for the boost
	MarginBoost     float64
	RichPERCeiling  float64 // above this (or non-positive), penalize
	RichPERFactor   float64
}

// DefaultValueConfig returns the default value boosts.
func DefaultValueConfig() ValueConfig {
	return ValueConfig{
		PERBandLow:     8,
		PERBandHigh:    20,
		PERBandBoost:   1.06,
		PBRBandLow:     0.8,
		PBRBandHigh:    3.0,
		PBRBandBoost:   1.03,
		FundFloor:      65,
		FundBoost:      1.05,
		MarginFloorPct: 12,
		MarginBoost:    1.04,
		RichPERCeiling: 40,
		RichPERFactor:  0.90,
	}
}

// Value favors moderately priced instruments with strong fundamentals and
// real profitability.
type Value struct {
	config ValueConfig
}

// NewValue creates the value-biased lens.
func NewValue(config ValueConfig) *Value {
	return &Value{config: config}
}

// Name returns the lens name.
func (v *Value) Name() string { return NameValue }

// View derives the value-adjusted view of one evaluation.
func (v *Value) View(r *contracts.EvaluatorResult) contracts.StrategyView {
	factor := 1.0
	per := r.Details.PER

	if per >= v.config.PERBandLow && per <= v.config.PERBandHigh {
		factor *= v.config.PERBandBoost
	} else if per <= 0 || per > v.config.RichPERCeiling {
		// Loss-making or priced for perfection.
		factor *= v.config.RichPERFactor
	}

	if r.Details.PBR >= v.config.PBRBandLow && r.Details.PBR <= v.config.PBRBandHigh {
		factor *= v.config.PBRBandBoost
	}

	if r.Scores.Fundamental >= v.config.FundFloor {
		factor *= v.config.FundBoost
	}

	if r.Details.ProfitMargin >= v.config.MarginFloorPct {
		factor *= v.config.MarginBoost
	}

	return view(v.Name(), r, r.Composite*factor)
}
