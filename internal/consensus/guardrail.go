package consensus

import (
	"fmt"
	"math"

	"github.com/jaehyun-dev/concord/internal/contracts"
	"github.com/jaehyun-dev/concord/pkg/logger"
)

// GuardrailConfig holds the hard safety thresholds. These remove an
// instrument regardless of its score.
type GuardrailConfig struct {
	Enabled            bool
	MinPrice           float64
	MinAvgVolume       float64
	MaxDailyMovePct    float64
	MaxVolatilityScore float64 // applied only to HIGH risk instruments
}

// DefaultGuardrailConfig returns the default guardrails.
func DefaultGuardrailConfig() GuardrailConfig {
	return GuardrailConfig{
		Enabled:            true,
		MinPrice:           1.0,
		MinAvgVolume:       100_000,
		MaxDailyMovePct:    25,
		MaxVolatilityScore: 85,
	}
}

// Guardrail removes records violating hard safety thresholds. Every removal
// carries explicit reasons; nothing is dropped silently.
type Guardrail struct {
	config GuardrailConfig
	logger *logger.Logger
}

// NewGuardrail creates a new guardrail filter.
func NewGuardrail(config GuardrailConfig, log *logger.Logger) *Guardrail {
	return &Guardrail{
		config: config,
		logger: log,
	}
}

// Enabled reports whether the filter is active.
func (g *Guardrail) Enabled() bool {
	return g.config.Enabled
}

// Check returns the violated guardrails for one record, empty when clean.
// Exposed so the replacement engine can vet candidates with the same rules.
func (g *Guardrail) Check(rec *contracts.ConsensusRecord) []string {
	if !g.config.Enabled {
		return nil
	}

	var reasons []string

	if rec.Price < g.config.MinPrice {
		reasons = append(reasons, fmt.Sprintf("price %.2f below floor %.2f", rec.Price, g.config.MinPrice))
	}

	if rec.AvgVolume20D < g.config.MinAvgVolume {
		reasons = append(reasons, fmt.Sprintf("avg volume %.0f below floor %.0f", rec.AvgVolume20D, g.config.MinAvgVolume))
	}

	if move := math.Abs(rec.Return1D) * 100; move > g.config.MaxDailyMovePct {
		reasons = append(reasons, fmt.Sprintf("1d move %.1f%% above ceiling %.1f%%", move, g.config.MaxDailyMovePct))
	}

	if rec.Risk == contracts.RiskHigh && rec.Scores.Volatility > g.config.MaxVolatilityScore {
		reasons = append(reasons, fmt.Sprintf("high risk with volatility %.0f above ceiling %.0f",
			rec.Scores.Volatility, g.config.MaxVolatilityScore))
	}

	return reasons
}

// Apply partitions records into kept and removed. Disabled guardrails keep
// everything.
func (g *Guardrail) Apply(records []*contracts.ConsensusRecord) ([]*contracts.ConsensusRecord, []contracts.Removal) {
	if !g.config.Enabled {
		return records, nil
	}

	kept := make([]*contracts.ConsensusRecord, 0, len(records))
	var removed []contracts.Removal

	for _, rec := range records {
		reasons := g.Check(rec)
		if len(reasons) == 0 {
			kept = append(kept, rec)
			continue
		}

		removed = append(removed, contracts.Removal{
			Symbol:  rec.Symbol,
			Stage:   "guardrail",
			Reasons: reasons,
		})
		g.logger.WithFields(map[string]interface{}{
			"symbol":  rec.Symbol,
			"reasons": reasons,
		}).Info("Guardrail removed instrument")
	}

	return kept, removed
}
