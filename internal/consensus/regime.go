package consensus

import (
	"fmt"

	"github.com/jaehyun-dev/concord/internal/contracts"
	"github.com/jaehyun-dev/concord/pkg/logger"
)

// RegimeThresholds is one pass of the caution-regime secondary filter.
type RegimeThresholds struct {
	MinAgree      int
	MinMomentum   float64
	MaxVolatility float64
}

// RegimeConfig holds the strict and relaxed passes plus the final top-K
// fallback, so a caution regime can tighten selection without ever emptying
// the output while candidates exist.
type RegimeConfig struct {
	Strict       RegimeThresholds
	Relaxed      RegimeThresholds
	FallbackTopK int
}

// DefaultRegimeConfig returns the default caution-regime thresholds.
func DefaultRegimeConfig() RegimeConfig {
	return RegimeConfig{
		Strict:       RegimeThresholds{MinAgree: 3, MinMomentum: 55, MaxVolatility: 75},
		Relaxed:      RegimeThresholds{MinAgree: 2, MinMomentum: 45, MaxVolatility: 85},
		FallbackTopK: 5,
	}
}

// RegimeFilter applies the stricter secondary pass when the market regime
// signals caution.
type RegimeFilter struct {
	config RegimeConfig
	logger *logger.Logger
}

// NewRegimeFilter creates a new regime filter.
func NewRegimeFilter(config RegimeConfig, log *logger.Logger) *RegimeFilter {
	return &RegimeFilter{
		config: config,
		logger: log,
	}
}

// Apply filters records under the run's regime. In a normal regime it is a
// pass-through. In caution it tries strict thresholds, then relaxed ones,
// then falls back to the top K by (agreement, score) so the pipeline never
// returns zero usable output when any candidates exist.
func (f *RegimeFilter) Apply(rc contracts.RunContext, records []*contracts.ConsensusRecord) ([]*contracts.ConsensusRecord, []contracts.Removal) {
	if rc.Regime != contracts.RegimeCaution || len(records) == 0 {
		return records, nil
	}

	if kept, removed := f.pass(records, f.config.Strict, "strict"); len(kept) > 0 {
		f.logPass(rc, "strict", len(kept), len(removed))
		return kept, removed
	}

	if kept, removed := f.pass(records, f.config.Relaxed, "relaxed"); len(kept) > 0 {
		f.logPass(rc, "relaxed", len(kept), len(removed))
		return kept, removed
	}

	// Both passes would empty the list: retain the top K. Records arrive
	// already sorted by (agreement, score).
	k := f.config.FallbackTopK
	if k > len(records) {
		k = len(records)
	}
	kept := records[:k]
	removed := make([]contracts.Removal, 0, len(records)-k)
	for _, rec := range records[k:] {
		removed = append(removed, contracts.Removal{
			Symbol:  rec.Symbol,
			Stage:   "regime",
			Reasons: []string{fmt.Sprintf("outside top-%d fallback in caution regime", k)},
		})
	}

	f.logPass(rc, "fallback_topk", len(kept), len(removed))
	return kept, removed
}

// pass partitions records against one threshold set.
func (f *RegimeFilter) pass(records []*contracts.ConsensusRecord, th RegimeThresholds, name string) ([]*contracts.ConsensusRecord, []contracts.Removal) {
	kept := make([]*contracts.ConsensusRecord, 0, len(records))
	var removed []contracts.Removal

	for _, rec := range records {
		var reasons []string

		if rec.AgreeCount < th.MinAgree {
			reasons = append(reasons, fmt.Sprintf("%s: agreement %d below %d", name, rec.AgreeCount, th.MinAgree))
		}
		if rec.Scores.Momentum < th.MinMomentum {
			reasons = append(reasons, fmt.Sprintf("%s: momentum %.0f below %.0f", name, rec.Scores.Momentum, th.MinMomentum))
		}
		if rec.Scores.Volatility > th.MaxVolatility {
			reasons = append(reasons, fmt.Sprintf("%s: volatility %.0f above %.0f", name, rec.Scores.Volatility, th.MaxVolatility))
		}

		if len(reasons) == 0 {
			kept = append(kept, rec)
		} else {
			removed = append(removed, contracts.Removal{Symbol: rec.Symbol, Stage: "regime", Reasons: reasons})
		}
	}

	return kept, removed
}

func (f *RegimeFilter) logPass(rc contracts.RunContext, pass string, kept, removed int) {
	f.logger.WithFields(map[string]interface{}{
		"run_id":  rc.RunID,
		"pass":    pass,
		"kept":    kept,
		"removed": removed,
	}).Info("Regime filter applied")
}
