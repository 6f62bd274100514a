// Package consensus merges the strategy lens views of every instrument into
// tiered, risk-filtered records ready for allocation.
package consensus

import (
	"fmt"
	"sort"

	"github.com/jaehyun-dev/concord/internal/contracts"
	"github.com/jaehyun-dev/concord/internal/strategy"
	"github.com/jaehyun-dev/concord/pkg/logger"
)

// TierConfig sets the agreement/score boundaries for conviction tiers.
// The values are tunable defaults, not verified production thresholds.
type TierConfig struct {
	HighestScoreFloor  float64 // requires full agreement
	HighScoreFloor     float64 // requires N-1 agreement
	ModerateScoreFloor float64 // requires N-2 agreement
}

// DefaultTierConfig returns the default tier boundaries.
func DefaultTierConfig() TierConfig {
	return TierConfig{
		HighestScoreFloor:  80,
		HighScoreFloor:     72,
		ModerateScoreFloor: 65,
	}
}

// Aggregator collapses all lens views per instrument into one
// ConsensusRecord. One aggregator serves any lens panel; adding a lens
// requires no change here.
type Aggregator struct {
	lenses []strategy.Lens
	tiers  TierConfig
	logger *logger.Logger
}

// NewAggregator creates an aggregator over the given lens panel.
func NewAggregator(lenses []strategy.Lens, tiers TierConfig, log *logger.Logger) *Aggregator {
	return &Aggregator{
		lenses: lenses,
		tiers:  tiers,
		logger: log,
	}
}

// Lenses returns the lens panel names.
func (a *Aggregator) Lenses() []string {
	return strategy.Names(a.lenses)
}

// Views derives every lens's view of one evaluation.
func (a *Aggregator) Views(r *contracts.EvaluatorResult) []contracts.StrategyView {
	views := make([]contracts.StrategyView, len(a.lenses))
	for i, lens := range a.lenses {
		views[i] = lens.View(r)
	}
	return views
}

// Aggregate builds one consensus record per evaluated instrument, sorted
// descending by (agreement, consensus score).
func (a *Aggregator) Aggregate(rc contracts.RunContext, results map[string]*contracts.EvaluatorResult) []*contracts.ConsensusRecord {
	records := make([]*contracts.ConsensusRecord, 0, len(results))

	for _, result := range results {
		records = append(records, a.aggregateOne(result))
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].AgreeCount != records[j].AgreeCount {
			return records[i].AgreeCount > records[j].AgreeCount
		}
		if records[i].Score != records[j].Score {
			return records[i].Score > records[j].Score
		}
		return records[i].Symbol < records[j].Symbol
	})

	a.logger.WithFields(map[string]interface{}{
		"run_id":     rc.RunID,
		"records":    len(records),
		"strategies": len(a.lenses),
	}).Info("Consensus aggregation completed")

	return records
}

// aggregateOne merges the lens views of a single instrument.
func (a *Aggregator) aggregateOne(result *contracts.EvaluatorResult) *contracts.ConsensusRecord {
	views := a.Views(result)
	total := len(views)

	var sum float64
	agree, strong := 0, 0
	for _, v := range views {
		sum += v.Score
		if v.Recommendation.IsBuyOrBetter() {
			agree++
		}
		if v.Recommendation == contracts.StrongBuy {
			strong++
		}
	}

	score := 0.0
	if total > 0 {
		score = sum / float64(total)
	}

	label, conf := consensusLabel(agree, strong, total, score)

	return &contracts.ConsensusRecord{
		Symbol:         result.Symbol,
		Sector:         result.Sector,
		Score:          score,
		AgreeCount:     agree,
		StrongBuyCount: strong,
		StrategiesRun:  total,
		Recommendation: label,
		Confidence:     conf,
		Tier:           a.assignTier(agree, total, score),
		Risk:           result.Risk,
		Rationale: fmt.Sprintf("%d/%d strategies rate buy or better (%d strong buy); consensus score %.1f; risk %s",
			agree, total, strong, score, result.Risk),
		Price:        result.Price,
		Return1D:     result.Details.Return1D,
		AvgVolume20D: result.Details.AvgVolume20D,
		Scores:       result.Scores,
		Upside:       result.Upside,
	}
}

// consensusLabel applies the agreement thresholds, strongest rule first.
func consensusLabel(agree, strong, total int, score float64) (contracts.Recommendation, float64) {
	switch {
	case total > 0 && agree == total:
		return contracts.StrongBuy, 0.95
	case strong >= 1 && strong >= total-1:
		return contracts.StrongBuy, 0.90
	case agree >= total-1 && score >= 75:
		return contracts.Buy, 0.80
	case agree >= total-2 && score >= 70:
		return contracts.Buy, 0.70
	case agree >= 1 && score >= 65:
		return contracts.WeakBuy, 0.60
	default:
		return contracts.Hold, 0.50
	}
}

// assignTier buckets a record by agreement and score.
func (a *Aggregator) assignTier(agree, total int, score float64) contracts.Tier {
	switch {
	case agree == total && score >= a.tiers.HighestScoreFloor:
		return contracts.TierHighest
	case agree >= total-1 && score >= a.tiers.HighScoreFloor:
		return contracts.TierHigh
	case agree >= total-2 && score >= a.tiers.ModerateScoreFloor:
		return contracts.TierModerate
	default:
		return contracts.TierNone
	}
}
