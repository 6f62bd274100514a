// Package portfolio turns the filtered consensus set into an
// allocation-ready weighted list with per-position entry, stop, and target
// levels.
package portfolio

import (
	"math"
	"time"

	"github.com/jaehyun-dev/concord/internal/contracts"
	"github.com/jaehyun-dev/concord/pkg/logger"
)

const capIterations = 10

// WeighterConfig defines weighting parameters.
type WeighterConfig struct {
	MaxPositions int

	// Tier conviction multipliers applied before volatility scaling.
	HighestMultiplier  float64
	HighMultiplier     float64
	ModerateMultiplier float64
	BaseMultiplier     float64

	// Stop distance below entry by risk class, as a fraction of entry.
	StopLowRisk    float64
	StopMediumRisk float64
	StopHighRisk   float64

	// Target distance above entry by tier, as a fraction of entry. A larger
	// analyst-implied upside on the record overrides these floors.
	TargetHighest  float64
	TargetHigh     float64
	TargetModerate float64
	TargetBase     float64
}

// DefaultWeighterConfig returns the default weighting parameters.
func DefaultWeighterConfig() WeighterConfig {
	return WeighterConfig{
		MaxPositions:       20,
		HighestMultiplier:  1.5,
		HighMultiplier:     1.2,
		ModerateMultiplier: 1.0,
		BaseMultiplier:     0.8,
		StopLowRisk:        0.06,
		StopMediumRisk:     0.08,
		StopHighRisk:       0.10,
		TargetHighest:      0.15,
		TargetHigh:         0.12,
		TargetModerate:     0.10,
		TargetBase:         0.08,
	}
}

// Weighter builds the final portfolio from ranked consensus records.
type Weighter struct {
	config      WeighterConfig
	constraints Constraints
	logger      *logger.Logger
}

// NewWeighter creates a portfolio weighter.
func NewWeighter(config WeighterConfig, constraints Constraints, log *logger.Logger) *Weighter {
	return &Weighter{
		config:      config,
		constraints: constraints,
		logger:      log,
	}
}

// Build weights the given records. Records arrive ranked; positions keep that
// order. Base weight is the tier multiplier damped by the volatility score,
// then weights are normalized, clamped per position, and capped per sector
// with pro-rata redistribution of the freed weight.
func (w *Weighter) Build(rc contracts.RunContext, records []*contracts.ConsensusRecord) *contracts.Portfolio {
	pf := &contracts.Portfolio{
		GeneratedAt: time.Now(),
		Entries:     []contracts.PortfolioEntry{},
	}

	selected := w.selectPositions(records)
	if len(selected) == 0 {
		w.logger.WithField("run_id", rc.RunID).Warn("No positions to weight")
		return pf
	}

	weights := w.rawWeights(selected)
	normalize(weights, 1.0)
	w.applyCaps(selected, weights)

	for i, rec := range selected {
		pf.Entries = append(pf.Entries, contracts.PortfolioEntry{
			Symbol: rec.Symbol,
			Sector: rec.Sector,
			Tier:   rec.Tier,
			Weight: round4(weights[i]),
			Entry:  rec.Price,
			Stop:   round2(rec.Price * (1 - w.stopDistance(rec.Risk))),
			Target: round2(rec.Price * (1 + w.targetDistance(rec))),
		})
	}

	w.logger.WithFields(map[string]interface{}{
		"run_id":       rc.RunID,
		"positions":    len(pf.Entries),
		"total_weight": round4(pf.TotalWeight()),
	}).Info("Portfolio weighted")

	return pf
}

// selectPositions takes the top ranked records, skipping blacklisted symbols.
func (w *Weighter) selectPositions(records []*contracts.ConsensusRecord) []*contracts.ConsensusRecord {
	selected := make([]*contracts.ConsensusRecord, 0, w.config.MaxPositions)
	for _, rec := range records {
		if len(selected) == w.config.MaxPositions {
			break
		}
		if w.constraints.IsBlackListed(rec.Symbol) {
			continue
		}
		selected = append(selected, rec)
	}
	return selected
}

// rawWeights computes the unnormalized weight of each record.
func (w *Weighter) rawWeights(records []*contracts.ConsensusRecord) []float64 {
	weights := make([]float64, len(records))
	for i, rec := range records {
		weights[i] = w.tierMultiplier(rec.Tier) / (1 + rec.Scores.Volatility/100)
	}
	return weights
}

func (w *Weighter) tierMultiplier(tier contracts.Tier) float64 {
	switch tier {
	case contracts.TierHighest:
		return w.config.HighestMultiplier
	case contracts.TierHigh:
		return w.config.HighMultiplier
	case contracts.TierModerate:
		return w.config.ModerateMultiplier
	default:
		return w.config.BaseMultiplier
	}
}

// applyCaps enforces per-position and per-sector bounds, redistributing the
// freed weight pro-rata to positions that still have headroom. Bounded
// iterations: each round either converges or shrinks the violation set.
func (w *Weighter) applyCaps(records []*contracts.ConsensusRecord, weights []float64) {
	for iter := 0; iter < capIterations; iter++ {
		capped := make([]bool, len(weights))

		for i := range weights {
			if weights[i] > w.constraints.MaxWeight {
				weights[i] = w.constraints.MaxWeight
				capped[i] = true
			} else if weights[i] < w.constraints.MinWeight {
				weights[i] = w.constraints.MinWeight
				capped[i] = true
			}
		}

		sectorSums := make(map[string]float64)
		for i, rec := range records {
			sectorSums[rec.Sector] += weights[i]
		}
		for i, rec := range records {
			if sum := sectorSums[rec.Sector]; sum > w.constraints.MaxSectorWeight {
				weights[i] *= w.constraints.MaxSectorWeight / sum
				capped[i] = true
			}
		}

		deficit := 1.0
		var headroom float64
		for i := range weights {
			deficit -= weights[i]
			if !capped[i] {
				headroom += weights[i]
			}
		}

		if math.Abs(deficit) < 1e-9 {
			return
		}
		if headroom == 0 {
			// Everything is at a bound; leave the total below 1.
			return
		}

		factor := 1 + deficit/headroom
		for i := range weights {
			if !capped[i] {
				weights[i] *= factor
			}
		}
	}
}

func (w *Weighter) stopDistance(risk contracts.RiskClass) float64 {
	switch risk {
	case contracts.RiskLow:
		return w.config.StopLowRisk
	case contracts.RiskHigh:
		return w.config.StopHighRisk
	default:
		return w.config.StopMediumRisk
	}
}

func (w *Weighter) targetDistance(rec *contracts.ConsensusRecord) float64 {
	floor := w.config.TargetBase
	switch rec.Tier {
	case contracts.TierHighest:
		floor = w.config.TargetHighest
	case contracts.TierHigh:
		floor = w.config.TargetHigh
	case contracts.TierModerate:
		floor = w.config.TargetModerate
	}

	if upside := rec.Upside / 100; upside > floor {
		return upside
	}
	return floor
}

// normalize scales weights in place so they sum to target.
func normalize(weights []float64, target float64) {
	var total float64
	for _, v := range weights {
		total += v
	}
	if total == 0 {
		return
	}
	for i := range weights {
		weights[i] *= target / total
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
