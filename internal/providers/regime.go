package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/jaehyun-dev/concord/internal/contracts"
	"github.com/jaehyun-dev/concord/internal/evaluate"
	"github.com/jaehyun-dev/concord/pkg/logger"
)

const breadthLookback = 50 // trading days for the breadth moving average

// BreadthRegime assesses the market regime from index-member breadth: the
// fraction of benchmark members trading above their 50-day average.
type BreadthRegime struct {
	series       evaluate.SeriesProvider
	members      []string
	cautionFloor float64 // breadth below this switches to CAUTION
	logger       *logger.Logger
}

// NewBreadthRegime creates a breadth-based regime provider.
func NewBreadthRegime(series evaluate.SeriesProvider, members []string, cautionFloor float64, log *logger.Logger) *BreadthRegime {
	return &BreadthRegime{
		series:       series,
		members:      members,
		cautionFloor: cautionFloor,
		logger:       log,
	}
}

// DefaultCautionFloor is the breadth below which the market counts as risk-off.
const DefaultCautionFloor = 0.45

// Assess computes breadth over the benchmark members and maps it to a regime.
func (b *BreadthRegime) Assess(ctx context.Context, date time.Time) (contracts.Regime, float64, error) {
	if len(b.members) == 0 {
		return contracts.RegimeNormal, 0, fmt.Errorf("no benchmark members configured")
	}

	seriesMap, err := b.series.FetchSeries(ctx, b.members, "6mo", "1d")
	if err != nil {
		return contracts.RegimeNormal, 0, fmt.Errorf("benchmark series fetch: %w", err)
	}

	var measured, above int
	for _, symbol := range b.members {
		series, ok := seriesMap[symbol]
		if !ok || series.Len() < breadthLookback {
			continue
		}
		measured++
		if last, ok := series.Last(); ok && last.Close > trailingMean(series, breadthLookback) {
			above++
		}
	}
	if measured == 0 {
		return contracts.RegimeNormal, 0, fmt.Errorf("no benchmark member had %d days of history", breadthLookback)
	}

	breadth := float64(above) / float64(measured)
	regime := contracts.RegimeNormal
	if breadth < b.cautionFloor {
		regime = contracts.RegimeCaution
	}

	b.logger.WithFields(map[string]interface{}{
		"breadth":  breadth,
		"measured": measured,
		"regime":   regime,
	}).Info("Market regime assessed")

	return regime, breadth, nil
}

// trailingMean averages the last n closes.
func trailingMean(series *contracts.PriceSeries, n int) float64 {
	candles := series.Candles[len(series.Candles)-n:]
	var sum float64
	for _, c := range candles {
		sum += c.Close
	}
	return sum / float64(n)
}
