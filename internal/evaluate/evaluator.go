package evaluate

import (
	"fmt"
	"math"
	"time"

	"github.com/jaehyun-dev/concord/internal/contracts"
	"github.com/jaehyun-dev/concord/pkg/logger"
)

// minSeriesLen is the minimum history required for an evaluation.
const minSeriesLen = 60

// WeightConfig defines factor weights for the composite score.
// Volatility enters inverted: a calmer instrument scores higher.
type WeightConfig struct {
	Technical   float64
	Fundamental float64
	Sentiment   float64
	Momentum    float64
	Volume      float64
	Volatility  float64
	Macro       float64
}

// Sum returns the total of all weights.
func (w WeightConfig) Sum() float64 {
	return w.Technical + w.Fundamental + w.Sentiment + w.Momentum + w.Volume + w.Volatility + w.Macro
}

// Valid checks that the weights sum to 1.0 within floating point error.
func (w WeightConfig) Valid() bool {
	sum := w.Sum()
	return sum >= 0.99 && sum <= 1.01
}

// DefaultWeightConfig returns the default factor weights.
func DefaultWeightConfig() WeightConfig {
	return WeightConfig{
		Technical:   0.20,
		Fundamental: 0.20,
		Momentum:    0.20,
		Sentiment:   0.10,
		Volume:      0.10,
		Volatility:  0.10,
		Macro:       0.10,
	}
}

// Evaluator computes one EvaluatorResult per instrument. It is a pure
// function of its inputs: repeated calls with identical inputs produce
// identical results, which is what makes the result cache sound.
type Evaluator struct {
	weights WeightConfig
	logger  *logger.Logger
}

// NewEvaluator creates a new evaluator.
func NewEvaluator(weights WeightConfig, log *logger.Logger) *Evaluator {
	return &Evaluator{
		weights: weights,
		logger:  log,
	}
}

// Evaluate computes the full score bundle for one instrument. A nil or short
// series yields ErrNoData; any internal failure yields ErrComputation. Errors
// never abort the batch, the caller records them and moves on.
func (e *Evaluator) Evaluate(rc contracts.RunContext, inst contracts.Instrument, series *contracts.PriceSeries, side contracts.SideData) (result *contracts.EvaluatorResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %s: %v", contracts.ErrComputation, inst.Symbol, r)
		}
	}()

	if series == nil || series.Len() < minSeriesLen {
		have := 0
		if series != nil {
			have = series.Len()
		}
		return nil, fmt.Errorf("%w: %s: %d candles, need %d", contracts.ErrNoData, inst.Symbol, have, minSeriesLen)
	}

	last, _ := series.Last()
	if last.Close <= 0 {
		return nil, fmt.Errorf("%w: %s: non-positive close", contracts.ErrNoData, inst.Symbol)
	}

	coverage := sideCoverage(side)
	side = side.Normalize()
	candles := series.Candles

	details := contracts.ResultDetails{
		Return1D:      series.ReturnOverDays(1),
		Return1M:      series.ReturnOverDays(20),
		Return3M:      series.ReturnOverDays(60),
		Volatility20D: annualizedVolatility(candles, 20),
		AvgVolume20D:  avgVolume(candles, 20),
		VolumeRate:    volumeRate(candles),
		PER:           side.Fundamentals.PER,
		PBR:           side.Fundamentals.PBR,
		ROE:           side.Fundamentals.ROE,
		ProfitMargin:  side.Fundamentals.ProfitMargin,
		RevenueGrowth: side.Fundamentals.RevenueGrowth,
		Consistency:   consistency(candles, 20),
	}

	scores := contracts.SubScores{
		Technical:   technicalScore(candles),
		Fundamental: fundamentalScore(side.Fundamentals),
		Sentiment:   sentimentScore(side.Sentiment),
		Momentum:    momentumScore(details),
		Volume:      volumeScore(details),
		Volatility:  volatilityScore(details.Volatility20D),
		Macro:       macroScore(side.Macro, rc.Breadth),
	}

	composite := contracts.ClampScore(
		scores.Technical*e.weights.Technical +
			scores.Fundamental*e.weights.Fundamental +
			scores.Sentiment*e.weights.Sentiment +
			scores.Momentum*e.weights.Momentum +
			scores.Volume*e.weights.Volume +
			(100-scores.Volatility)*e.weights.Volatility +
			scores.Macro*e.weights.Macro,
	)

	upside := 0.0
	if side.Sentiment.TargetPrice > 0 {
		upside = (side.Sentiment.TargetPrice - last.Close) / last.Close * 100
	}

	result = &contracts.EvaluatorResult{
		Symbol:          inst.Symbol,
		Sector:          inst.Sector,
		MarketCap:       inst.MarketCap,
		Composite:       composite,
		Scores:          scores,
		PredictedReturn: predictedReturn(details, upside),
		Confidence:      confidence(coverage, series.Len()),
		Risk:            riskClass(scores.Volatility, inst.MarketCap),
		Recommendation:  contracts.Classify(composite),
		Price:           last.Close,
		Upside:          upside,
		Details:         details,
		EvaluatedAt:     time.Now(),
	}

	e.logger.WithFields(map[string]interface{}{
		"symbol":    inst.Symbol,
		"composite": composite,
		"risk":      result.Risk,
		"label":     result.Recommendation.String(),
	}).Debug("Evaluated instrument")

	return result, nil
}

// sideCoverage counts how many optional bundles were actually provided.
func sideCoverage(side contracts.SideData) int {
	n := 0
	if side.Fundamentals != nil {
		n++
	}
	if side.Sentiment != nil {
		n++
	}
	if side.Institutional != nil {
		n++
	}
	if side.Options != nil {
		n++
	}
	if side.Macro != nil {
		n++
	}
	return n
}

// technicalScore blends RSI, MACD and the MA20 cross into [0,100].
func technicalScore(candles []contracts.Candle) float64 {
	r := rsi(candles, 14)

	// Oversold reads positive, overbought negative.
	var rsiScore float64
	switch {
	case r < 30:
		rsiScore = (30 - r) / 30
	case r > 70:
		rsiScore = (70 - r) / 30
	default:
		rsiScore = (50 - r) / 20
	}

	macdScore := math.Tanh(macdRatio(candles) * 50)
	crossScore := float64(ma20Cross(candles))

	raw := rsiScore*0.4 + macdScore*0.4 + crossScore*0.2
	return contracts.ClampScore((raw + 1) * 50)
}

// momentumScore maps 1M/3M returns and volume growth into [0,100].
func momentumScore(d contracts.ResultDetails) float64 {
	raw := math.Tanh((d.Return1M*0.4 + d.Return3M*0.4 + (d.VolumeRate-1)*0.1) * 2)
	return contracts.ClampScore((raw + 1) * 50)
}

// volumeScore rates liquidity: traded volume level plus recent pickup.
func volumeScore(d contracts.ResultDetails) float64 {
	score := 50 + math.Tanh((d.VolumeRate-1)*2)*30
	if d.AvgVolume20D >= 1_000_000 {
		score += 10
	}
	if d.AvgVolume20D >= 10_000_000 {
		score += 10
	}
	return contracts.ClampScore(score)
}

// volatilityScore maps annualized volatility to a risk score in [0,100].
// 80% annualized or more saturates the scale.
func volatilityScore(annualizedPct float64) float64 {
	return contracts.ClampScore(annualizedPct * 1.25)
}

func fundamentalScore(f *contracts.Fundamentals) float64 {
	score := 50.0
	score += clampRange((f.ROE-10)*1.5, -20, 20)
	score += clampRange(-(f.DebtRatio-100)/10, -15, 15)
	score += clampRange((f.ProfitMargin-8)*1.0, -10, 10)
	score += clampRange((f.RevenueGrowth-5)*0.8, -10, 10)
	return contracts.ClampScore(score)
}

func sentimentScore(s *contracts.Sentiment) float64 {
	return contracts.ClampScore(50 + s.NewsScore*25 + (s.AnalystRating-3)*10)
}

func macroScore(m *contracts.Macro, breadth float64) float64 {
	score := 50 + m.RatesTrend*15 + m.SectorTrend*20
	if breadth > 0 {
		score += (breadth - 0.5) * 30
	}
	return contracts.ClampScore(score)
}

// predictedReturn estimates forward return in percent from trailing momentum
// and the analyst upside when one exists.
func predictedReturn(d contracts.ResultDetails, upside float64) float64 {
	p := math.Tanh(d.Return1M*2+d.Return3M)*20 + upside*0.25
	return clampRange(p, -40, 60)
}

// confidence grows with side-data coverage and history depth.
func confidence(coverage, seriesLen int) float64 {
	c := 0.4 + 0.08*float64(coverage) + 0.2*math.Min(float64(seriesLen)/250, 1)
	if c > 1 {
		c = 1
	}
	return c
}

func riskClass(volScore, marketCap float64) contracts.RiskClass {
	risk := contracts.RiskLow
	switch {
	case volScore >= 70:
		risk = contracts.RiskHigh
	case volScore >= 40:
		risk = contracts.RiskMedium
	}

	// Small caps carry at least medium risk.
	if marketCap > 0 && marketCap < 2_000_000_000 && risk == contracts.RiskLow {
		risk = contracts.RiskMedium
	}
	return risk
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
