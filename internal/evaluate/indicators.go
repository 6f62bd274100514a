package evaluate

import (
	"math"

	"github.com/jaehyun-dev/concord/internal/contracts"
)

// Pure indicator math over a candle series (oldest first).

func avgVolume(candles []contracts.Candle, days int) float64 {
	if len(candles) == 0 {
		return 0
	}
	if days > len(candles) {
		days = len(candles)
	}

	var sum int64
	for _, c := range candles[len(candles)-days:] {
		sum += c.Volume
	}
	return float64(sum) / float64(days)
}

// volumeRate is the ratio of recent (5d) to baseline (20d) average volume.
func volumeRate(candles []contracts.Candle) float64 {
	base := avgVolume(candles, 20)
	if base == 0 {
		return 1.0
	}
	return avgVolume(candles, 5) / base
}

func rsi(candles []contracts.Candle, period int) float64 {
	if len(candles) < period+1 {
		return 50.0 // neutral
	}

	var gains, losses float64
	start := len(candles) - period
	for i := start; i < len(candles); i++ {
		change := candles[i].Close - candles[i-1].Close
		if change > 0 {
			gains += change
		} else {
			losses += -change
		}
	}

	if losses == 0 {
		return 100.0
	}

	rs := (gains / float64(period)) / (losses / float64(period))
	return 100 - (100 / (1 + rs))
}

func sma(candles []contracts.Candle, period int) float64 {
	if len(candles) < period || period <= 0 {
		return 0
	}

	var sum float64
	for _, c := range candles[len(candles)-period:] {
		sum += c.Close
	}
	return sum / float64(period)
}

func ema(candles []contracts.Candle, period int) float64 {
	if len(candles) < period {
		return 0
	}

	// Seed with SMA over the first period, then walk forward.
	var sum float64
	for _, c := range candles[:period] {
		sum += c.Close
	}
	value := sum / float64(period)

	multiplier := 2.0 / (float64(period) + 1.0)
	for _, c := range candles[period:] {
		value = c.Close*multiplier + value*(1-multiplier)
	}
	return value
}

// macdRatio returns MACD (EMA12-EMA26) relative to price, so the value is
// comparable across price levels.
func macdRatio(candles []contracts.Candle) float64 {
	if len(candles) < 26 {
		return 0
	}
	price := candles[len(candles)-1].Close
	if price <= 0 {
		return 0
	}
	return (ema(candles, 12) - ema(candles, 26)) / price
}

// ma20Cross returns 1 above MA20 by 2%, -1 below by 2%, else 0.
func ma20Cross(candles []contracts.Candle) int {
	ma := sma(candles, 20)
	if ma == 0 {
		return 0
	}

	diff := (candles[len(candles)-1].Close - ma) / ma
	switch {
	case diff > 0.02:
		return 1
	case diff < -0.02:
		return -1
	default:
		return 0
	}
}

// annualizedVolatility returns the stdev of daily returns over the last
// `days` candles, annualized, in percent.
func annualizedVolatility(candles []contracts.Candle, days int) float64 {
	if len(candles) < days+1 {
		return 0
	}

	window := candles[len(candles)-days-1:]
	returns := make([]float64, 0, days)
	for i := 1; i < len(window); i++ {
		if window[i-1].Close <= 0 {
			continue
		}
		returns = append(returns, (window[i].Close-window[i-1].Close)/window[i-1].Close)
	}
	if len(returns) < 2 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance) * math.Sqrt(252) * 100
}

// consistency returns the percentage of up days over the last `days` candles.
func consistency(candles []contracts.Candle, days int) float64 {
	if len(candles) < days+1 {
		return 50.0
	}

	window := candles[len(candles)-days-1:]
	up := 0
	for i := 1; i < len(window); i++ {
		if window[i].Close > window[i-1].Close {
			up++
		}
	}
	return float64(up) / float64(days) * 100
}
