package contracts

import (
	"fmt"
	"hash/fnv"
	"math"
	"time"
)

// Instrument identifies one tradable symbol under analysis.
// Immutable for the duration of a run.
type Instrument struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name,omitempty"`
	Sector    string  `json:"sector"`
	MarketCap float64 `json:"market_cap"` // in USD
}

// Candle is one bar of an OHLCV series.
type Candle struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PriceSeries is an ordered (oldest first) historical series for one symbol.
// Owned by the data provider; the evaluator only reads it.
type PriceSeries struct {
	Symbol  string   `json:"symbol"`
	Candles []Candle `json:"candles"`
}

// Len returns the number of candles.
func (s *PriceSeries) Len() int {
	return len(s.Candles)
}

// Last returns the most recent candle.
func (s *PriceSeries) Last() (Candle, bool) {
	if len(s.Candles) == 0 {
		return Candle{}, false
	}
	return s.Candles[len(s.Candles)-1], true
}

// ReturnOverDays returns the simple return over the last n trading days.
func (s *PriceSeries) ReturnOverDays(n int) float64 {
	if len(s.Candles) <= n || n <= 0 {
		return 0
	}
	last := s.Candles[len(s.Candles)-1].Close
	prev := s.Candles[len(s.Candles)-1-n].Close
	if prev <= 0 {
		return 0
	}
	return (last - prev) / prev
}

// Fingerprint computes a content hash of the series, used as part of the
// evaluation cache key so that stale cached results are never reused after
// the underlying data changes.
func (s *PriceSeries) Fingerprint() string {
	h := fnv.New64a()
	var buf [16]byte
	for _, c := range s.Candles {
		bits := math.Float64bits(c.Close)
		for i := 0; i < 8; i++ {
			buf[i] = byte(bits >> (8 * i))
		}
		v := uint64(c.Volume)
		for i := 0; i < 8; i++ {
			buf[8+i] = byte(v >> (8 * i))
		}
		h.Write(buf[:])
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
