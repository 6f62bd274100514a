package contracts

import (
	"encoding/json"
	"fmt"
)

// Recommendation is an ordered conviction label. The integer values define
// a strict total order: a higher value is always a stronger recommendation.
type Recommendation int

const (
	Sell Recommendation = iota
	WeakSell
	Hold
	WeakBuy
	Buy
	StrongBuy
)

// Classification thresholds on the composite score [0,100].
// Defined once here so every lens and the aggregator classify identically.
const (
	ScoreStrongBuy = 82.0
	ScoreBuy       = 72.0
	ScoreWeakBuy   = 62.0
	ScoreHold      = 45.0
	ScoreWeakSell  = 35.0
)

// Classify maps a composite score to a recommendation label.
// Monotonic: a higher score never yields a weaker label.
func Classify(score float64) Recommendation {
	switch {
	case score >= ScoreStrongBuy:
		return StrongBuy
	case score >= ScoreBuy:
		return Buy
	case score >= ScoreWeakBuy:
		return WeakBuy
	case score >= ScoreHold:
		return Hold
	case score >= ScoreWeakSell:
		return WeakSell
	default:
		return Sell
	}
}

// IsBuyOrBetter reports whether the label counts toward consensus agreement.
func (r Recommendation) IsBuyOrBetter() bool {
	return r >= Buy
}

// String returns the label name.
func (r Recommendation) String() string {
	switch r {
	case StrongBuy:
		return "STRONG_BUY"
	case Buy:
		return "BUY"
	case WeakBuy:
		return "WEAK_BUY"
	case Hold:
		return "HOLD"
	case WeakSell:
		return "WEAK_SELL"
	case Sell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON encodes the label as its string name.
func (r Recommendation) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes a label from its string name.
func (r *Recommendation) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "STRONG_BUY":
		*r = StrongBuy
	case "BUY":
		*r = Buy
	case "WEAK_BUY":
		*r = WeakBuy
	case "HOLD":
		*r = Hold
	case "WEAK_SELL":
		*r = WeakSell
	case "SELL":
		*r = Sell
	default:
		return fmt.Errorf("unknown recommendation: %q", s)
	}
	return nil
}
