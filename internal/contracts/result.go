package contracts

import "time"

// RiskClass is a coarse risk classification for one instrument.
type RiskClass string

const (
	RiskLow    RiskClass = "LOW"
	RiskMedium RiskClass = "MEDIUM"
	RiskHigh   RiskClass = "HIGH"
)

// SubScores holds the per-factor scores behind a composite score.
// All values are in [0,100]. Volatility is a risk score: higher means
// more volatile, not better.
type SubScores struct {
	Technical   float64 `json:"technical"`
	Fundamental float64 `json:"fundamental"`
	Sentiment   float64 `json:"sentiment"`
	Momentum    float64 `json:"momentum"`
	Volume      float64 `json:"volume"`
	Volatility  float64 `json:"volatility"`
	Macro       float64 `json:"macro"`
}

// ResultDetails contains raw data behind the sub-scores. Downstream filters
// and lenses read from here rather than recomputing from the series.
type ResultDetails struct {
	Return1D      float64 `json:"return_1d"`
	Return1M      float64 `json:"return_1m"`
	Return3M      float64 `json:"return_3m"`
	Volatility20D float64 `json:"volatility_20d"` // annualized, percent
	AvgVolume20D  float64 `json:"avg_volume_20d"`
	VolumeRate    float64 `json:"volume_rate"` // 5d avg / 20d avg

	PER           float64 `json:"per"`
	PBR           float64 `json:"pbr"`
	ROE           float64 `json:"roe"`
	ProfitMargin  float64 `json:"profit_margin"`
	RevenueGrowth float64 `json:"revenue_growth"`

	Consistency float64 `json:"consistency"` // [0,100], share of up days
}

// EvaluatorResult is the single evaluation of one instrument for one run.
// Created once, immutable after creation, cached by (symbol, fingerprint).
type EvaluatorResult struct {
	Symbol    string  `json:"symbol"`
	Sector    string  `json:"sector"`
	MarketCap float64 `json:"market_cap"`

	Composite       float64        `json:"composite"` // [0,100]
	Scores          SubScores      `json:"scores"`
	PredictedReturn float64        `json:"predicted_return"` // percent, signed
	Confidence      float64        `json:"confidence"`       // [0,1]
	Risk            RiskClass      `json:"risk"`
	Recommendation  Recommendation `json:"recommendation"`

	Price   float64 `json:"price"`
	Upside  float64 `json:"upside"` // percent to analyst target, 0 if unknown
	Details ResultDetails `json:"details"`

	EvaluatedAt time.Time `json:"evaluated_at"`
}

// ClampScore bounds a score to [0,100].
func ClampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
