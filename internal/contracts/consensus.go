package contracts

import "encoding/json"

// StrategyView is one lens's opinion on one instrument, derived
// deterministically from a single EvaluatorResult. It never mutates the
// underlying result.
type StrategyView struct {
	Symbol         string         `json:"symbol"`
	Strategy       string         `json:"strategy"`
	Score          float64        `json:"score"` // adjusted composite, [0,100]
	Recommendation Recommendation `json:"recommendation"`
}

// Tier is the discrete conviction bucket assigned to a consensus record.
// Higher value means higher conviction.
type Tier int

const (
	TierNone Tier = iota
	TierModerate
	TierHigh
	TierHighest
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierHighest:
		return "HIGHEST"
	case TierHigh:
		return "HIGH"
	case TierModerate:
		return "MODERATE"
	default:
		return "NONE"
	}
}

// MarshalJSON encodes the tier as its string name.
func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// ConsensusRecord merges all strategy views of one instrument. Built once per
// run; ReplacementFor is set only by the auto-replacement engine and is a
// lookup-only back-reference, never an ownership link.
type ConsensusRecord struct {
	Symbol string `json:"symbol"`
	Sector string `json:"sector"`

	Score          float64        `json:"score"` // mean of lens scores
	AgreeCount     int            `json:"agree_count"`
	StrongBuyCount int            `json:"strong_buy_count"`
	StrategiesRun  int            `json:"strategies_run"`
	Recommendation Recommendation `json:"recommendation"`
	Confidence     float64        `json:"confidence"` // [0,1]
	Tier           Tier           `json:"tier"`
	Risk           RiskClass      `json:"risk"`
	Rationale      string         `json:"rationale"`

	// Copies from the evaluation used by downstream filters and weighting.
	Price         float64   `json:"price"`
	Return1D      float64   `json:"return_1d"`
	AvgVolume20D  float64   `json:"avg_volume_20d"`
	Scores        SubScores `json:"scores"`
	Upside        float64   `json:"upside"`

	ReplacementFor string `json:"replacement_for,omitempty"`
}

// Removal records one instrument dropped by a filter, with the reasons that
// triggered it. Every removal is traceable for audit.
type Removal struct {
	Symbol  string   `json:"symbol"`
	Stage   string   `json:"stage"` // "guardrail" or "regime"
	Reasons []string `json:"reasons"`
}
