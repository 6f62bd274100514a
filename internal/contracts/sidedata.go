package contracts

// Side-data bundles returned by the optional collaborators. Every bundle is
// optional: a nil pointer in SideData means "not available" and the evaluator
// degrades to the neutral defaults below instead of failing.

// Fundamentals holds valuation and quality metrics for one instrument.
type Fundamentals struct {
	PER           float64 `json:"per"`
	PBR           float64 `json:"pbr"`
	ROE           float64 `json:"roe"`            // percent
	DebtRatio     float64 `json:"debt_ratio"`     // percent
	ProfitMargin  float64 `json:"profit_margin"`  // percent
	RevenueGrowth float64 `json:"revenue_growth"` // percent YoY
}

// Sentiment holds news and analyst view metrics for one instrument.
type Sentiment struct {
	NewsScore     float64 `json:"news_score"`     // [-1,1]
	AnalystRating float64 `json:"analyst_rating"` // [1,5], 5 = strong buy
	TargetPrice   float64 `json:"target_price"`   // 0 if unknown
}

// Institutional holds smart-money flow metrics for one instrument.
type Institutional struct {
	NetFlow5D  float64 `json:"net_flow_5d"`  // net bought value
	NetFlow20D float64 `json:"net_flow_20d"`
	OwnershipPct float64 `json:"ownership_pct"`
}

// Options holds derivatives positioning metrics for one instrument.
type Options struct {
	PutCallRatio float64 `json:"put_call_ratio"`
	ImpliedVol   float64 `json:"implied_vol"` // percent
}

// Macro holds market-wide overlay signals shared by all instruments in a run.
type Macro struct {
	RatesTrend  float64 `json:"rates_trend"`  // [-1,1], positive = easing
	SectorTrend float64 `json:"sector_trend"` // [-1,1] for the instrument's sector
}

// SideData bundles all optional per-instrument inputs for one evaluation.
type SideData struct {
	Fundamentals  *Fundamentals  `json:"fundamentals,omitempty"`
	Sentiment     *Sentiment     `json:"sentiment,omitempty"`
	Institutional *Institutional `json:"institutional,omitempty"`
	Options       *Options       `json:"options,omitempty"`
	Macro         *Macro         `json:"macro,omitempty"`
}

// NeutralFundamentals returns the documented neutral default bundle.
func NeutralFundamentals() *Fundamentals {
	return &Fundamentals{PER: 18, PBR: 2, ROE: 10, DebtRatio: 100, ProfitMargin: 8, RevenueGrowth: 5}
}

// NeutralSentiment returns the documented neutral default bundle.
func NeutralSentiment() *Sentiment {
	return &Sentiment{NewsScore: 0, AnalystRating: 3, TargetPrice: 0}
}

// NeutralInstitutional returns the documented neutral default bundle.
func NeutralInstitutional() *Institutional {
	return &Institutional{}
}

// NeutralOptions returns the documented neutral default bundle.
func NeutralOptions() *Options {
	return &Options{PutCallRatio: 1.0, ImpliedVol: 30}
}

// NeutralMacro returns the documented neutral default bundle.
func NeutralMacro() *Macro {
	return &Macro{}
}

// Normalize fills every missing bundle with its neutral default so the
// evaluator never branches on nil.
func (sd SideData) Normalize() SideData {
	if sd.Fundamentals == nil {
		sd.Fundamentals = NeutralFundamentals()
	}
	if sd.Sentiment == nil {
		sd.Sentiment = NeutralSentiment()
	}
	if sd.Institutional == nil {
		sd.Institutional = NeutralInstitutional()
	}
	if sd.Options == nil {
		sd.Options = NeutralOptions()
	}
	if sd.Macro == nil {
		sd.Macro = NeutralMacro()
	}
	return sd
}
