package contracts

import (
	"errors"
	"time"
)

// Regime is the market-wide risk posture signal.
type Regime string

const (
	RegimeNormal  Regime = "NORMAL"
	RegimeCaution Regime = "CAUTION"
)

// RunContext carries the per-run market snapshot. It is computed once at the
// start of a run and passed explicitly to every downstream stage; no stage
// reads ambient global state.
type RunContext struct {
	RunID    string    `json:"run_id"`
	Date     time.Time `json:"date"`
	Regime   Regime    `json:"regime"`
	Breadth  float64   `json:"breadth"` // fraction of index members above MA50
	DataMode string    `json:"data_mode"`
	Lenses   []string  `json:"lenses"`
}

// Failure records one instrument that produced no result, and why.
type Failure struct {
	Symbol string `json:"symbol"`
	Stage  string `json:"stage"` // "fetch" or "evaluate"
	Reason string `json:"reason"`
}

// BatchReport is the outcome of evaluating one universe: every requested
// instrument either appears in Results or in Failures, never both.
type BatchReport struct {
	Requested int                         `json:"requested"`
	Analyzed  int                         `json:"analyzed"`
	CacheHits int                         `json:"cache_hits"`
	Failures  []Failure                   `json:"failures"`
	Results   map[string]*EvaluatorResult `json:"results"`
}

// Error taxonomy. Per-instrument errors are recovered into Failure entries;
// only ErrTotalOutage aborts a run.
var (
	// ErrNoData means a single instrument's series or side data could not
	// be retrieved or is too short to evaluate.
	ErrNoData = errors.New("no usable data")

	// ErrComputation means an internal evaluation error for one instrument.
	ErrComputation = errors.New("evaluation failed")

	// ErrTotalOutage means zero instruments produced any series; the only
	// condition under which a batch run returns a top-level error.
	ErrTotalOutage = errors.New("total provider outage")
)
