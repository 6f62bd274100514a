// Package strategy re-weights a single evaluation under independent
// investment-philosophy lenses. A lens never re-evaluates the instrument and
// never mutates the underlying result; it derives an adjusted score and then
// reclassifies through the shared classifier.
package strategy

import "github.com/jaehyun-dev/concord/internal/contracts"

// Lens is one named strategy perspective over an EvaluatorResult.
type Lens interface {
	Name() string
	View(r *contracts.EvaluatorResult) contracts.StrategyView
}

// Lens names, used in run context and rationale strings.
const (
	NameStability  = "stability"
	NameMomentum   = "momentum"
	NameValue      = "value"
	NameRiskAverse = "risk_averse"
)

// DefaultLenses returns the standard four-lens panel. Adding or removing a
// lens here is the only change needed; the aggregator takes the list as-is.
func DefaultLenses() []Lens {
	return []Lens{
		NewStability(DefaultStabilityConfig()),
		NewMomentum(DefaultMomentumConfig()),
		NewValue(DefaultValueConfig()),
		NewRiskAverse(DefaultRiskAverseConfig()),
	}
}

// Names returns the names of the given lenses, in order.
func Names(lenses []Lens) []string {
	out := make([]string, len(lenses))
	for i, l := range lenses {
		out[i] = l.Name()
	}
	return out
}

// view builds a StrategyView from an adjusted score. Every lens goes through
// here so the label is always recomputed from the adjusted score, never
// copied from the original evaluation.
func view(name string, r *contracts.EvaluatorResult, adjusted float64) contracts.StrategyView {
	adjusted = contracts.ClampScore(adjusted)
	return contracts.StrategyView{
		Symbol:         r.Symbol,
		Strategy:       name,
		Score:          adjusted,
		Recommendation: contracts.Classify(adjusted),
	}
}
