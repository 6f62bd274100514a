package consensus

import (
	"github.com/jaehyun-dev/concord/internal/contracts"
	"github.com/jaehyun-dev/concord/pkg/logger"
)

// Replacer substitutes the next-best unused candidate for every instrument
// removed by the guardrail or regime filters.
type Replacer struct {
	guard   *Guardrail
	enabled bool
	logger  *logger.Logger
}

// NewReplacer creates a replacement engine vetting candidates with the same
// guardrail rules that removed the originals.
func NewReplacer(guard *Guardrail, enabled bool, log *logger.Logger) *Replacer {
	return &Replacer{
		guard:   guard,
		enabled: enabled,
		logger:  log,
	}
}

// Replace scans the full pre-filter pool (sorted by rank) for one
// replacement per removal. A candidate must not be already selected, not
// itself removed, not already used as a replacement, and must independently
// pass the guardrail checks. Disabled replacement returns nothing, which
// simply shortens the output list.
func (r *Replacer) Replace(pool, kept []*contracts.ConsensusRecord, removed []contracts.Removal) []*contracts.ConsensusRecord {
	if !r.enabled || len(removed) == 0 {
		return nil
	}

	used := make(map[string]bool, len(kept)+len(removed))
	for _, rec := range kept {
		used[rec.Symbol] = true
	}
	for _, rem := range removed {
		used[rem.Symbol] = true
	}

	replacements := make([]*contracts.ConsensusRecord, 0, len(removed))
	for _, rem := range removed {
		candidate := r.findCandidate(pool, used)
		if candidate == nil {
			r.logger.WithField("removed", rem.Symbol).Debug("No replacement candidate available")
			continue
		}

		// Copy so the pool record stays untouched.
		repl := *candidate
		repl.ReplacementFor = rem.Symbol
		replacements = append(replacements, &repl)
		used[candidate.Symbol] = true

		r.logger.WithFields(map[string]interface{}{
			"removed":     rem.Symbol,
			"replacement": candidate.Symbol,
		}).Info("Replacement selected")
	}

	return replacements
}

// findCandidate returns the highest-ranked unused pool record that passes
// the guardrails, or nil.
func (r *Replacer) findCandidate(pool []*contracts.ConsensusRecord, used map[string]bool) *contracts.ConsensusRecord {
	for _, rec := range pool {
		if used[rec.Symbol] {
			continue
		}
		if len(r.guard.Check(rec)) > 0 {
			continue
		}
		return rec
	}
	return nil
}
