package consensus

import (
	"testing"

	"github.com/jaehyun-dev/concord/internal/contracts"
	"github.com/jaehyun-dev/concord/pkg/logger"
)

func TestReplacer_FillsRemovals(t *testing.T) {
	guard := NewGuardrail(DefaultGuardrailConfig(), logger.NewNop())
	repl := NewReplacer(guard, true, logger.NewNop())

	kept := []*contracts.ConsensusRecord{cleanRecord("K1"), cleanRecord("K2")}
	removed := []contracts.Removal{
		{Symbol: "R1", Stage: "guardrail", Reasons: []string{"price 0.40 below floor 1.00"}},
		{Symbol: "R2", Stage: "regime", Reasons: []string{"strict: agreement 1 below 3"}},
	}
	pool := []*contracts.ConsensusRecord{
		cleanRecord("K1"), cleanRecord("K2"),
		cleanRecord("R1"), cleanRecord("R2"),
		cleanRecord("C1"), cleanRecord("C2"), cleanRecord("C3"),
	}

	replacements := repl.Replace(pool, kept, removed)

	if len(replacements) != 2 {
		t.Fatalf("got %d replacements, want 2", len(replacements))
	}
	if replacements[0].Symbol != "C1" || replacements[1].Symbol != "C2" {
		t.Errorf("expected rank order C1, C2; got %s, %s", replacements[0].Symbol, replacements[1].Symbol)
	}
	if replacements[0].ReplacementFor != "R1" || replacements[1].ReplacementFor != "R2" {
		t.Errorf("replacement provenance wrong: %s, %s",
			replacements[0].ReplacementFor, replacements[1].ReplacementFor)
	}

	seen := map[string]bool{"K1": true, "K2": true, "R1": true, "R2": true}
	for _, rec := range replacements {
		if seen[rec.Symbol] {
			t.Errorf("replacement %s duplicates a kept or removed symbol", rec.Symbol)
		}
		seen[rec.Symbol] = true
	}
}

func TestReplacer_CandidatesMustPassGuardrails(t *testing.T) {
	guard := NewGuardrail(DefaultGuardrailConfig(), logger.NewNop())
	repl := NewReplacer(guard, true, logger.NewNop())

	thin := cleanRecord("THIN")
	thin.AvgVolume20D = 10_000
	pool := []*contracts.ConsensusRecord{thin, cleanRecord("SOLID")}
	removed := []contracts.Removal{{Symbol: "GONE", Stage: "guardrail", Reasons: []string{"x"}}}

	replacements := repl.Replace(pool, nil, removed)

	if len(replacements) != 1 || replacements[0].Symbol != "SOLID" {
		t.Fatalf("expected SOLID to be chosen over THIN, got %+v", replacements)
	}
}

func TestReplacer_PoolExhaustion(t *testing.T) {
	guard := NewGuardrail(DefaultGuardrailConfig(), logger.NewNop())
	repl := NewReplacer(guard, true, logger.NewNop())

	removed := []contracts.Removal{
		{Symbol: "R1", Stage: "guardrail", Reasons: []string{"x"}},
		{Symbol: "R2", Stage: "guardrail", Reasons: []string{"x"}},
	}
	pool := []*contracts.ConsensusRecord{cleanRecord("R1"), cleanRecord("R2"), cleanRecord("ONLY")}

	replacements := repl.Replace(pool, nil, removed)

	if len(replacements) != 1 {
		t.Fatalf("exhausted pool should yield 1 replacement, got %d", len(replacements))
	}
	if len(replacements) > len(removed) {
		t.Error("more replacements than removals")
	}
}

func TestReplacer_Disabled(t *testing.T) {
	guard := NewGuardrail(DefaultGuardrailConfig(), logger.NewNop())
	repl := NewReplacer(guard, false, logger.NewNop())

	removed := []contracts.Removal{{Symbol: "R1", Stage: "guardrail", Reasons: []string{"x"}}}
	pool := []*contracts.ConsensusRecord{cleanRecord("C1")}

	if got := repl.Replace(pool, nil, removed); got != nil {
		t.Errorf("disabled replacer returned %+v", got)
	}
}

func TestReplacer_DoesNotMutatePool(t *testing.T) {
	guard := NewGuardrail(DefaultGuardrailConfig(), logger.NewNop())
	repl := NewReplacer(guard, true, logger.NewNop())

	candidate := cleanRecord("C1")
	removed := []contracts.Removal{{Symbol: "R1", Stage: "guardrail", Reasons: []string{"x"}}}

	repl.Replace([]*contracts.ConsensusRecord{candidate}, nil, removed)

	if candidate.ReplacementFor != "" {
		t.Errorf("pool record mutated: ReplacementFor = %q", candidate.ReplacementFor)
	}
}
