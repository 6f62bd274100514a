package store

import (
	"testing"

	"github.com/jaehyun-dev/concord/internal/contracts"
)

func TestParseTierRoundTrip(t *testing.T) {
	for _, tier := range []contracts.Tier{
		contracts.TierNone, contracts.TierModerate, contracts.TierHigh, contracts.TierHighest,
	} {
		if got := parseTier(tier.String()); got != tier {
			t.Errorf("parseTier(%q) = %v, want %v", tier.String(), got, tier)
		}
	}
	if got := parseTier("bogus"); got != contracts.TierNone {
		t.Errorf("parseTier(bogus) = %v, want NONE", got)
	}
}

func TestParseRecommendationRoundTrip(t *testing.T) {
	for _, rec := range []contracts.Recommendation{
		contracts.Sell, contracts.WeakSell, contracts.Hold,
		contracts.WeakBuy, contracts.Buy, contracts.StrongBuy,
	} {
		if got := parseRecommendation(rec.String()); got != rec {
			t.Errorf("parseRecommendation(%q) = %v, want %v", rec.String(), got, rec)
		}
	}
	if got := parseRecommendation("bogus"); got != contracts.Hold {
		t.Errorf("parseRecommendation(bogus) = %v, want HOLD", got)
	}
}
