package providers

import (
	"context"
	"testing"
	"time"

	"github.com/jaehyun-dev/concord/internal/contracts"
	"github.com/jaehyun-dev/concord/pkg/logger"
)

// fakeBenchmark serves flat series whose last close sits above or below the
// trailing mean depending on the symbol's configured direction.
type fakeBenchmark struct {
	above map[string]bool
}

func (f *fakeBenchmark) FetchSeries(ctx context.Context, symbols []string, period, interval string) (map[string]*contracts.PriceSeries, error) {
	out := make(map[string]*contracts.PriceSeries, len(symbols))
	for _, s := range symbols {
		out[s] = benchmarkSeries(s, f.above[s])
	}
	return out, nil
}

func benchmarkSeries(symbol string, above bool) *contracts.PriceSeries {
	candles := make([]contracts.Candle, 60)
	day := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range candles {
		candles[i] = contracts.Candle{Date: day.AddDate(0, 0, i), Close: 100, Volume: 1_000_000}
	}
	if above {
		candles[len(candles)-1].Close = 110
	} else {
		candles[len(candles)-1].Close = 90
	}
	return &contracts.PriceSeries{Symbol: symbol, Candles: candles}
}

func TestBreadthRegime_Assess(t *testing.T) {
	members := []string{"M1", "M2", "M3", "M4"}

	tests := []struct {
		name        string
		above       map[string]bool
		wantRegime  contracts.Regime
		wantBreadth float64
	}{
		{
			name:        "broad strength",
			above:       map[string]bool{"M1": true, "M2": true, "M3": true, "M4": false},
			wantRegime:  contracts.RegimeNormal,
			wantBreadth: 0.75,
		},
		{
			name:        "broad weakness",
			above:       map[string]bool{"M1": true},
			wantRegime:  contracts.RegimeCaution,
			wantBreadth: 0.25,
		},
		{
			name:        "exactly at floor stays normal",
			above:       map[string]bool{"M1": true, "M2": true},
			wantRegime:  contracts.RegimeNormal,
			wantBreadth: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := NewBreadthRegime(&fakeBenchmark{above: tt.above}, members, DefaultCautionFloor, logger.NewNop())

			regime, breadth, err := provider.Assess(context.Background(), time.Now())
			if err != nil {
				t.Fatalf("Assess() error = %v", err)
			}
			if regime != tt.wantRegime {
				t.Errorf("regime = %v, want %v", regime, tt.wantRegime)
			}
			if breadth != tt.wantBreadth {
				t.Errorf("breadth = %v, want %v", breadth, tt.wantBreadth)
			}
		})
	}
}

func TestBreadthRegime_NoMembers(t *testing.T) {
	provider := NewBreadthRegime(&fakeBenchmark{}, nil, DefaultCautionFloor, logger.NewNop())
	if _, _, err := provider.Assess(context.Background(), time.Now()); err == nil {
		t.Fatal("expected error with no benchmark members")
	}
}
