package contracts

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		score float64
		want  Recommendation
	}{
		{100, StrongBuy},
		{82, StrongBuy},
		{81.9, Buy},
		{72, Buy},
		{71.9, WeakBuy},
		{62, WeakBuy},
		{61.9, Hold},
		{45, Hold},
		{44.9, WeakSell},
		{35, WeakSell},
		{34.9, Sell},
		{0, Sell},
	}

	for _, tt := range tests {
		if got := Classify(tt.score); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestClassify_Deterministic(t *testing.T) {
	for s := 0.0; s <= 100.0; s += 0.5 {
		if Classify(s) != Classify(s) {
			t.Fatalf("Classify(%v) not deterministic", s)
		}
	}
}

func TestClassify_Monotonic(t *testing.T) {
	prev := Classify(0)
	for s := 0.25; s <= 100.0; s += 0.25 {
		cur := Classify(s)
		if cur < prev {
			t.Fatalf("Classify not monotonic at %v: %v < %v", s, cur, prev)
		}
		prev = cur
	}
}

func TestRecommendation_IsBuyOrBetter(t *testing.T) {
	tests := []struct {
		rec  Recommendation
		want bool
	}{
		{StrongBuy, true},
		{Buy, true},
		{WeakBuy, false},
		{Hold, false},
		{WeakSell, false},
		{Sell, false},
	}

	for _, tt := range tests {
		if got := tt.rec.IsBuyOrBetter(); got != tt.want {
			t.Errorf("%v.IsBuyOrBetter() = %v, want %v", tt.rec, got, tt.want)
		}
	}
}

func TestRecommendation_JSONRoundTrip(t *testing.T) {
	for _, rec := range []Recommendation{Sell, WeakSell, Hold, WeakBuy, Buy, StrongBuy} {
		data, err := rec.MarshalJSON()
		if err != nil {
			t.Fatalf("marshal %v: %v", rec, err)
		}
		var decoded Recommendation
		if err := decoded.UnmarshalJSON(data); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if decoded != rec {
			t.Errorf("round trip: got %v, want %v", decoded, rec)
		}
	}
}
