package snapshot

import (
	"encoding/json"
	"math"
	"testing"
)

func fp(v float64) *float64 { return &v }

func TestSnapshotMarshalJSON(t *testing.T) {
	t.Run("NaN fields encode as null", func(t *testing.T) {
		// A stock with no usable forecast rows carries NaN growth and
		// NaN P/E returns; the record must still encode.
		snap := Snapshot{
			StockCode:             "sh.600519",
			PeTTM:                 22.5,
			PbMRQ:                 8.1,
			GrowthRatePct:         math.NaN(),
			PEG:                   Sentinel,
			PredictReturn5yPct:    math.NaN(),
			PredictReturn10yPct:   math.NaN(),
			PredictPBReturn5yPct:  12.5,
			PredictPBReturn10yPct: 9.0,
		}
		raw, err := json.Marshal(snap)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var got map[string]any
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got["mean_e_growth_rate"] != nil {
			t.Errorf("mean_e_growth_rate = %v, want null", got["mean_e_growth_rate"])
		}
		if got["predict_revenue_5y"] != nil {
			t.Errorf("predict_revenue_5y = %v, want null", got["predict_revenue_5y"])
		}
		if got["peg"] != Sentinel {
			t.Errorf("peg = %v, want sentinel", got["peg"])
		}
		if got["pettm_at_date"] != 22.5 {
			t.Errorf("pettm_at_date = %v, want 22.5", got["pettm_at_date"])
		}
	})

	t.Run("finite fields round-trip unchanged", func(t *testing.T) {
		snap := Snapshot{StockCode: "sz.000001", PeTTM: 10, GrowthRatePct: 15.5, PEG: 0.8}
		raw, err := json.Marshal(snap)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var got map[string]any
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got["mean_e_growth_rate"] != 15.5 {
			t.Errorf("mean_e_growth_rate = %v, want 15.5", got["mean_e_growth_rate"])
		}
	})
}

func TestPEGRatio(t *testing.T) {
	t.Run("ordinary case", func(t *testing.T) {
		// P/E 20 against 20% growth is a PEG of 1.
		if got := PEGRatio(20, 0.20); math.Abs(got-1.0) > 1e-12 {
			t.Errorf("got %v, want 1.0", got)
		}
	})

	t.Run("zero growth yields the sentinel", func(t *testing.T) {
		if got := PEGRatio(20, 0); got != Sentinel {
			t.Errorf("got %v, want sentinel", got)
		}
	})

	t.Run("negative growth yields the sentinel", func(t *testing.T) {
		if got := PEGRatio(20, -0.1); got != Sentinel {
			t.Errorf("got %v, want sentinel", got)
		}
	})

	t.Run("NaN growth yields the sentinel", func(t *testing.T) {
		if got := PEGRatio(20, math.NaN()); got != Sentinel {
			t.Errorf("got %v, want sentinel", got)
		}
	})
}

func TestPredictReturn(t *testing.T) {
	t.Run("reversion to a higher mean with growth", func(t *testing.T) {
		// sqrt(30/20)*(1.1)-1
		want := math.Sqrt(1.5)*1.1 - 1
		if got := PredictReturn(20, fp(30), 0.10); math.Abs(got-want) > 1e-12 {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("mean equal to current with zero growth is a zero return", func(t *testing.T) {
		if got := PredictReturn(20, fp(20), 0); math.Abs(got) > 1e-12 {
			t.Errorf("got %v, want 0", got)
		}
	})

	t.Run("nil mean yields the sentinel", func(t *testing.T) {
		if got := PredictReturn(20, nil, 0.10); got != Sentinel {
			t.Errorf("got %v, want sentinel", got)
		}
	})

	t.Run("non-positive current yields the sentinel", func(t *testing.T) {
		if got := PredictReturn(0, fp(30), 0.10); got != Sentinel {
			t.Errorf("got %v, want sentinel", got)
		}
		if got := PredictReturn(-5, fp(30), 0.10); got != Sentinel {
			t.Errorf("got %v, want sentinel", got)
		}
	})

	t.Run("non-positive mean yields the sentinel", func(t *testing.T) {
		if got := PredictReturn(20, fp(-1), 0.10); got != Sentinel {
			t.Errorf("got %v, want sentinel", got)
		}
	})

	t.Run("NaN growth flows through as NaN", func(t *testing.T) {
		if got := PredictReturn(20, fp(30), math.NaN()); !math.IsNaN(got) {
			t.Errorf("got %v, want NaN", got)
		}
	})
}

func TestPredictPBReturn(t *testing.T) {
	t.Run("plain reversion ratio", func(t *testing.T) {
		if got := PredictPBReturn(4, fp(5)); math.Abs(got-0.25) > 1e-12 {
			t.Errorf("got %v, want 0.25", got)
		}
	})

	t.Run("nil mean yields the sentinel", func(t *testing.T) {
		if got := PredictPBReturn(4, nil); got != Sentinel {
			t.Errorf("got %v, want sentinel", got)
		}
	})

	t.Run("non-positive current yields the sentinel", func(t *testing.T) {
		if got := PredictPBReturn(0, fp(5)); got != Sentinel {
			t.Errorf("got %v, want sentinel", got)
		}
	})
}

func TestToPct(t *testing.T) {
	if got := ToPct(0.25); got != 25.0 {
		t.Errorf("got %v, want 25", got)
	}
	// The sentinel is a marker, not a fraction; it must not be scaled.
	if got := ToPct(Sentinel); got != Sentinel {
		t.Errorf("got %v, want sentinel unchanged", got)
	}
	if got := ToPct(math.NaN()); !math.IsNaN(got) {
		t.Errorf("got %v, want NaN", got)
	}
}
