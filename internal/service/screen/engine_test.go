package screen

import (
	"math"
	"reflect"
	"testing"

	"github.com/NealChanAI/stock-investment/internal/domain/snapshot"
)

// passing5y is comfortably inside every R1 threshold.
func passing5y() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		StockCode:             "sh.600519",
		PredictReturn5yPct:    45,
		PredictReturn10yPct:   20,
		PredictPBReturn5yPct:  15,
		PredictPBReturn10yPct: 5,
		GrowthRatePct:         18,
		PEG:                   1.1,
	}
}

func TestEvaluate(t *testing.T) {
	engine := NewEngine(nil)

	t.Run("matches the 5y rule only", func(t *testing.T) {
		flags := engine.Evaluate(passing5y())
		if !reflect.DeepEqual(flags, []string{RuleHighReturn5y}) {
			t.Errorf("flags = %v, want [R1]", flags)
		}
	})

	t.Run("matches all three when both horizons clear", func(t *testing.T) {
		s := passing5y()
		s.PredictReturn10yPct = 50
		s.PredictPBReturn10yPct = 12
		flags := engine.Evaluate(s)
		want := []string{RuleHighReturn5y, RuleHighReturn10y, RuleDualHorizon}
		if !reflect.DeepEqual(flags, want) {
			t.Errorf("flags = %v, want %v", flags, want)
		}
	})

	t.Run("PEG at the boundary fails", func(t *testing.T) {
		s := passing5y()
		s.PEG = 1.5
		if flags := engine.Evaluate(s); len(flags) != 0 {
			t.Errorf("flags = %v, want none", flags)
		}
	})

	t.Run("sentinel fields never match", func(t *testing.T) {
		s := passing5y()
		s.PredictReturn5yPct = snapshot.Sentinel
		if flags := engine.Evaluate(s); len(flags) != 0 {
			t.Errorf("flags = %v, want none", flags)
		}
	})

	t.Run("sentinel PEG is excluded by its growth leg", func(t *testing.T) {
		// -10 passes the PEG upper bound by itself; the builder only
		// emits it together with non-positive growth, and that leg
		// must reject the snapshot.
		s := passing5y()
		s.PEG = snapshot.Sentinel
		s.GrowthRatePct = snapshot.Sentinel
		if flags := engine.Evaluate(s); len(flags) != 0 {
			t.Errorf("flags = %v, want none", flags)
		}
	})

	t.Run("NaN growth never matches", func(t *testing.T) {
		s := passing5y()
		s.GrowthRatePct = math.NaN()
		if flags := engine.Evaluate(s); len(flags) != 0 {
			t.Errorf("flags = %v, want none", flags)
		}
	})
}

func TestScreen(t *testing.T) {
	engine := NewEngine(nil)

	miss := passing5y()
	miss.GrowthRatePct = 5

	results := engine.Screen([]*snapshot.Snapshot{miss, passing5y(), miss})
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Snapshot.StockCode != "sh.600519" {
		t.Errorf("unexpected result %v", results[0].Snapshot.StockCode)
	}
	if !results[0].Matched(RuleHighReturn5y) {
		t.Error("result should carry the R1 flag")
	}
}
