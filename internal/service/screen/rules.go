package screen

import (
	"github.com/NealChanAI/stock-investment/internal/domain/snapshot"
)

// Rule identifiers, stable across runs so exported flags stay
// comparable between files.
const (
	RuleHighReturn5y  = "R1"
	RuleHighReturn10y = "R2"
	RuleDualHorizon   = "R3"
)

// Threshold constants shared by the default rules. Return and growth
// thresholds are numeric percentages; PEG is a plain ratio.
const (
	minPredictReturnPct   = 30.0
	minGrowthPct          = 10.0
	minPredictPBReturnPct = 10.0
	maxPEG                = 1.5
)

// DefaultRules is the stock screen shipped with the analyzer:
//
//	R1: undervalued on the 5-year horizon
//	R2: undervalued on the 10-year horizon
//	R3: undervalued on both horizons at once
//
// Sentinel values (-10) fail every lower-bound threshold. A sentinel
// PEG would pass its upper bound on its own, but it only occurs with
// non-positive growth, which the growth leg rejects.
func DefaultRules() map[string]snapshot.Predicate {
	return map[string]snapshot.Predicate{
		RuleHighReturn5y: func(s *snapshot.Snapshot) bool {
			return s.PredictReturn5yPct > minPredictReturnPct &&
				s.PEG < maxPEG &&
				s.GrowthRatePct > minGrowthPct &&
				s.PredictPBReturn5yPct > minPredictPBReturnPct
		},
		RuleHighReturn10y: func(s *snapshot.Snapshot) bool {
			return s.PredictReturn10yPct > minPredictReturnPct &&
				s.PEG < maxPEG &&
				s.GrowthRatePct > minGrowthPct &&
				s.PredictPBReturn10yPct > minPredictPBReturnPct
		},
		RuleDualHorizon: func(s *snapshot.Snapshot) bool {
			return s.PredictReturn5yPct > minPredictReturnPct &&
				s.PredictReturn10yPct > minPredictReturnPct &&
				s.PEG < maxPEG &&
				s.GrowthRatePct > minGrowthPct &&
				s.PredictPBReturn5yPct > minPredictPBReturnPct
		},
	}
}
