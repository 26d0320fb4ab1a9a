package snapshot

import (
	"encoding/json"
	"math"
	"time"
)

// Sentinel marks a derived value whose model precondition failed
// (non-positive growth, price ratio or historical mean). Kept as -10
// rather than NaN so downstream rule thresholds compare cleanly.
const Sentinel = -10.0

// Snapshot is the merged per-stock valuation record of one analysis run.
// Built once, never mutated; the screening engine reads it as-is.
// Raw percentage-valued fields are stored as numeric percentages
// (value x 100); rounding happens only at export time.
type Snapshot struct {
	AnchorDate string `json:"target_date" db:"anchor_date"`
	StockCode  string `json:"stock_code" db:"stock_code"` // exchange-prefixed, e.g. sh.601888
	StockName  string `json:"stock_name" db:"stock_name"`
	Industry   string `json:"industry" db:"industry"`

	// Current values at the anchor trading date.
	PeTTM float64 `json:"pettm_at_date" db:"pettm"`
	PbMRQ float64 `json:"pbmrq_at_date" db:"pbmrq"`

	// Rolling-window means (anchor included).
	MeanPeTTM5y  *float64 `json:"mean_pettm_5y" db:"mean_pettm_5y"`
	MeanPeTTM10y *float64 `json:"mean_pettm_10y" db:"mean_pettm_10y"`
	MeanPbMRQ5y  *float64 `json:"mean_pbmrq_5y" db:"mean_pbmrq_5y"`
	MeanPbMRQ10y *float64 `json:"mean_pbmrq_10y" db:"mean_pbmrq_10y"`

	// Rolling-window minima, anchor excluded.
	MinPeTTM5y  *float64 `json:"min_pettm_5y_excl_current" db:"min_pettm_5y"`
	MinPeTTM10y *float64 `json:"min_pettm_10y_excl_current" db:"min_pettm_10y"`
	MinPbMRQ5y  *float64 `json:"min_pbmrq_5y_excl_current" db:"min_pbmrq_5y"`
	MinPbMRQ10y *float64 `json:"min_pbmrq_10y_excl_current" db:"min_pbmrq_10y"`

	// Growth and derived figures. GrowthRatePct may be NaN when no
	// valid forecast row survived filtering.
	GrowthRatePct         float64 `json:"mean_e_growth_rate" db:"growth_rate_pct"`
	PEG                   float64 `json:"peg" db:"peg"`
	PredictReturn5yPct    float64 `json:"predict_revenue_5y" db:"predict_return_5y_pct"`
	PredictReturn10yPct   float64 `json:"predict_revenue_10y" db:"predict_return_10y_pct"`
	PredictPBReturn5yPct  float64 `json:"predict_pb_return_5y" db:"predict_pb_return_5y_pct"`
	PredictPBReturn10yPct float64 `json:"predict_pb_return_10y" db:"predict_pb_return_10y_pct"`

	ReportInfos string    `json:"report_infos" db:"report_infos"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// MarshalJSON writes the NaN-capable numeric fields as null.
// encoding/json rejects NaN outright, which would abort a response
// body mid-write after the status line has already gone out.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	type plain Snapshot
	return json.Marshal(struct {
		plain
		PeTTM                 *float64 `json:"pettm_at_date"`
		PbMRQ                 *float64 `json:"pbmrq_at_date"`
		GrowthRatePct         *float64 `json:"mean_e_growth_rate"`
		PEG                   *float64 `json:"peg"`
		PredictReturn5yPct    *float64 `json:"predict_revenue_5y"`
		PredictReturn10yPct   *float64 `json:"predict_revenue_10y"`
		PredictPBReturn5yPct  *float64 `json:"predict_pb_return_5y"`
		PredictPBReturn10yPct *float64 `json:"predict_pb_return_10y"`
	}{
		plain:                 plain(s),
		PeTTM:                 jsonNumber(s.PeTTM),
		PbMRQ:                 jsonNumber(s.PbMRQ),
		GrowthRatePct:         jsonNumber(s.GrowthRatePct),
		PEG:                   jsonNumber(s.PEG),
		PredictReturn5yPct:    jsonNumber(s.PredictReturn5yPct),
		PredictReturn10yPct:   jsonNumber(s.PredictReturn10yPct),
		PredictPBReturn5yPct:  jsonNumber(s.PredictPBReturn5yPct),
		PredictPBReturn10yPct: jsonNumber(s.PredictPBReturn10yPct),
	})
}

// jsonNumber returns nil for values JSON cannot represent.
func jsonNumber(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// PEGRatio derives P/E over expected percentage growth. growth is a
// fraction; the result divides by growth*100 so PEG ~ 1 means P/E equal
// to the growth percentage. Non-positive (or NaN) growth yields the
// sentinel.
func PEGRatio(peNow, growth float64) float64 {
	if !(growth > 0) {
		return Sentinel
	}
	return peNow / (growth * 100)
}

// PredictReturn derives the mean-reversion expected return for the P/E
// ratio: sqrt(meanPE/peNow)*(1+growth)-1, assuming the ratio reverts to
// its window mean while earnings compound at growth. Undefined when
// either price ratio is non-positive or the mean is unknown.
func PredictReturn(peNow float64, meanPE *float64, growth float64) float64 {
	if meanPE == nil || peNow <= 0 || *meanPE <= 0 {
		return Sentinel
	}
	// A NaN growth (no valid forecast rows) flows through as NaN here;
	// that is accepted input noise, not a sentinel case.
	return math.Sqrt(*meanPE/peNow)*(1+growth) - 1
}

// PredictPBReturn derives the plain mean-reversion return for the P/B
// ratio: meanPB/pbNow - 1.
func PredictPBReturn(pbNow float64, meanPB *float64) float64 {
	if meanPB == nil || pbNow <= 0 || *meanPB <= 0 {
		return Sentinel
	}
	return *meanPB / pbNow - 1
}

// ToPct scales a fraction to a numeric percentage, passing the sentinel
// through unscaled.
func ToPct(v float64) float64 {
	if v == Sentinel {
		return Sentinel
	}
	return v * 100
}
