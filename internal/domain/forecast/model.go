package forecast

import (
	"time"
)

// Report is one analyst research report row for a stock. The three
// forward P/E estimates come from the report's profit forecast table;
// nil means the report did not publish that year's estimate.
type Report struct {
	StockCode     string    `json:"stock_code"`
	StockName     string    `json:"stock_name"`
	Institution   string    `json:"institution"`
	ReportDate    time.Time `json:"report_date"`
	PredictPE2025 *float64  `json:"predict_pe_2025"`
	PredictPE2026 *float64  `json:"predict_pe_2026"`
	PredictPE2027 *float64  `json:"predict_pe_2027"`
	PDFLink       string    `json:"report_pdf_link"`
}

// Complete reports whether all three forward P/E estimates are present.
func (r Report) Complete() bool {
	return r.PredictPE2025 != nil && r.PredictPE2026 != nil && r.PredictPE2027 != nil
}

// GrowthEstimate is the output of the growth estimation over one stock's
// most recent analyst coverage cycle. MeanGrowthRate is a fraction
// (0.15 == 15%) and is NaN when no retained report produced a valid
// per-row growth value.
type GrowthEstimate struct {
	StockCode      string  `json:"stock_code"`
	StockName      string  `json:"stock_name"`
	Industry       string  `json:"industry"`
	MeanGrowthRate float64 `json:"mean_e_growth_rate"`
	ReportInfos    string  `json:"report_infos"`
}

// Profile is the stock master record from the profile source, used for
// the industry lookup.
type Profile struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Industry string `json:"industry"`
}

// CycleGapDays is the report-date gap that separates two analyst
// coverage cycles. Only the most recent cycle feeds the estimate.
const CycleGapDays = 30
