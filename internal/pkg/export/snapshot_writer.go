package export

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/NealChanAI/stock-investment/internal/domain/metrics"
	"github.com/NealChanAI/stock-investment/internal/domain/snapshot"
)

// Decimal places per column family. Raw snapshot values stay at full
// precision; rounding happens only here.
const (
	dpPE     = 1 // P/E levels and PEG
	dpPB     = 2 // P/B levels
	dpReturn = 2 // growth and return percentages
)

const timestampLayout = "20060102_150405"

// snapshotHeader is the exported column order. Trough-band columns sit
// after the model outputs so spreadsheets stay readable left to right.
var snapshotHeader = []string{
	"target_date", "stock_code", "stock_name", "industry",
	"pettm_at_date", "mean_pettm_5y", "mean_pettm_10y",
	"min_pettm_5y_excl_current", "min_pettm_10y_excl_current",
	"pbmrq_at_date", "mean_pbmrq_5y", "mean_pbmrq_10y",
	"min_pbmrq_5y_excl_current", "min_pbmrq_10y_excl_current",
	"mean_e_growth_rate", "peg",
	"predict_revenue_5y", "predict_revenue_10y",
	"predict_pb_return_5y", "predict_pb_return_10y",
	"pettm_trough_low_5y", "pettm_trough_high_5y", "in_pettm_trough_5y",
	"pettm_trough_low_10y", "pettm_trough_high_10y", "in_pettm_trough_10y",
	"pbmrq_trough_low_5y", "pbmrq_trough_high_5y", "in_pbmrq_trough_5y",
	"pbmrq_trough_low_10y", "pbmrq_trough_high_10y", "in_pbmrq_trough_10y",
	"report_infos",
}

// SnapshotWriter renders finished snapshots to timestamped files under
// a fixed output directory.
type SnapshotWriter struct {
	dir string
	now func() time.Time
}

// NewSnapshotWriter creates a writer rooted at dir, creating it when
// missing.
func NewSnapshotWriter(dir string) (*SnapshotWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}
	return &SnapshotWriter{dir: dir, now: time.Now}, nil
}

// WriteXLSX writes snapshots to <name>_<timestamp>.xlsx and returns the
// full path.
func (w *SnapshotWriter) WriteXLSX(name string, snaps []*snapshot.Snapshot) (string, error) {
	path := filepath.Join(w.dir, fmt.Sprintf("%s_%s.xlsx", name, w.now().Format(timestampLayout)))

	rows := make([][]string, 0, len(snaps)+1)
	rows = append(rows, snapshotHeader)
	for _, s := range snaps {
		rows = append(rows, snapshotRow(s))
	}
	if err := writeXLSX(path, rows); err != nil {
		return "", err
	}

	log.Info().Str("path", path).Int("rows", len(snaps)).Msg("Snapshot workbook written")
	return path, nil
}

// WriteCSV writes snapshots to <name>_<timestamp>.csv and returns the
// full path.
func (w *SnapshotWriter) WriteCSV(name string, snaps []*snapshot.Snapshot) (string, error) {
	path := filepath.Join(w.dir, fmt.Sprintf("%s_%s.csv", name, w.now().Format(timestampLayout)))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(snapshotHeader); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, s := range snaps {
		if err := cw.Write(snapshotRow(s)); err != nil {
			return "", fmt.Errorf("write row for %s: %w", s.StockCode, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flush %s: %w", path, err)
	}

	log.Info().Str("path", path).Int("rows", len(snaps)).Msg("Snapshot CSV written")
	return path, nil
}

// WriteScreening writes matched screening results to
// <name>_filtered_<timestamp>.xlsx, appending a matched_rules column.
func (w *SnapshotWriter) WriteScreening(name string, results []snapshot.ScreeningResult) (string, error) {
	path := filepath.Join(w.dir, fmt.Sprintf("%s_filtered_%s.xlsx", name, w.now().Format(timestampLayout)))

	header := append(append([]string{}, snapshotHeader...), "matched_rules")
	rows := make([][]string, 0, len(results)+1)
	rows = append(rows, header)
	for _, res := range results {
		row := append(snapshotRow(res.Snapshot), strings.Join(res.RuleFlags, ","))
		rows = append(rows, row)
	}
	if err := writeXLSX(path, rows); err != nil {
		return "", err
	}

	log.Info().Str("path", path).Int("rows", len(results)).Msg("Screening workbook written")
	return path, nil
}

func writeXLSX(path string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("coordinates for row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func snapshotRow(s *snapshot.Snapshot) []string {
	return []string{
		s.AnchorDate, s.StockCode, s.StockName, s.Industry,
		roundVal(s.PeTTM, dpPE), roundPtr(s.MeanPeTTM5y, dpPE), roundPtr(s.MeanPeTTM10y, dpPE),
		roundPtr(s.MinPeTTM5y, dpPE), roundPtr(s.MinPeTTM10y, dpPE),
		roundVal(s.PbMRQ, dpPB), roundPtr(s.MeanPbMRQ5y, dpPB), roundPtr(s.MeanPbMRQ10y, dpPB),
		roundPtr(s.MinPbMRQ5y, dpPB), roundPtr(s.MinPbMRQ10y, dpPB),
		roundVal(s.GrowthRatePct, dpReturn), roundVal(s.PEG, dpPE),
		roundVal(s.PredictReturn5yPct, dpReturn), roundVal(s.PredictReturn10yPct, dpReturn),
		roundVal(s.PredictPBReturn5yPct, dpReturn), roundVal(s.PredictPBReturn10yPct, dpReturn),

		troughLow(s.MinPeTTM5y, dpPE), troughHigh(s.MinPeTTM5y, dpPE), inBand(s.PeTTM, s.MinPeTTM5y),
		troughLow(s.MinPeTTM10y, dpPE), troughHigh(s.MinPeTTM10y, dpPE), inBand(s.PeTTM, s.MinPeTTM10y),
		troughLow(s.MinPbMRQ5y, dpPB), troughHigh(s.MinPbMRQ5y, dpPB), inBand(s.PbMRQ, s.MinPbMRQ5y),
		troughLow(s.MinPbMRQ10y, dpPB), troughHigh(s.MinPbMRQ10y, dpPB), inBand(s.PbMRQ, s.MinPbMRQ10y),

		s.ReportInfos,
	}
}

func troughLow(min *float64, places int) string {
	low, _, ok := metrics.TroughBand(min)
	if !ok {
		return ""
	}
	return roundVal(low, places)
}

func troughHigh(min *float64, places int) string {
	_, high, ok := metrics.TroughBand(min)
	if !ok {
		return ""
	}
	return roundVal(high, places)
}

func inBand(current float64, min *float64) string {
	if math.IsNaN(current) {
		return "false"
	}
	return fmt.Sprintf("%t", metrics.InTroughBand(current, min))
}

// roundVal renders a float at fixed precision; NaN and infinities
// become empty cells.
func roundVal(v float64, places int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return decimal.NewFromFloat(v).Round(int32(places)).String()
}

func roundPtr(v *float64, places int) string {
	if v == nil {
		return ""
	}
	return roundVal(*v, places)
}
