package export

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/NealChanAI/stock-investment/internal/domain/snapshot"
)

func fp(v float64) *float64 { return &v }

func sampleSnapshot() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		AnchorDate: "2025-04-03",
		StockCode:  "sh.600519",
		StockName:  "贵州茅台",
		Industry:   "白酒",
		PeTTM:      22.4567,
		PbMRQ:      8.1345,

		MeanPeTTM5y:  fp(30.1234),
		MeanPeTTM10y: fp(32.5),
		MeanPbMRQ5y:  fp(9.876),
		MeanPbMRQ10y: fp(10.2),

		MinPeTTM5y:  fp(20.0),
		MinPeTTM10y: fp(18.0),
		MinPbMRQ5y:  fp(7.0),
		MinPbMRQ10y: fp(6.5),

		GrowthRatePct:         15.4321,
		PEG:                   1.4567,
		PredictReturn5yPct:    33.333,
		PredictReturn10yPct:   28.888,
		PredictPBReturn5yPct:  21.4,
		PredictPBReturn10yPct: snapshot.Sentinel,

		ReportInfos: "2025-03-20  机构A  20.00  15.00  10.00  a.pdf",
	}
}

func TestReadStockList(t *testing.T) {
	dir := t.TempDir()

	t.Run("reads codes and names, deduplicating", func(t *testing.T) {
		path := filepath.Join(dir, "list.csv")
		content := "code,code_name\n600519,贵州茅台\n601888, 中国中免 \n600519,重复\n\n000001,平安银行\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		entries, err := ReadStockList(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []ListEntry{
			{Code: "600519", Name: "贵州茅台"},
			{Code: "601888", Name: "中国中免"},
			{Code: "000001", Name: "平安银行"},
		}
		if len(entries) != len(want) {
			t.Fatalf("got %d entries, want %d", len(entries), len(want))
		}
		for i := range want {
			if entries[i] != want[i] {
				t.Errorf("entries[%d] = %+v, want %+v", i, entries[i], want[i])
			}
		}
		if codes := Codes(entries); codes[0] != "600519" {
			t.Errorf("codes[0] = %s", codes[0])
		}
	})

	t.Run("fails a header without a code column", func(t *testing.T) {
		path := filepath.Join(dir, "bad.csv")
		if err := os.WriteFile(path, []byte("foo,bar\n1,2\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := ReadStockList(path); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("fails an empty list", func(t *testing.T) {
		path := filepath.Join(dir, "empty.csv")
		if err := os.WriteFile(path, []byte("code,code_name\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := ReadStockList(path); err == nil {
			t.Error("expected ErrEmptyStockList")
		}
	})
}

func TestSnapshotRowRounding(t *testing.T) {
	row := snapshotRow(sampleSnapshot())
	byName := make(map[string]string, len(snapshotHeader))
	for i, col := range snapshotHeader {
		byName[col] = row[i]
	}

	cases := map[string]string{
		"pettm_at_date":         "22.5", // one place for P/E levels
		"mean_pettm_5y":         "30.1",
		"pbmrq_at_date":         "8.13", // two places for P/B levels
		"mean_e_growth_rate":    "15.43",
		"peg":                   "1.5",
		"predict_revenue_5y":    "33.33",
		"predict_pb_return_10y": "-10", // sentinel survives rounding
		"pettm_trough_low_5y":   "17",  // 20 * 0.85
		"pettm_trough_high_5y":  "23",
		"in_pettm_trough_5y":    "true", // 22.46 inside [17, 23]
		"in_pbmrq_trough_5y":    "false",
	}
	for col, want := range cases {
		if byName[col] != want {
			t.Errorf("%s = %q, want %q", col, byName[col], want)
		}
	}
}

func TestSnapshotRowMissingValues(t *testing.T) {
	s := sampleSnapshot()
	s.MeanPeTTM10y = nil
	s.MinPeTTM10y = nil
	s.GrowthRatePct = math.NaN()

	row := snapshotRow(s)
	byName := make(map[string]string, len(snapshotHeader))
	for i, col := range snapshotHeader {
		byName[col] = row[i]
	}

	if byName["mean_pettm_10y"] != "" {
		t.Errorf("nil mean should be empty, got %q", byName["mean_pettm_10y"])
	}
	if byName["pettm_trough_low_10y"] != "" {
		t.Errorf("nil min should blank the band, got %q", byName["pettm_trough_low_10y"])
	}
	if byName["in_pettm_trough_10y"] != "false" {
		t.Errorf("nil min should fail the band test, got %q", byName["in_pettm_trough_10y"])
	}
	if byName["mean_e_growth_rate"] != "" {
		t.Errorf("NaN should be empty, got %q", byName["mean_e_growth_rate"])
	}
}

func TestWriteCSV(t *testing.T) {
	w, err := NewSnapshotWriter(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	w.now = func() time.Time { return time.Date(2025, 4, 3, 15, 4, 5, 0, time.UTC) }

	path, err := w.WriteCSV("all_stocks", []*snapshot.Snapshot{sampleSnapshot()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(path) != "all_stocks_20250403_150405.csv" {
		t.Errorf("file name = %s", filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0][0] != "target_date" {
		t.Errorf("header starts with %q", records[0][0])
	}
	if records[1][1] != "sh.600519" {
		t.Errorf("row code = %q", records[1][1])
	}
}

func TestWriteScreeningName(t *testing.T) {
	w, err := NewSnapshotWriter(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	w.now = func() time.Time { return time.Date(2025, 4, 3, 15, 4, 5, 0, time.UTC) }

	results := []snapshot.ScreeningResult{
		{Snapshot: sampleSnapshot(), RuleFlags: []string{"R1", "R3"}},
	}
	path, err := w.WriteScreening("all_stocks", results)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(filepath.Base(path), "_filtered_20250403_150405.xlsx") {
		t.Errorf("file name = %s", filepath.Base(path))
	}
}
