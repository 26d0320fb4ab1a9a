package eastmoney

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestQueryAnalystReports(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/report/list" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("code"); got != "600519" {
			t.Errorf("code = %q", got)
		}
		w.Write([]byte(`{
			"TotalPage": 1,
			"hits": 3,
			"data": [
				{
					"stockCode": "600519",
					"stockName": "贵州茅台",
					"orgSName": "某证券",
					"publishDate": "2025-03-20 00:00:00",
					"predictPe2025": "20.15",
					"predictPe2026": "17.80",
					"predictPe2027": "15.95",
					"infoCode": "AP2025032012345"
				},
				{
					"stockCode": "600519",
					"stockName": "贵州茅台",
					"orgSName": "另一证券",
					"publishDate": "2025-03-18 00:00:00",
					"predictPe2025": "-",
					"predictPe2026": "",
					"predictPe2027": "16.20",
					"infoCode": ""
				},
				{
					"stockCode": "600519",
					"stockName": "贵州茅台",
					"orgSName": "坏行",
					"publishDate": "not a date",
					"predictPe2025": "20",
					"predictPe2026": "18",
					"predictPe2027": "16",
					"infoCode": "X"
				}
			]
		}`))
	}))
	defer srv.Close()

	reports, err := NewClient(srv.URL).QueryAnalystReports(context.Background(), "600519")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The unparseable-date row is dropped.
	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(reports))
	}

	first := reports[0]
	if first.Institution != "某证券" {
		t.Errorf("institution = %q", first.Institution)
	}
	if first.PredictPE2025 == nil || *first.PredictPE2025 != 20.15 {
		t.Errorf("pe2025 = %v", first.PredictPE2025)
	}
	if !first.Complete() {
		t.Error("first report should be complete")
	}
	if first.PDFLink != "https://pdf.dfcfw.com/pdf/H3_AP2025032012345_1.pdf" {
		t.Errorf("pdf link = %q", first.PDFLink)
	}

	second := reports[1]
	if second.PredictPE2025 != nil {
		t.Errorf("dash pe2025 should be nil, got %v", *second.PredictPE2025)
	}
	if second.PredictPE2026 != nil {
		t.Errorf("empty pe2026 should be nil")
	}
	if second.Complete() {
		t.Error("second report must be incomplete")
	}
	if second.PDFLink != "" {
		t.Errorf("pdf link = %q, want empty", second.PDFLink)
	}
	if !second.ReportDate.Before(first.ReportDate) {
		t.Error("publish dates should preserve API order semantics")
	}
}

func TestParseOptionalFloat(t *testing.T) {
	cases := []struct {
		in   string
		want *float64
	}{
		{"20.15", fp(20.15)},
		{" 1,234.5 ", fp(1234.5)},
		{"", nil},
		{"-", nil},
		{"abc", nil},
	}
	for _, c := range cases {
		got := parseOptionalFloat(c.in)
		switch {
		case c.want == nil && got != nil:
			t.Errorf("parseOptionalFloat(%q) = %v, want nil", c.in, *got)
		case c.want != nil && (got == nil || *got != *c.want):
			t.Errorf("parseOptionalFloat(%q) = %v, want %v", c.in, got, *c.want)
		}
	}
}

func fp(v float64) *float64 { return &v }
