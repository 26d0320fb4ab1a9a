package growth

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/NealChanAI/stock-investment/internal/domain/forecast"
)

type fakeSource struct {
	reports []forecast.Report
	repErr  error
	profile *forecast.Profile
	profErr error
}

func (f *fakeSource) QueryAnalystReports(ctx context.Context, code string) ([]forecast.Report, error) {
	return f.reports, f.repErr
}
func (f *fakeSource) QueryStockProfile(ctx context.Context, code string) (*forecast.Profile, error) {
	if f.profErr != nil {
		return nil, f.profErr
	}
	return f.profile, nil
}

func fp(v float64) *float64 { return &v }

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestEstimate(t *testing.T) {
	ctx := context.Background()

	t.Run("averages growth over the current cycle only", func(t *testing.T) {
		// Third report is 7+ months older than the second: a prior
		// cycle, which must be dropped.
		src := &fakeSource{reports: []forecast.Report{
			{StockCode: "600519", StockName: "贵州茅台", Institution: "A", ReportDate: day("2025-01-15"),
				PredictPE2025: fp(20), PredictPE2026: fp(15), PredictPE2027: fp(10), PDFLink: "a.pdf"},
			{StockCode: "600519", StockName: "贵州茅台", Institution: "B", ReportDate: day("2025-01-01"),
				PredictPE2025: fp(18), PredictPE2026: fp(14), PredictPE2027: fp(8), PDFLink: "b.pdf"},
			{StockCode: "600519", StockName: "贵州茅台", Institution: "C", ReportDate: day("2024-06-01"),
				PredictPE2025: fp(40), PredictPE2026: fp(35), PredictPE2027: fp(30), PDFLink: "c.pdf"},
		}}
		svc := NewService(src)

		est, err := svc.Estimate(ctx, "600519")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := ((math.Sqrt(2.0) - 1) + (math.Sqrt(18.0/8.0) - 1)) / 2
		if math.Abs(est.MeanGrowthRate-want) > 1e-12 {
			t.Errorf("mean growth = %v, want %v", est.MeanGrowthRate, want)
		}
		if est.StockName != "贵州茅台" {
			t.Errorf("stock name = %q", est.StockName)
		}
		lines := strings.Split(est.ReportInfos, "\n")
		if len(lines) != 2 {
			t.Fatalf("got %d report lines, want 2", len(lines))
		}
		if !strings.HasPrefix(lines[0], "A  2025-01-15") {
			t.Errorf("first line = %q", lines[0])
		}
	})

	t.Run("excludes non-positive forward P/E from the mean", func(t *testing.T) {
		src := &fakeSource{reports: []forecast.Report{
			{Institution: "A", ReportDate: day("2025-01-10"),
				PredictPE2025: fp(20), PredictPE2026: fp(15), PredictPE2027: fp(10)},
			{Institution: "B", ReportDate: day("2025-01-09"),
				PredictPE2025: fp(-5), PredictPE2026: fp(15), PredictPE2027: fp(10)},
		}}
		svc := NewService(src)

		est, err := svc.Estimate(ctx, "600519")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := math.Sqrt(2.0) - 1
		if math.Abs(est.MeanGrowthRate-want) > 1e-12 {
			t.Errorf("mean growth = %v, want %v", est.MeanGrowthRate, want)
		}
	})

	t.Run("NaN mean when no report carries a usable P/E pair", func(t *testing.T) {
		src := &fakeSource{reports: []forecast.Report{
			{Institution: "A", ReportDate: day("2025-01-10"),
				PredictPE2025: fp(-1), PredictPE2026: fp(15), PredictPE2027: fp(-2)},
		}}
		svc := NewService(src)

		est, err := svc.Estimate(ctx, "600519")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !math.IsNaN(est.MeanGrowthRate) {
			t.Errorf("mean growth = %v, want NaN", est.MeanGrowthRate)
		}
	})

	t.Run("skips reports with missing forecasts", func(t *testing.T) {
		src := &fakeSource{reports: []forecast.Report{
			{Institution: "A", ReportDate: day("2025-01-10"),
				PredictPE2025: fp(20), PredictPE2026: nil, PredictPE2027: fp(10)},
			{Institution: "B", ReportDate: day("2025-01-09"),
				PredictPE2025: fp(16), PredictPE2026: fp(12), PredictPE2027: fp(4)},
		}}
		svc := NewService(src)

		est, err := svc.Estimate(ctx, "600519")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := math.Sqrt(4.0) - 1
		if math.Abs(est.MeanGrowthRate-want) > 1e-12 {
			t.Errorf("mean growth = %v, want %v", est.MeanGrowthRate, want)
		}
	})

	t.Run("returns ErrNoForecastData for zero reports", func(t *testing.T) {
		svc := NewService(&fakeSource{})

		_, err := svc.Estimate(ctx, "600519")
		if !errors.Is(err, forecast.ErrNoForecastData) {
			t.Errorf("got %v, want ErrNoForecastData", err)
		}
	})

	t.Run("a profile failure leaves industry empty without failing the estimate", func(t *testing.T) {
		src := &fakeSource{
			reports: []forecast.Report{
				{Institution: "A", ReportDate: day("2025-01-10"),
					PredictPE2025: fp(20), PredictPE2026: fp(15), PredictPE2027: fp(10)},
			},
			profErr: forecast.ErrProfileNotFound,
		}
		svc := NewService(src)

		est, err := svc.Estimate(ctx, "600519")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if est.Industry != "" {
			t.Errorf("industry = %q, want empty", est.Industry)
		}
	})

	t.Run("industry comes from the stock profile", func(t *testing.T) {
		src := &fakeSource{
			reports: []forecast.Report{
				{Institution: "A", ReportDate: day("2025-01-10"),
					PredictPE2025: fp(20), PredictPE2026: fp(15), PredictPE2027: fp(10)},
			},
			profile: &forecast.Profile{Code: "600519", Name: "贵州茅台", Industry: "白酒"},
		}
		svc := NewService(src)

		est, err := svc.Estimate(ctx, "600519")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if est.Industry != "白酒" {
			t.Errorf("industry = %q, want 白酒", est.Industry)
		}
	})
}

func TestCurrentCycle(t *testing.T) {
	reports := []forecast.Report{
		{ReportDate: day("2025-01-15")},
		{ReportDate: day("2025-01-01")}, // 14 days, kept
		{ReportDate: day("2024-06-01")}, // 214 days, cut here
		{ReportDate: day("2024-05-20")},
	}
	cycle := currentCycle(reports)
	if len(cycle) != 2 {
		t.Fatalf("cycle length = %d, want 2", len(cycle))
	}
}
