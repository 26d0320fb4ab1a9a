package growth

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/NealChanAI/stock-investment/internal/domain/forecast"
)

// Service turns raw analyst reports into a single growth estimate per
// stock.
type Service struct {
	source forecast.Source
}

// NewService creates the growth service.
func NewService(source forecast.Source) *Service {
	return &Service{source: source}
}

// Estimate fetches the analyst reports for code, keeps the most recent
// publication cycle, and averages the implied two-year growth rates.
// Zero reports is ErrNoForecastData; reports that survive the cycle cut
// but carry no usable P/E pair yield a NaN mean, which the caller maps
// to sentinels downstream.
func (s *Service) Estimate(ctx context.Context, code string) (*forecast.GrowthEstimate, error) {
	reports, err := s.source.QueryAnalystReports(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("query analyst reports for %s: %w", code, err)
	}
	if len(reports) == 0 {
		return nil, fmt.Errorf("%w: %s", forecast.ErrNoForecastData, code)
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].ReportDate.After(reports[j].ReportDate)
	})
	cycle := currentCycle(reports)

	est := &forecast.GrowthEstimate{
		StockCode:      code,
		StockName:      stockName(cycle),
		MeanGrowthRate: math.NaN(),
	}

	var (
		sum   float64
		count int
		infos []string
	)
	for _, r := range cycle {
		if !r.Complete() {
			continue
		}
		g := impliedGrowth(*r.PredictPE2025, *r.PredictPE2027)
		infos = append(infos, reportLine(r, g))

		if math.IsNaN(g) {
			continue
		}
		sum += g
		count++
	}
	if count > 0 {
		est.MeanGrowthRate = sum / float64(count)
	}
	est.ReportInfos = strings.Join(infos, "\n")

	if profile, err := s.source.QueryStockProfile(ctx, code); err == nil {
		est.Industry = profile.Industry
		if est.StockName == "" {
			est.StockName = profile.Name
		}
	} else {
		log.Debug().Err(err).Str("code", code).Msg("Stock profile unavailable")
	}

	log.Debug().
		Str("code", code).
		Int("reports", len(reports)).
		Int("cycle", len(cycle)).
		Int("usable", count).
		Msg("Growth estimate computed")

	return est, nil
}

// currentCycle returns the prefix of desc-sorted reports up to (not
// including) the first gap of more than CycleGapDays between adjacent
// publication dates. Older cycles restate stale assumptions and would
// drag the mean.
func currentCycle(reports []forecast.Report) []forecast.Report {
	cut := len(reports)
	for i := 1; i < len(reports); i++ {
		gap := reports[i-1].ReportDate.Sub(reports[i].ReportDate)
		if gap > forecast.CycleGapDays*24*time.Hour {
			cut = i
			break
		}
	}
	return reports[:cut]
}

// impliedGrowth derives the annualized growth from the forward P/E
// ratio: earnings doubling over two years halves the forward P/E.
// Non-positive inputs give NaN.
func impliedGrowth(pe2025, pe2027 float64) float64 {
	if pe2025 <= 0 || pe2027 <= 0 {
		return math.NaN()
	}
	return math.Sqrt(pe2025/pe2027) - 1
}

func stockName(reports []forecast.Report) string {
	for _, r := range reports {
		if r.StockName != "" {
			return r.StockName
		}
	}
	return ""
}

// reportLine renders one audit line per retained report: institution,
// date, the three forward P/Es, the per-row growth and the PDF link.
func reportLine(r forecast.Report, growth float64) string {
	return strings.Join([]string{
		r.Institution,
		r.ReportDate.Format("2006-01-02"),
		fmt.Sprintf("%.2f", *r.PredictPE2025),
		fmt.Sprintf("%.2f", *r.PredictPE2026),
		fmt.Sprintf("%.2f", *r.PredictPE2027),
		fmt.Sprintf("%.4f", growth),
		r.PDFLink,
	}, "  ")
}
