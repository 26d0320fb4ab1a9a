package snapshot

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/NealChanAI/stock-investment/internal/domain/forecast"
	"github.com/NealChanAI/stock-investment/internal/domain/market"
	domainmetrics "github.com/NealChanAI/stock-investment/internal/domain/metrics"
	"github.com/NealChanAI/stock-investment/internal/domain/snapshot"
	"github.com/NealChanAI/stock-investment/internal/domain/stock"
	"github.com/NealChanAI/stock-investment/internal/service/calendar"
	"github.com/NealChanAI/stock-investment/internal/service/growth"
	"github.com/NealChanAI/stock-investment/internal/service/metrics"
)

// Builder assembles the full valuation snapshot for one stock at one
// anchor date. It owns the orchestration only; all arithmetic lives in
// the domain packages.
type Builder struct {
	calendar *calendar.Service
	metrics  *metrics.Service
	growth   *growth.Service

	seriesFloor  string // earliest date ever fetched, e.g. "2010-01-01"
	lookbackDays int
}

// NewBuilder creates the snapshot builder.
func NewBuilder(cal *calendar.Service, met *metrics.Service, gro *growth.Service, seriesFloor string, lookbackDays int) *Builder {
	return &Builder{
		calendar:     cal,
		metrics:      met,
		growth:       gro,
		seriesFloor:  seriesFloor,
		lookbackDays: lookbackDays,
	}
}

// Build computes the snapshot for code as of date. code may be bare
// ("601888") or prefixed ("sh.601888"); date resolves backwards to the
// nearest trading day.
func (b *Builder) Build(ctx context.Context, sess *market.Session, code, date string) (*snapshot.Snapshot, error) {
	prefixed, bare, err := stock.Normalize(code)
	if err != nil {
		return nil, fmt.Errorf("normalize code %q: %w", code, err)
	}

	anchorDate, err := b.calendar.LastTradingDateOnOrBefore(ctx, sess, date, b.lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("resolve anchor for %s: %w", prefixed, err)
	}
	anchor, err := time.Parse(market.DateLayout, anchorDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", market.ErrMalformedDate, anchorDate)
	}

	series, err := b.metrics.Fetch(ctx, sess, prefixed, b.seriesFloor, anchorDate)
	if err != nil {
		return nil, fmt.Errorf("fetch series for %s: %w", prefixed, err)
	}
	current := series.At(anchor)
	if current == nil {
		return nil, fmt.Errorf("%w: %s at %s", domainmetrics.ErrAnchorNotInSeries, prefixed, anchorDate)
	}

	peNow := deref(current.PeTTM)
	pbNow := deref(current.PbMRQ)

	// Means keep the anchor sample; minima drop it so "near the low"
	// screens cannot compare the current value against itself.
	meanPe5 := domainmetrics.MeanAndMinInWindow(series, anchor, 5, false, domainmetrics.FieldPeTTM)
	meanPe10 := domainmetrics.MeanAndMinInWindow(series, anchor, 10, false, domainmetrics.FieldPeTTM)
	meanPb5 := domainmetrics.MeanAndMinInWindow(series, anchor, 5, false, domainmetrics.FieldPbMRQ)
	meanPb10 := domainmetrics.MeanAndMinInWindow(series, anchor, 10, false, domainmetrics.FieldPbMRQ)
	minPe5 := domainmetrics.MeanAndMinInWindow(series, anchor, 5, true, domainmetrics.FieldPeTTM)
	minPe10 := domainmetrics.MeanAndMinInWindow(series, anchor, 10, true, domainmetrics.FieldPeTTM)
	minPb5 := domainmetrics.MeanAndMinInWindow(series, anchor, 5, true, domainmetrics.FieldPbMRQ)
	minPb10 := domainmetrics.MeanAndMinInWindow(series, anchor, 10, true, domainmetrics.FieldPbMRQ)

	est := b.estimateGrowth(ctx, bare)

	snap := &snapshot.Snapshot{
		AnchorDate: anchorDate,
		StockCode:  prefixed,
		StockName:  est.StockName,
		Industry:   est.Industry,

		PeTTM: peNow,
		PbMRQ: pbNow,

		MeanPeTTM5y:  meanPe5.Mean,
		MeanPeTTM10y: meanPe10.Mean,
		MeanPbMRQ5y:  meanPb5.Mean,
		MeanPbMRQ10y: meanPb10.Mean,

		MinPeTTM5y:  minPe5.Min,
		MinPeTTM10y: minPe10.Min,
		MinPbMRQ5y:  minPb5.Min,
		MinPbMRQ10y: minPb10.Min,

		GrowthRatePct:         snapshot.ToPct(est.MeanGrowthRate),
		PEG:                   snapshot.PEGRatio(peNow, est.MeanGrowthRate),
		PredictReturn5yPct:    snapshot.ToPct(snapshot.PredictReturn(peNow, meanPe5.Mean, est.MeanGrowthRate)),
		PredictReturn10yPct:   snapshot.ToPct(snapshot.PredictReturn(peNow, meanPe10.Mean, est.MeanGrowthRate)),
		PredictPBReturn5yPct:  snapshot.ToPct(snapshot.PredictPBReturn(pbNow, meanPb5.Mean)),
		PredictPBReturn10yPct: snapshot.ToPct(snapshot.PredictPBReturn(pbNow, meanPb10.Mean)),

		ReportInfos: est.ReportInfos,
		CreatedAt:   time.Now(),
	}

	log.Info().
		Str("code", prefixed).
		Str("anchor", anchorDate).
		Float64("pettm", peNow).
		Float64("peg", snap.PEG).
		Msg("Snapshot built")

	return snap, nil
}

// estimateGrowth degrades to a NaN-growth estimate on any forecast
// failure: the valuation half of the snapshot is still worth keeping.
func (b *Builder) estimateGrowth(ctx context.Context, bare string) *forecast.GrowthEstimate {
	est, err := b.growth.Estimate(ctx, bare)
	if err != nil {
		log.Warn().Err(err).Str("code", bare).Msg("Growth estimate unavailable")
		return &forecast.GrowthEstimate{StockCode: bare, MeanGrowthRate: math.NaN()}
	}
	return est
}

func deref(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
