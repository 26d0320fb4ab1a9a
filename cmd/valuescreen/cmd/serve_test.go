package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/NealChanAI/stock-investment/internal/domain/market"
	"github.com/NealChanAI/stock-investment/internal/pkg/export"
	"github.com/NealChanAI/stock-investment/internal/service/calendar"
)

type fakeCalendarProvider struct {
	days    []market.TradeDay
	loginEr error
	logouts int
}

func (f *fakeCalendarProvider) Login(ctx context.Context) (*market.Session, error) {
	if f.loginEr != nil {
		return nil, f.loginEr
	}
	return &market.Session{Token: "t"}, nil
}

func (f *fakeCalendarProvider) Logout(ctx context.Context, sess *market.Session) error {
	f.logouts++
	return nil
}

func (f *fakeCalendarProvider) QueryTradeDates(ctx context.Context, sess *market.Session, start, end string) ([]market.TradeDay, error) {
	return f.days, nil
}

func (f *fakeCalendarProvider) QueryHistoryDailyMetrics(ctx context.Context, sess *market.Session, code, start, end string, fields []string) ([]market.MetricRow, error) {
	return nil, nil
}

func (f *fakeCalendarProvider) QueryIndexConstituents(ctx context.Context, sess *market.Session, indexID string) ([]market.Constituent, error) {
	return nil, nil
}

func writeListFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stocks.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRefreshJobRun(t *testing.T) {
	ctx := context.Background()
	fixedNow := func() time.Time {
		return time.Date(2025, 10, 1, 18, 0, 0, 0, time.UTC) // National Day
	}

	t.Run("skips the batch when the market is closed", func(t *testing.T) {
		provider := &fakeCalendarProvider{days: []market.TradeDay{
			{Date: "2025-10-01", Trading: false},
		}}
		// A nil runner would panic if the guard let the batch through.
		job := &refreshJob{
			provider: provider,
			calendar: calendar.NewService(provider),
			listPath: "does-not-exist.csv",
			now:      fixedNow,
		}

		if err := job.run(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if provider.logouts != 1 {
			t.Errorf("logouts = %d, want 1", provider.logouts)
		}
	})

	t.Run("proceeds past the calendar on a trading day", func(t *testing.T) {
		provider := &fakeCalendarProvider{days: []market.TradeDay{
			{Date: "2025-10-01", Trading: true},
		}}
		job := &refreshJob{
			provider: provider,
			calendar: calendar.NewService(provider),
			listPath: writeListFile(t, "code,code_name\n"),
			now:      fixedNow,
		}

		// An empty stock list aborts after the trading-day check, which
		// is far enough to show the guard opened.
		if err := job.run(ctx); !errors.Is(err, export.ErrEmptyStockList) {
			t.Errorf("got %v, want ErrEmptyStockList", err)
		}
	})

	t.Run("reports a login failure", func(t *testing.T) {
		provider := &fakeCalendarProvider{loginEr: market.ErrLoginFailed}
		job := &refreshJob{
			provider: provider,
			calendar: calendar.NewService(provider),
			listPath: "does-not-exist.csv",
			now:      fixedNow,
		}

		if err := job.run(ctx); !errors.Is(err, market.ErrLoginFailed) {
			t.Errorf("got %v, want ErrLoginFailed", err)
		}
	})
}
