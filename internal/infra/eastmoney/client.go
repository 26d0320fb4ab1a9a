package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/NealChanAI/stock-investment/internal/domain/forecast"
)

const (
	defaultTimeout = 30 * time.Second
	pdfLinkFormat  = "https://pdf.dfcfw.com/pdf/H3_%s_1.pdf"
	profileURLFmt  = "https://quote.eastmoney.com/%s.html"

	// publishDate comes back with a time-of-day part.
	publishDateLayout = "2006-01-02 15:04:05"
)

// Client fetches analyst research reports and stock profiles from the
// East Money report API. It implements forecast.Source.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a new report client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
	}
}

// NewClientWithTimeout creates a client with a custom request timeout.
func NewClientWithTimeout(baseURL string, timeout time.Duration) *Client {
	c := NewClient(baseURL)
	c.httpClient.Timeout = timeout
	return c
}

// =============================================================================
// API Response Types
// =============================================================================

// listResponse is the report list API envelope.
type listResponse struct {
	TotalPage int         `json:"TotalPage"`
	Hits      int         `json:"hits"`
	Data      []reportDTO `json:"data"`
}

// reportDTO is one research report item. Forecast P/Es arrive as text
// and may be empty or "-" when the report skipped a year.
type reportDTO struct {
	StockCode     string `json:"stockCode"`
	StockName     string `json:"stockName"`
	OrgName       string `json:"orgSName"`
	PublishDate   string `json:"publishDate"`
	PredictPE2025 string `json:"predictPe2025"`
	PredictPE2026 string `json:"predictPe2026"`
	PredictPE2027 string `json:"predictPe2027"`
	InfoCode      string `json:"infoCode"`
}

// =============================================================================
// Analyst reports
// =============================================================================

// QueryAnalystReports returns all research report rows for a bare
// 6-digit stock code, newest page first as served by the API.
func (c *Client) QueryAnalystReports(ctx context.Context, code string) ([]forecast.Report, error) {
	reqURL := fmt.Sprintf("%s/report/list?code=%s&pageSize=100&pageNo=1", c.baseURL, code)

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("report API error: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	var list listResponse
	if err := json.Unmarshal(respBody, &list); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	reports := make([]forecast.Report, 0, len(list.Data))
	for _, dto := range list.Data {
		r, err := convertReport(dto)
		if err != nil {
			// Bad rows are dropped, not fatal; upstream data is dirty.
			log.Debug().Err(err).Str("code", code).Msg("Skipping malformed report row")
			continue
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// convertReport maps a report DTO into the domain record, coercing the
// text P/E estimates. Unparseable estimates become nil.
func convertReport(dto reportDTO) (forecast.Report, error) {
	date, err := time.Parse(publishDateLayout, dto.PublishDate)
	if err != nil {
		// Some rows carry bare dates.
		date, err = time.Parse("2006-01-02", dto.PublishDate)
		if err != nil {
			return forecast.Report{}, fmt.Errorf("parse publish date %q: %w", dto.PublishDate, err)
		}
	}

	r := forecast.Report{
		StockCode:     dto.StockCode,
		StockName:     dto.StockName,
		Institution:   dto.OrgName,
		ReportDate:    date,
		PredictPE2025: parseOptionalFloat(dto.PredictPE2025),
		PredictPE2026: parseOptionalFloat(dto.PredictPE2026),
		PredictPE2027: parseOptionalFloat(dto.PredictPE2027),
	}
	if dto.InfoCode != "" {
		r.PDFLink = fmt.Sprintf(pdfLinkFormat, dto.InfoCode)
	}
	return r, nil
}

// =============================================================================
// Stock profile (industry lookup)
// =============================================================================

// QueryStockProfile scrapes the stock's quote page for its profile.
// Used for the industry field only; callers treat failures as non-fatal.
func (c *Client) QueryStockProfile(ctx context.Context, code string) (*forecast.Profile, error) {
	reqURL := fmt.Sprintf(profileURLFmt, code)

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile page error: status=%d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	profile := &forecast.Profile{Code: code}
	profile.Name = strings.TrimSpace(doc.Find(".quote_title .name").First().Text())

	// The overview table is item/value pairs; pick the industry row.
	doc.Find(".company-overview tr").EachWithBreak(func(i int, s *goquery.Selection) bool {
		item := strings.TrimSpace(s.Find("th").Text())
		if item == "行业" || strings.EqualFold(item, "industry") {
			profile.Industry = strings.TrimSpace(s.Find("td").Text())
			return false
		}
		return true
	})

	if profile.Industry == "" && profile.Name == "" {
		return nil, forecast.ErrProfileNotFound
	}
	return profile, nil
}

// parseOptionalFloat coerces text to a float pointer; empty, "-" and
// unparseable values map to nil.
func parseOptionalFloat(s string) *float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" || s == "-" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
