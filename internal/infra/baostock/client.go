package baostock

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/NealChanAI/stock-investment/internal/domain/market"
)

const (
	defaultTimeout = 30 * time.Second

	// Provider result codes.
	codeOK             = "0"
	codeSessionExpired = "10001"
)

// Client talks to the baostock HTTP gateway. It implements
// market.Provider; every query carries an explicit session token.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new provider client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// NewClientWithTimeout creates a client with a custom request timeout.
func NewClientWithTimeout(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// =============================================================================
// Response envelopes
// =============================================================================

// envelope is the common gateway response wrapper. Record rows come back
// positionally under fields, same as the upstream rowset protocol.
type envelope struct {
	ErrorCode string     `json:"error_code"`
	ErrorMsg  string     `json:"error_msg"`
	Fields    []string   `json:"fields"`
	Data      [][]string `json:"data"`
}

// loginResponse is the login endpoint payload.
type loginResponse struct {
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
	Token     string `json:"access_token"`
	UserID    string `json:"user_id"`
	ExpiresIn int    `json:"expires_in"` // seconds
}

// =============================================================================
// Session lifecycle
// =============================================================================

// Login opens a new provider session. Anonymous access is allowed
// upstream, so no credentials are sent.
func (c *Client) Login(ctx context.Context) (*market.Session, error) {
	body, err := c.post(ctx, "/api/v1/login", map[string]string{})
	if err != nil {
		return nil, err
	}

	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal login response: %w", err)
	}
	if resp.ErrorCode != codeOK {
		return nil, fmt.Errorf("%w: code=%s msg=%s", market.ErrLoginFailed, resp.ErrorCode, resp.ErrorMsg)
	}

	now := time.Now()
	sess := &market.Session{
		Token:     resp.Token,
		UserID:    resp.UserID,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Duration(resp.ExpiresIn) * time.Second),
	}

	log.Debug().Str("user_id", sess.UserID).Msg("Provider session opened")
	return sess, nil
}

// Logout releases a session. A nil session is a no-op; release failures
// are logged and swallowed since the session expires server-side anyway.
func (c *Client) Logout(ctx context.Context, sess *market.Session) error {
	if sess == nil {
		return nil
	}

	_, err := c.post(ctx, "/api/v1/logout", map[string]string{"access_token": sess.Token})
	if err != nil {
		log.Warn().Err(err).Msg("Provider logout failed")
		return nil
	}

	log.Debug().Str("user_id", sess.UserID).Msg("Provider session closed")
	return nil
}

// =============================================================================
// Queries
// =============================================================================

// QueryTradeDates returns every calendar entry in [start, end].
func (c *Client) QueryTradeDates(ctx context.Context, sess *market.Session, start, end string) ([]market.TradeDay, error) {
	env, err := c.query(ctx, sess, "/api/v1/trade_dates", url.Values{
		"start_date": {start},
		"end_date":   {end},
	})
	if err != nil {
		return nil, err
	}

	dateIdx := fieldIndex(env.Fields, "calendar_date")
	flagIdx := fieldIndex(env.Fields, "is_trading_day")
	if dateIdx < 0 || flagIdx < 0 {
		return nil, fmt.Errorf("%w: trade_dates fields %v", market.ErrUpstreamUnavailable, env.Fields)
	}

	days := make([]market.TradeDay, 0, len(env.Data))
	for _, row := range env.Data {
		if len(row) <= dateIdx || len(row) <= flagIdx {
			continue
		}
		days = append(days, market.TradeDay{
			Date:    row[dateIdx],
			Trading: row[flagIdx] == "1",
		})
	}
	return days, nil
}

// QueryHistoryDailyMetrics returns daily valuation rows for one stock.
// Values stay in text form; the ingestion layer owns coercion.
func (c *Client) QueryHistoryDailyMetrics(ctx context.Context, sess *market.Session, code, start, end string, fields []string) ([]market.MetricRow, error) {
	joined := ""
	for i, f := range fields {
		if i > 0 {
			joined += ","
		}
		joined += f
	}

	env, err := c.query(ctx, sess, "/api/v1/history_k_data", url.Values{
		"code":       {code},
		"fields":     {joined},
		"start_date": {start},
		"end_date":   {end},
		"frequency":  {"d"},
		"adjustflag": {"3"}, // unadjusted
	})
	if err != nil {
		return nil, err
	}

	dateIdx := fieldIndex(env.Fields, "date")
	codeIdx := fieldIndex(env.Fields, "code")
	peIdx := fieldIndex(env.Fields, "peTTM")
	pbIdx := fieldIndex(env.Fields, "pbMRQ")
	if dateIdx < 0 {
		return nil, fmt.Errorf("%w: history_k_data fields %v", market.ErrUpstreamUnavailable, env.Fields)
	}

	rows := make([]market.MetricRow, 0, len(env.Data))
	for _, row := range env.Data {
		if len(row) <= dateIdx {
			continue
		}
		r := market.MetricRow{Date: row[dateIdx]}
		if codeIdx >= 0 && len(row) > codeIdx {
			r.Code = row[codeIdx]
		}
		if peIdx >= 0 && len(row) > peIdx {
			r.PeTTM = row[peIdx]
		}
		if pbIdx >= 0 && len(row) > pbIdx {
			r.PbMRQ = row[pbIdx]
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// QueryIndexConstituents returns the membership list for hs300, zz500 or
// sz50.
func (c *Client) QueryIndexConstituents(ctx context.Context, sess *market.Session, indexID string) ([]market.Constituent, error) {
	if !market.ValidIndex(indexID) {
		return nil, fmt.Errorf("%w: %s", market.ErrInvalidIndex, indexID)
	}

	env, err := c.query(ctx, sess, "/api/v1/index_constituents", url.Values{
		"index": {indexID},
	})
	if err != nil {
		return nil, err
	}

	codeIdx := fieldIndex(env.Fields, "code")
	nameIdx := fieldIndex(env.Fields, "code_name")
	if codeIdx < 0 {
		return nil, fmt.Errorf("%w: index_constituents fields %v", market.ErrUpstreamUnavailable, env.Fields)
	}

	members := make([]market.Constituent, 0, len(env.Data))
	for _, row := range env.Data {
		if len(row) <= codeIdx {
			continue
		}
		m := market.Constituent{Code: row[codeIdx]}
		if nameIdx >= 0 && len(row) > nameIdx {
			m.Name = row[nameIdx]
		}
		members = append(members, m)
	}
	return members, nil
}

// =============================================================================
// HTTP plumbing
// =============================================================================

// query runs a session-scoped GET and unwraps the rowset envelope.
func (c *Client) query(ctx context.Context, sess *market.Session, path string, params url.Values) (*envelope, error) {
	if sess == nil || sess.Token == "" {
		return nil, market.ErrSessionExpired
	}
	if sess.Expired(time.Now()) {
		return nil, market.ErrSessionExpired
	}
	params.Set("access_token", sess.Token)

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", market.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", market.ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status=%d body=%s", market.ErrUpstreamUnavailable, resp.StatusCode, string(respBody))
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("%w: unmarshal: %v", market.ErrUpstreamUnavailable, err)
	}

	switch env.ErrorCode {
	case codeOK:
		return &env, nil
	case codeSessionExpired:
		return nil, fmt.Errorf("%w: %s", market.ErrSessionExpired, env.ErrorMsg)
	default:
		return nil, fmt.Errorf("%w: code=%s msg=%s", market.ErrUpstreamUnavailable, env.ErrorCode, env.ErrorMsg)
	}
}

// post runs a JSON POST, returning the raw body.
func (c *Client) post(ctx context.Context, path string, payload map[string]string) ([]byte, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", market.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", market.ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status=%d body=%s", market.ErrUpstreamUnavailable, resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// fieldIndex locates a field name inside the envelope's field list.
func fieldIndex(fields []string, name string) int {
	for i, f := range fields {
		if f == name {
			return i
		}
	}
	return -1
}
