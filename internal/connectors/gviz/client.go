package gviz

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ShafahmadxX69/Dashioh/internal"
	"github.com/ShafahmadxX69/Dashioh/internal/config"
	"github.com/ShafahmadxX69/Dashioh/internal/util"
)

// Client reads sheets of one spreadsheet through the public GViz endpoint.
type Client struct {
	baseURL       string
	spreadsheetID string
	format        string
	attempts      int
	backoffBase   time.Duration
	httpClient    *http.Client
	limiter       *RateLimiter
}

func NewClient(cfg config.Config) *Client {
	attempts := cfg.FetchAttempts
	if attempts <= 0 {
		attempts = 5
	}
	format := cfg.GVizFormat
	if format != config.FormatHTML {
		format = config.FormatJSON
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.GVizBaseURL, "/"),
		spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID),
		format:        format,
		attempts:      attempts,
		backoffBase:   250 * time.Millisecond,
		httpClient:    &http.Client{Timeout: cfg.FetchTimeout()},
		limiter:       NewRateLimiter(cfg.FetchRateRPS),
	}
}

// FetchTable downloads the sheet with the given gid.
func (c *Client) FetchTable(ctx context.Context, gid string) (internal.RawTable, error) {
	if c.spreadsheetID == "" {
		return internal.RawTable{}, errors.New("missing SPREADSHEET_ID")
	}
	u, err := c.sheetURL(gid)
	if err != nil {
		return internal.RawTable{}, err
	}

	body, err := c.fetch(ctx, u)
	if err != nil {
		return internal.RawTable{}, err
	}
	if c.format == config.FormatHTML {
		return ParseHTMLTable(body)
	}
	return ParseResponse(body)
}

func (c *Client) sheetURL(gid string) (string, error) {
	u, err := url.Parse(c.baseURL + "/" + url.PathEscape(c.spreadsheetID) + "/gviz/tq")
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("tqx", "out:"+c.format)
	q.Set("gid", strings.TrimSpace(gid))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) fetch(ctx context.Context, u string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			if err := c.wait(ctx, attempt-1); err != nil {
				return nil, err
			}
		}
		if err := c.limiter.WaitTurn(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			lastErr = fmt.Errorf("gviz status %d", resp.StatusCode)
			if isRetryableStatus(resp.StatusCode) {
				continue
			}
			return nil, fmt.Errorf("gviz error: status=%d body=%s", resp.StatusCode, util.TruncateRunes(string(body), 200))
		}
		return body, nil
	}

	if lastErr == nil {
		lastErr = errors.New("gviz request failed")
	}
	return nil, lastErr
}

// wait sleeps an exponential, jittered backoff before retry n.
func (c *Client) wait(ctx context.Context, n int) error {
	jitter := time.Duration(rand.Int63n(int64(c.backoffBase/2) + 1))
	timer := time.NewTimer(c.backoffBase*time.Duration(1<<(n-1)) + jitter)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
