// Package openexchange fetches USD exchange rates from open.er-api.com.
package openexchange

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bsenturk/country-cache/internal/sources"
)

const (
	sourceName = "Open Exchange Rate API"

	defaultURL       = "https://open.er-api.com/v6/latest/USD"
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "country-cache/0.1"
)

type Config struct {
	URL       string
	Timeout   time.Duration
	UserAgent string
}

type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	if strings.TrimSpace(cfg.URL) == "" {
		cfg.URL = defaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

func (c *Client) Name() string { return sourceName }

type ratesPayload struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

func (c *Client) Fetch(ctx context.Context) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return nil, sources.Fail(sourceName, sources.ErrUnavailable, err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, sources.Fail(sourceName, classify(err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, sources.Fail(sourceName, sources.ErrUnavailable,
			errors.New("unexpected status "+resp.Status))
	}

	var payload ratesPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, sources.Fail(sourceName, sources.ErrMalformed, err)
	}
	// a rates response without rates is a schema mismatch, not an empty market
	if len(payload.Rates) == 0 {
		return nil, sources.Fail(sourceName, sources.ErrMalformed,
			errors.New("missing rates object"))
	}

	out := make(map[string]float64, len(payload.Rates))
	for code, rate := range payload.Rates {
		out[strings.ToUpper(code)] = rate
	}
	return out, nil
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return sources.ErrTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return sources.ErrTimeout
	}
	return sources.ErrUnavailable
}
