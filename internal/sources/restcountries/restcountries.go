// Package restcountries fetches country metadata from the REST Countries
// v2 API.
package restcountries

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bsenturk/country-cache/internal/models"
	"github.com/bsenturk/country-cache/internal/sources"
)

const (
	sourceName = "RestCountries API"

	defaultURL       = "https://restcountries.com/v2/all?fields=name,capital,region,population,flag,currencies"
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

// countryPayload mirrors the v2 response shape. Anything that does not
// decode into it is a malformed response, not a soft miss.
type countryPayload struct {
	Name       string `json:"name"`
	Capital    string `json:"capital"`
	Region     string `json:"region"`
	Population int64  `json:"population"`
	Flag       string `json:"flag"`
	Currencies []struct {
		Code string `json:"code"`
	} `json:"currencies"`
}

func (c *Client) Fetch(ctx context.Context) ([]models.RawCountry, error) {
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

	var payload []countryPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, sources.Fail(sourceName, sources.ErrMalformed, err)
	}

	out := make([]models.RawCountry, 0, len(payload))
	for _, p := range payload {
		rc := models.RawCountry{
			Name:       p.Name,
			Population: p.Population,
			Capital:    optional(p.Capital),
			Region:     optional(p.Region),
			FlagURL:    optional(p.Flag),
		}
		if len(p.Currencies) > 0 && p.Currencies[0].Code != "" {
			code := strings.ToUpper(p.Currencies[0].Code)
			rc.CurrencyCode = &code
		}
		out = append(out, rc)
	}
	return out, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// classify maps transport errors onto the source failure taxonomy: deadline
// or net timeout means ErrTimeout, anything else ErrUnavailable.
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
