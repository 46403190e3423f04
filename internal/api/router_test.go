package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsenturk/country-cache/internal/api"
	"github.com/bsenturk/country-cache/internal/config"
	"github.com/bsenturk/country-cache/internal/models"
	"github.com/bsenturk/country-cache/internal/repository/memory"
	"github.com/bsenturk/country-cache/internal/services"
	"github.com/bsenturk/country-cache/internal/sources"
)

type stubCountrySource struct {
	recs []models.RawCountry
	err  error
}

func (s *stubCountrySource) Name() string { return "stub countries" }

func (s *stubCountrySource) Fetch(context.Context) ([]models.RawCountry, error) {
	return s.recs, s.err
}

type stubRateSource struct {
	rates map[string]float64
	err   error
}

func (s *stubRateSource) Name() string { return "stub rates" }

func (s *stubRateSource) Fetch(context.Context) (map[string]float64, error) {
	return s.rates, s.err
}

func strPtr(s string) *string { return &s }

type env struct {
	repo   *memory.CountriesRepo
	server *httptest.Server
}

func newEnv(t *testing.T, cs *stubCountrySource, rs *stubRateSource) env {
	t.Helper()
	cfg := config.Config{
		Env:              "test",
		RateRPS:          1000,
		SummaryImagePath: filepath.Join(t.TempDir(), "summary.png"),
	}
	repo := memory.NewCountriesRepo()
	router := api.NewRouter(cfg,
		services.NewCountryService(repo),
		services.NewRefreshService(cs, rs, repo, nil),
	)
	server := httptest.NewServer(router)
	server.Config.SetKeepAlivesEnabled(false)
	t.Cleanup(server.Close)
	return env{repo: repo, server: server}
}

func do(t *testing.T, method, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func defaultSources() (*stubCountrySource, *stubRateSource) {
	cs := &stubCountrySource{recs: []models.RawCountry{
		{Name: "Testland", Population: 1000, CurrencyCode: strPtr("TST"), Region: strPtr("Testia")},
		{Name: "Freedonia", Population: 2000, CurrencyCode: strPtr("FRD"), Region: strPtr("Marxia")},
	}}
	rs := &stubRateSource{rates: map[string]float64{"TST": 2.0, "FRD": 4.0}}
	return cs, rs
}

func TestRefreshEndpoint_Success(t *testing.T) {
	t.Parallel()
	cs, rs := defaultSources()
	e := newEnv(t, cs, rs)

	resp := do(t, http.MethodPost, e.server.URL+"/countries/refresh")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[models.RefreshOutcome](t, resp)
	assert.Equal(t, "success", out.Status)
	assert.Equal(t, 2, out.CountriesProcessed)

	resp = do(t, http.MethodGet, e.server.URL+"/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decode[models.CacheStatus](t, resp)
	assert.Equal(t, 2, st.TotalCountries)
	assert.NotNil(t, st.LastRefreshedAt)
}

func TestRefreshEndpoint_SourceFailureIs503AndStatusUnchanged(t *testing.T) {
	t.Parallel()
	cs, _ := defaultSources()
	e := newEnv(t, cs, &stubRateSource{err: sources.Fail("Open Exchange Rate API", sources.ErrUnavailable, nil)})

	before := decode[models.CacheStatus](t, do(t, http.MethodGet, e.server.URL+"/status"))

	resp := do(t, http.MethodPost, e.server.URL+"/countries/refresh")
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "External data source unavailable", body["error"])
	assert.Contains(t, body["details"], "Open Exchange Rate API")

	after := decode[models.CacheStatus](t, do(t, http.MethodGet, e.server.URL+"/status"))
	assert.Equal(t, before, after)
}

func TestListEndpoint_FilterAndOrdering(t *testing.T) {
	t.Parallel()
	cs, rs := defaultSources()
	e := newEnv(t, cs, rs)
	do(t, http.MethodPost, e.server.URL+"/countries/refresh")

	resp := do(t, http.MethodGet, e.server.URL+"/countries?region=testia")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]models.Country](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, "Testland", list[0].Name)

	// Testland: 1000*proxy/2, Freedonia: 2000*proxy/4 — equal GDPs, so
	// order by population instead to keep the assertion meaningful
	resp = do(t, http.MethodGet, e.server.URL+"/countries?ordering=-population")
	list = decode[[]models.Country](t, resp)
	require.Len(t, list, 2)
	assert.Equal(t, "Freedonia", list[0].Name)

	resp = do(t, http.MethodGet, e.server.URL+"/countries?ordering=-bogus")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListEndpoint_EmptyIsArray(t *testing.T) {
	t.Parallel()
	cs, rs := defaultSources()
	e := newEnv(t, cs, rs)

	resp := do(t, http.MethodGet, e.server.URL+"/countries")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]models.Country](t, resp)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestCountryLifecycle(t *testing.T) {
	t.Parallel()
	cs, rs := defaultSources()
	e := newEnv(t, cs, rs)
	do(t, http.MethodPost, e.server.URL+"/countries/refresh")

	resp := do(t, http.MethodGet, e.server.URL+"/countries/Testland")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	c := decode[models.Country](t, resp)
	require.NotNil(t, c.ExchangeRate)
	assert.Equal(t, 2.0, *c.ExchangeRate)
	assert.NotNil(t, c.EstimatedGDP)

	resp = do(t, http.MethodDelete, e.server.URL+"/countries/Testland")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, e.server.URL+"/countries/Testland")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "Not found.", body["detail"])

	resp = do(t, http.MethodDelete, e.server.URL+"/countries/Testland")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestImageEndpoint(t *testing.T) {
	t.Parallel()
	cs, rs := defaultSources()
	cfg := config.Config{
		Env:              "test",
		RateRPS:          1000,
		SummaryImagePath: filepath.Join(t.TempDir(), "summary.png"),
	}
	repo := memory.NewCountriesRepo()
	router := api.NewRouter(cfg,
		services.NewCountryService(repo),
		services.NewRefreshService(cs, rs, repo, nil),
	)
	server := httptest.NewServer(router)
	server.Config.SetKeepAlivesEnabled(false)
	t.Cleanup(server.Close)

	resp := do(t, http.MethodGet, server.URL+"/countries/image")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "Summary image not found", body["error"])

	require.NoError(t, os.WriteFile(cfg.SummaryImagePath, []byte("png bytes"), 0o644))
	resp = do(t, http.MethodGet, server.URL+"/countries/image")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}

func TestHealth(t *testing.T) {
	t.Parallel()
	cs, rs := defaultSources()
	e := newEnv(t, cs, rs)

	resp := do(t, http.MethodGet, e.server.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
