package openexchange_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsenturk/country-cache/internal/sources"
	"github.com/bsenturk/country-cache/internal/sources/openexchange"
)

func newTestServer(handler http.Handler) *httptest.Server {
	server := httptest.NewServer(handler)
	server.Config.SetKeepAlivesEnabled(false)
	return server
}

func TestFetch_ReturnsUpperCasedRates(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"result":"success","rates":{"usd":1,"tst":2.5,"NGN":1600.4}}`))
	}))
	defer server.Close()

	c := openexchange.New(openexchange.Config{URL: server.URL})
	rates, err := c.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"USD": 1, "TST": 2.5, "NGN": 1600.4}, rates)
}

func TestFetch_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantKind error
	}{
		{
			name: "missing rates object is malformed",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"result":"success"}`))
			},
			wantKind: sources.ErrMalformed,
		},
		{
			name: "invalid json is malformed",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`<html>gateway error</html>`))
			},
			wantKind: sources.ErrMalformed,
		},
		{
			name: "bad gateway is unavailable",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantKind: sources.ErrUnavailable,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := newTestServer(tt.handler)
			defer server.Close()

			c := openexchange.New(openexchange.Config{URL: server.URL})
			_, err := c.Fetch(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantKind)

			var se *sources.Error
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "Open Exchange Rate API", se.Source)
		})
	}
}
