package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StrathCole/riskfeed/pkg/logging"
)

func newTestProvider(t *testing.T, cfg OracleConfig) *BaseProvider {
	t.Helper()
	if cfg.Type == "" {
		cfg.Type = OracleTypeChainlink
	}
	p, err := NewBaseProvider(cfg, 0.80, logging.NewNoopLogger())
	require.NoError(t, err)
	return p
}

func TestNewBaseProvider_InvalidEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		wantErr  error
	}{
		{name: "empty", endpoint: "", wantErr: ErrEndpointRequired},
		{name: "relative", endpoint: "/prices", wantErr: ErrInvalidConfig},
		{name: "bad scheme", endpoint: "ftp://oracle.example", wantErr: ErrInvalidConfig},
		{name: "unparseable", endpoint: "http://[::1", wantErr: ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBaseProvider(OracleConfig{Type: OracleTypeBand, Endpoint: tt.endpoint}, 0.75, nil)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBaseProvider_GetPrice_Success(t *testing.T) {
	var gotSymbol, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSymbol = r.URL.Query().Get("symbol")
		gotKey = r.Header.Get("X-API-Key")
		_, _ = w.Write([]byte(`{"price": 2012.55, "confidence": 0.97}`))
	}))
	defer server.Close()

	p := newTestProvider(t, OracleConfig{Endpoint: server.URL, APIKey: "secret"})

	resp, err := p.GetPrice(context.Background(), "ETH/USDT")
	require.NoError(t, err)
	require.True(t, resp.Success, resp.Error)

	assert.Equal(t, "eth-usd", gotSymbol)
	assert.Equal(t, "secret", gotKey)
	assert.True(t, resp.Price.Equal(decimal.RequireFromString("2012.55")))
	assert.InDelta(t, 0.97, resp.Confidence, 1e-9)
	assert.Equal(t, OracleTypeChainlink, resp.OracleType)
	assert.Equal(t, "ETH/USDT", resp.Asset)
	assert.JSONEq(t, `{"price": 2012.55, "confidence": 0.97}`, string(resp.RawData))
	assert.Empty(t, resp.Error)
}

func TestBaseProvider_GetPrice_DefaultConfidence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"price": "101.5"}`))
	}))
	defer server.Close()

	p := newTestProvider(t, OracleConfig{Endpoint: server.URL})

	resp, err := p.GetPrice(context.Background(), "BTC/USD")
	require.NoError(t, err)
	require.True(t, resp.Success)
	assert.True(t, resp.Price.Equal(decimal.RequireFromString("101.5")))
	assert.InDelta(t, 0.80, resp.Confidence, 1e-9)
}

func TestBaseProvider_GetPrice_ConfidenceClamped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"price": 1, "confidence": 7}`))
	}))
	defer server.Close()

	p := newTestProvider(t, OracleConfig{Endpoint: server.URL})

	resp, err := p.GetPrice(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, 1.0, resp.Confidence)
}

func TestBaseProvider_GetPrice_CustomPaths(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"quote": {"value": "42.10", "conf": 0.5}}}`))
	}))
	defer server.Close()

	p := newTestProvider(t, OracleConfig{
		Type:           OracleTypeCustom,
		Endpoint:       server.URL,
		PricePath:      "data.quote.value",
		ConfidencePath: "data.quote.conf",
	})

	resp, err := p.GetPrice(context.Background(), "ACME")
	require.NoError(t, err)
	require.True(t, resp.Success)
	assert.True(t, resp.Price.Equal(decimal.RequireFromString("42.10")))
	assert.InDelta(t, 0.5, resp.Confidence, 1e-9)
}

func TestBaseProvider_GetPrice_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{}`, wantMsg: "unexpected HTTP status code: 500"},
		{name: "not found", status: http.StatusNotFound, body: ``, wantMsg: "unexpected HTTP status code: 404"},
		{name: "malformed json", status: http.StatusOK, body: `{"price":`, wantMsg: "invalid response"},
		{name: "missing price", status: http.StatusOK, body: `{"rate": 1}`, wantMsg: "price field missing"},
		{name: "non numeric price", status: http.StatusOK, body: `{"price": "abc"}`, wantMsg: "invalid price value"},
		{name: "negative price", status: http.StatusOK, body: `{"price": -3}`, wantMsg: "negative price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p := newTestProvider(t, OracleConfig{Endpoint: server.URL})

			resp, err := p.GetPrice(context.Background(), "BTC/USD")
			require.NoError(t, err)
			assert.False(t, resp.Success)
			assert.True(t, resp.Price.IsZero())
			assert.Zero(t, resp.Confidence)
			assert.Contains(t, resp.Error, tt.wantMsg)
		})
	}
}

func TestBaseProvider_GetPrice_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	p := newTestProvider(t, OracleConfig{Endpoint: url})

	resp, err := p.GetPrice(context.Background(), "BTC/USD")
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "failed to fetch price")
}

func TestBaseProvider_GetPrice_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	p := newTestProvider(t, OracleConfig{Endpoint: server.URL, TimeoutSeconds: 1})

	start := time.Now()
	resp, err := p.GetPrice(context.Background(), "BTC/USD")
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Greater(t, resp.ResponseTime, time.Duration(0))
}

func TestBaseProvider_RateLimitCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"price": 1}`))
	}))
	defer server.Close()

	p := newTestProvider(t, OracleConfig{Endpoint: server.URL, RateLimit: 0.01})

	first, err := p.GetPrice(context.Background(), "BTC")
	require.NoError(t, err)
	require.True(t, first.Success)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	second, err := p.GetPrice(ctx, "BTC")
	require.NoError(t, err)
	assert.False(t, second.Success)
	assert.Contains(t, second.Error, ErrRateLimited.Error())
}

func TestBaseProvider_RateLimitBoundedByTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"price": 1}`))
	}))
	defer server.Close()

	p := newTestProvider(t, OracleConfig{Endpoint: server.URL, TimeoutSeconds: 1, RateLimit: 0.25})

	first, err := p.GetPrice(context.Background(), "BTC")
	require.NoError(t, err)
	require.True(t, first.Success)

	start := time.Now()
	second, err := p.GetPrice(context.Background(), "BTC")
	require.NoError(t, err)
	assert.False(t, second.Success)
	assert.Contains(t, second.Error, ErrRateLimited.Error())
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestBaseProvider_GetPrices_Independent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") == "doge-usd" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"price": 10}`))
	}))
	defer server.Close()

	p := newTestProvider(t, OracleConfig{Endpoint: server.URL})

	result, err := p.GetPrices(context.Background(), []string{"BTC/USD", "DOGE/USD", "ETH/USD"})
	require.NoError(t, err)
	require.Len(t, result, 3)
	assert.True(t, result["BTC/USD"].Success)
	assert.False(t, result["DOGE/USD"].Success)
	assert.True(t, result["ETH/USD"].Success)
}
