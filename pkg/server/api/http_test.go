package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/StrathCole/riskfeed/pkg/feed"
	"github.com/StrathCole/riskfeed/pkg/server/aggregator"
	"github.com/StrathCole/riskfeed/pkg/server/audit"
	"github.com/StrathCole/riskfeed/pkg/server/sources"
)

// MockFeed is a mock implementation of Feed
type MockFeed struct {
	mock.Mock
}

func (m *MockFeed) GetAggregatedPrice(ctx context.Context, asset string) (*aggregator.AggregatedPriceData, error) {
	args := m.Called(ctx, asset)
	data, _ := args.Get(0).(*aggregator.AggregatedPriceData)
	return data, args.Error(1)
}

func (m *MockFeed) GetAuditData(ctx context.Context, protocol string) []audit.Entry {
	args := m.Called(ctx, protocol)
	entries, _ := args.Get(0).([]audit.Entry)
	return entries
}

func (m *MockFeed) ClearCaches() {
	m.Called()
}

func (m *MockFeed) GetCacheStats() feed.CacheStats {
	return m.Called().Get(0).(feed.CacheStats)
}

func (m *MockFeed) OracleTypes() []sources.OracleType {
	return m.Called().Get(0).([]sources.OracleType)
}

func (m *MockFeed) Method() aggregator.Method {
	return m.Called().Get(0).(aggregator.Method)
}

func newTestServer(t *testing.T, f Feed) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(NewServer(":0", f, nil).Handler())
	t.Cleanup(server.Close)
	return server
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHandleHealth(t *testing.T) {
	f := &MockFeed{}
	f.On("Method").Return(aggregator.MethodMedian)
	f.On("OracleTypes").Return([]sources.OracleType{sources.OracleTypeChainlink, sources.OracleTypePyth})

	server := newTestServer(t, f)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body healthResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, aggregator.MethodMedian, body.Method)
	assert.Len(t, body.Oracles, 2)
}

func TestHandlePrice(t *testing.T) {
	f := &MockFeed{}
	f.On("GetAggregatedPrice", mock.Anything, "ETH/USD").Return(&aggregator.AggregatedPriceData{
		Asset:       "ETH/USD",
		Price:       decimal.RequireFromString("3500.25"),
		Timestamp:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Confidence:  0.82,
		OracleCount: 3,
		IsConsensus: true,
		Method:      aggregator.MethodWeightedAverage,
	}, nil)

	server := newTestServer(t, f)

	resp, err := http.Get(server.URL + "/v1/prices/ETH/USD")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body map[string]interface{}
	decodeBody(t, resp, &body)
	assert.Equal(t, "ETH/USD", body["asset"])
	assert.Equal(t, "3500.25", body["price"])
	assert.Equal(t, float64(3), body["oracle_count"])
	assert.Equal(t, true, body["is_consensus"])
	assert.Equal(t, "weighted_average", body["method"])

	f.AssertExpectations(t)
}

func TestHandlePrice_Errors(t *testing.T) {
	f := &MockFeed{}
	f.On("GetAggregatedPrice", mock.Anything, "DOGE").Return(nil, fmt.Errorf("%w: DOGE", feed.ErrAllOraclesFailed))
	f.On("GetAggregatedPrice", mock.Anything, "BAD").Return(nil, errors.New("internal"))

	server := newTestServer(t, f)

	resp, err := http.Get(server.URL + "/v1/prices/DOGE")
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Contains(t, body["error"], "all oracles failed to provide price data")

	resp, err = http.Get(server.URL + "/v1/prices/BAD")
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	resp.Body.Close()
}

func TestHandlePrice_InvalidAsset(t *testing.T) {
	server := newTestServer(t, &MockFeed{})

	resp, err := http.Get(server.URL + "/v1/prices/ETH/USD/EUR")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Contains(t, body["error"], "invalid asset identifier")
}

func TestHandleAudits(t *testing.T) {
	f := &MockFeed{}
	f.On("GetAuditData", mock.Anything, "aave").Return([]audit.Entry{
		{ID: "1", Severity: audit.SeverityCritical, Category: audit.CategoryReentrancy},
		{ID: "2", Severity: audit.SeverityLow, Category: audit.CategoryLogic},
		{ID: "3", Severity: audit.SeverityCritical, Category: audit.CategoryLogic},
	})

	server := newTestServer(t, f)

	resp, err := http.Get(server.URL + "/v1/audits/aave")
	require.NoError(t, err)
	var all []audit.Entry
	decodeBody(t, resp, &all)
	assert.Len(t, all, 3)

	resp, err = http.Get(server.URL + "/v1/audits/aave?severity=critical&category=logic")
	require.NoError(t, err)
	var filtered []audit.Entry
	decodeBody(t, resp, &filtered)
	require.Len(t, filtered, 1)
	assert.Equal(t, "3", filtered[0].ID)
}

func TestHandleAudits_EmptyList(t *testing.T) {
	f := &MockFeed{}
	f.On("GetAuditData", mock.Anything, "unknown").Return([]audit.Entry{})

	server := newTestServer(t, f)

	resp, err := http.Get(server.URL + "/v1/audits/unknown")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []audit.Entry
	decodeBody(t, resp, &entries)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestCacheEndpoints(t *testing.T) {
	f := &MockFeed{}
	f.On("GetCacheStats").Return(feed.CacheStats{PriceCacheEntries: 4, AuditCacheEntries: 1}).Once()
	f.On("ClearCaches").Return().Once()
	f.On("GetCacheStats").Return(feed.CacheStats{}).Once()

	server := newTestServer(t, f)

	resp, err := http.Get(server.URL + "/v1/cache/stats")
	require.NoError(t, err)
	var stats feed.CacheStats
	decodeBody(t, resp, &stats)
	assert.Equal(t, feed.CacheStats{PriceCacheEntries: 4, AuditCacheEntries: 1}, stats)

	resp, err = http.Post(server.URL+"/v1/cache/clear", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &stats)
	assert.Equal(t, feed.CacheStats{}, stats)

	f.AssertExpectations(t)
}

func TestCacheClear_RequiresPost(t *testing.T) {
	server := newTestServer(t, &MockFeed{})

	resp, err := http.Get(server.URL + "/v1/cache/clear")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
