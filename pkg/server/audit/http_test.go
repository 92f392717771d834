package audit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const findingsJSON = `[
  {"id":"SOL-1","title":"Reentrant withdraw","description":"withdraw() calls out before updating balances","impact":"Critical","category":"reentrancy","status":"fixed","remediation":"checks-effects-interactions","date":"2024-03-01","references":["https://example.org/sol-1"]},
  {"title":"Stale price","description":"TWAP window too short","impact":"HIGH","category":"oracle_manipulation","cve_id":"CVE-2024-0001"},
  {"id":"SOL-3","title":"Event missing","description":"no event on admin change","impact":"note"}
]`

func newTestProvider(t *testing.T, handler http.HandlerFunc) *HTTPProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewHTTPProvider(DatabaseConfig{Name: "solodit", Endpoint: server.URL, APIKey: "k", Enabled: true}, nil)
	require.NoError(t, err)
	return p
}

func TestNewHTTPProvider_InvalidEndpoint(t *testing.T) {
	_, err := NewHTTPProvider(DatabaseConfig{Name: "x"}, nil)
	assert.ErrorIs(t, err, ErrEndpointRequired)

	_, err = NewHTTPProvider(DatabaseConfig{Name: "x", Endpoint: "audits.local/api"}, nil)
	assert.ErrorIs(t, err, ErrInvalidEndpoint)
}

func TestHTTPProvider_GetAudits(t *testing.T) {
	var gotProtocol, gotKey string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotProtocol = r.URL.Query().Get("protocol")
		gotKey = r.Header.Get("X-API-Key")
		_, _ = w.Write([]byte(findingsJSON))
	})

	entries := p.GetAudits(context.Background(), "uniswap-v3")
	require.Len(t, entries, 3)
	assert.Equal(t, "uniswap-v3", gotProtocol)
	assert.Equal(t, "k", gotKey)

	first := entries[0]
	assert.Equal(t, "SOL-1", first.ID)
	assert.Equal(t, "uniswap-v3", first.Protocol)
	assert.Equal(t, "solodit", first.AuditFirm)
	assert.Equal(t, SeverityCritical, first.Severity)
	assert.Equal(t, CategoryReentrancy, first.Category)
	assert.Equal(t, StatusFixed, first.Status)
	assert.Equal(t, "checks-effects-interactions", first.Remediation)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), first.AuditDate)
	assert.Equal(t, []string{"https://example.org/sol-1"}, first.References)

	second := entries[1]
	_, err := uuid.Parse(second.ID)
	assert.NoError(t, err, "missing id should be replaced by a uuid")
	assert.Equal(t, SeverityHigh, second.Severity)
	assert.Equal(t, CategoryOracleManipulation, second.Category)
	assert.Equal(t, StatusUnknown, second.Status)
	assert.Equal(t, "CVE-2024-0001", second.CVEID)
	assert.Empty(t, second.References)
	assert.False(t, second.AuditDate.IsZero())

	assert.Equal(t, SeverityInformational, entries[2].Severity)
	assert.Equal(t, CategoryOther, entries[2].Category)
}

func TestHTTPProvider_FailuresReturnEmpty(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `[]`},
		{name: "not json", status: http.StatusOK, body: `<html>`},
		{name: "object not array", status: http.StatusOK, body: `{"findings":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			entries := p.GetAudits(context.Background(), "aave")
			assert.NotNil(t, entries)
			assert.Empty(t, entries)
		})
	}
}

func TestHTTPProvider_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	endpoint := server.URL
	server.Close()

	p, err := NewHTTPProvider(DatabaseConfig{Name: "down", Endpoint: endpoint}, nil)
	require.NoError(t, err)
	assert.Empty(t, p.GetAudits(context.Background(), "aave"))
}

func TestHTTPProvider_Filters(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(findingsJSON))
	})

	critical := p.GetAuditsBySeverity(context.Background(), "uniswap-v3", SeverityCritical)
	require.Len(t, critical, 1)
	assert.Equal(t, "SOL-1", critical[0].ID)

	oracle := p.GetAuditsByCategory(context.Background(), "uniswap-v3", CategoryOracleManipulation)
	require.Len(t, oracle, 1)
	assert.Equal(t, "Stale price", oracle[0].Title)

	assert.Empty(t, p.GetAuditsBySeverity(context.Background(), "uniswap-v3", SeverityLow))
}

func TestParseSeverity(t *testing.T) {
	assert.Equal(t, SeverityMedium, ParseSeverity("Moderate"))
	assert.Equal(t, SeverityLow, ParseSeverity(" low "))
	assert.Equal(t, SeverityInformational, ParseSeverity(""))
}

func TestDatabaseConfig_Timeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, DatabaseConfig{}.Timeout())
	assert.Equal(t, 3*time.Second, DatabaseConfig{TimeoutSeconds: 3}.Timeout())
}
