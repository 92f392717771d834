package feed

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/StrathCole/riskfeed/pkg/server/audit"
	"github.com/StrathCole/riskfeed/pkg/server/sources"
)

// MockProvider is a mock implementation of sources.Provider
type MockProvider struct {
	mock.Mock
	oracleType sources.OracleType
}

func newMockProvider(t sources.OracleType) *MockProvider {
	return &MockProvider{oracleType: t}
}

func (m *MockProvider) GetPrice(ctx context.Context, asset string) (*sources.OracleResponse, error) {
	args := m.Called(ctx, asset)
	resp, _ := args.Get(0).(*sources.OracleResponse)
	return resp, args.Error(1)
}

func (m *MockProvider) GetPrices(ctx context.Context, assets []string) (map[string]*sources.OracleResponse, error) {
	return sources.FetchAll(ctx, m, assets)
}

func (m *MockProvider) OracleType() sources.OracleType {
	return m.oracleType
}

// MockAuditProvider is a mock implementation of audit.Provider
type MockAuditProvider struct {
	mock.Mock
	name string
}

func (m *MockAuditProvider) GetAudits(ctx context.Context, protocol string) []audit.Entry {
	args := m.Called(ctx, protocol)
	entries, _ := args.Get(0).([]audit.Entry)
	return entries
}

func (m *MockAuditProvider) GetAuditsBySeverity(ctx context.Context, protocol string, severity audit.Severity) []audit.Entry {
	args := m.Called(ctx, protocol, severity)
	entries, _ := args.Get(0).([]audit.Entry)
	return entries
}

func (m *MockAuditProvider) GetAuditsByCategory(ctx context.Context, protocol string, category audit.Category) []audit.Entry {
	args := m.Called(ctx, protocol, category)
	entries, _ := args.Get(0).([]audit.Entry)
	return entries
}

func (m *MockAuditProvider) Name() string {
	return m.name
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}
