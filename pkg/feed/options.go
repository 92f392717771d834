package feed

import (
	"time"

	"github.com/StrathCole/riskfeed/pkg/server/audit"
	"github.com/StrathCole/riskfeed/pkg/server/sources"
)

// Option customizes a System at construction.
type Option func(*options)

type options struct {
	now            func() time.Time
	oracles        []sources.Provider
	auditProviders []audit.Provider
	oraclesSet     bool
	auditsSet      bool
}

// WithClock sets the time source for the caches, the anomaly detector and
// aggregate timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithProviders replaces the oracle providers built from configuration.
// Weights are still taken from the configuration.
func WithProviders(providers ...sources.Provider) Option {
	return func(o *options) {
		o.oracles = providers
		o.oraclesSet = true
	}
}

// WithAuditProviders replaces the audit providers built from configuration.
func WithAuditProviders(providers ...audit.Provider) Option {
	return func(o *options) {
		o.auditProviders = providers
		o.auditsSet = true
	}
}
