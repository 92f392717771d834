// Package feed wires oracle providers, the aggregation engine, the anomaly
// detector and the caches into one price and audit service.
package feed

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/StrathCole/riskfeed/pkg/config"
	"github.com/StrathCole/riskfeed/pkg/logging"
	"github.com/StrathCole/riskfeed/pkg/server/aggregator"
	"github.com/StrathCole/riskfeed/pkg/server/anomaly"
	"github.com/StrathCole/riskfeed/pkg/server/audit"
	"github.com/StrathCole/riskfeed/pkg/server/cache"
	"github.com/StrathCole/riskfeed/pkg/server/sources"
	_ "github.com/StrathCole/riskfeed/pkg/server/sources/oracle" // registers oracle providers
)

const (
	priceCacheName = "price"
	auditCacheName = "audit"
)

// PriceListener is notified after every freshly computed aggregate.
type PriceListener func(*aggregator.AggregatedPriceData)

// CacheStats reports the number of entries held by each cache.
type CacheStats struct {
	PriceCacheEntries int `json:"price_cache_entries"`
	AuditCacheEntries int `json:"audit_cache_entries"`
}

// System owns the providers, caches and detector. Providers never call back
// into it.
type System struct {
	logger   *logging.Logger
	method   aggregator.Method
	now      func() time.Time
	oracles  []sources.Provider
	audits   []audit.Provider
	engine   *aggregator.Engine
	detector *anomaly.Detector

	priceCache *cache.TTLCache[*aggregator.AggregatedPriceData]
	auditCache *cache.TTLCache[[]audit.Entry]

	listenersMu sync.RWMutex
	listeners   []PriceListener
}

// New builds a System from cfg: one provider per enabled oracle and audit
// database. Two enabled oracles of the same type collapse to the later one.
func New(cfg *config.Config, logger *logging.Logger, opts ...Option) (*System, error) {
	if logger == nil {
		logger = logging.NewNoopLogger()
	}

	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	weights := make(map[sources.OracleType]float64)
	for _, oc := range cfg.EnabledOracles() {
		weights[oc.Type] = oc.Weight
	}

	oracles := o.oracles
	if !o.oraclesSet {
		var err error
		oracles, err = buildOracles(cfg.EnabledOracles(), logger)
		if err != nil {
			return nil, err
		}
	}

	audits := o.auditProviders
	if !o.auditsSet {
		var err error
		audits, err = buildAudits(cfg.EnabledAuditDatabases(), logger)
		if err != nil {
			return nil, err
		}
	}

	s := &System{
		logger:   logger,
		method:   cfg.Method(),
		now:      o.now,
		oracles:  oracles,
		audits:   audits,
		engine:   aggregator.NewEngine(weights, logger, aggregator.WithClock(o.now)),
		detector: anomaly.NewDetector(cfg.AnomalyDetection, anomaly.WithClock(o.now), anomaly.WithLogger(logger)),
		priceCache: cache.New[*aggregator.AggregatedPriceData](priceCacheName, cfg.CacheDuration()).
			WithClock(o.now),
		auditCache: cache.New[[]audit.Entry](auditCacheName, cfg.AuditCacheDuration()).
			WithClock(o.now),
	}

	logger.Info("Price feed initialized",
		"oracles", len(s.oracles),
		"audit_databases", len(s.audits),
		"method", string(s.method),
		"cache_ttl", cfg.CacheDuration().String(),
	)

	return s, nil
}

func buildOracles(cfgs []sources.OracleConfig, logger *logging.Logger) ([]sources.Provider, error) {
	providers := make([]sources.Provider, 0, len(cfgs))
	index := make(map[sources.OracleType]int, len(cfgs))

	for _, oc := range cfgs {
		p, err := sources.Create(oc, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s oracle: %w", oc.Type, err)
		}

		if i, ok := index[oc.Type]; ok {
			logger.Warn("Duplicate oracle type, later entry replaces earlier", "oracle", string(oc.Type), "endpoint", oc.Endpoint)
			providers[i] = p
			continue
		}

		index[oc.Type] = len(providers)
		providers = append(providers, p)
	}

	return providers, nil
}

func buildAudits(cfgs []audit.DatabaseConfig, logger *logging.Logger) ([]audit.Provider, error) {
	providers := make([]audit.Provider, 0, len(cfgs))
	for _, dc := range cfgs {
		p, err := audit.NewHTTPProvider(dc, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create audit database %s: %w", dc.Name, err)
		}
		providers = append(providers, p)
	}
	return providers, nil
}

// GetAggregatedPrice returns the cached aggregate for asset or computes a fresh
// one from every oracle. It fails only when no oracle succeeds.
func (s *System) GetAggregatedPrice(ctx context.Context, asset string) (*aggregator.AggregatedPriceData, error) {
	if cached, ok := s.priceCache.Get(asset); ok {
		return cached, nil
	}

	responses := s.queryOracles(ctx, asset)

	successful := make([]*sources.OracleResponse, 0, len(responses))
	var anomalous []sources.OracleType
	for _, r := range responses {
		if !r.Success {
			s.logger.Warn("Oracle failed to provide price", "oracle", string(r.OracleType), "asset", asset, "error", r.Error)
			continue
		}
		successful = append(successful, r)

		if s.detector.DetectAnomalies(s.sample(r)) {
			anomalous = append(anomalous, r.OracleType)
		}
	}

	if len(successful) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrAllOraclesFailed, asset)
	}

	result, err := s.engine.Aggregate(asset, successful, s.method)
	if err != nil {
		return nil, err
	}
	result.AnomalousOracles = anomalous

	s.priceCache.Set(asset, result)
	s.notify(result)

	s.logger.Debug("Aggregated price",
		"asset", asset,
		"price", result.Price.String(),
		"oracles", result.OracleCount,
		"consensus", result.IsConsensus,
	)

	return result, nil
}

// queryOracles asks every provider concurrently. Results keep provider order.
func (s *System) queryOracles(ctx context.Context, asset string) []*sources.OracleResponse {
	responses := make([]*sources.OracleResponse, len(s.oracles))

	var wg sync.WaitGroup
	for i, p := range s.oracles {
		wg.Add(1)
		go func(i int, p sources.Provider) {
			defer wg.Done()

			resp, err := p.GetPrice(ctx, asset)
			if err != nil || resp == nil {
				msg := "no response"
				if err != nil {
					msg = err.Error()
				}
				resp = &sources.OracleResponse{
					OracleType: p.OracleType(),
					Asset:      asset,
					Price:      decimal.Zero,
					Timestamp:  s.now(),
					Error:      msg,
				}
			}
			responses[i] = resp
		}(i, p)
	}
	wg.Wait()

	return responses
}

func (s *System) sample(r *sources.OracleResponse) anomaly.EnhancedPriceData {
	sample := anomaly.SampleFromResponse(r)
	if sample.Timestamp.IsZero() {
		sample.Timestamp = s.now()
	}
	return sample
}

// GetAuditData returns the findings of every audit database for protocol,
// concatenated in configuration order. It never fails; an unreachable
// database contributes nothing.
func (s *System) GetAuditData(ctx context.Context, protocol string) []audit.Entry {
	if cached, ok := s.auditCache.Get(protocol); ok {
		return slices.Clone(cached)
	}

	results := make([][]audit.Entry, len(s.audits))

	var wg sync.WaitGroup
	for i, p := range s.audits {
		wg.Add(1)
		go func(i int, p audit.Provider) {
			defer wg.Done()
			results[i] = p.GetAudits(ctx, protocol)
		}(i, p)
	}
	wg.Wait()

	merged := make([]audit.Entry, 0)
	for i, entries := range results {
		if len(entries) == 0 {
			s.logger.Debug("No audit findings", "audit_database", s.audits[i].Name(), "protocol", protocol)
			continue
		}
		merged = append(merged, entries...)
	}

	s.auditCache.Set(protocol, merged)
	return slices.Clone(merged)
}

// ClearCaches drops every cached price and audit list.
func (s *System) ClearCaches() {
	s.priceCache.Clear()
	s.auditCache.Clear()
	s.logger.Info("Caches cleared")
}

// GetCacheStats returns the current cache sizes.
func (s *System) GetCacheStats() CacheStats {
	return CacheStats{
		PriceCacheEntries: s.priceCache.Len(),
		AuditCacheEntries: s.auditCache.Len(),
	}
}

// AnomalyScore scores sample against the detector history without recording it.
func (s *System) AnomalyScore(sample anomaly.EnhancedPriceData) float64 {
	return s.detector.CalculateAnomalyScore(sample)
}

// OnPriceUpdate registers l for fresh aggregates. Cache hits do not notify.
func (s *System) OnPriceUpdate(l PriceListener) {
	s.listenersMu.Lock()
	s.listeners = append(s.listeners, l)
	s.listenersMu.Unlock()
}

func (s *System) notify(data *aggregator.AggregatedPriceData) {
	s.listenersMu.RLock()
	listeners := s.listeners
	s.listenersMu.RUnlock()

	for _, l := range listeners {
		l(data)
	}
}

// OracleTypes returns the types of the active providers in query order.
func (s *System) OracleTypes() []sources.OracleType {
	out := make([]sources.OracleType, 0, len(s.oracles))
	for _, p := range s.oracles {
		out = append(out, p.OracleType())
	}
	return out
}

// AuditDatabases returns the names of the active audit providers.
func (s *System) AuditDatabases() []string {
	out := make([]string, 0, len(s.audits))
	for _, p := range s.audits {
		out = append(out, p.Name())
	}
	return out
}

// Method returns the aggregation method in use.
func (s *System) Method() aggregator.Method {
	return s.method
}
