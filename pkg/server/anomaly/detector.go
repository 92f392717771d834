package anomaly

import (
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/StrathCole/riskfeed/pkg/logging"
	"github.com/StrathCole/riskfeed/pkg/metrics"
	"github.com/StrathCole/riskfeed/pkg/server/sources"
)

// minSamples is the history size below which nothing is flagged.
const minSamples = 2

// Detector keeps a rolling price history per oracle type. Samples for
// different assets from the same oracle share one history.
type Detector struct {
	cfg    Config
	logger *logging.Logger
	now    func() time.Time

	mu      sync.RWMutex
	history map[sources.OracleType][]EnhancedPriceData
}

// Option configures a Detector.
type Option func(*Detector)

// WithClock overrides the time source used for pruning.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) {
		d.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDetector creates a detector with empty history.
func NewDetector(cfg Config, opts ...Option) *Detector {
	d := &Detector{
		cfg:     cfg,
		logger:  logging.NewNoopLogger(),
		now:     time.Now,
		history: make(map[sources.OracleType][]EnhancedPriceData),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectAnomalies records sample and reports whether its price deviates from
// the mean of the retained history (sample included) by more than the
// configured threshold.
func (d *Detector) DetectAnomalies(sample EnhancedPriceData) bool {
	d.mu.Lock()
	samples := append(d.history[sample.OracleType], sample)
	samples = prune(samples, d.now().Add(-d.cfg.Window()))
	d.history[sample.OracleType] = samples

	if len(samples) < minSamples {
		d.mu.Unlock()
		return false
	}
	deviation := relativeDeviation(sample.Price, meanPrice(samples))
	d.mu.Unlock()

	if deviation <= d.cfg.PriceDeviationThreshold {
		return false
	}

	metrics.RecordAnomaly(string(sample.OracleType))
	d.logger.Warn("Price anomaly detected",
		"oracle", string(sample.OracleType),
		"asset", sample.Asset,
		"price", sample.Price.String(),
		"deviation", deviation,
		"threshold", d.cfg.PriceDeviationThreshold,
	)
	return true
}

// CalculateAnomalyScore scores sample against the stored history without
// recording it. The score is deviation/threshold capped at 1, and 0 while the
// history holds fewer than two samples.
func (d *Detector) CalculateAnomalyScore(sample EnhancedPriceData) float64 {
	d.mu.RLock()
	samples := d.history[sample.OracleType]
	if len(samples) < minSamples {
		d.mu.RUnlock()
		return 0
	}
	deviation := relativeDeviation(sample.Price, meanPrice(samples))
	d.mu.RUnlock()

	threshold := d.cfg.PriceDeviationThreshold
	if threshold <= 0 {
		if deviation > 0 {
			return 1
		}
		return 0
	}

	return math.Min(deviation/threshold, 1)
}

// HistoryLen returns the number of retained samples for t.
func (d *Detector) HistoryLen(t sources.OracleType) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.history[t])
}

// prune drops samples stamped before cutoff, keeping order.
func prune(samples []EnhancedPriceData, cutoff time.Time) []EnhancedPriceData {
	kept := samples[:0]
	for _, s := range samples {
		if !s.Timestamp.Before(cutoff) {
			kept = append(kept, s)
		}
	}
	return kept
}

func meanPrice(samples []EnhancedPriceData) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range samples {
		sum = sum.Add(s.Price)
	}
	return sum.Div(decimal.NewFromInt(int64(len(samples))))
}

// relativeDeviation returns |price - mean| / mean, or 0 for a zero mean.
func relativeDeviation(price, mean decimal.Decimal) float64 {
	if mean.IsZero() {
		return 0
	}
	return price.Sub(mean).Abs().Div(mean.Abs()).InexactFloat64()
}
