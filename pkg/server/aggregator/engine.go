package aggregator

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/StrathCole/riskfeed/pkg/logging"
	"github.com/StrathCole/riskfeed/pkg/metrics"
	"github.com/StrathCole/riskfeed/pkg/server/sources"
)

// Engine turns a set of successful responses into an AggregatedPriceData.
// It is stateless apart from the weight table and safe for concurrent use.
type Engine struct {
	weights map[sources.OracleType]float64
	logger  *logging.Logger
	now     func() time.Time
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithClock sets the time source stamped on aggregates.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an engine. weights is copied.
func NewEngine(weights map[sources.OracleType]float64, logger *logging.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = logging.NewNoopLogger()
	}

	w := make(map[sources.OracleType]float64, len(weights))
	for k, v := range weights {
		w[k] = v
	}

	e := &Engine{
		weights: w,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Aggregate combines responses with method. Every response must be successful.
func (e *Engine) Aggregate(asset string, responses []*sources.OracleResponse, method Method) (*AggregatedPriceData, error) {
	start := time.Now()
	defer func() {
		metrics.RecordAggregation(string(method), time.Since(start))
	}()

	if len(responses) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSuccessfulResponses, asset)
	}
	for _, r := range responses {
		if r == nil || !r.Success {
			return nil, ErrUnsuccessfulResponse
		}
	}

	strategy := NewAggregator(method, e.weights)
	price := strategy.Aggregate(responses)

	prices := make([]decimal.Decimal, 0, len(responses))
	confidence := 0.0
	for _, r := range responses {
		prices = append(prices, r.Price)
		confidence += r.Confidence
	}
	confidence /= float64(len(responses))

	deviation := PriceDeviation(prices, price)
	consensus := deviation < strategy.Threshold()

	result := &AggregatedPriceData{
		Asset:          asset,
		Price:          price,
		Timestamp:      e.now(),
		Confidence:     confidence,
		OracleCount:    len(responses),
		PriceDeviation: deviation,
		IsConsensus:    consensus,
		FallbackUsed:   strategy.FallbackOnDisagreement() && !consensus,
		Method:         method,
		Responses:      responses,
	}

	if !consensus {
		metrics.RecordConsensusFailure(asset, string(method))
		e.logger.Warn("Oracle prices disagree",
			"asset", asset,
			"method", string(method),
			"deviation", deviation,
			"threshold", strategy.Threshold(),
			"oracles", len(responses),
		)
	}

	return result, nil
}
