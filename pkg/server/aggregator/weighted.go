package aggregator

import (
	"github.com/shopspring/decimal"

	"github.com/StrathCole/riskfeed/pkg/server/sources"
)

// defaultWeight applies to oracle types missing from the weight table.
const defaultWeight = 1.0

// WeightedAverageAggregator aggregates prices as Σ(price×weight) / Σ(weight).
type WeightedAverageAggregator struct {
	weights map[sources.OracleType]float64
}

// Ensure WeightedAverageAggregator implements Aggregator interface
var _ Aggregator = (*WeightedAverageAggregator)(nil)

// NewWeightedAverageAggregator creates a weighted average aggregator.
// weights maps oracle types to their weight; unknown types weigh 1.0.
func NewWeightedAverageAggregator(weights map[sources.OracleType]float64) *WeightedAverageAggregator {
	return &WeightedAverageAggregator{weights: weights}
}

// Aggregate computes the weighted arithmetic mean of prices.
func (a *WeightedAverageAggregator) Aggregate(responses []*sources.OracleResponse) decimal.Decimal {
	if len(responses) == 0 {
		return decimal.Zero
	}

	weightedSum := decimal.Zero
	totalWeight := decimal.Zero

	for _, r := range responses {
		w := decimal.NewFromFloat(a.weight(r.OracleType))
		weightedSum = weightedSum.Add(r.Price.Mul(w))
		totalWeight = totalWeight.Add(w)
	}

	if totalWeight.IsZero() {
		return decimal.Zero
	}

	return weightedSum.Div(totalWeight)
}

func (a *WeightedAverageAggregator) weight(t sources.OracleType) float64 {
	if w, ok := a.weights[t]; ok {
		return w
	}
	return defaultWeight
}

// Threshold returns the consensus band.
func (a *WeightedAverageAggregator) Threshold() float64 {
	return ConsensusThreshold
}

// FallbackOnDisagreement is false for weighted average.
func (a *WeightedAverageAggregator) FallbackOnDisagreement() bool {
	return false
}
