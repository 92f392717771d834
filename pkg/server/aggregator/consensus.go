package aggregator

import (
	"github.com/shopspring/decimal"

	"github.com/StrathCole/riskfeed/pkg/server/sources"
)

// ConsensusAggregator averages prices and only reports consensus when every
// source sits within StrictConsensusThreshold of the mean on average.
// A result without consensus is marked as a fallback.
type ConsensusAggregator struct{}

// Ensure ConsensusAggregator implements Aggregator interface.
var _ Aggregator = (*ConsensusAggregator)(nil)

// NewConsensusAggregator creates a consensus aggregator.
func NewConsensusAggregator() *ConsensusAggregator {
	return &ConsensusAggregator{}
}

// Aggregate computes the arithmetic mean of prices.
func (a *ConsensusAggregator) Aggregate(responses []*sources.OracleResponse) decimal.Decimal {
	prices := make([]decimal.Decimal, 0, len(responses))
	for _, r := range responses {
		prices = append(prices, r.Price)
	}
	return mean(prices)
}

// Threshold returns the strict consensus band.
func (a *ConsensusAggregator) Threshold() float64 {
	return StrictConsensusThreshold
}

// FallbackOnDisagreement is true: disagreement marks the result as a fallback.
func (a *ConsensusAggregator) FallbackOnDisagreement() bool {
	return true
}
