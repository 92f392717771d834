package aggregator

import (
	"github.com/shopspring/decimal"

	"github.com/StrathCole/riskfeed/pkg/server/sources"
)

// MedianAggregator aggregates prices using the median.
type MedianAggregator struct{}

// Ensure MedianAggregator implements Aggregator interface.
var _ Aggregator = (*MedianAggregator)(nil)

// NewMedianAggregator creates a new median aggregator.
func NewMedianAggregator() *MedianAggregator {
	return &MedianAggregator{}
}

// Aggregate returns the middle price, or the mean of the two middle prices
// for an even count.
func (a *MedianAggregator) Aggregate(responses []*sources.OracleResponse) decimal.Decimal {
	prices := sortedPrices(responses)
	n := len(prices)
	if n == 0 {
		return decimal.Zero
	}

	if n%2 == 0 {
		return prices[n/2-1].Add(prices[n/2]).Div(decimal.NewFromInt(2))
	}

	return prices[n/2]
}

// Threshold returns the consensus band.
func (a *MedianAggregator) Threshold() float64 {
	return ConsensusThreshold
}

// FallbackOnDisagreement is false for median.
func (a *MedianAggregator) FallbackOnDisagreement() bool {
	return false
}
