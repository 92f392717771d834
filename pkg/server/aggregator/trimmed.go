package aggregator

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/StrathCole/riskfeed/pkg/server/sources"
)

// TrimmedMeanAggregator drops the lowest and highest ⌊fraction×n⌋ prices and
// averages the rest.
type TrimmedMeanAggregator struct {
	fraction float64
}

// Ensure TrimmedMeanAggregator implements Aggregator interface.
var _ Aggregator = (*TrimmedMeanAggregator)(nil)

// NewTrimmedMeanAggregator creates a trimmed mean aggregator.
func NewTrimmedMeanAggregator(fraction float64) *TrimmedMeanAggregator {
	if fraction < 0 || fraction >= 0.5 {
		fraction = TrimFraction
	}
	return &TrimmedMeanAggregator{fraction: fraction}
}

// Aggregate computes the trimmed mean. When trimming leaves nothing the result
// is 0, not the untrimmed mean.
func (a *TrimmedMeanAggregator) Aggregate(responses []*sources.OracleResponse) decimal.Decimal {
	prices := sortedPrices(responses)
	n := len(prices)

	trim := int(math.Floor(a.fraction * float64(n)))
	if 2*trim >= n {
		return decimal.Zero
	}

	return mean(prices[trim : n-trim])
}

// Threshold returns the consensus band.
func (a *TrimmedMeanAggregator) Threshold() float64 {
	return ConsensusThreshold
}

// FallbackOnDisagreement is false for trimmed mean.
func (a *TrimmedMeanAggregator) FallbackOnDisagreement() bool {
	return false
}
