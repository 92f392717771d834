// Package aggregator combines successful oracle responses into one trusted price.
package aggregator

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/StrathCole/riskfeed/pkg/server/sources"
)

// Method selects the aggregation algorithm.
type Method string

const (
	// MethodWeightedAverage weights each price by its oracle's configured weight.
	MethodWeightedAverage Method = "weighted_average"
	// MethodMedian takes the middle price (mean of the middle two for even counts).
	MethodMedian Method = "median"
	// MethodTrimmedMean drops the extreme 10% on each side before averaging.
	MethodTrimmedMean Method = "trimmed_mean"
	// MethodConsensus averages and requires agreement within a 1% band.
	MethodConsensus Method = "consensus"
	// MethodCustom is accepted by configuration and aggregates as weighted average.
	MethodCustom Method = "custom"
)

const (
	// ConsensusThreshold is the deviation band for weighted, median and trimmed methods.
	ConsensusThreshold = 0.02
	// StrictConsensusThreshold is the deviation band for the consensus method.
	StrictConsensusThreshold = 0.01
	// TrimFraction is the share of samples dropped from each end by the trimmed mean.
	TrimFraction = 0.10
)

// KnownMethods lists every accepted method name.
var KnownMethods = []Method{
	MethodWeightedAverage,
	MethodMedian,
	MethodTrimmedMean,
	MethodConsensus,
	MethodCustom,
}

// ParseMethod normalizes a configured name ("weighted-average", "Median") to a Method.
func ParseMethod(s string) Method {
	return Method(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
}

// IsKnown reports whether m is one of KnownMethods.
func (m Method) IsKnown() bool {
	for _, k := range KnownMethods {
		if m == k {
			return true
		}
	}
	return false
}

// Aggregator computes the aggregate price of a non-empty set of successful responses.
type Aggregator interface {
	// Aggregate returns the combined price.
	Aggregate(responses []*sources.OracleResponse) decimal.Decimal

	// Threshold is the price deviation below which the result counts as consensus.
	Threshold() float64

	// FallbackOnDisagreement reports whether missing consensus marks the result as a fallback.
	FallbackOnDisagreement() bool
}

// NewAggregator returns the aggregator for method. Unrecognized methods,
// including MethodCustom, fall back to the weighted average.
func NewAggregator(method Method, weights map[sources.OracleType]float64) Aggregator {
	switch method {
	case MethodMedian:
		return NewMedianAggregator()
	case MethodTrimmedMean:
		return NewTrimmedMeanAggregator(TrimFraction)
	case MethodConsensus:
		return NewConsensusAggregator()
	default:
		return NewWeightedAverageAggregator(weights)
	}
}
