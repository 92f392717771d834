package aggregator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/StrathCole/riskfeed/pkg/server/sources"
)

// PriceDeviation returns the mean of |p - aggregate| / aggregate over prices.
// A zero aggregate or an empty set yields 0.
func PriceDeviation(prices []decimal.Decimal, aggregate decimal.Decimal) float64 {
	if len(prices) == 0 || aggregate.IsZero() {
		return 0
	}

	sum := decimal.Zero
	for _, p := range prices {
		sum = sum.Add(p.Sub(aggregate).Abs().Div(aggregate))
	}

	return sum.Div(decimal.NewFromInt(int64(len(prices)))).Abs().InexactFloat64()
}

func mean(prices []decimal.Decimal) decimal.Decimal {
	if len(prices) == 0 {
		return decimal.Zero
	}
	return decimal.Sum(decimal.Zero, prices...).Div(decimal.NewFromInt(int64(len(prices))))
}

// sortedPrices copies the response prices in ascending order.
func sortedPrices(responses []*sources.OracleResponse) []decimal.Decimal {
	prices := make([]decimal.Decimal, 0, len(responses))
	for _, r := range responses {
		prices = append(prices, r.Price)
	}
	sort.Slice(prices, func(i, j int) bool {
		return prices[i].LessThan(prices[j])
	})
	return prices
}
