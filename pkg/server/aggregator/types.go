package aggregator

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/StrathCole/riskfeed/pkg/server/sources"
)

// AggregatedPriceData is the engine's output for one asset.
type AggregatedPriceData struct {
	Asset      string          `json:"asset"`
	Price      decimal.Decimal `json:"price"`
	Timestamp  time.Time       `json:"timestamp"`
	Confidence float64         `json:"confidence"`
	// OracleCount is the number of responses that contributed.
	OracleCount int `json:"oracle_count"`
	// PriceDeviation is the mean relative distance of each contributing price
	// from Price.
	PriceDeviation float64 `json:"price_deviation"`
	IsConsensus    bool    `json:"is_consensus"`
	FallbackUsed   bool    `json:"fallback_used"`
	Method         Method  `json:"method"`
	// AnomalousOracles lists contributing oracles whose sample was flagged by
	// the anomaly detector. They are not excluded from the aggregate.
	AnomalousOracles []sources.OracleType      `json:"anomalous_oracles,omitempty"`
	Responses        []*sources.OracleResponse `json:"responses"`
}
