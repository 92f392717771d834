package oracle

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/StrathCole/riskfeed/pkg/logging"
	"github.com/StrathCole/riskfeed/pkg/server/sources"
)

// bandDefaultConfidence applies when a Band payload omits confidence.
// Band aggregates validator reports on a slower cadence than push oracles.
const bandDefaultConfidence = 0.75

// BandProvider fetches prices from a Band Protocol style endpoint.
// https://bandprotocol.com/
// Band keys its feeds by base symbol only (EUR, BTC).
type BandProvider struct {
	*sources.BaseProvider
}

var _ sources.Provider = (*BandProvider)(nil)

// NewBandProvider creates a Band provider from cfg.
func NewBandProvider(cfg sources.OracleConfig, logger *logging.Logger) (sources.Provider, error) {
	if cfg.Type != sources.OracleTypeBand {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrWrongOracleType, cfg.Type, sources.OracleTypeBand)
	}

	base, err := sources.NewBaseProvider(cfg, bandDefaultConfidence, logger)
	if err != nil {
		return nil, fmt.Errorf("band provider: %w", err)
	}

	base.SetPayloadDecoder(decodeBandPayload)
	return &BandProvider{BaseProvider: base}, nil
}

// decodeBandPayload handles Band's native shape where the price is reported as
// px scaled by multiplier, either at the root or as the first price_results entry.
//
//	{"price_results":[{"symbol":"BTC","multiplier":"1000000000","px":"64000123000000"}]}
func decodeBandPayload(payload []byte) (sources.Quote, bool, error) {
	doc := gjson.ParseBytes(payload)
	if results := doc.Get("price_results"); results.IsArray() {
		if len(results.Array()) == 0 {
			return sources.Quote{}, false, fmt.Errorf("%w", ErrNoPriceResults)
		}
		doc = results.Array()[0]
	}

	px, hasPx, err := sources.DecimalField(doc, "px")
	if err != nil || !hasPx {
		return sources.Quote{}, false, err
	}
	multiplier, hasMultiplier, err := sources.DecimalField(doc, "multiplier")
	if err != nil {
		return sources.Quote{}, false, err
	}
	if !hasMultiplier {
		multiplier = decimal.NewFromInt(1)
	}
	if multiplier.IsZero() {
		return sources.Quote{}, false, fmt.Errorf("%w", ErrMultiplierIsZero)
	}

	return sources.Quote{Price: px.Div(multiplier)}, true, nil
}
