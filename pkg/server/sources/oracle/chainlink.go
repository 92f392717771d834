package oracle

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/StrathCole/riskfeed/pkg/logging"
	"github.com/StrathCole/riskfeed/pkg/server/sources"
)

const (
	chainlinkDefaultConfidence = 0.80
	maxChainlinkDecimals       = 36
)

// ChainlinkProvider fetches prices from a Chainlink style feed gateway.
// Feeds are addressed as lower-case "base-quote" (eth-usd).
type ChainlinkProvider struct {
	*sources.BaseProvider
}

var _ sources.Provider = (*ChainlinkProvider)(nil)

// NewChainlinkProvider creates a Chainlink provider from cfg.
func NewChainlinkProvider(cfg sources.OracleConfig, logger *logging.Logger) (sources.Provider, error) {
	if cfg.Type != sources.OracleTypeChainlink {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrWrongOracleType, cfg.Type, sources.OracleTypeChainlink)
	}

	base, err := sources.NewBaseProvider(cfg, chainlinkDefaultConfidence, logger)
	if err != nil {
		return nil, fmt.Errorf("chainlink provider: %w", err)
	}

	base.SetPayloadDecoder(decodeChainlinkPayload)
	return &ChainlinkProvider{BaseProvider: base}, nil
}

// decodeChainlinkPayload handles latestRoundData style payloads where the
// answer is an integer scaled by 10^decimals.
//
//	{"roundId":"110680464442257320247","answer":"6412345000000","decimals":8}
func decodeChainlinkPayload(payload []byte) (sources.Quote, bool, error) {
	doc := gjson.ParseBytes(payload)
	if doc.Get("price").Exists() {
		return sources.Quote{}, false, nil
	}

	answer, ok, err := sources.DecimalField(doc, "answer")
	if err != nil || !ok {
		return sources.Quote{}, false, err
	}

	decimals := doc.Get("decimals")
	if !decimals.Exists() {
		return sources.Quote{Price: answer}, true, nil
	}
	exp := decimals.Int()
	if exp < 0 || exp > maxChainlinkDecimals {
		return sources.Quote{}, false, fmt.Errorf("%w: %d", ErrInvalidDecimals, exp)
	}

	return sources.Quote{Price: answer.Shift(-int32(exp))}, true, nil
}
