package oracle

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/StrathCole/riskfeed/pkg/logging"
	"github.com/StrathCole/riskfeed/pkg/server/sources"
)

const (
	pythDefaultConfidence = 0.85
	maxPythExponent       = 36
)

// PythProvider fetches prices from a Pyth Network style price service.
// Feeds are addressed by their asset-class qualified symbol (Crypto.BTC/USD).
type PythProvider struct {
	*sources.BaseProvider
}

var _ sources.Provider = (*PythProvider)(nil)

// NewPythProvider creates a Pyth provider from cfg.
func NewPythProvider(cfg sources.OracleConfig, logger *logging.Logger) (sources.Provider, error) {
	if cfg.Type != sources.OracleTypePyth {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrWrongOracleType, cfg.Type, sources.OracleTypePyth)
	}

	base, err := sources.NewBaseProvider(cfg, pythDefaultConfidence, logger)
	if err != nil {
		return nil, fmt.Errorf("pyth provider: %w", err)
	}

	base.SetPayloadDecoder(decodePythPayload)
	return &PythProvider{BaseProvider: base}, nil
}

// decodePythPayload handles Pyth price objects, where price and conf are
// integers scaled by 10^expo. The object sits either under "price" or under
// "parsed.0.price" (Hermes). Confidence is derived as 1 - conf/price.
//
//	{"price":{"price":"6140993501000","conf":"3280000000","expo":-8,"publish_time":1718000000}}
func decodePythPayload(payload []byte) (sources.Quote, bool, error) {
	doc := gjson.ParseBytes(payload)

	obj := doc.Get("parsed.0.price")
	if !obj.IsObject() {
		obj = doc.Get("price")
	}
	if !obj.IsObject() {
		return sources.Quote{}, false, nil
	}

	raw, ok, err := sources.DecimalField(obj, "price")
	if err != nil {
		return sources.Quote{}, false, err
	}
	if !ok {
		return sources.Quote{}, false, fmt.Errorf("%w: price object without price", sources.ErrMissingPrice)
	}

	rawExpo := obj.Get("expo").Int()
	if rawExpo < -maxPythExponent || rawExpo > maxPythExponent {
		return sources.Quote{}, false, fmt.Errorf("%w: %d", ErrInvalidExponent, rawExpo)
	}
	expo := int32(rawExpo)
	price := raw.Shift(expo)
	quote := sources.Quote{Price: price}

	conf, hasConf, err := sources.DecimalField(obj, "conf")
	if err != nil {
		return sources.Quote{}, false, err
	}
	if hasConf && price.IsPositive() {
		c := 1 - conf.Shift(expo).Div(price).InexactFloat64()
		quote.Confidence = &c
	}

	return quote, true, nil
}
