package sources

import (
	"fmt"
	"strings"
	"unicode"
)

// maxAssetLength bounds asset identifiers accepted from callers.
const maxAssetLength = 64

// Stablecoin aliases - all considered equivalent to USD
var stablecoinAliases = map[string]string{
	"USDT": "USD",
	"USDC": "USD",
	"BUSD": "USD",
	"DAI":  "USD",
	"TUSD": "USD",
	"USDP": "USD",
}

// Base currency aliases
var baseCurrencyAliases = map[string]string{
	"WBTC":  "BTC",
	"WETH":  "ETH",
	"STETH": "ETH",
}

// SplitAsset returns the canonical base and quote of an asset identifier.
// Wrapped bases and stablecoin quotes collapse to their canonical form and an
// identifier without a quote is priced in USD:
//   - ETH/USDT -> ETH, USD
//   - WBTC/USD -> BTC, USD
//   - LINK -> LINK, USD
func SplitAsset(asset string) (base, quote string) {
	base, quote, found := strings.Cut(strings.ToUpper(strings.TrimSpace(asset)), "/")
	if !found || quote == "" {
		quote = "USD"
	}

	if normalized, ok := baseCurrencyAliases[base]; ok {
		base = normalized
	}
	if normalized, ok := stablecoinAliases[quote]; ok {
		quote = normalized
	}

	return base, quote
}

// FormatAsset converts an asset identifier to the form an oracle kind expects
// in its query string. Custom sources receive the identifier untouched.
func FormatAsset(t OracleType, asset string) string {
	if t == OracleTypeCustom {
		return asset
	}

	base, quote := SplitAsset(asset)
	switch t {
	case OracleTypeChainlink:
		return strings.ToLower(base) + "-" + strings.ToLower(quote)
	case OracleTypePyth:
		return "Crypto." + base + "/" + quote
	case OracleTypeBand:
		return base
	default:
		return asset
	}
}

// ValidateAsset checks an asset identifier before it is sent to oracles.
//
// Valid identifiers:
//   - "ETH/USD", "WBTC/USDT" (pairs)
//   - "LINK" (base only, priced in USD)
//   - "usdc-curve-3pool" (custom source identifiers)
//
// Invalid identifiers:
//   - "" or whitespace only
//   - "ETH/" or "/USD" (empty side)
//   - "ETH/USD/EUR" (more than one separator)
//   - identifiers containing spaces or control characters
func ValidateAsset(asset string) error {
	if strings.TrimSpace(asset) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidAsset)
	}
	if len(asset) > maxAssetLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidAsset, maxAssetLength)
	}
	for _, r := range asset {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("%w: %q", ErrInvalidAsset, asset)
		}
	}

	if strings.Count(asset, "/") > 1 {
		return fmt.Errorf("%w: %s", ErrInvalidAsset, asset)
	}
	if base, quote, found := strings.Cut(asset, "/"); found && (base == "" || quote == "") {
		return fmt.Errorf("%w: %s", ErrInvalidAsset, asset)
	}

	return nil
}
