// Package oracle provides the oracle provider variants (Chainlink, Pyth, Band
// and generically configured custom sources).
package oracle

import "errors"

var (
	// ErrWrongOracleType indicates that a constructor received a config for another kind.
	ErrWrongOracleType = errors.New("config oracle type does not match provider")
	// ErrNoPriceResults indicates that a Band response has an empty price_results list.
	ErrNoPriceResults = errors.New("invalid response: no price results")
	// ErrMultiplierIsZero indicates that the multiplier is zero.
	ErrMultiplierIsZero = errors.New("multiplier is zero")
	// ErrInvalidDecimals indicates a Chainlink decimals value out of range.
	ErrInvalidDecimals = errors.New("invalid decimals")
	// ErrInvalidExponent indicates a Pyth expo value out of range.
	ErrInvalidExponent = errors.New("invalid exponent")
)
