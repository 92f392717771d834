package feed

import "errors"

// ErrAllOraclesFailed is returned when no oracle produced a usable price.
var ErrAllOraclesFailed = errors.New("all oracles failed to provide price data")
