package sources

import "errors"

var (
	// ErrUnexpectedStatus indicates an unexpected HTTP status code.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status code")
	// ErrInvalidResponse indicates an invalid response from the source.
	ErrInvalidResponse = errors.New("invalid response")
	// ErrMissingPrice indicates that the payload has no usable price field.
	ErrMissingPrice = errors.New("price field missing from response")
	// ErrInvalidPrice indicates that the price field could not be parsed.
	ErrInvalidPrice = errors.New("invalid price value")
	// ErrInvalidConfig indicates that the source configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrEndpointRequired indicates that an oracle endpoint was not configured.
	ErrEndpointRequired = errors.New("endpoint is required")
	// ErrUnknownOracleType indicates that no provider is registered for a type.
	ErrUnknownOracleType = errors.New("unknown oracle type")
	// ErrRateLimited indicates that the request was abandoned while throttled.
	ErrRateLimited = errors.New("rate limit wait aborted")
	// ErrInvalidAsset indicates a malformed asset identifier.
	ErrInvalidAsset = errors.New("invalid asset identifier")
)
