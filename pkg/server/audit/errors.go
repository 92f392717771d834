package audit

import "errors"

var (
	ErrEndpointRequired = errors.New("audit database endpoint is required")
	ErrInvalidEndpoint  = errors.New("invalid audit database endpoint")
	ErrUnexpectedStatus = errors.New("unexpected HTTP status code")
	ErrInvalidResponse  = errors.New("audit database response is not a JSON array")
)
