package aggregator

import "errors"

var (
	// ErrNoSuccessfulResponses indicates that the engine was given nothing to aggregate.
	ErrNoSuccessfulResponses = errors.New("no successful oracle responses")
	// ErrUnsuccessfulResponse indicates that a failed response reached the engine.
	ErrUnsuccessfulResponse = errors.New("unsuccessful oracle response passed to aggregation")
)
