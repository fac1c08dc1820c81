package ripple

import "errors"

var (
	// ErrUnsupportedPrecision is returned when the backend cannot provide
	// floating-point storage for the simulation buffers. It is fatal: the
	// pipeline never runs without float state.
	ErrUnsupportedPrecision = errors.New("floating-point simulation storage not supported")

	// ErrAllocation is returned when simulation buffers cannot be allocated.
	ErrAllocation = errors.New("simulation buffer allocation failed")

	// ErrUnknownParameter is returned by SetTuningParameter for names that are
	// not part of Params.
	ErrUnknownParameter = errors.New("unknown tuning parameter")
)
