package exception

import "github.com/yanun0323/errors"

// IsTransient reports whether err belongs to the class the control loop absorbs
// by skipping or retrying on the next tick.
func IsTransient(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrDepthFetch),
		errors.Is(err, ErrDepthStale),
		errors.Is(err, ErrInsufficientDepth),
		errors.Is(err, ErrOrderCancel),
		errors.Is(err, ErrOrderTransport):
		return true
	default:
		return false
	}
}

// IsFatal reports whether err must stop the control loop.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrOrderPlacement) || errors.Is(err, ErrInvariantViolation)
}
