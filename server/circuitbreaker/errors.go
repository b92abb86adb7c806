package circuitbreaker

import (
	"errors"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned while the breaker is open. It is gobreaker's own
// sentinel so errors.Is works against either name.
var ErrCircuitOpen = gobreaker.ErrOpenState

// IsOpen reports whether err means the call was shed by the breaker, either
// because it is open or because the half-open probe quota is used up.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
