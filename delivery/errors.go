package delivery

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned for unknown delivery IDs.
var ErrNotFound = errors.New("delivery not found")

// ErrUnknownStatus is returned for a status outside the lifecycle table.
var ErrUnknownStatus = errors.New("unknown delivery status")

// ErrValidation is returned for malformed requests before any state change.
var ErrValidation = errors.New("invalid delivery request")

// InvalidTransitionError is returned when a requested transition is not in
// the table. The delivery is left unchanged.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid delivery transition %s -> %s", e.From, e.To)
}
