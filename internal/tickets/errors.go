package tickets

import (
	"errors"
	"fmt"
)

// ErrEventNotFound is returned when the referenced event does not exist.
var ErrEventNotFound = errors.New("event not found")

// InvalidInputError reports malformed or missing caller data. It is raised
// before any storage access.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return e.Reason
}

// InsufficientTicketsError reports a valid request that exceeds the
// remaining capacity of the event. Available carries the actual remaining
// count observed under the row lock.
type InsufficientTicketsError struct {
	Available int
}

func (e *InsufficientTicketsError) Error() string {
	return fmt.Sprintf("Only %d tickets left", e.Available)
}

// SystemError wraps storage or transport failures. The wrapped cause is
// for server-side logging only and must never reach the client.
type SystemError struct {
	Err error
}

func (e *SystemError) Error() string {
	return fmt.Sprintf("system error: %v", e.Err)
}

func (e *SystemError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies a purchase error for transport layers.
type ErrorKind string

const (
	KindInvalidInput        ErrorKind = "validation"
	KindEventNotFound       ErrorKind = "not_found"
	KindInsufficientTickets ErrorKind = "insufficient"
	KindSystem              ErrorKind = "system"
)

// Classify maps an error returned by Service.Purchase to its kind.
func Classify(err error) ErrorKind {
	var invalidErr *InvalidInputError
	var insufficientErr *InsufficientTicketsError
	switch {
	case errors.As(err, &invalidErr):
		return KindInvalidInput
	case errors.Is(err, ErrEventNotFound):
		return KindEventNotFound
	case errors.As(err, &insufficientErr):
		return KindInsufficientTickets
	default:
		return KindSystem
	}
}
