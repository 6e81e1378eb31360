package eventual

import (
	"errors"
	"fmt"
)

// panic messages
const (
	nilCallbackPanicMsg = "eventual: the provided callback is nil"
	nilErrorPanicMsg    = "eventual: the provided error is nil"
	nilPromisePanicMsg  = "eventual: the provided promise is nil"
)

var (
	// ErrNilPromise is the rejection error of a derived promise whose
	// flattening callback returned a nil promise.
	ErrNilPromise = errors.New("eventual: callback returned a nil promise")

	// ErrNoPromises is the rejection error of an Any or Race call made
	// with no promises.
	ErrNoPromises = errors.New("eventual: no promises provided")
)

// PanicError wraps a panic that happened inside a promise callback or
// producer, and carries it down the chain as a rejection.
type PanicError struct {
	// V is the value the panic was called with.
	V any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in promise callback: %v", e.V)
}
