package guard

import (
	"fmt"
	"runtime/debug"
)

// PanicError is returned by Run and Value when the function passed panicked.
type PanicError struct {
	// Value is the value passed to panic.
	Value any
	// Stack is the stack trace of the goroutine at the time of the panic.
	Stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value if it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Run calls fn and returns its error. If fn panics, the panic is recovered
// and returned as a *PanicError.
func Run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

// Value calls fn and returns its results. If fn panics, the zero value of T is
// returned together with a *PanicError.
func Value[T any](fn func() (T, error)) (value T, err error) {
	err = Run(func() error {
		var ferr error
		value, ferr = fn()
		return ferr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return value, nil
}
