package bind

import (
	"errors"
	"fmt"
)

// Sentinel errors wrapped by CallError.
var (
	ErrUnknownObject = errors.New("unknown object")
	ErrUnknownMethod = errors.New("unknown method")
	ErrPanicked      = errors.New("method panicked")
	ErrDuplicate     = errors.New("duplicate registration")
)

// CallError reports a failed host call.
type CallError struct {
	Object string
	Method string
	Err    error
}

// Error implements the error interface.
//
// Format: "call object.method: cause".
func (e *CallError) Error() string {
	return fmt.Sprintf("call %s.%s: %v", e.Object, e.Method, e.Err)
}

// Unwrap returns the cause.
func (e *CallError) Unwrap() error { return e.Err }

// ArgError reports an argument the host passed with the wrong type or range.
type ArgError struct {
	Index int
	Want  string
	Got   any
	Err   error
}

// Error implements the error interface.
func (e *ArgError) Error() string {
	msg := fmt.Sprintf("argument %d: want %s, got %T", e.Index, e.Want, e.Got)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the conversion error, if any.
func (e *ArgError) Unwrap() error { return e.Err }
