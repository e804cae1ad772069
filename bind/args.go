package bind

import (
	"errors"
	"fmt"

	"fortio.org/safecast"
)

// ErrMissingArg is wrapped by ArgError when fewer arguments were passed.
var ErrMissingArg = errors.New("missing argument")

type integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Arg returns argument i as a T.
func Arg[T any](args []any, i int) (T, error) {
	var zero T
	if i < 0 || i >= len(args) {
		return zero, &ArgError{Index: i, Want: fmt.Sprintf("%T", zero), Err: ErrMissingArg}
	}
	v, ok := args[i].(T)
	if !ok {
		return zero, &ArgError{Index: i, Want: fmt.Sprintf("%T", zero), Got: args[i]}
	}
	return v, nil
}

// IntArg returns argument i converted to the integer type T.
//
// Hosts usually pass 64-bit integers (and sometimes integral floats); the
// conversion fails instead of wrapping when the value does not fit in T.
func IntArg[T integer](args []any, i int) (T, error) {
	var zero T
	want := fmt.Sprintf("%T", zero)
	if i < 0 || i >= len(args) {
		return zero, &ArgError{Index: i, Want: want, Err: ErrMissingArg}
	}

	var (
		v   T
		err error
	)
	switch a := args[i].(type) {
	case int:
		v, err = safecast.Conv[T](a)
	case int8:
		v, err = safecast.Conv[T](a)
	case int16:
		v, err = safecast.Conv[T](a)
	case int32:
		v, err = safecast.Conv[T](a)
	case int64:
		v, err = safecast.Conv[T](a)
	case uint:
		v, err = safecast.Conv[T](a)
	case uint8:
		v, err = safecast.Conv[T](a)
	case uint16:
		v, err = safecast.Conv[T](a)
	case uint32:
		v, err = safecast.Conv[T](a)
	case uint64:
		v, err = safecast.Conv[T](a)
	case float64:
		// Fractional and out-of-range floats are rejected.
		v, err = safecast.Convert[T](a)
	default:
		return zero, &ArgError{Index: i, Want: want, Got: args[i]}
	}
	if err != nil {
		return zero, &ArgError{Index: i, Want: want, Got: args[i], Err: err}
	}
	return v, nil
}
