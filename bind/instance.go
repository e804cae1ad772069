package bind

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/kolkov/bindcell/cell"
)

// ReadMethod runs with shared access to the object's value.
type ReadMethod[T any] func(ctx context.Context, self T, args []any) (any, error)

// WriteMethod runs with exclusive access to the object's value.
type WriteMethod[T any] func(ctx context.Context, self *T, args []any) (any, error)

type method[T any] struct {
	read  ReadMethod[T]
	write WriteMethod[T]
}

// Option configures an Instance.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for call outcomes. Calls are logged at
// Debug, access conflicts at Warn and panics at Error.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Instance is a host-callable object backed by a cell.
type Instance[T any] struct {
	name    string
	cell    *cell.Cell[T]
	methods map[string]method[T]
	logger  *slog.Logger
}

// NewInstance wraps value in a new named cell.
func NewInstance[T any](name string, value T, opts ...Option) *Instance[T] {
	o := options{logger: discardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Instance[T]{
		name:    name,
		cell:    cell.NewNamed(name, value),
		methods: make(map[string]method[T]),
		logger:  o.logger.With(slog.String("object", name)),
	}
}

// Name returns the object name.
func (o *Instance[T]) Name() string { return o.name }

// Cell returns the cell holding the object's value, for application code
// that accesses the object directly.
func (o *Instance[T]) Cell() *cell.Cell[T] { return o.cell }

// Read registers a method that runs under shared access.
// Registering a name twice panics.
func (o *Instance[T]) Read(name string, fn ReadMethod[T]) *Instance[T] {
	o.register(name, method[T]{read: fn})
	return o
}

// Write registers a method that runs under exclusive access.
// Registering a name twice panics.
func (o *Instance[T]) Write(name string, fn WriteMethod[T]) *Instance[T] {
	o.register(name, method[T]{write: fn})
	return o
}

func (o *Instance[T]) register(name string, m method[T]) {
	if _, ok := o.methods[name]; ok {
		panic(fmt.Sprintf("bind: %s.%s: %v", o.name, name, ErrDuplicate))
	}
	o.methods[name] = m
}

// Methods returns the registered method names in sorted order.
func (o *Instance[T]) Methods() []string {
	names := make([]string, 0, len(o.methods))
	for name := range o.methods {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Call invokes a method on behalf of the host.
//
// Any failure, including a panic inside the method, is returned as a
// *CallError; nothing unwinds into the caller.
func (o *Instance[T]) Call(ctx context.Context, name string, args ...any) (result any, err error) {
	m, ok := o.methods[name]
	if !ok {
		return nil, o.fail(name, ErrUnknownMethod)
	}
	if err := ctx.Err(); err != nil {
		return nil, o.fail(name, err)
	}

	defer func() {
		if r := recover(); r != nil {
			if msg, ok := r.(string); ok && strings.HasPrefix(msg, "bindcell:") {
				// Contract violations are bugs, not call failures.
				panic(r)
			}
			o.logger.Error("method panicked",
				slog.String("method", name),
				slog.Any("panic", r),
				slog.String("state", o.cell.State().String()))
			result, err = nil, &CallError{Object: o.name, Method: name, Err: fmt.Errorf("%w: %v", ErrPanicked, r)}
		}
	}()

	if m.read != nil {
		err = cell.With(o.cell, func(v T) error {
			result, err = m.read(ctx, v, args)
			return err
		})
	} else {
		err = cell.WithMut(o.cell, func(v *T) error {
			result, err = m.write(ctx, v, args)
			return err
		})
	}
	if err != nil {
		return nil, o.fail(name, err)
	}
	o.logger.Debug("call completed", slog.String("method", name))
	return result, nil
}

func (o *Instance[T]) fail(name string, err error) error {
	var accessErr *cell.AccessError
	if errors.As(err, &accessErr) {
		o.logger.Warn("access conflict",
			slog.String("method", name),
			slog.String("kind", accessErr.Kind.String()),
			slog.String("state", o.cell.State().String()))
	}
	var callErr *CallError
	if errors.As(err, &callErr) {
		// Nested host call failed; keep the innermost object and method.
		return err
	}
	return &CallError{Object: o.name, Method: name, Err: err}
}
