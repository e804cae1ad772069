package cell

import "strings"

// ErrorKind classifies an access failure.
type ErrorKind uint8

const (
	// AlreadyBorrowed means exclusive access was requested while any access
	// was outstanding.
	AlreadyBorrowed ErrorKind = iota + 1
	// AlreadyExclusivelyBorrowed means shared access was requested while
	// exclusive access was outstanding.
	AlreadyExclusivelyBorrowed
	// Poisoned means an exclusive holder aborted and the cell is unusable.
	Poisoned
)

// String returns the human-readable kind name.
func (k ErrorKind) String() string {
	switch k {
	case AlreadyBorrowed:
		return "already borrowed"
	case AlreadyExclusivelyBorrowed:
		return "already exclusively borrowed"
	case Poisoned:
		return "poisoned"
	default:
		return "unknown access error"
	}
}

// AccessError is returned by a failed borrow.
//
// Example:
//
//	g, err := c.BorrowMut()
//	var accessErr *cell.AccessError
//	if errors.As(err, &accessErr) {
//	    log.Printf("cannot mutate %s: %s", accessErr.Cell, accessErr.Kind)
//	}
//
// Thread Safety: Immutable after creation.
type AccessError struct {
	Kind ErrorKind

	// Cell is the cell name given to NewNamed, empty for anonymous cells.
	Cell string

	// Locations lists the acquisition sites of the conflicting borrows (or,
	// for Poisoned, of the borrow that poisoned the cell). Always empty in
	// builds without diagnostics.
	Locations string
}

// Sentinel errors for errors.Is. They match any *AccessError of the same Kind.
var (
	ErrAlreadyBorrowed            error = &AccessError{Kind: AlreadyBorrowed}
	ErrAlreadyExclusivelyBorrowed error = &AccessError{Kind: AlreadyExclusivelyBorrowed}
	ErrPoisoned                   error = &AccessError{Kind: Poisoned}
)

// Error implements the error interface.
//
// Format: "bindcell: cell \"name\": kind", followed by the acquisition sites
// on the next lines when they were recorded.
func (e *AccessError) Error() string {
	var b strings.Builder
	b.WriteString("bindcell: ")
	if e.Cell != "" {
		b.WriteString("cell \"")
		b.WriteString(e.Cell)
		b.WriteString("\": ")
	}
	b.WriteString(e.Kind.String())
	if e.Locations != "" {
		b.WriteByte('\n')
		b.WriteString(strings.TrimRight(e.Locations, "\n"))
	}
	return b.String()
}

// Is reports whether target is an *AccessError of the same kind.
func (e *AccessError) Is(target error) bool {
	t, ok := target.(*AccessError)
	return ok && t.Kind == e.Kind
}
