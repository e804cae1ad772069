// Package state implements the borrow state machine of an access cell.
//
// State is a 32-bit value encoding the kind of outstanding access and,
// for shared access, the number of readers:
// - Top 2 bits: Kind (Free, Shared, Exclusive, Poisoned)
// - Bottom 30 bits: Shared reader count (zero for every other kind)
//
// Reachable transitions:
//
//	Free -> Shared(1) -> Shared(n) -> ... -> Shared(1) -> Free
//	Free -> Exclusive -> Free
//	Exclusive -> Poisoned (terminal)
//
// The zero value is Free.
package state

import "strconv"

// Kind identifies the kind of access currently outstanding.
type Kind uint8

const (
	// Free means no access is outstanding.
	Free Kind = iota
	// Shared means one or more read-only accesses are outstanding.
	Shared
	// Exclusive means exactly one read-write access is outstanding.
	Exclusive
	// Poisoned means an exclusive holder aborted; no access ever succeeds again.
	Poisoned
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case Free:
		return "free"
	case Shared:
		return "shared"
	case Exclusive:
		return "exclusive"
	case Poisoned:
		return "poisoned"
	default:
		return "unknown"
	}
}

const (
	// CountBits is the number of bits allocated for the shared reader count.
	CountBits = 30

	// CountMask extracts the reader count (0x3FFFFFFF).
	CountMask = (1 << CountBits) - 1
)

// State is the packed borrow state. Layout: [Kind:2][Count:30].
type State uint32

func pack(k Kind, n uint32) State {
	return State(uint32(k)<<CountBits | (n & CountMask))
}

// Kind returns the kind of outstanding access.
func (s State) Kind() Kind {
	//nolint:gosec // G115: top 2 bits always fit in uint8.
	return Kind(uint32(s) >> CountBits)
}

// Count returns the number of outstanding shared accesses.
// It is 0 for Free, Exclusive and Poisoned.
func (s State) Count() uint32 {
	return uint32(s) & CountMask
}

// IsFree reports whether no access is outstanding.
func (s State) IsFree() bool { return s.Kind() == Free }

// IsPoisoned reports whether the state is terminal.
func (s State) IsPoisoned() bool { return s.Kind() == Poisoned }

// AcquireShared returns the state after one more shared access.
//
// Valid from Free and Shared(n); reports false for Exclusive and Poisoned,
// in which case s is returned unchanged.
func (s State) AcquireShared() (State, bool) {
	switch s.Kind() {
	case Free:
		return pack(Shared, 1), true
	case Shared:
		n := s.Count()
		if n == CountMask {
			panic("bindcell: shared borrow count overflow")
		}
		return pack(Shared, n+1), true
	default:
		return s, false
	}
}

// AcquireExclusive returns Exclusive when s is Free.
// Any other state reports false and is returned unchanged.
func (s State) AcquireExclusive() (State, bool) {
	if s.Kind() != Free {
		return s, false
	}
	return pack(Exclusive, 0), true
}

// ReleaseShared returns the state after one shared access ends.
//
// Calling it when s is not Shared is a bug in the cell itself and panics.
func (s State) ReleaseShared() State {
	if s.Kind() != Shared {
		panic("bindcell: release of shared borrow in state " + s.String())
	}
	n := s.Count()
	if n == 1 {
		return pack(Free, 0)
	}
	return pack(Shared, n-1)
}

// ReleaseExclusive returns Free for an orderly release and Poisoned otherwise.
//
// Calling it when s is not Exclusive panics.
func (s State) ReleaseExclusive(orderly bool) State {
	if s.Kind() != Exclusive {
		panic("bindcell: release of exclusive borrow in state " + s.String())
	}
	if orderly {
		return pack(Free, 0)
	}
	return pack(Poisoned, 0)
}

// String returns "free", "shared(n)", "exclusive" or "poisoned".
func (s State) String() string {
	if s.Kind() == Shared {
		return "shared(" + strconv.FormatUint(uint64(s.Count()), 10) + ")"
	}
	return s.Kind().String()
}
