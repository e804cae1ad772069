package cell

import (
	"fmt"

	"github.com/kolkov/bindcell/internal/cell/config"
	"github.com/kolkov/bindcell/internal/cell/ledger"
	"github.com/kolkov/bindcell/internal/cell/recorder"
	"github.com/kolkov/bindcell/internal/cell/report"
	"github.com/kolkov/bindcell/internal/cell/state"
)

// State is a snapshot of a cell's borrow state.
type State = state.State

// StateKind is the kind part of a State.
type StateKind = state.Kind

// State kinds.
const (
	Free      = state.Free
	Shared    = state.Shared
	Exclusive = state.Exclusive
	// PoisonedState is the terminal state after an aborted exclusive borrow.
	PoisonedState = state.Poisoned
)

// Operation names used in conflict records.
const (
	opBorrow    = "borrow"
	opBorrowMut = "borrow_mut"
	opResume    = "resume"
)

// Cell owns a value of type T and hands out checked access to it.
//
// A Cell must not be copied after first use.
type Cell[T any] struct {
	name   string
	value  T
	state  state.State
	ledger *ledger.Ledger

	// poison is the acquisition site of the exclusive borrow that poisoned
	// the cell, kept to explain later Poisoned errors.
	poison   ledger.Snapshot
	disposed bool
}

// New returns a free cell holding value.
func New[T any](value T) *Cell[T] {
	return NewNamed("", value)
}

// NewNamed returns a free cell whose name appears in errors and reports.
func NewNamed[T any](name string, value T) *Cell[T] {
	return &Cell[T]{
		name:   name,
		value:  value,
		ledger: ledger.New(),
	}
}

// Name returns the name given to NewNamed.
func (c *Cell[T]) Name() string { return c.name }

// State returns the current borrow state.
func (c *Cell[T]) State() State { return c.state }

// Diagnostics reports whether acquisition sites are recorded in this build.
func Diagnostics() bool { return ledger.Enabled }

// Borrow acquires shared access.
//
// It fails with AlreadyExclusivelyBorrowed while an exclusive borrow is
// outstanding and with Poisoned after an aborted exclusive borrow.
func (c *Cell[T]) Borrow() (*SharedGuard[T], error) {
	c.checkLive()
	next, ok := c.state.AcquireShared()
	if !ok {
		return nil, c.conflict(opBorrow, AlreadyExclusivelyBorrowed)
	}
	c.state = next
	id := c.ledger.TrackShared()
	return &SharedGuard[T]{cell: c, id: id}, nil
}

// BorrowMut acquires exclusive access.
//
// It fails with AlreadyBorrowed while any borrow is outstanding and with
// Poisoned after an aborted exclusive borrow.
func (c *Cell[T]) BorrowMut() (*ExclusiveGuard[T], error) {
	c.checkLive()
	return c.acquireExclusive(opBorrowMut, ledger.NoSnapshot)
}

// acquireExclusive is shared by BorrowMut and Suspended.Resume. A non-zero
// snap is recorded as the acquisition site instead of the current stack.
func (c *Cell[T]) acquireExclusive(op string, snap ledger.Snapshot) (*ExclusiveGuard[T], error) {
	next, ok := c.state.AcquireExclusive()
	if !ok {
		return nil, c.conflict(op, AlreadyBorrowed)
	}
	c.state = next
	c.ledger.TrackExclusive(snap)
	return &ExclusiveGuard[T]{cell: c}, nil
}

// conflict builds the error for a failed borrow and records it.
// A poisoned cell always reports Poisoned regardless of the requested kind.
func (c *Cell[T]) conflict(op string, kind ErrorKind) error {
	var sites []report.Site
	if c.state.IsPoisoned() {
		kind = Poisoned
		if c.poison != ledger.NoSnapshot {
			sites = []report.Site{ledger.Site(c.poison, report.SitePoisoned, 0)}
		}
	} else {
		sites = c.ledger.Sites()
	}

	recorder.Default().Observe(report.Conflict{
		Cell:   c.name,
		Op:     op,
		Kind:   kind.String(),
		State:  c.state.String(),
		Shared: c.state.Count(),
		Sites:  sites,
	})

	return &AccessError{
		Kind:      kind,
		Cell:      c.name,
		Locations: report.Render(sites, config.Current().ReportLimit),
	}
}

func (c *Cell[T]) releaseShared(id uint64) {
	c.state = c.state.ReleaseShared()
	c.ledger.UntrackShared(id)
}

// releaseExclusive ends the exclusive borrow and returns its acquisition
// site. A non-orderly release poisons the cell.
func (c *Cell[T]) releaseExclusive(orderly bool) ledger.Snapshot {
	c.state = c.state.ReleaseExclusive(orderly)
	snap := c.ledger.UntrackExclusive()
	if !orderly {
		c.poison = snap
	}
	return snap
}

// Dispose retires the cell and returns its value.
//
// Disposing a cell with an outstanding borrow is a bug in the owning layer
// and panics, listing the outstanding acquisition sites. A poisoned cell
// returns its value together with an error matching ErrPoisoned; the caller
// decides whether the value is still usable. Any use of a disposed cell
// panics.
func (c *Cell[T]) Dispose() (T, error) {
	c.checkLive()
	var err error
	switch c.state.Kind() {
	case state.Free:
	case state.Poisoned:
		err = c.conflict("dispose", Poisoned)
	default:
		panic(fmt.Sprintf("bindcell: dispose of %s while %s\n%s",
			c.describe(), c.state, c.ledger.Locations(0)))
	}

	v := c.value
	var zero T
	c.value = zero
	c.disposed = true
	return v, err
}

func (c *Cell[T]) checkLive() {
	if c.disposed {
		panic("bindcell: use of disposed " + c.describe())
	}
}

func (c *Cell[T]) describe() string {
	if c.name == "" {
		return "cell"
	}
	return fmt.Sprintf("cell %q", c.name)
}

// String returns the cell name and state, e.g. `cell "player" [shared(2)]`.
func (c *Cell[T]) String() string {
	return c.describe() + " [" + c.state.String() + "]"
}
