package cell

import "github.com/kolkov/bindcell/internal/cell/ledger"

// SharedGuard is one outstanding shared borrow.
//
// Release must be called exactly once, normally with defer right after a
// successful Borrow. Guards are handed out as pointers and must not be
// copied; a copy would let the same borrow be released twice.
type SharedGuard[T any] struct {
	cell     *Cell[T]
	id       uint64
	released bool
}

// Get returns the borrowed value.
//
// The value is returned by copy; for reference types (pointers, maps,
// slices) the caller must treat what it reaches as read-only.
func (g *SharedGuard[T]) Get() T {
	g.check()
	return g.cell.value
}

// Release ends the borrow. Releasing twice panics.
func (g *SharedGuard[T]) Release() {
	g.check()
	g.released = true
	g.cell.releaseShared(g.id)
}

func (g *SharedGuard[T]) check() {
	if g.released {
		panic("bindcell: use of released shared guard")
	}
}

// ExclusiveGuard is the single outstanding exclusive borrow.
//
// It ends in one of three ways, exactly once:
//   - Release: orderly completion, the cell becomes free
//   - Abort: the holder failed mid-mutation, the cell is poisoned for good
//   - Suspend: orderly release that remembers the acquisition site
//
// Prefer WithMut, which picks Release or Abort automatically.
type ExclusiveGuard[T any] struct {
	cell     *Cell[T]
	released bool
}

// Get returns a copy of the borrowed value.
func (g *ExclusiveGuard[T]) Get() T {
	g.check()
	return g.cell.value
}

// Ptr returns a pointer to the borrowed value. It must not be retained
// after the guard ends.
func (g *ExclusiveGuard[T]) Ptr() *T {
	g.check()
	return &g.cell.value
}

// Set replaces the borrowed value.
func (g *ExclusiveGuard[T]) Set(v T) {
	g.check()
	g.cell.value = v
}

// Release ends the borrow normally.
func (g *ExclusiveGuard[T]) Release() {
	g.end(true)
}

// Abort ends the borrow abnormally and poisons the cell.
func (g *ExclusiveGuard[T]) Abort() {
	g.end(false)
}

// Suspend releases the borrow so that re-entrant code can access the cell,
// and returns a handle to take it back. The original acquisition site is
// kept, so conflicts after Resume still point at it.
//
//	g, _ := c.BorrowMut()
//	s := g.Suspend()
//	host.Emit("changed") // may call back into c
//	g, err := s.Resume()
func (g *ExclusiveGuard[T]) Suspend() *Suspended[T] {
	snap := g.end(true)
	return &Suspended[T]{cell: g.cell, snap: snap}
}

func (g *ExclusiveGuard[T]) end(orderly bool) ledger.Snapshot {
	g.check()
	g.released = true
	return g.cell.releaseExclusive(orderly)
}

func (g *ExclusiveGuard[T]) check() {
	if g.released {
		panic("bindcell: use of released exclusive guard")
	}
}

// Suspended is a released exclusive borrow waiting to be resumed.
type Suspended[T any] struct {
	cell    *Cell[T]
	snap    ledger.Snapshot
	resumed bool
}

// Resume re-acquires exclusive access. It fails like BorrowMut when the cell
// was borrowed meanwhile (or poisoned), in which case Resume may be retried.
// Resuming twice panics.
func (s *Suspended[T]) Resume() (*ExclusiveGuard[T], error) {
	if s.resumed {
		panic("bindcell: suspended borrow resumed twice")
	}
	s.cell.checkLive()
	g, err := s.cell.acquireExclusive(opResume, s.snap)
	if err != nil {
		return nil, err
	}
	s.resumed = true
	return g, nil
}
