//go:build !bindcell_nodiag

package ledger

import (
	"fmt"
	"slices"

	"github.com/kolkov/bindcell/internal/cell/report"
	"github.com/kolkov/bindcell/internal/cell/stackdepot"
)

// Enabled reports whether acquisition sites are captured.
const Enabled = true

// Ledger is the diagnostic borrow ledger.
//
// Invariants maintained together with the cell's state machine:
//   - len(shared) equals n while the state is Shared(n)
//   - exclusive != NoSnapshot iff the state is Exclusive
type Ledger struct {
	next      uint64
	shared    map[uint64]Snapshot
	exclusive Snapshot
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{shared: make(map[uint64]Snapshot)}
}

// TrackShared captures the current stack and returns its borrow id.
func (l *Ledger) TrackShared() uint64 {
	id := l.next
	l.next++
	l.shared[id] = Snapshot(stackdepot.Capture(callerSkip))
	return id
}

// UntrackShared forgets a shared borrow. An unknown id is a bookkeeping bug.
func (l *Ledger) UntrackShared(id uint64) {
	if _, ok := l.shared[id]; !ok {
		panic(fmt.Sprintf("bindcell: shared borrow %d is not tracked", id))
	}
	delete(l.shared, id)
}

// TrackExclusive records the exclusive borrow. A NoSnapshot argument captures
// the current stack; any other value is kept as the acquisition site.
func (l *Ledger) TrackExclusive(snap Snapshot) {
	if l.exclusive != NoSnapshot {
		panic("bindcell: exclusive borrow is already tracked")
	}
	if snap == NoSnapshot {
		snap = Snapshot(stackdepot.Capture(callerSkip))
		if snap == NoSnapshot {
			// No stack available; keep the slot occupied anyway.
			snap = 1
		}
	}
	l.exclusive = snap
}

// UntrackExclusive clears and returns the exclusive snapshot.
func (l *Ledger) UntrackExclusive() Snapshot {
	if l.exclusive == NoSnapshot {
		panic("bindcell: exclusive borrow is not tracked")
	}
	snap := l.exclusive
	l.exclusive = NoSnapshot
	return snap
}

// SharedCount returns the number of tracked shared borrows.
func (l *Ledger) SharedCount() int { return len(l.shared) }

// HasExclusive reports whether an exclusive borrow is tracked.
func (l *Ledger) HasExclusive() bool { return l.exclusive != NoSnapshot }

// Sites returns every tracked shared borrow, most recently acquired first.
// With no shared borrows it returns the exclusive borrow, if any.
func (l *Ledger) Sites() []report.Site {
	if len(l.shared) > 0 {
		ids := make([]uint64, 0, len(l.shared))
		for id := range l.shared {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		slices.Reverse(ids)

		sites := make([]report.Site, 0, len(ids))
		for _, id := range ids {
			sites = append(sites, Site(l.shared[id], report.SiteShared, id))
		}
		return sites
	}
	if l.exclusive != NoSnapshot {
		return []report.Site{Site(l.exclusive, report.SiteExclusive, 0)}
	}
	return nil
}

// Locations renders Sites; limit > 0 caps the number of sites shown.
func (l *Ledger) Locations(limit int) string {
	return report.Render(l.Sites(), limit)
}
