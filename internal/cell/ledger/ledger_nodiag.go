//go:build bindcell_nodiag

package ledger

import "github.com/kolkov/bindcell/internal/cell/report"

// Enabled reports whether acquisition sites are captured.
const Enabled = false

// Ledger is the no-op ledger: it hands out ids and keeps counts, but never
// captures a stack.
type Ledger struct {
	next      uint64
	shared    int
	exclusive bool
}

// New returns an empty ledger.
func New() *Ledger { return &Ledger{} }

// TrackShared returns a fresh borrow id.
func (l *Ledger) TrackShared() uint64 {
	id := l.next
	l.next++
	l.shared++
	return id
}

// UntrackShared forgets a shared borrow.
func (l *Ledger) UntrackShared(uint64) {
	if l.shared == 0 {
		panic("bindcell: shared borrow is not tracked")
	}
	l.shared--
}

// TrackExclusive records that an exclusive borrow is outstanding.
func (l *Ledger) TrackExclusive(Snapshot) {
	if l.exclusive {
		panic("bindcell: exclusive borrow is already tracked")
	}
	l.exclusive = true
}

// UntrackExclusive clears the exclusive borrow.
func (l *Ledger) UntrackExclusive() Snapshot {
	if !l.exclusive {
		panic("bindcell: exclusive borrow is not tracked")
	}
	l.exclusive = false
	return NoSnapshot
}

// SharedCount returns the number of outstanding shared borrows.
func (l *Ledger) SharedCount() int { return l.shared }

// HasExclusive reports whether an exclusive borrow is outstanding.
func (l *Ledger) HasExclusive() bool { return l.exclusive }

// Sites always returns nil.
func (l *Ledger) Sites() []report.Site { return nil }

// Locations always returns empty text.
func (l *Ledger) Locations(int) string { return "" }
