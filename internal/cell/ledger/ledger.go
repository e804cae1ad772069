// Package ledger records where outstanding borrows were acquired.
//
// The ledger turns an opaque borrow failure into an actionable report: for
// every outstanding shared borrow it keeps the acquisition stack keyed by a
// per-ledger monotonically increasing id, and it keeps the stack of the
// single outstanding exclusive borrow.
//
// Two implementations share one method set and are selected at compile time:
//
//	go build ./...                        # full ledger (default)
//	go build -tags bindcell_nodiag ./...  # no-op ledger, no stack capture
//
// Enabled reports which one is compiled in. The cell calls the ledger at the
// same points in both modes, so borrow behavior never differs between them;
// only the error text does.
package ledger

import (
	"github.com/kolkov/bindcell/internal/cell/report"
	"github.com/kolkov/bindcell/internal/cell/stackdepot"
)

// Snapshot references a captured acquisition stack in the stack depot.
type Snapshot uint64

// NoSnapshot is the absent snapshot.
const NoSnapshot Snapshot = 0

// callerSkip makes a capture start at the caller of the method that called
// the ledger (the user code calling Borrow), not at the cell itself.
const callerSkip = 2

// Site resolves a snapshot into a report site.
func Site(snap Snapshot, kind string, id uint64) report.Site {
	return report.Site{
		ID:     id,
		Kind:   kind,
		Frames: stackdepot.GetStack(uint64(snap)).Frames(),
	}
}
