// Package cell provides runtime-checked shared/exclusive access to values
// that are reachable from both application code and an external host
// runtime.
//
// A host runtime (a game engine, a scripting VM, a UI toolkit) may call back
// into a bound object at any point, including while the application is in
// the middle of using it. Cell makes every access explicit and checks the
// shared-xor-exclusive rule on each one:
//
//	c := cell.New(Player{HP: 100})
//
//	g, err := c.Borrow()       // shared (read-only) access
//	if err != nil {
//		return err
//	}
//	defer g.Release()
//	fmt.Println(g.Get().HP)
//
// Exclusive (read-write) access is best taken through WithMut, which
// guarantees release on every exit path and poisons the cell when the
// callback panics:
//
//	err := cell.WithMut(c, func(p *Player) error {
//		p.HP -= 10
//		return nil
//	})
//
// Failure Modes:
//
// Borrow and BorrowMut never block. They either succeed or return an
// *AccessError whose Kind is one of:
//   - AlreadyBorrowed: exclusive access requested while any access is outstanding
//   - AlreadyExclusivelyBorrowed: shared access requested during exclusive access
//   - Poisoned: an exclusive holder aborted; the value can no longer be trusted
//
// Re-entrancy:
//
// A cell counts accesses; it does not know who holds them. A host callback
// that re-enters a cell already borrowed mutably on an outer frame of the
// same call path fails exactly as an unrelated caller would: Borrow with
// AlreadyExclusivelyBorrowed, BorrowMut with AlreadyBorrowed. Code that must
// allow re-entry releases its access first, for example with
// ExclusiveGuard.Suspend and Suspended.Resume.
//
// Diagnostics:
//
// By default every successful borrow records its acquisition stack, and the
// text of an AccessError lists where the conflicting accesses were taken:
//
//	bindcell: cell "player": already borrowed
//	shared borrow #1 acquired at:
//	  main.drawHUD()
//	      /app/hud.go:42
//
// Building with -tags bindcell_nodiag removes stack capture entirely. Error
// kinds and state transitions are identical in both modes; only the text
// differs. Capture depth and frame filtering are configured through
// BINDCELL_OPTIONS (see internal/cell/config).
//
// Thread Safety:
//
// A Cell is not safe for concurrent use. It models a single logical thread
// of control passing through application and host code; thread affinity is
// the job of the layer that owns the cell.
package cell
