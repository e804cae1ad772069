//go:build !bindcell_nodiag

package ledger

import (
	"strings"
	"testing"

	"github.com/kolkov/bindcell/internal/cell/report"
)

// The ledger captures the caller of the borrowing method, so tests go
// through one helper frame the way the cell does.

func borrowShared(l *Ledger) uint64 { return l.TrackShared() }

func borrowExclusive(l *Ledger, snap Snapshot) { l.TrackExclusive(snap) }

// TestTrackShared tests id allocation and per-borrow entries.
func TestTrackShared(t *testing.T) {
	l := New()

	ids := []uint64{borrowShared(l), borrowShared(l), borrowShared(l)}
	for i, id := range ids {
		if id != uint64(i) {
			t.Errorf("id #%d = %d, want %d", i, id, i)
		}
	}
	if l.SharedCount() != 3 {
		t.Fatalf("SharedCount() = %d, want 3", l.SharedCount())
	}

	l.UntrackShared(ids[1])
	if l.SharedCount() != 2 {
		t.Errorf("SharedCount() after untrack = %d, want 2", l.SharedCount())
	}

	// Ids are never reused.
	if id := borrowShared(l); id != 3 {
		t.Errorf("next id = %d, want 3", id)
	}
}

// TestUntrackUnknownShared tests the bookkeeping assertion.
func TestUntrackUnknownShared(t *testing.T) {
	l := New()
	id := borrowShared(l)
	l.UntrackShared(id)

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for untracked id")
		}
	}()
	l.UntrackShared(id)
}

// TestTrackExclusive tests the single exclusive slot.
func TestTrackExclusive(t *testing.T) {
	l := New()
	borrowExclusive(l, NoSnapshot)
	if !l.HasExclusive() {
		t.Fatal("HasExclusive() = false after TrackExclusive")
	}

	snap := l.UntrackExclusive()
	if snap == NoSnapshot {
		t.Error("UntrackExclusive returned NoSnapshot")
	}
	if l.HasExclusive() {
		t.Error("HasExclusive() = true after UntrackExclusive")
	}

	// A supplied snapshot is kept as is.
	borrowExclusive(l, snap)
	if got := l.UntrackExclusive(); got != snap {
		t.Errorf("UntrackExclusive() = %d, want supplied %d", got, snap)
	}
}

// TestExclusiveAssertions tests double-track and empty-untrack panics.
func TestExclusiveAssertions(t *testing.T) {
	t.Run("double track", func(t *testing.T) {
		l := New()
		borrowExclusive(l, NoSnapshot)
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic")
			}
		}()
		borrowExclusive(l, NoSnapshot)
	})

	t.Run("untrack empty", func(t *testing.T) {
		l := New()
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic")
			}
		}()
		l.UntrackExclusive()
	})
}

// TestSitesOrder tests most-recent-first ordering of shared sites.
func TestSitesOrder(t *testing.T) {
	l := New()
	for i := 0; i < 4; i++ {
		borrowShared(l)
	}
	l.UntrackShared(1)

	sites := l.Sites()
	if len(sites) != l.SharedCount() {
		t.Fatalf("len(Sites()) = %d, want SharedCount() = %d", len(sites), l.SharedCount())
	}
	wantIDs := []uint64{3, 2, 0}
	for i, s := range sites {
		if s.ID != wantIDs[i] {
			t.Errorf("site %d id = %d, want %d", i, s.ID, wantIDs[i])
		}
		if s.Kind != report.SiteShared {
			t.Errorf("site %d kind = %q", i, s.Kind)
		}
	}
}

// TestLocations tests the rendered text for each ledger shape.
func TestLocations(t *testing.T) {
	l := New()
	if got := l.Locations(0); got != "" {
		t.Errorf("empty ledger Locations() = %q, want empty", got)
	}

	borrowExclusive(l, NoSnapshot)
	text := l.Locations(0)
	if !strings.Contains(text, "exclusive borrow acquired at:") {
		t.Errorf("exclusive Locations() missing header:\n%s", text)
	}
	if !strings.Contains(text, "TestLocations") {
		t.Errorf("exclusive Locations() should point at the test:\n%s", text)
	}
	l.UntrackExclusive()

	borrowShared(l)
	borrowShared(l)
	text = l.Locations(0)
	if n := strings.Count(text, "shared borrow #"); n != 2 {
		t.Errorf("shared Locations() lists %d sites, want 2:\n%s", n, text)
	}
	if strings.Index(text, "#1") > strings.Index(text, "#0") {
		t.Errorf("most recent borrow should come first:\n%s", text)
	}
	if strings.Contains(text, "borrowShared") {
		t.Errorf("capture should start above the borrowing helper:\n%s", text)
	}
}

// TestSharedTakesPrecedence tests that shared sites hide the exclusive one.
func TestSharedTakesPrecedence(t *testing.T) {
	l := New()
	borrowExclusive(l, NoSnapshot)
	borrowShared(l)

	sites := l.Sites()
	if len(sites) != 1 || sites[0].Kind != report.SiteShared {
		t.Errorf("Sites() = %+v, want only the shared site", sites)
	}
}

// TestSite tests resolving a missing snapshot.
func TestSite(t *testing.T) {
	s := Site(NoSnapshot, report.SitePoisoned, 0)
	if s.Frames != nil {
		t.Errorf("Site(NoSnapshot).Frames = %v, want nil", s.Frames)
	}
}
