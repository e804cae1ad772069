//go:build !bindcell_nodiag

package cell

import (
	"errors"
	"strings"
	"testing"

	"github.com/kolkov/bindcell/internal/cell/config"
)

func accessError(t *testing.T, err error) *AccessError {
	t.Helper()
	var accessErr *AccessError
	if !errors.As(err, &accessErr) {
		t.Fatalf("error = %v, want *AccessError", err)
	}
	return accessErr
}

func borrowForRender(c *Cell[int]) *SharedGuard[int] {
	g, _ := c.Borrow()
	return g
}

func borrowForUpdate(c *Cell[int]) *SharedGuard[int] {
	g, _ := c.Borrow()
	return g
}

// TestDiagnosticsEnabled tests the default build mode.
func TestDiagnosticsEnabled(t *testing.T) {
	if !Diagnostics() {
		t.Fatal("Diagnostics() = false in the default build")
	}
}

// TestSharedSitesReported tests that every shared borrow is listed.
func TestSharedSitesReported(t *testing.T) {
	c := NewNamed("player", 0)
	g1 := borrowForUpdate(c)
	g2 := borrowForRender(c)
	defer g1.Release()
	defer g2.Release()

	_, err := c.BorrowMut()
	e := accessError(t, err)

	if n := strings.Count(e.Locations, "shared borrow #"); n != int(c.State().Count()) {
		t.Fatalf("report lists %d shared sites, state is %s:\n%s", n, c.State(), e.Locations)
	}
	render := strings.Index(e.Locations, "borrowForRender")
	update := strings.Index(e.Locations, "borrowForUpdate")
	if render < 0 || update < 0 {
		t.Fatalf("report should name both acquisition sites:\n%s", e.Locations)
	}
	if render > update {
		t.Errorf("most recent borrow should be listed first:\n%s", e.Locations)
	}
	if !strings.Contains(err.Error(), e.Locations[:20]) {
		t.Errorf("Error() should embed the locations:\n%s", err)
	}
	if strings.Contains(e.Locations, "(*Cell[") {
		t.Errorf("cell internals should be filtered:\n%s", e.Locations)
	}
}

// TestExclusiveSiteReported tests the single exclusive site.
func TestExclusiveSiteReported(t *testing.T) {
	c := New(0)
	m, _ := c.BorrowMut()
	defer m.Release()

	for _, err := range []error{
		func() error { _, err := c.Borrow(); return err }(),
		func() error { _, err := c.BorrowMut(); return err }(),
	} {
		e := accessError(t, err)
		if strings.Count(e.Locations, "acquired at:") != 1 {
			t.Errorf("want exactly one site:\n%s", e.Locations)
		}
		if !strings.Contains(e.Locations, "exclusive borrow acquired at:") ||
			!strings.Contains(e.Locations, "TestExclusiveSiteReported") {
			t.Errorf("exclusive site missing:\n%s", e.Locations)
		}
	}
}

// TestPoisonSiteReported tests that Poisoned errors name the aborted borrow.
func TestPoisonSiteReported(t *testing.T) {
	c := New(0)
	func() {
		defer func() { _ = recover() }()
		_ = WithMut(c, func(*int) error { panic("mid-update") })
	}()

	_, err := c.Borrow()
	e := accessError(t, err)
	if !strings.Contains(e.Locations, "poisoned by exclusive borrow acquired at:") {
		t.Fatalf("poison site missing:\n%s", e.Locations)
	}
	if !strings.Contains(e.Locations, "TestPoisonSiteReported") {
		t.Errorf("poison site should point at the WithMut caller:\n%s", e.Locations)
	}
}

// TestResumeKeepsSite tests that a resumed borrow reports its first site.
func TestResumeKeepsSite(t *testing.T) {
	c := New(0)
	m := acquireForSuspend(c)
	s := m.Suspend()

	m, err := s.Resume()
	if err != nil {
		t.Fatal(err)
	}
	defer m.Release()

	_, err = c.Borrow()
	e := accessError(t, err)
	if !strings.Contains(e.Locations, "acquireForSuspend") {
		t.Errorf("resumed borrow should keep its original site:\n%s", e.Locations)
	}
}

func acquireForSuspend(c *Cell[int]) *ExclusiveGuard[int] {
	m, _ := c.BorrowMut()
	return m
}

// TestReportLimit tests the configured cap on listed sites.
func TestReportLimit(t *testing.T) {
	saved := config.Current()
	defer func() { _ = config.Set(saved) }()
	opts := config.Default()
	opts.ReportLimit = 1
	if err := config.Set(opts); err != nil {
		t.Fatal(err)
	}

	c := New(0)
	for i := 0; i < 3; i++ {
		g, _ := c.Borrow()
		defer g.Release()
	}
	_, err := c.BorrowMut()
	e := accessError(t, err)
	if n := strings.Count(e.Locations, "shared borrow #"); n != 1 {
		t.Errorf("listed %d sites, want 1:\n%s", n, e.Locations)
	}
	if !strings.Contains(e.Locations, "... and 2 more") {
		t.Errorf("hidden sites should be counted:\n%s", e.Locations)
	}
}

// TestShallowCaptureKeepsUserFrame tests that internal frames do not use up
// a small capture depth on any acquisition path.
func TestShallowCaptureKeepsUserFrame(t *testing.T) {
	saved := config.Current()
	defer func() { _ = config.Set(saved) }()

	for _, depth := range []int{1, 2} {
		opts := config.Default()
		opts.MaxFrames = depth
		if err := config.Set(opts); err != nil {
			t.Fatal(err)
		}

		c := New(0)
		var errs []error
		_ = WithMut(c, func(*int) error {
			_, err := c.Borrow()
			errs = append(errs, err)
			return nil
		})

		m, _ := c.BorrowMut()
		_, err := c.Borrow()
		errs = append(errs, err)

		s := m.Suspend()
		m, _ = s.Resume()
		_, err = c.Borrow()
		errs = append(errs, err)
		m.Release()

		for i, err := range errs {
			e := accessError(t, err)
			if strings.Contains(e.Locations, "<unknown>") ||
				!strings.Contains(e.Locations, "TestShallowCaptureKeepsUserFrame") {
				t.Errorf("max_frames=%d path %d: user frame missing:\n%s", depth, i, e.Locations)
			}
			if n := strings.Count(e.Locations, ".go:"); n > depth {
				t.Errorf("max_frames=%d path %d: rendered %d frames:\n%s", depth, i, n, e.Locations)
			}
		}
	}
}
