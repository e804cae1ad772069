package state

import (
	"strings"
	"testing"
)

// TestZeroValueIsFree tests that the zero State is Free.
func TestZeroValueIsFree(t *testing.T) {
	var s State
	if !s.IsFree() {
		t.Fatalf("zero state = %s, want free", s)
	}
	if s.Count() != 0 {
		t.Errorf("zero state count = %d, want 0", s.Count())
	}
}

// TestSharedCounting tests Free -> Shared(1) -> Shared(3) -> Free.
func TestSharedCounting(t *testing.T) {
	var s State
	var ok bool
	for i := 1; i <= 3; i++ {
		s, ok = s.AcquireShared()
		if !ok {
			t.Fatalf("AcquireShared #%d failed in %s", i, s)
		}
		if s.Kind() != Shared || s.Count() != uint32(i) {
			t.Fatalf("after %d acquires state = %s", i, s)
		}
	}

	for i := 2; i >= 0; i-- {
		s = s.ReleaseShared()
		if i == 0 {
			if !s.IsFree() {
				t.Fatalf("after final release state = %s, want free", s)
			}
			continue
		}
		if s.Count() != uint32(i) {
			t.Fatalf("after release state = %s, want shared(%d)", s, i)
		}
	}
}

// TestAcquireTransitions tests acquire results for every kind.
func TestAcquireTransitions(t *testing.T) {
	shared1, _ := State(0).AcquireShared()
	exclusive, _ := State(0).AcquireExclusive()
	poisoned := exclusive.ReleaseExclusive(false)

	tests := []struct {
		name          string
		from          State
		wantShared    bool
		wantExclusive bool
	}{
		{"free", State(0), true, true},
		{"shared", shared1, true, false},
		{"exclusive", exclusive, false, false},
		{"poisoned", poisoned, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.from.AcquireShared()
			if ok != tt.wantShared {
				t.Errorf("AcquireShared ok = %v, want %v", ok, tt.wantShared)
			}
			if !ok && got != tt.from {
				t.Errorf("failed AcquireShared changed state %s -> %s", tt.from, got)
			}

			got, ok = tt.from.AcquireExclusive()
			if ok != tt.wantExclusive {
				t.Errorf("AcquireExclusive ok = %v, want %v", ok, tt.wantExclusive)
			}
			if !ok && got != tt.from {
				t.Errorf("failed AcquireExclusive changed state %s -> %s", tt.from, got)
			}
		})
	}
}

// TestReleaseExclusive tests orderly and abnormal release.
func TestReleaseExclusive(t *testing.T) {
	s, ok := State(0).AcquireExclusive()
	if !ok {
		t.Fatal("AcquireExclusive from free failed")
	}

	if got := s.ReleaseExclusive(true); !got.IsFree() {
		t.Errorf("orderly release = %s, want free", got)
	}

	poisoned := s.ReleaseExclusive(false)
	if !poisoned.IsPoisoned() {
		t.Fatalf("abnormal release = %s, want poisoned", poisoned)
	}

	// Poisoned is terminal.
	for i := 0; i < 100; i++ {
		if _, ok := poisoned.AcquireShared(); ok {
			t.Fatal("AcquireShared succeeded on poisoned state")
		}
		if _, ok := poisoned.AcquireExclusive(); ok {
			t.Fatal("AcquireExclusive succeeded on poisoned state")
		}
	}
}

// TestReleaseContractViolations tests that invalid releases panic.
func TestReleaseContractViolations(t *testing.T) {
	exclusive, _ := State(0).AcquireExclusive()
	shared, _ := State(0).AcquireShared()

	tests := []struct {
		name string
		fn   func()
	}{
		{"release shared on free", func() { State(0).ReleaseShared() }},
		{"release shared on exclusive", func() { exclusive.ReleaseShared() }},
		{"release exclusive on free", func() { State(0).ReleaseExclusive(true) }},
		{"release exclusive on shared", func() { shared.ReleaseExclusive(true) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				if r == nil {
					t.Fatal("expected panic")
				}
				msg, _ := r.(string)
				if !strings.HasPrefix(msg, "bindcell:") {
					t.Errorf("panic = %v, want bindcell: prefix", r)
				}
			}()
			tt.fn()
		})
	}
}

// TestString tests the human-readable representation.
func TestString(t *testing.T) {
	shared2, _ := State(0).AcquireShared()
	shared2, _ = shared2.AcquireShared()
	exclusive, _ := State(0).AcquireExclusive()

	tests := []struct {
		s    State
		want string
	}{
		{State(0), "free"},
		{shared2, "shared(2)"},
		{exclusive, "exclusive"},
		{exclusive.ReleaseExclusive(false), "poisoned"},
	}

	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
