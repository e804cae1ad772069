// Package stackdepot captures and stores acquisition-site stack traces.
//
// Every successful borrow in a diagnostic build records where it happened.
// Most borrows come from a handful of call sites, so traces are stored once
// in a global depot and referenced by a 64-bit hash:
//   - Variable-size traces (config.Options.MaxFrames program counters)
//   - Hash-based deduplication (FNV-1a over the program counters)
//   - Global sync.Map storage (safe for concurrent capture)
//
// Usage:
//
//	// Capture the caller's stack and keep the hash.
//	hash := stackdepot.Capture(0)
//
//	// Later, when a conflict is reported:
//	frames := stackdepot.GetStack(hash).Frames()
//
// The zero hash means "no trace" and is never returned for a real capture.
package stackdepot

import (
	"encoding/binary"
	"hash/fnv"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/kolkov/bindcell/internal/cell/config"
)

// internalFrames are bindcell's own borrow plumbing. They sit between the
// acquisition site and runtime.Callers and carry no information for users.
var internalFrames = []string{
	"/bindcell/internal/cell/ledger.(*Ledger).",
	"/bindcell/cell.(*Cell[",
	"/bindcell/cell.(*Suspended[",
	"/bindcell/cell.With[",
	"/bindcell/cell.WithMut[",
}

// Frame is one resolved stack frame.
type Frame struct {
	Function string `msgpack:"fn"`
	File     string `msgpack:"file"`
	Line     int    `msgpack:"line"`
}

// String formats the frame as "function file:line".
func (f Frame) String() string {
	return f.Function + " " + f.File + ":" + strconv.Itoa(f.Line)
}

// StackTrace holds the program counters of one captured stack.
type StackTrace struct {
	PC []uintptr
}

// depot maps uint64 (hash) → *StackTrace.
var depot sync.Map

// Capture records the stack of its caller and returns the trace hash.
//
// skip is the number of additional frames to omit above the caller of
// Capture; 0 starts the trace at the function that called Capture.
// Identical stacks share one depot entry.
func Capture(skip int) uint64 {
	// Internal frames are dropped only when resolving, so capture enough
	// extra PCs that MaxFrames user frames survive the filter.
	pcs := make([]uintptr, config.Current().MaxFrames+len(internalFrames))
	// Skip runtime.Callers and Capture itself.
	n := runtime.Callers(2+skip, pcs)
	if n == 0 {
		return 0
	}
	pcs = pcs[:n]

	hash := hashStack(pcs)
	if hash == 0 {
		// Reserve zero for "no trace".
		hash = 1
	}
	if _, exists := depot.Load(hash); exists {
		return hash
	}
	depot.Store(hash, &StackTrace{PC: pcs})
	return hash
}

// GetStack returns the trace stored under hash, or nil.
func GetStack(hash uint64) *StackTrace {
	if hash == 0 {
		return nil
	}
	val, ok := depot.Load(hash)
	if !ok {
		return nil
	}
	return val.(*StackTrace)
}

func hashStack(pcs []uintptr) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, pc := range pcs {
		binary.LittleEndian.PutUint64(buf[:], uint64(pc))
		_, _ = h.Write(buf[:]) // hash.Hash never returns an error.
	}
	return h.Sum64()
}

// Frames resolves the trace into at most MaxFrames frames, dropping
// bindcell's own plumbing and every function matching the configured skip
// prefixes.
func (st *StackTrace) Frames() []Frame {
	if st == nil || len(st.PC) == 0 {
		return nil
	}
	opts := config.Current()
	skip := opts.SkipPrefixes

	frames := runtime.CallersFrames(st.PC)
	var out []Frame
	for {
		frame, more := frames.Next()
		if frame.PC != 0 && !filtered(frame.Function, skip) {
			out = append(out, Frame{
				Function: frame.Function,
				File:     frame.File,
				Line:     frame.Line,
			})
		}
		if !more || len(out) == opts.MaxFrames {
			break
		}
	}
	return out
}

func filtered(function string, skip []string) bool {
	for _, p := range skip {
		if strings.HasPrefix(function, p) {
			return true
		}
	}
	for _, s := range internalFrames {
		if strings.Contains(function, s) {
			return true
		}
	}
	return false
}

// FormatStack formats the trace the way Go prints goroutine stacks:
//
//	main.(*Player).Heal()
//	    /path/to/player.go:45
//	main.main()
//	    /path/to/main.go:30
func (st *StackTrace) FormatStack() string {
	if st == nil {
		return "  <unknown>\n"
	}
	return FormatFrames(st.Frames())
}

// FormatFrames renders frames in FormatStack layout.
func FormatFrames(frames []Frame) string {
	if len(frames) == 0 {
		return "  <runtime internal>\n"
	}
	var buf strings.Builder
	for _, f := range frames {
		buf.WriteString("  ")
		buf.WriteString(f.Function)
		buf.WriteString("()\n      ")
		buf.WriteString(f.File)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(f.Line))
		buf.WriteByte('\n')
	}
	return buf.String()
}

// Reset clears the depot. Only for single-threaded test setup.
func Reset() {
	depot = sync.Map{}
}

// Stats returns the number of unique stacks and an approximate byte count.
// O(N); not for hot paths.
func Stats() (uniqueStacks int, totalMemory int64) {
	depot.Range(func(_, v any) bool {
		uniqueStacks++
		// Slice header + PCs + ~32 bytes of sync.Map entry overhead.
		totalMemory += int64(24 + 8*len(v.(*StackTrace).PC) + 32)
		return true
	})
	return uniqueStacks, totalMemory
}
