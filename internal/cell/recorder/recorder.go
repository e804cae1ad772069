// Package recorder collects borrow conflicts for post-hoc analysis.
//
// Cells themselves are single-threaded, but a program holds many cells on
// many goroutines, so the recorder is safe for concurrent use. It keeps:
//   - total and unique conflict counts (deduplicated by report.Conflict.Key)
//   - per-kind totals
//   - an optional dump sink receiving every conflict as a msgpack record
//
// The dump is a plain stream of msgpack-encoded report.Conflict values and
// is read back with ReadAll (the bindcell CLI does this).
package recorder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/kolkov/bindcell/internal/cell/config"
	"github.com/kolkov/bindcell/internal/cell/report"
)

// Stats summarizes recorded conflicts.
type Stats struct {
	Total  uint64
	Unique uint64
	ByKind map[string]uint64
}

// Recorder counts conflicts and forwards them to a dump sink.
type Recorder struct {
	mu sync.Mutex
	// seen holds deduplication keys of already observed conflicts.
	seen   map[string]struct{}
	total  uint64
	unique uint64
	byKind map[string]uint64
	enc    *msgpack.Encoder
	closer io.Closer
	now    func() time.Time
}

// New returns a recorder without a sink.
func New() *Recorder {
	return &Recorder{
		seen:   make(map[string]struct{}),
		byKind: make(map[string]uint64),
		now:    time.Now,
	}
}

// SetSink directs future records to w. A nil w disables dumping.
// A sink that is also an io.Closer is closed by Close.
func (r *Recorder) SetSink(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setSinkLocked(w)
}

func (r *Recorder) setSinkLocked(w io.Writer) {
	if r.closer != nil {
		_ = r.closer.Close()
		r.closer = nil
	}
	r.enc = nil
	if w == nil {
		return
	}
	r.enc = msgpack.NewEncoder(w)
	if c, ok := w.(io.Closer); ok {
		r.closer = c
	}
}

// OpenDump appends records to the file at path, creating it if needed.
func (r *Recorder) OpenDump(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open conflict dump: %w", err)
	}
	r.SetSink(f)
	return nil
}

// Close releases the sink.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var err error
	if r.closer != nil {
		err = r.closer.Close()
		r.closer = nil
	}
	r.enc = nil
	return err
}

// Observe records one conflict and reports whether its location is new.
// A zero Time is stamped with the current time.
func (r *Recorder) Observe(c report.Conflict) bool {
	key := c.Key()

	r.mu.Lock()
	defer r.mu.Unlock()

	_, dup := r.seen[key]
	if !dup {
		r.seen[key] = struct{}{}
	}

	if c.Time.IsZero() {
		c.Time = r.now()
	}
	r.total++
	r.byKind[c.Kind]++
	if !dup {
		r.unique++
	}
	if r.enc != nil {
		if err := r.enc.Encode(&c); err != nil {
			// Dumping is advisory: report once and stop writing.
			fmt.Fprintf(os.Stderr, "bindcell: conflict dump disabled: %v\n", err)
			r.setSinkLocked(nil)
		}
	}
	return !dup
}

// Stats returns a copy of the counters.
func (r *Recorder) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	byKind := make(map[string]uint64, len(r.byKind))
	for k, v := range r.byKind {
		byKind[k] = v
	}
	return Stats{Total: r.total, Unique: r.unique, ByKind: byKind}
}

// Reset clears counters and deduplication state; the sink is kept.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = make(map[string]struct{})
	r.total = 0
	r.unique = 0
	r.byKind = make(map[string]uint64)
}

// ReadAll decodes every record of a dump stream.
func ReadAll(rd io.Reader) ([]report.Conflict, error) {
	dec := msgpack.NewDecoder(rd)
	var out []report.Conflict
	for {
		var c report.Conflict
		if err := dec.Decode(&c); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, fmt.Errorf("record %d: %w", len(out), err)
		}
		out = append(out, c)
	}
}

var (
	defaultRecorder = New()
	openDefault     sync.Once
)

// Default returns the process-wide recorder. On first use it opens the dump
// file named by the active configuration, if any.
func Default() *Recorder {
	openDefault.Do(func() {
		if path := config.Current().Dump; path != "" {
			if err := defaultRecorder.OpenDump(path); err != nil {
				fmt.Fprintf(os.Stderr, "bindcell: %v\n", err)
			}
		}
	})
	return defaultRecorder
}
