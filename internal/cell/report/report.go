// Package report renders borrow conflicts for humans.
//
// Two layouts are produced from the same data:
//
// Site lists (Render) are embedded in AccessError text. Shared sites are
// listed most recent first:
//
//	shared borrow #2 acquired at:
//	  main.render()
//	      /app/render.go:41
//	shared borrow #0 acquired at:
//	  main.update()
//	      /app/update.go:17
//
// Full reports (Conflict.Format) frame a site list the way the race detector
// frames data races, and are printed by the bindcell CLI:
//
//	==================
//	WARNING: BORROW CONFLICT
//	borrow_mut on cell "player" failed: already borrowed [shared(2)]
//	shared borrow #2 acquired at:
//	  ...
//	==================
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kolkov/bindcell/internal/cell/stackdepot"
)

// Site kinds.
const (
	SiteShared    = "shared"
	SiteExclusive = "exclusive"
	SitePoisoned  = "poisoning"
)

// Site is one outstanding (or poisoning) borrow and where it was acquired.
type Site struct {
	ID     uint64             `msgpack:"id"`
	Kind   string             `msgpack:"kind"`
	Frames []stackdepot.Frame `msgpack:"frames"`
}

// Header returns the first line describing the site, without a newline.
func (s Site) Header() string {
	switch s.Kind {
	case SiteShared:
		return fmt.Sprintf("shared borrow #%d acquired at:", s.ID)
	case SitePoisoned:
		return "poisoned by exclusive borrow acquired at:"
	default:
		return "exclusive borrow acquired at:"
	}
}

// Style decorates rendered text. The zero Style renders plain text.
type Style struct {
	Banner func(string) string
	Header func(string) string
	Frame  func(stackdepot.Frame, string) string
}

func apply(f func(string) string, s string) string {
	if f == nil {
		return s
	}
	return f(s)
}

// Render formats sites in order. limit > 0 caps the number of sites shown.
func Render(sites []Site, limit int) string {
	var buf strings.Builder
	writeSites(&buf, sites, limit, Style{})
	return buf.String()
}

func writeSites(buf *strings.Builder, sites []Site, limit int, style Style) {
	shown := sites
	if limit > 0 && len(sites) > limit {
		shown = sites[:limit]
	}
	for _, s := range shown {
		buf.WriteString(apply(style.Header, s.Header()))
		buf.WriteByte('\n')
		if len(s.Frames) == 0 {
			buf.WriteString("  <unknown>\n")
			continue
		}
		for _, f := range s.Frames {
			text := stackdepot.FormatFrames([]stackdepot.Frame{f})
			if style.Frame != nil {
				text = style.Frame(f, text)
			}
			buf.WriteString(text)
		}
	}
	if hidden := len(sites) - len(shown); hidden > 0 {
		fmt.Fprintf(buf, "  ... and %d more\n", hidden)
	}
}

// Conflict is one failed borrow attempt.
type Conflict struct {
	Time   time.Time `msgpack:"time"`
	Cell   string    `msgpack:"cell"`
	Op     string    `msgpack:"op"`
	Kind   string    `msgpack:"kind"`
	State  string    `msgpack:"state"`
	Shared uint32    `msgpack:"shared"`
	Sites  []Site    `msgpack:"sites"`
}

// Key identifies the conflict location for deduplication:
// "{kind}:{cell}:{top frame of the first site}".
func (c *Conflict) Key() string {
	top := "-"
	if len(c.Sites) > 0 && len(c.Sites[0].Frames) > 0 {
		f := c.Sites[0].Frames[0]
		top = fmt.Sprintf("%s:%d", f.File, f.Line)
	}
	return c.Kind + ":" + c.Cell + ":" + top
}

// Summary returns the one-line description of the conflict.
func (c *Conflict) Summary() string {
	name := c.Cell
	if name == "" {
		name = "<anonymous>"
	}
	return fmt.Sprintf("%s on cell %q failed: %s [%s]", c.Op, name, c.Kind, c.State)
}

// Format writes the framed report.
//
//nolint:errcheck // Report output is best effort.
func (c *Conflict) Format(w io.Writer, style Style) {
	var buf strings.Builder
	banner := apply(style.Banner, "==================")
	buf.WriteString(banner)
	buf.WriteByte('\n')
	buf.WriteString(apply(style.Banner, "WARNING: BORROW CONFLICT"))
	buf.WriteByte('\n')
	buf.WriteString(c.Summary())
	buf.WriteByte('\n')
	if !c.Time.IsZero() {
		buf.WriteString("at ")
		buf.WriteString(c.Time.Format(time.RFC3339Nano))
		buf.WriteByte('\n')
	}
	if len(c.Sites) == 0 {
		buf.WriteString("  (no acquisition sites recorded)\n")
	} else {
		writeSites(&buf, c.Sites, 0, style)
	}
	buf.WriteString(banner)
	buf.WriteByte('\n')
	io.WriteString(w, buf.String())
}

// String returns the plain framed report.
func (c *Conflict) String() string {
	var buf strings.Builder
	c.Format(&buf, Style{})
	return buf.String()
}
