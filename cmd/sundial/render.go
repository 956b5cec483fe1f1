package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/sundial-io/sundial/pkg/calendar"
	"github.com/sundial-io/sundial/pkg/dial"
	"github.com/sundial-io/sundial/pkg/settings"
	"github.com/sundial-io/sundial/pkg/worldtime"
)

// palette holds the colors one theme paints with.
type palette struct {
	title  *color.Color
	value  *color.Color
	accent *color.Color
	dim    *color.Color
}

func paletteFor(t settings.Theme) palette {
	switch t {
	case settings.ThemeNocturne:
		return palette{
			title:  color.New(color.FgBlue, color.Bold),
			value:  color.New(color.FgHiBlue),
			accent: color.New(color.FgMagenta),
			dim:    color.New(color.FgHiBlack),
		}
	case settings.ThemeMono:
		return palette{
			title:  color.New(color.FgWhite, color.Bold),
			value:  color.New(color.FgWhite),
			accent: color.New(color.FgHiWhite),
			dim:    color.New(color.FgHiBlack),
		}
	default:
		return palette{
			title:  color.New(color.FgCyan, color.Bold),
			value:  color.New(color.FgHiWhite),
			accent: color.New(color.FgYellow),
			dim:    color.New(color.FgHiBlack),
		}
	}
}

// renderer paints each accepted frame as a terminal dashboard. It is the
// presentation layer: it consumes render state and never computes clock
// state of its own.
type renderer struct {
	out io.Writer

	mu    sync.Mutex
	pal   palette
	focus bool
}

func newRenderer(out io.Writer) *renderer {
	return &renderer{out: out, pal: paletteFor(settings.ThemeClassic)}
}

// applySettings picks up presentation-relevant settings (theme, focus).
func (r *renderer) applySettings(cfg settings.Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pal = paletteFor(cfg.Theme)
	r.focus = cfg.FocusMode
}

func (r *renderer) FocusChanged(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.focus = on
}

func (r *renderer) RenderFrame(f dial.Frame, cards []worldtime.Card) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	b.WriteString("\033[H\033[2J")

	b.WriteString(r.pal.title.Sprint(f.DigitalTime))
	b.WriteString("  ")
	b.WriteString(r.pal.dim.Sprint(f.DigitalDate))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s %s\n",
		r.pal.dim.Sprint("hands"),
		r.pal.value.Sprintf("hour %6.1f°   minute %6.1f°   second %6.1f°",
			f.HourAngleDeg, f.MinuteAngleDeg, f.SecondAngleDeg))
	fmt.Fprintf(&b, "%s %s\n",
		r.pal.dim.Sprint("ring "),
		r.pal.accent.Sprint(secondsBar(f.SecondsRingDeg)))

	if f.Sun.Faded {
		fmt.Fprintf(&b, "%s %s\n", r.pal.dim.Sprint("sun  "), r.pal.dim.Sprint("(no position)"))
	} else {
		fmt.Fprintf(&b, "%s %s\n",
			r.pal.dim.Sprint("sun  "),
			r.pal.accent.Sprintf("rise %6.1f°   set %6.1f°   now %6.1f°",
				f.Sun.SunriseDeg, f.Sun.SunsetDeg, f.Sun.NowDeg))
	}

	if !r.focus {
		b.WriteString("\n")
		for _, c := range cards {
			fmt.Fprintf(&b, "%s %s\n",
				r.pal.value.Sprintf("%-9s", c.Label),
				r.pal.dim.Sprint(c.Time))
		}
		b.WriteString("\n")
		writeCalendar(&b, r.pal, calendar.Grid(time.Now(), 0))
	}

	fmt.Fprint(r.out, b.String())
}

// secondsBar draws the radial progress ring as a linear bar, one cell per
// 12 degrees.
func secondsBar(deg int) string {
	filled := deg / 12
	return strings.Repeat("█", filled) + strings.Repeat("░", 30-filled)
}

func writeCalendar(b *strings.Builder, pal palette, m calendar.Month) {
	fmt.Fprintf(b, "%s\n", pal.title.Sprintf("%s %d", m.Month, m.Year))
	b.WriteString(pal.dim.Sprint("Su Mo Tu We Th Fr Sa"))
	b.WriteString("\n")
	for i, cell := range m.Cells {
		if i > 0 && i%calendar.Columns == 0 {
			b.WriteString("\n")
		}
		switch {
		case cell.Day == 0:
			b.WriteString("   ")
		case cell.Today:
			b.WriteString(pal.accent.Sprintf("%2d ", cell.Day))
		default:
			b.WriteString(pal.value.Sprintf("%2d ", cell.Day))
		}
	}
	b.WriteString("\n")
}
