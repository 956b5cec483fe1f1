// Package dial derives everything a clock face shows from a single instant:
// hand angles, digital text, the seconds progress ring, and the daylight ring
// position. Derive is a pure function so the whole face can be tested
// headlessly against fixed timestamps.
package dial

import (
	"strings"
	"time"

	"github.com/sundial-io/sundial/pkg/settings"
	"github.com/sundial-io/sundial/pkg/solar"
)

// SunRing positions the sunrise/sunset markers and the current-time indicator
// on the daylight ring. Angles are degrees with 0 at the dial's 12 o'clock
// (the fraction-of-day angle is offset by -90 for that).
type SunRing struct {
	Faded      bool    `json:"faded"`
	SunriseDeg float64 `json:"sunrise_deg"`
	SunsetDeg  float64 `json:"sunset_deg"`
	NowDeg     float64 `json:"now_deg"`
}

// Frame is the render state for one accepted tick. It is recomputed from
// scratch every time and never retained.
type Frame struct {
	HourAngleDeg   float64 `json:"hour_angle_deg"`
	MinuteAngleDeg float64 `json:"minute_angle_deg"`
	SecondAngleDeg float64 `json:"second_angle_deg"`
	DigitalTime    string  `json:"digital_time"`
	DigitalDate    string  `json:"digital_date"`
	SecondsRingDeg int     `json:"seconds_ring_deg"`
	Sun            SunRing `json:"sun"`
}

const dayMillis = 24 * 60 * 60 * 1000

// Derive computes the frame for now under the given settings. sol is the
// cached solar result for the current day, or nil when none is available
// (the sun ring then reports its faded state).
func Derive(now time.Time, cfg settings.Settings, sol *solar.Events) Frame {
	t := now.In(cfg.Location())
	hour, minute, second := t.Clock()
	milli := t.Nanosecond() / int(time.Millisecond)

	// Progress values. Stepped mode uses whole units only; smooth mode
	// carries each fraction into the next coarser hand.
	secProgress := float64(second)
	minProgress := float64(minute)
	hourProgress := float64(hour % 12)
	if cfg.SmoothSeconds {
		secProgress += float64(milli) / 1000
		minProgress += secProgress / 60
		hourProgress += minProgress / 60
	}

	f := Frame{
		SecondAngleDeg: secProgress * 6,
		MinuteAngleDeg: minProgress * 6,
		HourAngleDeg:   hourProgress * 30,
		DigitalTime:    formatTime(t, cfg.Use24Hour),
		DigitalDate:    strings.ToUpper(t.Format("Monday, January 2")),
		SecondsRingDeg: int(360 * (float64(second) + float64(milli)/1000) / 60),
		Sun:            sunRing(now, sol),
	}
	return f
}

func formatTime(t time.Time, use24 bool) string {
	if use24 {
		return t.Format("15:04:05")
	}
	return t.Format("3:04:05 PM")
}

// sunRing maps the cached solar events onto the ring as fractions of the
// current local day. Positions are computed against the system-local
// midnight regardless of the dial's timezone mode.
func sunRing(now time.Time, sol *solar.Events) SunRing {
	if sol == nil {
		return SunRing{Faded: true}
	}
	local := now.In(time.Local)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
	return SunRing{
		SunriseDeg: dayAngle(sol.Sunrise, midnight),
		SunsetDeg:  dayAngle(sol.Sunset, midnight),
		NowDeg:     dayAngle(now, midnight),
	}
}

func dayAngle(at, midnight time.Time) float64 {
	frac := float64(at.Sub(midnight).Milliseconds()) / dayMillis
	return frac*360 - 90
}

// DayKey identifies a local calendar day, for daily-refresh gating.
func DayKey(t time.Time) string {
	return t.In(time.Local).Format("2006-01-02")
}

// Gate suppresses redundant frames. In stepped mode only the first tick of
// each whole second renders; in smooth mode every tick does.
type Gate struct {
	lastKey string
}

// ShouldRender reports whether this tick's frame must be computed. It always
// records the tick key so switching from smooth to stepped mode does not
// replay a stale key.
func (g *Gate) ShouldRender(now time.Time, cfg settings.Settings) bool {
	key := tickKey(now, cfg)
	if cfg.SmoothSeconds {
		g.lastKey = key
		return true
	}
	if key == g.lastKey {
		return false
	}
	g.lastKey = key
	return true
}

// Reset forces the next tick to render regardless of mode. Callers use it
// after a settings change so new formatting is visible immediately.
func (g *Gate) Reset() {
	g.lastKey = ""
}

func tickKey(now time.Time, cfg settings.Settings) string {
	return now.In(cfg.Location()).Format("15:04:05")
}
