package dial

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sundial-io/sundial/pkg/settings"
	"github.com/sundial-io/sundial/pkg/solar"
)

func utcSettings() settings.Settings {
	cfg := settings.Default()
	cfg.TimezoneMode = settings.TimezoneUTC
	return cfg
}

func TestSteppedAnglesAreExact(t *testing.T) {
	cfg := utcSettings()
	cfg.SmoothSeconds = false

	tests := []struct {
		hour, minute, second       int
		wantHour, wantMin, wantSec float64
	}{
		{0, 0, 0, 0, 0, 0},
		{3, 0, 0, 90, 0, 0},
		{12, 0, 0, 0, 0, 0},
		{15, 30, 45, 90, 180, 270},
		{23, 59, 59, 330, 354, 354},
	}
	for _, tc := range tests {
		now := time.Date(2024, time.May, 1, tc.hour, tc.minute, tc.second, 999_000_000, time.UTC)
		f := Derive(now, cfg, nil)
		if f.HourAngleDeg != tc.wantHour || f.MinuteAngleDeg != tc.wantMin || f.SecondAngleDeg != tc.wantSec {
			t.Errorf("%02d:%02d:%02d: got (%v,%v,%v), want (%v,%v,%v)",
				tc.hour, tc.minute, tc.second,
				f.HourAngleDeg, f.MinuteAngleDeg, f.SecondAngleDeg,
				tc.wantHour, tc.wantMin, tc.wantSec)
		}
	}
}

func TestSmoothSecondAngleSweeps(t *testing.T) {
	cfg := utcSettings()
	cfg.SmoothSeconds = true

	prev := -1.0
	for ms := 0; ms < 1000; ms += 50 {
		now := time.Date(2024, time.May, 1, 10, 0, 30, ms*int(time.Millisecond), time.UTC)
		f := Derive(now, cfg, nil)

		want := (30 + float64(ms)/1000) * 6
		if f.SecondAngleDeg != want {
			t.Fatalf("ms=%d: second angle %v, want %v", ms, f.SecondAngleDeg, want)
		}
		if f.SecondAngleDeg < prev {
			t.Fatalf("ms=%d: second angle went backwards (%v < %v)", ms, f.SecondAngleDeg, prev)
		}
		prev = f.SecondAngleDeg
	}
}

func TestSmoothFractionsCarryIntoCoarserHands(t *testing.T) {
	cfg := utcSettings()
	cfg.SmoothSeconds = true

	now := time.Date(2024, time.May, 1, 6, 30, 30, 0, time.UTC)
	f := Derive(now, cfg, nil)

	if want := (30 + 30.0/60) * 6; f.MinuteAngleDeg != want {
		t.Errorf("minute angle %v, want %v", f.MinuteAngleDeg, want)
	}
	if want := (6 + (30+0.5)/60) * 30; f.HourAngleDeg != want {
		t.Errorf("hour angle %v, want %v", f.HourAngleDeg, want)
	}
}

func TestSecondsRingFloors(t *testing.T) {
	cfg := utcSettings()

	tests := []struct {
		second, ms int
		want       int
	}{
		{0, 0, 0},
		{0, 999, 5},
		{30, 0, 180},
		{59, 999, 359},
	}
	for _, tc := range tests {
		now := time.Date(2024, time.May, 1, 0, 0, tc.second, tc.ms*int(time.Millisecond), time.UTC)
		if f := Derive(now, cfg, nil); f.SecondsRingDeg != tc.want {
			t.Errorf("sec=%d ms=%d: ring %d, want %d", tc.second, tc.ms, f.SecondsRingDeg, tc.want)
		}
	}
}

func TestDigitalText(t *testing.T) {
	now := time.Date(2024, time.May, 1, 15, 4, 5, 0, time.UTC)

	cfg := utcSettings()
	cfg.Use24Hour = true
	if f := Derive(now, cfg, nil); f.DigitalTime != "15:04:05" {
		t.Errorf("24h time = %q", f.DigitalTime)
	}

	cfg.Use24Hour = false
	f := Derive(now, cfg, nil)
	if f.DigitalTime != "3:04:05 PM" {
		t.Errorf("12h time = %q", f.DigitalTime)
	}
	if f.DigitalDate != "WEDNESDAY, MAY 1" {
		t.Errorf("date = %q, want upper-cased", f.DigitalDate)
	}
	if f.DigitalDate != strings.ToUpper(f.DigitalDate) {
		t.Errorf("date %q is not upper-cased", f.DigitalDate)
	}
}

func TestSunRing(t *testing.T) {
	// Build everything in the system-local zone so the fractions are exact
	// regardless of where the test runs.
	noon := time.Date(2024, time.June, 21, 12, 0, 0, 0, time.Local)
	sol := &solar.Events{
		Sunrise: time.Date(2024, time.June, 21, 6, 0, 0, 0, time.Local),
		Sunset:  time.Date(2024, time.June, 21, 18, 0, 0, 0, time.Local),
	}

	f := Derive(noon, utcSettings(), sol)
	if f.Sun.Faded {
		t.Fatal("sun ring faded despite cached events")
	}
	want := SunRing{SunriseDeg: 0, SunsetDeg: 180, NowDeg: 90}
	if diff := cmp.Diff(want, f.Sun); diff != "" {
		t.Errorf("sun ring mismatch (-want +got):\n%s", diff)
	}

	if f := Derive(noon, utcSettings(), nil); !f.Sun.Faded {
		t.Error("sun ring should fade without cached events")
	}
}

func TestGateSuppressesWithinSameSecond(t *testing.T) {
	cfg := utcSettings()
	cfg.SmoothSeconds = false

	var g Gate
	base := time.Date(2024, time.May, 1, 10, 0, 30, 0, time.UTC)

	if !g.ShouldRender(base, cfg) {
		t.Fatal("first tick must render")
	}
	if g.ShouldRender(base.Add(16*time.Millisecond), cfg) {
		t.Error("second tick within the same second must be suppressed")
	}
	if !g.ShouldRender(base.Add(time.Second), cfg) {
		t.Error("tick in the next second must render")
	}
}

func TestGateAlwaysRendersWhenSmooth(t *testing.T) {
	cfg := utcSettings()
	cfg.SmoothSeconds = true

	var g Gate
	base := time.Date(2024, time.May, 1, 10, 0, 30, 0, time.UTC)
	for i := range 5 {
		if !g.ShouldRender(base.Add(time.Duration(i)*time.Millisecond), cfg) {
			t.Fatalf("tick %d suppressed in smooth mode", i)
		}
	}
}

func TestGateResetForcesRender(t *testing.T) {
	cfg := utcSettings()
	cfg.SmoothSeconds = false

	var g Gate
	base := time.Date(2024, time.May, 1, 10, 0, 30, 0, time.UTC)

	g.ShouldRender(base, cfg)
	g.Reset()
	if !g.ShouldRender(base, cfg) {
		t.Error("tick after Reset must render even within the same second")
	}
}

func TestDayKeyChangesAtLocalMidnight(t *testing.T) {
	before := time.Date(2024, time.May, 1, 23, 59, 59, 0, time.Local)
	after := before.Add(time.Second)
	if DayKey(before) == DayKey(after) {
		t.Errorf("day key did not change across midnight: %q", DayKey(before))
	}
	if DayKey(before) != DayKey(before.Add(-time.Hour)) {
		t.Error("day key changed within the same day")
	}
}
