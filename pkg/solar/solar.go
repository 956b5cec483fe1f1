// Package solar computes approximate sunrise and sunset times.
//
// The algorithm is the low-precision one from the Almanac for Computers
// (the aviation formulary variant), accurate to about two minutes. That is
// plenty for driving a decorative daylight ring; anything needing real
// ephemeris precision should use a proper astronomical library.
package solar

import (
	"math"
	"time"
)

// Events holds the sunrise and sunset instants for one UTC calendar day.
// Both are truncated to whole minutes.
type Events struct {
	Sunrise time.Time
	Sunset  time.Time
}

// zenith is the official sunrise/sunset zenith angle in degrees. It folds in
// atmospheric refraction and the apparent radius of the solar disk.
const zenith = 90.833

// Estimate returns sunrise and sunset for the UTC calendar day of date at the
// given coordinates. The second result is false when the sun never crosses
// the horizon that day (polar day or polar night), in which case there is no
// sunrise or sunset to report.
func Estimate(date time.Time, lat, lng float64) (Events, bool) {
	u := date.UTC()
	year, month, day := u.Date()
	doy := u.YearDay()

	rise, ok := eventUT(doy, lat, lng, true)
	if !ok {
		return Events{}, false
	}
	set, ok := eventUT(doy, lat, lng, false)
	if !ok {
		return Events{}, false
	}

	return Events{
		Sunrise: onDay(year, month, day, rise),
		Sunset:  onDay(year, month, day, set),
	}, true
}

// eventUT computes the Universal Time of one horizon crossing as fractional
// hours in [0,24). rising selects the morning (approximate local hour 6) or
// evening (approximate local hour 18) solution.
func eventUT(doy int, lat, lng float64, rising bool) (float64, bool) {
	lngHour := lng / 15

	var t float64
	if rising {
		t = float64(doy) + (6-lngHour)/24
	} else {
		t = float64(doy) + (18-lngHour)/24
	}

	// Sun's mean anomaly and true ecliptic longitude.
	m := 0.9856*t - 3.289
	l := norm360(m + 1.916*sind(m) + 0.02*sind(2*m) + 282.634)

	// Right ascension, forced into the same quadrant as L, then converted
	// into hours.
	ra := norm360(atand(0.91764 * tand(l)))
	ra += math.Floor(l/90)*90 - math.Floor(ra/90)*90
	ra /= 15

	// Declination.
	sinDec := 0.39782 * sind(l)
	cosDec := cosd(asind(sinDec))

	// Local hour angle. A cosine outside [-1,1] means the sun stays above
	// or below the zenith threshold for the whole day at this latitude.
	cosH := (cosd(zenith) - sinDec*sind(lat)) / (cosDec * cosd(lat))
	if cosH < -1 || cosH > 1 {
		return 0, false
	}

	var h float64
	if rising {
		h = 360 - acosd(cosH)
	} else {
		h = acosd(cosH)
	}
	h /= 15

	ut := h + ra - 0.06571*t - 6.622 - lngHour
	return math.Mod(math.Mod(ut, 24)+24, 24), true
}

// onDay anchors a fractional UT hour onto the given UTC calendar day,
// truncated to the whole minute.
func onDay(year int, month time.Month, day int, ut float64) time.Time {
	return time.Date(year, month, day, 0, int(ut*60), 0, 0, time.UTC)
}

func sind(deg float64) float64 { return math.Sin(deg * math.Pi / 180) }
func cosd(deg float64) float64 { return math.Cos(deg * math.Pi / 180) }
func tand(deg float64) float64 { return math.Tan(deg * math.Pi / 180) }

func asind(x float64) float64 { return math.Asin(x) * 180 / math.Pi }
func acosd(x float64) float64 { return math.Acos(x) * 180 / math.Pi }
func atand(x float64) float64 { return math.Atan(x) * 180 / math.Pi }

func norm360(deg float64) float64 {
	return math.Mod(math.Mod(deg, 360)+360, 360)
}
