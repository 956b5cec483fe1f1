// Package settings defines the persisted clock configuration record and the
// single merge entry point through which it is ever mutated.
package settings

import "time"

// TimezoneMode selects the zone used for the primary dial.
type TimezoneMode string

const (
	TimezoneLocal TimezoneMode = "local"
	TimezoneUTC   TimezoneMode = "utc"
)

// Theme names a presentation palette. The engine never interprets it; it is
// carried for the presentation layer.
type Theme string

const (
	ThemeClassic  Theme = "classic"
	ThemeNocturne Theme = "nocturne"
	ThemeMono     Theme = "mono"
)

// Settings is the single process-wide configuration record. Every field holds
// a valid value at all times; Normalize enforces that before the record is
// ever read by a derivation step.
type Settings struct {
	TimezoneMode   TimezoneMode `json:"timezone_mode"`
	Theme          Theme        `json:"theme"`
	Use24Hour      bool         `json:"use_24_hour"`
	SmoothSeconds  bool         `json:"smooth_seconds"`
	ChimeEnabled   bool         `json:"chime_enabled"`
	AmbientEnabled bool         `json:"ambient_enabled"`
	FocusMode      bool         `json:"focus_mode"`
}

// Default returns the settings used before any stored record is merged in.
func Default() Settings {
	return Settings{
		TimezoneMode:   TimezoneLocal,
		Theme:          ThemeClassic,
		Use24Hour:      false,
		SmoothSeconds:  true,
		ChimeEnabled:   false,
		AmbientEnabled: true,
		FocusMode:      false,
	}
}

// Normalize replaces any out-of-range enum value with its default. Booleans
// cannot be invalid, so only the two enums are checked.
func (s Settings) Normalize() Settings {
	switch s.TimezoneMode {
	case TimezoneLocal, TimezoneUTC:
	default:
		s.TimezoneMode = TimezoneLocal
	}
	switch s.Theme {
	case ThemeClassic, ThemeNocturne, ThemeMono:
	default:
		s.Theme = ThemeClassic
	}
	return s
}

// Location returns the zone the primary dial renders in. World-time cards use
// their own fixed zones and never consult this.
func (s Settings) Location() *time.Location {
	if s.TimezoneMode == TimezoneUTC {
		return time.UTC
	}
	return time.Local
}

// Patch is a partial settings update. Nil fields are left untouched.
// FocusMode is deliberately absent: focus is a distinct toggle operation,
// not part of a settings batch.
type Patch struct {
	TimezoneMode   *TimezoneMode `json:"timezone_mode,omitempty"`
	Theme          *Theme        `json:"theme,omitempty"`
	Use24Hour      *bool         `json:"use_24_hour,omitempty"`
	SmoothSeconds  *bool         `json:"smooth_seconds,omitempty"`
	ChimeEnabled   *bool         `json:"chime_enabled,omitempty"`
	AmbientEnabled *bool         `json:"ambient_enabled,omitempty"`
}

// Apply merges patch into cur in one step and normalizes the result. It is a
// pure function: applying the same patch twice yields the same record as
// applying it once.
func Apply(cur Settings, patch Patch) Settings {
	if patch.TimezoneMode != nil {
		cur.TimezoneMode = *patch.TimezoneMode
	}
	if patch.Theme != nil {
		cur.Theme = *patch.Theme
	}
	if patch.Use24Hour != nil {
		cur.Use24Hour = *patch.Use24Hour
	}
	if patch.SmoothSeconds != nil {
		cur.SmoothSeconds = *patch.SmoothSeconds
	}
	if patch.ChimeEnabled != nil {
		cur.ChimeEnabled = *patch.ChimeEnabled
	}
	if patch.AmbientEnabled != nil {
		cur.AmbientEnabled = *patch.AmbientEnabled
	}
	return cur.Normalize()
}
