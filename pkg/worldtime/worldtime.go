// Package worldtime formats the secondary world-time cards. Each card has a
// fixed IANA zone that never follows the primary dial's timezone mode.
package worldtime

import (
	"log/slog"
	"time"

	"github.com/maypok86/otter/v2"
)

// Entry pairs a display label with the IANA zone it always renders in.
type Entry struct {
	Label  string
	ZoneID string
}

// Entries returns the fixed card list. Order is part of the contract: cards
// are always emitted in this order.
func Entries() []Entry {
	return []Entry{
		{Label: "New York", ZoneID: "America/New_York"},
		{Label: "London", ZoneID: "Europe/London"},
		{Label: "Tokyo", ZoneID: "Asia/Tokyo"},
		{Label: "Sydney", ZoneID: "Australia/Sydney"},
	}
}

// Card is one formatted world-time entry.
type Card struct {
	Label  string `json:"label"`
	ZoneID string `json:"zone_id"`
	Time   string `json:"time"`
}

// Panel formats the card list. Zone lookups are cached so each IANA database
// load happens once per process, not once per frame.
type Panel struct {
	logger  *slog.Logger
	entries []Entry
	zones   *otter.Cache[string, *time.Location]
}

// NewPanel creates a panel over the fixed entry list.
func NewPanel(logger *slog.Logger) *Panel {
	return &Panel{
		logger:  logger,
		entries: Entries(),
		zones: otter.Must(&otter.Options[string, *time.Location]{
			MaximumSize: 64,
		}),
	}
}

// Update formats every card for now. Cards whose zone cannot be loaded fall
// back to UTC rather than dropping out of the panel.
func (p *Panel) Update(now time.Time, use24Hour bool) []Card {
	layout := "3:04 PM"
	if use24Hour {
		layout = "15:04"
	}

	cards := make([]Card, 0, len(p.entries))
	for _, e := range p.entries {
		cards = append(cards, Card{
			Label:  e.Label,
			ZoneID: e.ZoneID,
			Time:   now.In(p.location(e.ZoneID)).Format(layout),
		})
	}
	return cards
}

func (p *Panel) location(zoneID string) *time.Location {
	if loc, ok := p.zones.GetIfPresent(zoneID); ok {
		return loc
	}
	loc, err := time.LoadLocation(zoneID)
	if err != nil {
		p.logger.Warn("unknown zone on world-time card, falling back to UTC",
			"zone", zoneID, "error", err)
		loc = time.UTC
	}
	p.zones.Set(zoneID, loc)
	return loc
}
