// Package engine runs the clock: a cooperative frame loop that reads the
// current instant, decides whether a frame is worth deriving, and hands the
// derived render state to a presentation sink. It owns the only mutable
// state in the process: the settings record and the daily solar cache.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sundial-io/sundial/pkg/chime"
	"github.com/sundial-io/sundial/pkg/dial"
	"github.com/sundial-io/sundial/pkg/geoip"
	"github.com/sundial-io/sundial/pkg/settings"
	"github.com/sundial-io/sundial/pkg/solar"
	"github.com/sundial-io/sundial/pkg/worldtime"
)

// Sink consumes render state. Implementations must not retain the frame;
// it is recomputed on every accepted tick.
type Sink interface {
	RenderFrame(f dial.Frame, cards []worldtime.Card)
	FocusChanged(on bool)
}

// Locator supplies the device position for the solar calculation.
type Locator interface {
	Current(ctx context.Context) (geoip.Fix, error)
}

// DefaultFrameInterval approximates a 60 Hz display without a real vsync.
const DefaultFrameInterval = 16 * time.Millisecond

// Engine coordinates the per-frame pipeline. All mutation of settings and
// the solar cache goes through it; readers never observe a partial update.
type Engine struct {
	logger        *slog.Logger
	clock         clockwork.Clock
	store         settings.Store
	locator       Locator
	chimer        *chime.Chimer
	sink          Sink
	panel         *worldtime.Panel
	frameInterval time.Duration

	mu          sync.Mutex
	cfg         settings.Settings
	gate        dial.Gate
	sol         *solar.Events
	solDay      string
	geoInFlight bool
	lastChime   string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source (tests inject a fake).
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithStore sets the settings persistence collaborator.
func WithStore(s settings.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithLocator sets the geolocation collaborator. Without one the solar ring
// stays faded.
func WithLocator(l Locator) Option {
	return func(e *Engine) { e.locator = l }
}

// WithSink sets the presentation sink.
func WithSink(s Sink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithChimer sets the audio collaborator.
func WithChimer(c *chime.Chimer) Option {
	return func(e *Engine) { e.chimer = c }
}

// WithFrameInterval overrides the tick period.
func WithFrameInterval(d time.Duration) Option {
	return func(e *Engine) { e.frameInterval = d }
}

// New creates an engine with defaults applied and any stored settings merged
// over them.
func New(logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		logger:        logger,
		clock:         clockwork.NewRealClock(),
		sink:          nopSink{},
		panel:         worldtime.NewPanel(logger),
		frameInterval: DefaultFrameInterval,
		cfg:           settings.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.store != nil {
		stored, ok, err := e.store.Load()
		switch {
		case err != nil:
			e.logger.Warn("could not load stored settings, using defaults", "error", err)
		case ok:
			e.cfg = stored.Normalize()
		}
	}
	if e.cfg.ChimeEnabled && e.chimer != nil {
		e.chimer.EnsureActive()
	}
	return e
}

// Settings returns a copy of the current record.
func (e *Engine) Settings() settings.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Run ticks until ctx is cancelled. The loop itself is infallible: every
// collaborator failure degrades locally and the next tick proceeds.
func (e *Engine) Run(ctx context.Context) {
	ticker := e.clock.NewTicker(e.frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Debug("engine stopping", "reason", ctx.Err())
			return
		case <-ticker.Chan():
			e.Tick(ctx)
		}
	}
}

// Tick performs exactly one frame: gate, derive, render, chime check, and
// the daily solar refresh check. Exported so hosts with their own frame
// callback (and tests) can drive the engine directly.
func (e *Engine) Tick(ctx context.Context) {
	now := e.clock.Now()

	e.mu.Lock()
	cfg := e.cfg
	sol := e.sol
	render := e.gate.ShouldRender(now, cfg)
	ring := e.chimeDue(now, cfg)
	// The first tick requests the startup position read; after that a new
	// read is only due when the local calendar day moves past the day the
	// cache was computed for.
	refresh := !e.geoInFlight && (e.solDay == "" || dial.DayKey(now) != e.solDay)
	e.mu.Unlock()

	// The chime is independent of the render decision: a suppressed frame
	// can still cross a minute boundary.
	if ring && e.chimer != nil {
		go e.chimer.Ring()
	}

	if refresh {
		e.requestSolarRefresh(ctx)
	}

	if !render {
		return
	}
	frame := dial.Derive(now, cfg, sol)
	cards := e.panel.Update(now, cfg.Use24Hour)
	e.sink.RenderFrame(frame, cards)
}

// chimeDue reports whether this tick lands on a fresh minute boundary.
// Multiple ticks inside the same second 0 fire at most once.
func (e *Engine) chimeDue(now time.Time, cfg settings.Settings) bool {
	if !cfg.ChimeEnabled {
		return false
	}
	t := now.In(cfg.Location())
	if t.Second() != 0 {
		return false
	}
	key := t.Format("15:04")
	if key == e.lastChime {
		return false
	}
	e.lastChime = key
	return true
}

// ApplySettings merges a patch atomically, forces the next tick to render,
// persists the new record, and wakes the audio output when the chime was
// just enabled. Repeated enables are idempotent.
func (e *Engine) ApplySettings(patch settings.Patch) settings.Settings {
	e.mu.Lock()
	e.cfg = settings.Apply(e.cfg, patch)
	e.gate.Reset()
	cfg := e.cfg
	e.mu.Unlock()

	if cfg.ChimeEnabled && e.chimer != nil {
		e.chimer.EnsureActive()
	}
	e.persist(cfg)
	return cfg
}

// ToggleFocus flips focus mode and persists. Unlike ApplySettings it does
// not reset the refresh gate: hiding panels has no clock-state implications.
func (e *Engine) ToggleFocus() bool {
	e.mu.Lock()
	e.cfg.FocusMode = !e.cfg.FocusMode
	cfg := e.cfg
	e.mu.Unlock()

	e.sink.FocusChanged(cfg.FocusMode)
	e.persist(cfg)
	return cfg.FocusMode
}

func (e *Engine) persist(cfg settings.Settings) {
	if e.store == nil {
		return
	}
	if err := e.store.Save(cfg); err != nil {
		e.logger.Warn("could not persist settings", "error", err)
	}
}

// requestSolarRefresh issues one asynchronous position read and replaces the
// solar cache when it resolves. A failed or refused read clears the cache so
// the sun ring fades; a stale cache is never left past its day boundary.
// At most one request is in flight at a time.
func (e *Engine) requestSolarRefresh(ctx context.Context) {
	if e.locator == nil {
		return
	}

	e.mu.Lock()
	if e.geoInFlight {
		e.mu.Unlock()
		return
	}
	e.geoInFlight = true
	e.mu.Unlock()

	day := e.clock.Now()
	go func() {
		fix, err := e.locator.Current(ctx)

		var events *solar.Events
		if err != nil {
			e.logger.Debug("position unavailable, sun ring fades", "error", err)
		} else if ev, ok := solar.Estimate(day, fix.Latitude, fix.Longitude); ok {
			events = &ev
			e.logger.Debug("solar events refreshed",
				"sunrise", ev.Sunrise, "sunset", ev.Sunset)
		} else {
			e.logger.Debug("no sunrise or sunset at this latitude today",
				"lat", fix.Latitude)
		}

		e.mu.Lock()
		e.sol = events
		e.solDay = dial.DayKey(day)
		e.geoInFlight = false
		e.mu.Unlock()
	}()
}

type nopSink struct{}

func (nopSink) RenderFrame(dial.Frame, []worldtime.Card) {}
func (nopSink) FocusChanged(bool)                        {}
