// Package main implements the sundial terminal clock.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sundial-io/sundial/pkg/chime"
	"github.com/sundial-io/sundial/pkg/engine"
	"github.com/sundial-io/sundial/pkg/geoip"
	"github.com/sundial-io/sundial/pkg/settings"
)

var (
	use24    = flag.Bool("24h", false, "Use a 24-hour digital readout")
	smooth   = flag.Bool("smooth", true, "Sweep the second hand instead of stepping it")
	utc      = flag.Bool("utc", false, "Drive the primary dial from UTC instead of local time")
	theme    = flag.String("theme", "", "Color theme: classic, nocturne or mono")
	chimeOn  = flag.Bool("chime", false, "Ring a short tone at each minute boundary")
	focus    = flag.Bool("focus", false, "Start in focus mode (hide secondary panels)")
	fps      = flag.Int("fps", 30, "Frames per second for the terminal refresh")
	once     = flag.Bool("once", false, "Render a single frame and exit")
	noGeo    = flag.Bool("no-geo", false, "Skip the position lookup (sun ring stays faded)")
	confPath = flag.String("settings", "", "Settings file path (default: user config dir)")
	verbose  = flag.Bool("verbose", false, "Enable verbose logging")
	version  = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("sundial v1.0.0")
		return
	}

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	path := *confPath
	if path == "" {
		path = settings.DefaultPath()
	}
	store := settings.NewFileStore(path, logger)

	renderer := newRenderer(os.Stdout)

	opts := []engine.Option{
		engine.WithStore(store),
		engine.WithSink(renderer),
		engine.WithChimer(chime.New(chime.BellOutput{W: os.Stdout}, logger)),
		engine.WithFrameInterval(time.Second / time.Duration(max(*fps, 1))),
	}
	if !*noGeo {
		opts = append(opts, engine.WithLocator(geoip.NewLocator(logger)))
	}

	eng := engine.New(logger, opts...)

	// Flags given on the command line override the stored record, going
	// through the same reconciliation path as any settings change.
	if patch := patchFromFlags(); patch != (settings.Patch{}) {
		eng.ApplySettings(patch)
	}
	// Focus is its own toggle operation, outside the settings batch.
	if focusFlagGiven() && eng.Settings().FocusMode != *focus {
		eng.ToggleFocus()
	}
	renderer.applySettings(eng.Settings())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *once {
		eng.Tick(ctx)
		return
	}
	eng.Run(ctx)
	fmt.Fprintln(os.Stdout)
}

// patchFromFlags builds a settings patch from the flags the user actually
// set, leaving everything else to the stored record.
func patchFromFlags() settings.Patch {
	var patch settings.Patch
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "24h":
			patch.Use24Hour = use24
		case "smooth":
			patch.SmoothSeconds = smooth
		case "utc":
			mode := settings.TimezoneLocal
			if *utc {
				mode = settings.TimezoneUTC
			}
			patch.TimezoneMode = &mode
		case "theme":
			t := settings.Theme(*theme)
			patch.Theme = &t
		case "chime":
			patch.ChimeEnabled = chimeOn
		default:
		}
	})
	return patch
}

func focusFlagGiven() bool {
	var given bool
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "focus" {
			given = true
		}
	})
	return given
}
