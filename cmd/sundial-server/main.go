// Package main implements the sundial web server: the engine runs in the
// background and the latest frame is served as JSON for a small polling page.
package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sundial-io/sundial/pkg/calendar"
	"github.com/sundial-io/sundial/pkg/dial"
	"github.com/sundial-io/sundial/pkg/engine"
	"github.com/sundial-io/sundial/pkg/geoip"
	"github.com/sundial-io/sundial/pkg/settings"
	"github.com/sundial-io/sundial/pkg/worldtime"
)

//go:embed templates/home.html
var templates embed.FS

var (
	port     = flag.String("port", "8080", "Port for web server")
	confPath = flag.String("settings", "", "Settings file path (default: user config dir)")
	noGeo    = flag.Bool("no-geo", false, "Skip the position lookup (sun ring stays faded)")
	verbose  = flag.Bool("verbose", false, "Enable verbose logging")
	version  = flag.Bool("version", false, "Show version")
)

// latestSink retains only the most recent frame for the polling API.
type latestSink struct {
	mu    sync.RWMutex
	frame dial.Frame
	cards []worldtime.Card
	seen  bool
}

func (s *latestSink) RenderFrame(f dial.Frame, cards []worldtime.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = f
	s.cards = cards
	s.seen = true
}

// FocusChanged is a no-op here: the page reads focus mode from the settings
// record in each /api/frame response.
func (s *latestSink) FocusChanged(bool) {}

func (s *latestSink) snapshot() (dial.Frame, []worldtime.Card, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame, s.cards, s.seen
}

func main() {
	flag.Parse()

	if *version {
		fmt.Println("sundial-server v1.0.0")
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	home, err := template.ParseFS(templates, "templates/home.html")
	if err != nil {
		logger.Error("failed to parse home template", "error", err)
		os.Exit(1)
	}

	path := *confPath
	if path == "" {
		path = settings.DefaultPath()
	}

	sink := &latestSink{}
	opts := []engine.Option{
		engine.WithStore(settings.NewFileStore(path, logger)),
		engine.WithSink(sink),
		// The page polls at 4 Hz; no point deriving frames faster.
		engine.WithFrameInterval(250 * time.Millisecond),
	}
	if !*noGeo {
		opts = append(opts, engine.WithLocator(geoip.NewLocator(logger)))
	}
	eng := engine.New(logger, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go eng.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		if err := home.Execute(w, nil); err != nil {
			logger.Error("rendering home page", "error", err)
		}
	})
	mux.HandleFunc("GET /api/frame", func(w http.ResponseWriter, _ *http.Request) {
		frame, cards, seen := sink.snapshot()
		if !seen {
			http.Error(w, "no frame yet", http.StatusServiceUnavailable)
			return
		}
		cfg := eng.Settings()
		writeJSON(w, logger, map[string]any{
			"frame":    frame,
			"world":    cards,
			"focus":    cfg.FocusMode,
			"calendar": calendar.Grid(time.Now(), 0),
			"settings": cfg,
		})
	})
	mux.HandleFunc("POST /api/settings", func(w http.ResponseWriter, r *http.Request) {
		var patch settings.Patch
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&patch); err != nil {
			http.Error(w, "bad settings patch", http.StatusBadRequest)
			return
		}
		writeJSON(w, logger, eng.ApplySettings(patch))
	})
	mux.HandleFunc("POST /api/focus", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, logger, map[string]bool{"focus_mode": eng.ToggleFocus()})
	})

	srv := &http.Server{
		Addr:              ":" + *port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("sundial server listening", "port", *port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encoding response", "error", err)
	}
}
