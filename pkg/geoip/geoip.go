// Package geoip resolves the device's approximate coordinates from its
// public IP address. It stands in for platform geolocation: one bounded
// request per refresh cycle, a cached fix honored up to a maximum age, and
// every failure collapsed into a plain error for the caller to degrade on.
package geoip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

const (
	// RequestTimeout bounds one position request end to end.
	RequestTimeout = 6000 * time.Millisecond
	// MaxFixAge is how long a previously resolved position stays acceptable.
	MaxFixAge = 3600000 * time.Millisecond

	defaultEndpoint = "http://ip-api.com/json"
)

// ErrDenied reports a lookup the service answered but refused.
var ErrDenied = errors.New("geoip: lookup refused")

// Fix is one resolved position.
type Fix struct {
	Latitude  float64
	Longitude float64
}

// Locator performs IP-based position lookups with a cached last fix.
type Locator struct {
	logger     *slog.Logger
	httpClient *http.Client
	endpoint   string
	maxAge     time.Duration

	mu     sync.Mutex
	last   Fix
	lastAt time.Time
	has    bool
}

// Option configures a Locator.
type Option func(*Locator)

// WithEndpoint overrides the lookup URL (tests point this at a local server).
func WithEndpoint(url string) Option {
	return func(l *Locator) { l.endpoint = url }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Locator) { l.httpClient = c }
}

// WithMaxFixAge overrides how long a cached fix is served without a new lookup.
func WithMaxFixAge(d time.Duration) Option {
	return func(l *Locator) { l.maxAge = d }
}

// NewLocator creates a locator with the default public endpoint.
func NewLocator(logger *slog.Logger, opts ...Option) *Locator {
	l := &Locator{
		logger:     logger,
		httpClient: &http.Client{Timeout: RequestTimeout},
		endpoint:   defaultEndpoint,
		maxAge:     MaxFixAge,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Current returns the device position, serving the cached fix while it is
// younger than the maximum age and otherwise performing one bounded lookup.
func (l *Locator) Current(ctx context.Context) (Fix, error) {
	l.mu.Lock()
	if l.has && time.Since(l.lastAt) < l.maxAge {
		fix := l.last
		l.mu.Unlock()
		l.logger.Debug("serving cached position", "age", time.Since(l.lastAt))
		return fix, nil
	}
	l.mu.Unlock()

	fix, err := l.lookup(ctx)
	if err != nil {
		return Fix{}, err
	}

	l.mu.Lock()
	l.last = fix
	l.lastAt = time.Now()
	l.has = true
	l.mu.Unlock()
	return fix, nil
}

// apiResponse is the subset of the lookup service's JSON we read.
type apiResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func (l *Locator) lookup(ctx context.Context) (Fix, error) {
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	var fix Fix
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint, http.NoBody)
			if err != nil {
				return retry.Unrecoverable(err)
			}

			resp, err := l.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer func() {
				if err := resp.Body.Close(); err != nil {
					l.logger.Debug("failed to close lookup response body", "error", err)
				}
			}()

			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return retry.Unrecoverable(fmt.Errorf("HTTP %d from position lookup", resp.StatusCode))
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("HTTP %d from position lookup", resp.StatusCode)
			}

			body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
			if err != nil {
				return err
			}
			var api apiResponse
			if err := json.Unmarshal(body, &api); err != nil {
				return fmt.Errorf("decoding position response: %w", err)
			}
			if api.Status != "success" {
				return retry.Unrecoverable(fmt.Errorf("%w: %s", ErrDenied, api.Message))
			}

			fix = Fix{Latitude: api.Lat, Longitude: api.Lon}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxJitter(100*time.Millisecond),
		retry.OnRetry(func(n uint, err error) {
			l.logger.Debug("retrying position lookup", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return Fix{}, fmt.Errorf("position lookup failed: %w", err)
	}

	l.logger.Debug("resolved position", "lat", fix.Latitude, "lon", fix.Longitude)
	return fix, nil
}
