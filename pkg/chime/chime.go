// Package chime produces the minute-boundary tone. Synthesis is a pure PCM
// render; actually making noise is delegated to an Output so hosts without
// an audio device can still run the clock.
package chime

import (
	"io"
	"log/slog"
	"math"
	"sync"
	"time"
)

// Reference tone: a short 660 Hz sine with a fast attack and an exponential
// decay, scaled by a master gain.
const (
	ToneHz     = 660
	ToneLength = 450 * time.Millisecond

	attackLength = 10 * time.Millisecond
	decayEnd     = 400 * time.Millisecond
	peakGain     = 0.4
	masterGain   = 0.35

	// The exponential decay targets this residual of peak gain at decayEnd.
	decayFloor = 0.001
)

// Synthesize renders the tone as 16-bit mono PCM at the given sample rate.
func Synthesize(sampleRate int) []int16 {
	total := int(ToneLength.Seconds() * float64(sampleRate))
	attack := int(attackLength.Seconds() * float64(sampleRate))
	decay := int(decayEnd.Seconds() * float64(sampleRate))

	// Decay rate per second so the envelope reaches decayFloor*peak at decayEnd.
	k := -math.Log(decayFloor) / (decayEnd - attackLength).Seconds()

	pcm := make([]int16, total)
	for i := range pcm {
		t := float64(i) / float64(sampleRate)

		var gain float64
		switch {
		case i < attack:
			gain = peakGain * float64(i) / float64(attack)
		case i < decay:
			gain = peakGain * math.Exp(-k*(t-attackLength.Seconds()))
		default:
			gain = 0
		}

		sample := math.Sin(2*math.Pi*ToneHz*t) * gain * masterGain
		pcm[i] = int16(sample * math.MaxInt16)
	}
	return pcm
}

// Output is the audio device boundary. EnsureActive must be idempotent;
// platforms with autoplay-style gating use it to resume a suspended device.
type Output interface {
	EnsureActive() error
	Play(pcm []int16, sampleRate int) error
}

// Chimer owns the lazily acquired audio output and rings at most the tone it
// is asked for. Output failures are logged and swallowed: a broken speaker
// never disturbs the clock.
type Chimer struct {
	logger *slog.Logger
	out    Output
	rate   int

	mu     sync.Mutex
	active bool
}

// New creates a chimer over the given output at a 44.1 kHz render rate.
func New(out Output, logger *slog.Logger) *Chimer {
	return &Chimer{logger: logger, out: out, rate: 44100}
}

// EnsureActive acquires or resumes the output. Safe to call repeatedly;
// repeated enables never create duplicate device resources.
func (c *Chimer) EnsureActive() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureActiveLocked()
}

func (c *Chimer) ensureActiveLocked() {
	if err := c.out.EnsureActive(); err != nil {
		c.active = false
		c.logger.Debug("audio output unavailable", "error", err)
		return
	}
	c.active = true
}

// Ring plays one tone. The output is re-ensured first in case the device was
// suspended since the last ring.
func (c *Chimer) Ring() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ensureActiveLocked()
	if !c.active {
		return
	}
	if err := c.out.Play(Synthesize(c.rate), c.rate); err != nil {
		c.logger.Debug("chime playback failed", "error", err)
	}
}

// BellOutput "plays" by writing the terminal bell character. It is the CLI
// fallback where no PCM device is wired up.
type BellOutput struct {
	W io.Writer
}

func (b BellOutput) EnsureActive() error { return nil }

func (b BellOutput) Play([]int16, int) error {
	_, err := b.W.Write([]byte{'\a'})
	return err
}

// PCMOutput streams raw little-endian 16-bit samples to a writer, suitable
// for piping into a player such as aplay.
type PCMOutput struct {
	W io.Writer
}

func (p PCMOutput) EnsureActive() error { return nil }

func (p PCMOutput) Play(pcm []int16, _ int) error {
	buf := make([]byte, 2*len(pcm))
	for i, s := range pcm {
		buf[2*i] = byte(s)
		buf[2*i+1] = byte(uint16(s) >> 8)
	}
	_, err := p.W.Write(buf)
	return err
}
