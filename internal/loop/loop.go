// Package loop paces a Frame against wall-clock time with fixed-step updates,
// frame skipping and optional extrapolation.
package loop

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	// UncappedRate is the update rate used when the target rate is 0.
	UncappedRate = 10000
	// DefaultMaxFrameSkip caps catch-up updates per rendered frame.
	DefaultMaxFrameSkip = 5
	// DefaultIdleDelay is slept while the frame is not ready.
	DefaultIdleDelay = 10 * time.Millisecond
)

// Frame is driven by the loop.
type Frame interface {
	// Ready reports whether the output surface can be rendered to.
	Ready() bool
	Update(extrp float64) error
	Render() error
	// SetFrameRate receives the measured frames per second, once per second.
	SetFrameRate(fps float64)
}

// Config tunes the loop.
type Config struct {
	// Rate is the target updates per second; 0 means uncapped.
	Rate int
	// Extrapolated runs a single update per iteration with extrp set to the
	// elapsed time in slices, instead of fixed catch-up updates at 1.0.
	Extrapolated bool
	// Sync busy-waits to avoid rendering above Rate. Ignored when Rate is 0.
	Sync bool
	// MaxFrameSkip bounds elapsed time per iteration to this many slices.
	MaxFrameSkip int
	IdleDelay    time.Duration
}

// Loop runs fixed-step updates and one render per iteration.
type Loop struct {
	cfg          Config
	clock        Clock
	log          *zap.Logger
	slice        time.Duration
	maxFrameTime time.Duration
	sync         bool

	frameRate atomic.Uint64 // math.Float64bits
}

func New(cfg Config, clock Clock, log *zap.Logger) *Loop {
	rate := cfg.Rate
	if rate <= 0 {
		rate = UncappedRate
	}
	if cfg.MaxFrameSkip <= 0 {
		cfg.MaxFrameSkip = DefaultMaxFrameSkip
	}
	if cfg.IdleDelay <= 0 {
		cfg.IdleDelay = DefaultIdleDelay
	}
	slice := time.Second / time.Duration(rate)
	return &Loop{
		cfg:          cfg,
		clock:        clock,
		log:          log,
		slice:        slice,
		maxFrameTime: slice * time.Duration(cfg.MaxFrameSkip),
		sync:         cfg.Sync && cfg.Rate > 0,
	}
}

// Slice returns the fixed update time step.
func (l *Loop) Slice() time.Duration { return l.slice }

// FrameRate returns the last measured frames per second.
func (l *Loop) FrameRate() float64 {
	return math.Float64frombits(l.frameRate.Load())
}

// Run drives frame until running is false. An error from the frame stops the
// loop and is returned.
func (l *Loop) Run(running *atomic.Bool, frame Frame) error {
	var (
		last     = l.clock.Now()
		debt     time.Duration
		frames   int
		fpsStart = last
	)

	l.log.Info("loop started",
		zap.Duration("slice", l.slice),
		zap.Bool("extrapolated", l.cfg.Extrapolated),
		zap.Bool("sync", l.sync),
	)

	for running.Load() {
		if !frame.Ready() {
			l.clock.Sleep(l.cfg.IdleDelay)
			last = l.clock.Now()
			fpsStart, frames = last, 0
			continue
		}

		start := l.clock.Now()
		elapsed := start - last
		last = start
		if elapsed > l.maxFrameTime {
			elapsed = l.maxFrameTime
		}
		if elapsed < 0 {
			elapsed = 0
		}
		debt += elapsed

		if l.cfg.Extrapolated {
			// One update covers the whole elapsed time.
			if debt > 0 {
				if err := frame.Update(float64(debt) / float64(l.slice)); err != nil {
					return fmt.Errorf("frame update: %w", err)
				}
				debt = 0
			}
		} else {
			for debt >= l.slice {
				if err := frame.Update(1.0); err != nil {
					return fmt.Errorf("frame update: %w", err)
				}
				debt -= l.slice
			}
		}

		if err := frame.Render(); err != nil {
			return fmt.Errorf("frame render: %w", err)
		}
		frames++

		if l.sync {
			for l.clock.Now()-start < l.slice {
				l.clock.Yield()
			}
		}

		if now := l.clock.Now(); now-fpsStart >= time.Second {
			fps := float64(frames) / (now - fpsStart).Seconds()
			l.frameRate.Store(math.Float64bits(fps))
			frame.SetFrameRate(fps)
			l.log.Debug("frame rate", zap.Float64("fps", fps))
			fpsStart, frames = now, 0
		}
	}

	l.log.Info("loop stopped")
	return nil
}
