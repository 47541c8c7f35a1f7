package loop

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// manualClock only moves when told to. Yield advances by yieldStep so that
// busy-waits terminate.
type manualClock struct {
	now       time.Duration
	yieldStep time.Duration
	yields    int
	sleeps    []time.Duration
}

func (c *manualClock) Now() time.Duration { return c.now }

func (c *manualClock) Yield() {
	c.yields++
	c.now += c.yieldStep
}

func (c *manualClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now += d
}

// scriptedFrame records calls and stops the loop after a number of renders.
type scriptedFrame struct {
	clock   *manualClock
	running *atomic.Bool

	// advance returns how far the clock moves during render n (1-based).
	advance    func(n int) time.Duration
	maxRenders int
	notReady   int

	events    []string
	extrps    []float64
	fps       []float64
	renders   int
	updateErr error
	renderErr error
}

func (f *scriptedFrame) Ready() bool {
	if f.notReady > 0 {
		f.notReady--
		return false
	}
	return true
}

func (f *scriptedFrame) Update(extrp float64) error {
	f.events = append(f.events, "u")
	f.extrps = append(f.extrps, extrp)
	return f.updateErr
}

func (f *scriptedFrame) Render() error {
	f.renders++
	f.events = append(f.events, "r")
	f.clock.now += f.advance(f.renders)
	if f.renders >= f.maxRenders {
		f.running.Store(false)
	}
	return f.renderErr
}

func (f *scriptedFrame) SetFrameRate(fps float64) { f.fps = append(f.fps, fps) }

// updatesBeforeRender returns the number of updates preceding each render.
func (f *scriptedFrame) updatesBeforeRender() []int {
	var out []int
	n := 0
	for _, e := range f.events {
		if e == "u" {
			n++
			continue
		}
		out = append(out, n)
		n = 0
	}
	return out
}

func newTestLoop(t *testing.T, cfg Config, renders int, advance func(n int) time.Duration) (*Loop, *scriptedFrame, *atomic.Bool) {
	t.Helper()
	clock := &manualClock{yieldStep: time.Millisecond}
	running := &atomic.Bool{}
	running.Store(true)
	lp := New(cfg, clock, zap.NewNop())
	frame := &scriptedFrame{clock: clock, running: running, advance: advance, maxRenders: renders}
	return lp, frame, running
}

func TestLoop_Slice(t *testing.T) {
	require.Equal(t, time.Second/60, New(Config{Rate: 60}, &manualClock{}, zap.NewNop()).Slice())
	require.Equal(t, time.Second/UncappedRate, New(Config{}, &manualClock{}, zap.NewNop()).Slice())
}

func TestLoop_Pacing(t *testing.T) {
	t.Run("One Update Per Render At Target Rate", func(t *testing.T) {
		slice := time.Second / 60
		lp, frame, running := newTestLoop(t, Config{Rate: 60}, 20, func(int) time.Duration { return slice })

		require.NoError(t, lp.Run(running, frame))

		counts := frame.updatesBeforeRender()
		require.Len(t, counts, 20)
		// The first iteration has no elapsed time yet.
		require.Equal(t, 0, counts[0])
		for i, n := range counts[1:] {
			require.Equal(t, 1, n, "render %d", i+2)
		}
		for _, e := range frame.extrps {
			require.Equal(t, 1.0, e)
		}
	})

	t.Run("Stall Is Clamped", func(t *testing.T) {
		slice := time.Second / 60
		lp, frame, running := newTestLoop(t, Config{Rate: 60}, 4, func(n int) time.Duration {
			if n == 2 {
				return 10 * slice
			}
			return slice
		})

		require.NoError(t, lp.Run(running, frame))

		counts := frame.updatesBeforeRender()
		require.Equal(t, []int{0, 1, DefaultMaxFrameSkip, 1}, counts)
		require.Less(t, counts[2], 10)
	})

	t.Run("Custom Frame Skip", func(t *testing.T) {
		slice := time.Second / 30
		lp, frame, running := newTestLoop(t, Config{Rate: 30, MaxFrameSkip: 2}, 2, func(int) time.Duration {
			return 20 * slice
		})

		require.NoError(t, lp.Run(running, frame))
		require.Equal(t, []int{0, 2}, frame.updatesBeforeRender())
	})

	t.Run("Fractional Debt Carries Over", func(t *testing.T) {
		slice := time.Second / 60
		lp, frame, running := newTestLoop(t, Config{Rate: 60}, 5, func(int) time.Duration {
			return slice / 2
		})

		require.NoError(t, lp.Run(running, frame))
		require.Equal(t, []int{0, 0, 1, 0, 1}, frame.updatesBeforeRender())
	})

	t.Run("Catch Up Updates Pass One", func(t *testing.T) {
		slice := time.Second / 60
		lp, frame, running := newTestLoop(t, Config{Rate: 60}, 3, func(int) time.Duration {
			return 3 * slice
		})

		require.NoError(t, lp.Run(running, frame))
		require.Equal(t, []int{0, 3, 3}, frame.updatesBeforeRender())
		for _, e := range frame.extrps {
			require.Equal(t, 1.0, e)
		}
	})
}

func TestLoop_Extrapolated(t *testing.T) {
	slice := time.Second / 60
	for _, lag := range []int{1, 2, 4} {
		t.Run(fmt.Sprintf("Lag %d Slices", lag), func(t *testing.T) {
			cfg := Config{Rate: 60, Extrapolated: true, MaxFrameSkip: 10}
			lp, frame, running := newTestLoop(t, cfg, 10, func(int) time.Duration {
				return time.Duration(lag) * slice
			})

			require.NoError(t, lp.Run(running, frame))

			// One update per iteration once time has elapsed.
			require.Equal(t, []int{0, 1, 1, 1, 1, 1, 1, 1, 1, 1}, frame.updatesBeforeRender())
			sum := 0.0
			for _, e := range frame.extrps {
				require.InDelta(t, float64(lag), e, 1e-9)
				sum += e
			}
			// Simulated time matches elapsed time regardless of lag.
			require.InDelta(t, float64(9*lag), sum, 1e-9)
		})
	}

	t.Run("Fractional Elapsed", func(t *testing.T) {
		lp, frame, running := newTestLoop(t, Config{Rate: 60, Extrapolated: true}, 3, func(int) time.Duration {
			return slice / 2
		})

		require.NoError(t, lp.Run(running, frame))
		require.Equal(t, []int{0, 1, 1}, frame.updatesBeforeRender())
		for _, e := range frame.extrps {
			require.InDelta(t, 0.5, e, 1e-9)
		}
	})

	t.Run("Stall Is Clamped", func(t *testing.T) {
		lp, frame, running := newTestLoop(t, Config{Rate: 60, Extrapolated: true}, 2, func(int) time.Duration {
			return time.Second
		})

		require.NoError(t, lp.Run(running, frame))
		require.Equal(t, []float64{float64(DefaultMaxFrameSkip)}, frame.extrps)
	})
}

func TestLoop_Sync(t *testing.T) {
	t.Run("Busy Waits Until Slice Elapsed", func(t *testing.T) {
		lp, frame, running := newTestLoop(t, Config{Rate: 60, Sync: true}, 3, func(int) time.Duration {
			return time.Millisecond
		})

		require.NoError(t, lp.Run(running, frame))

		clock := frame.clock
		require.Positive(t, clock.yields)
		require.GreaterOrEqual(t, clock.now, 3*lp.Slice())
		require.Equal(t, []int{0, 1, 1}, frame.updatesBeforeRender())
	})

	t.Run("Ignored When Uncapped", func(t *testing.T) {
		lp, frame, running := newTestLoop(t, Config{Rate: 0, Sync: true}, 3, func(int) time.Duration {
			return 0
		})

		require.NoError(t, lp.Run(running, frame))
		require.Zero(t, frame.clock.yields)
		require.Equal(t, []int{0, 0, 0}, frame.updatesBeforeRender())
	})
}

func TestLoop_FrameRate(t *testing.T) {
	slice := time.Second / 60
	lp, frame, running := newTestLoop(t, Config{Rate: 60}, 70, func(int) time.Duration { return slice })

	require.NoError(t, lp.Run(running, frame))

	require.Len(t, frame.fps, 1)
	require.InDelta(t, 60, frame.fps[0], 0.5)
	require.InDelta(t, 60, lp.FrameRate(), 0.5)
}

func TestLoop_NotReady(t *testing.T) {
	slice := time.Second / 60
	lp, frame, running := newTestLoop(t, Config{Rate: 60}, 2, func(int) time.Duration { return slice })
	frame.notReady = 3

	require.NoError(t, lp.Run(running, frame))

	require.Equal(t, []time.Duration{DefaultIdleDelay, DefaultIdleDelay, DefaultIdleDelay}, frame.clock.sleeps)
	// Time spent waiting is not owed to the simulation.
	require.Equal(t, []int{0, 1}, frame.updatesBeforeRender())
}

func TestLoop_Stopped(t *testing.T) {
	lp, frame, running := newTestLoop(t, Config{Rate: 60}, 1, func(int) time.Duration { return 0 })
	running.Store(false)

	require.NoError(t, lp.Run(running, frame))
	require.Empty(t, frame.events)
}

func TestLoop_Errors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("Update Error Stops Loop", func(t *testing.T) {
		slice := time.Second / 60
		lp, frame, running := newTestLoop(t, Config{Rate: 60}, 100, func(int) time.Duration { return slice })
		frame.updateErr = boom

		err := lp.Run(running, frame)
		require.ErrorIs(t, err, boom)
		require.Equal(t, []string{"r", "u"}, frame.events)
	})

	t.Run("Render Error Stops Loop", func(t *testing.T) {
		lp, frame, running := newTestLoop(t, Config{Rate: 60}, 100, func(int) time.Duration { return 0 })
		frame.renderErr = boom

		err := lp.Run(running, frame)
		require.ErrorIs(t, err, boom)
		require.Equal(t, 1, frame.renders)
	})
}
