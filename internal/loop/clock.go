package loop

import (
	"runtime"
	"time"
)

// Clock is the loop's time source.
type Clock interface {
	// Now returns a monotonic reading.
	Now() time.Duration
	// Yield gives up the processor while busy-waiting.
	Yield()
	Sleep(d time.Duration)
}

// SystemClock reads the process monotonic clock.
type SystemClock struct {
	start time.Time
}

func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

func (c *SystemClock) Now() time.Duration { return time.Since(c.start) }

func (c *SystemClock) Yield() { runtime.Gosched() }

func (c *SystemClock) Sleep(d time.Duration) { time.Sleep(d) }
