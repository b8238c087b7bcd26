package timectrl

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Mode describes how the TimeController advances simulation time.
type Mode int

const (
	// RealTime waits Tick/Speedup of wall time per step.
	RealTime Mode = iota
	// Accelerated advances as quickly as the loop can run while still stepping by Tick.
	Accelerated
)

func (m Mode) String() string {
	switch m {
	case RealTime:
		return "realtime"
	case Accelerated:
		return "accelerated"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts "realtime" or "accelerated" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "realtime", "real-time", "real_time":
		return RealTime, nil
	case "accelerated":
		return Accelerated, nil
	default:
		return 0, fmt.Errorf("unknown replay mode %q", s)
	}
}

// TimeController paces a replay of simulated time and notifies registered
// listeners. A controller drives one Run at a time.
type TimeController struct {
	mu      sync.RWMutex
	Tick    time.Duration
	Mode    Mode
	Speedup float64

	elapsed time.Duration

	listeners []func(time.Duration)
}

// NewTimeController constructs a controller. A non-positive speedup is treated as 1.
func NewTimeController(tick time.Duration, mode Mode, speedup float64) *TimeController {
	if speedup <= 0 {
		speedup = 1
	}
	return &TimeController{
		Tick:    tick,
		Mode:    mode,
		Speedup: speedup,
	}
}

// Elapsed returns the simulated time advanced so far.
func (tc *TimeController) Elapsed() time.Duration {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.elapsed
}

// SetElapsed overrides the simulated time, e.g. to resume a replay.
func (tc *TimeController) SetElapsed(d time.Duration) {
	tc.mu.Lock()
	tc.elapsed = d
	tc.mu.Unlock()
}

// WallTick is the wall-clock wait per step: Tick/Speedup in RealTime mode,
// zero otherwise.
func (tc *TimeController) WallTick() time.Duration {
	if tc.Mode != RealTime {
		return 0
	}
	speedup := tc.Speedup
	if speedup <= 0 {
		speedup = 1
	}
	return time.Duration(float64(tc.Tick) / speedup)
}

// AddListener registers a callback invoked on every step.
func (tc *TimeController) AddListener(fn func(time.Duration)) {
	tc.mu.Lock()
	tc.listeners = append(tc.listeners, fn)
	tc.mu.Unlock()
}

// Run advances simulated time by Tick once per step and calls fn with the
// step index and the new elapsed time. It returns early with ctx.Err() on
// cancellation or with the first error fn returns.
func (tc *TimeController) Run(ctx context.Context, steps int, fn func(step int, elapsed time.Duration) error) error {
	wait := tc.WallTick()
	var ticker *time.Ticker
	if wait > 0 {
		ticker = time.NewTicker(wait)
		defer ticker.Stop()
	}

	for step := 0; step < steps; step++ {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		tc.mu.Lock()
		tc.elapsed += tc.Tick
		elapsed := tc.elapsed
		listeners := append([]func(time.Duration){}, tc.listeners...)
		tc.mu.Unlock()

		for _, l := range listeners {
			l(elapsed)
		}
		if fn != nil {
			if err := fn(step, elapsed); err != nil {
				return err
			}
		}
	}
	return nil
}
