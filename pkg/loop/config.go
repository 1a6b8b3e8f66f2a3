package loop

import (
	"fmt"
	"time"
)

// DefaultRate is the display refresh rate the loop ticks at.
const DefaultRate = 30

// Config holds loop configuration.
type Config struct {
	// Interval between iterations. One iteration runs per display refresh.
	Interval time.Duration

	// Serial runs inference inline so the next iteration waits for it.
	// When false, inference runs on a background worker with at most one
	// call in flight, and frames keep drawing meanwhile.
	Serial bool
}

// DefaultConfig returns a 30 Hz overlapped loop.
func DefaultConfig() Config {
	return Config{
		Interval: time.Second / DefaultRate,
	}
}

// IntervalForRate converts a refresh rate in Hz to a tick interval.
func IntervalForRate(hz int) time.Duration {
	if hz <= 0 {
		hz = DefaultRate
	}
	return time.Second / time.Duration(hz)
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("loop: interval must be positive, got %v", c.Interval)
	}
	return nil
}

// Mode names the inference scheduling mode.
func (c Config) Mode() string {
	if c.Serial {
		return "serial"
	}
	return "overlapped"
}
