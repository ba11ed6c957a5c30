package worker

import (
	"fmt"
	"time"
)

// Config tunes the job worker.
type Config struct {
	Concurrency       int
	PollInterval      time.Duration // idle poll period, Notify wakes the pollers early
	JobTimeout        time.Duration
	ShutdownTimeout   time.Duration
	StaleJobThreshold time.Duration // running jobs older than this are reset on Start
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency:       2,
		PollInterval:      5 * time.Second,
		JobTimeout:        2 * time.Minute,
		ShutdownTimeout:   30 * time.Second,
		StaleJobThreshold: 10 * time.Minute,
	}
}

const maxConcurrency = 100

func (c Config) Validate() error {
	if c.Concurrency < 1 || c.Concurrency > maxConcurrency {
		return fmt.Errorf("worker concurrency must be between 1 and %d, got %d", maxConcurrency, c.Concurrency)
	}

	minimums := []struct {
		name  string
		value time.Duration
		min   time.Duration
	}{
		{"poll interval", c.PollInterval, time.Second},
		{"job timeout", c.JobTimeout, time.Second},
		{"shutdown timeout", c.ShutdownTimeout, time.Second},
		{"stale job threshold", c.StaleJobThreshold, time.Minute},
	}
	for _, m := range minimums {
		if m.value < m.min {
			return fmt.Errorf("worker %s must be at least %v, got %v", m.name, m.min, m.value)
		}
	}
	return nil
}
