package stresstest

import (
	"errors"
	"fmt"
	"runtime"
	"time"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid run config")

const (
	DefaultConcurrency   = 1
	DefaultTimeoutMs     = 10000
	DefaultGranularityMs = 50
	MaxConcurrency       = 100000
)

// Config describes one load run
type Config struct {
	WorkerThreads int    // OS threads; 0 runs everything on one thread
	Concurrency   int    // number of workers
	TotalRequests uint64 // requests to dispatch
	TimeoutMs     uint64 // per-request timeout
	GranularityMs uint64 // histogram bucket width
	RatePerSecond float64
}

// Validate validates the run configuration
func (c *Config) Validate() error {
	if c.WorkerThreads < 0 {
		return fmt.Errorf("%w: worker threads cannot be negative", ErrInvalidConfig)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("%w: concurrency must be greater than 0", ErrInvalidConfig)
	}
	if c.Concurrency > MaxConcurrency {
		return fmt.Errorf("%w: concurrency cannot exceed %d", ErrInvalidConfig, MaxConcurrency)
	}
	if c.TimeoutMs == 0 {
		return fmt.Errorf("%w: timeout must be greater than 0", ErrInvalidConfig)
	}
	if c.GranularityMs == 0 {
		return fmt.Errorf("%w: granularity must be greater than 0", ErrInvalidConfig)
	}
	if c.RatePerSecond < 0 {
		return fmt.Errorf("%w: rate cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// GetRequestTimeout returns the request timeout as time.Duration
func (c *Config) GetRequestTimeout() time.Duration {
	if c.TimeoutMs == 0 {
		return DefaultTimeoutMs * time.Millisecond
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// ApplyRuntime sets GOMAXPROCS for the run and returns the previous value.
// Zero worker threads pins the scheduler to a single thread.
func (c *Config) ApplyRuntime() int {
	procs := c.WorkerThreads
	if procs <= 0 {
		procs = 1
	}
	return runtime.GOMAXPROCS(procs)
}
