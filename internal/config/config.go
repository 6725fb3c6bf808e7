package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/studiowebux/jobbench/internal/stresstest"
)

const (
	// DefaultJobFile is read when no -j flag or JOBBENCH_JOB is given
	DefaultJobFile = "job.toml"

	// EnvJobFile overrides the default job file path
	EnvJobFile = "JOBBENCH_JOB"
	// EnvTimeoutMs overrides the default per-request timeout
	EnvTimeoutMs = "JOBBENCH_TIMEOUT_MS"
)

// Defaults holds the values flags fall back to when not given on the
// command line
type Defaults struct {
	JobFile       string
	TimeoutMs     uint64
	Concurrency   int
	GranularityMs uint64
}

// Load returns the defaults with environment overrides applied
func Load() (Defaults, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom is Load with an explicit environment lookup
func LoadFrom(lookup func(string) (string, bool)) (Defaults, error) {
	d := Defaults{
		JobFile:       DefaultJobFile,
		TimeoutMs:     stresstest.DefaultTimeoutMs,
		Concurrency:   stresstest.DefaultConcurrency,
		GranularityMs: stresstest.DefaultGranularityMs,
	}

	if v, ok := lookup(EnvJobFile); ok && strings.TrimSpace(v) != "" {
		d.JobFile = strings.TrimSpace(v)
	}

	if v, ok := lookup(EnvTimeoutMs); ok && strings.TrimSpace(v) != "" {
		ms, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil || ms == 0 {
			return d, fmt.Errorf("invalid %s %q: must be a positive integer", EnvTimeoutMs, v)
		}
		d.TimeoutMs = ms
	}

	return d, nil
}
