package cli

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studiowebux/jobbench/internal/config"
)

func parseRunFlags(t *testing.T, args ...string) RunOptions {
	t.Helper()
	d, err := config.LoadFrom(func(string) (string, bool) { return "", false })
	require.NoError(t, err)

	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	f := BindRunFlags(fs, d)
	require.NoError(t, fs.Parse(args))
	return f.Options()
}

func TestRunFlags_Defaults(t *testing.T) {
	opts := parseRunFlags(t)

	assert.Equal(t, 0, opts.WorkerThreads)
	assert.Equal(t, 1, opts.Concurrency)
	assert.Equal(t, uint64(0), opts.TotalRequests)
	assert.Equal(t, uint64(10000), opts.TimeoutMs)
	assert.Equal(t, uint64(50), opts.GranularityMs)
	assert.Equal(t, "job.toml", opts.JobFile)
	assert.Equal(t, uint64(0), opts.InitSeqNum)
	assert.Zero(t, opts.RatePerSecond)
	assert.False(t, opts.NoProgress)
}

func TestRunFlags_Short(t *testing.T) {
	opts := parseRunFlags(t, "-w", "4", "-c", "50", "-n", "1000", "-t", "250", "-g", "10", "-i", "42", "-j", "load.yaml", "-r", "99.5")

	assert.Equal(t, 4, opts.WorkerThreads)
	assert.Equal(t, 50, opts.Concurrency)
	assert.Equal(t, uint64(1000), opts.TotalRequests)
	assert.Equal(t, uint64(250), opts.TimeoutMs)
	assert.Equal(t, uint64(10), opts.GranularityMs)
	assert.Equal(t, "load.yaml", opts.JobFile)
	assert.Equal(t, 99.5, opts.RatePerSecond)
	assert.Equal(t, uint64(42), opts.InitSeqNum)
}

func TestRunFlags_DebugDisablesProgress(t *testing.T) {
	opts := parseRunFlags(t, "-d")
	assert.True(t, opts.NoProgress)
}
