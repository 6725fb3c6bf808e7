package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		vars        map[string]string
		wantJob     string
		wantTimeout uint64
		wantErr     bool
	}{
		{name: "defaults", vars: nil, wantJob: "job.toml", wantTimeout: 10000},
		{name: "job override", vars: map[string]string{EnvJobFile: "load.yaml"}, wantJob: "load.yaml", wantTimeout: 10000},
		{name: "blank job ignored", vars: map[string]string{EnvJobFile: "  "}, wantJob: "job.toml", wantTimeout: 10000},
		{name: "timeout override", vars: map[string]string{EnvTimeoutMs: "250"}, wantJob: "job.toml", wantTimeout: 250},
		{name: "bad timeout", vars: map[string]string{EnvTimeoutMs: "soon"}, wantErr: true},
		{name: "zero timeout", vars: map[string]string{EnvTimeoutMs: "0"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := LoadFrom(env(tt.vars))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantJob, d.JobFile)
			assert.Equal(t, tt.wantTimeout, d.TimeoutMs)
			assert.Equal(t, 1, d.Concurrency)
			assert.Equal(t, uint64(50), d.GranularityMs)
		})
	}
}

func TestLoad_UsesProcessEnv(t *testing.T) {
	t.Setenv(EnvJobFile, "from-env.json")
	d, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env.json", d.JobFile)
}
