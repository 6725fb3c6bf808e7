package cli

import (
	"github.com/spf13/pflag"
	"github.com/studiowebux/jobbench/internal/config"
)

// RunFlags holds the raw values of the run command's flags
type RunFlags struct {
	Workers     int
	Concurrency int
	Total       uint64
	Timeout     uint64
	Granularity uint64
	InitSeqNum  uint64
	Job         string
	Debug       bool
	Rate        float64
	MetricsAddr string
	NoProgress  bool
	Insecure    bool
	CAFile      string
}

// BindRunFlags registers the run flags on fs with defaults from d
func BindRunFlags(fs *pflag.FlagSet, d config.Defaults) *RunFlags {
	f := &RunFlags{}
	fs.IntVarP(&f.Workers, "workers", "w", 0, "OS threads (0 = single-threaded)")
	fs.IntVarP(&f.Concurrency, "concurrency", "c", d.Concurrency, "Number of concurrent workers")
	fs.Uint64VarP(&f.Total, "total", "n", 0, "Total number of requests")
	fs.Uint64VarP(&f.Timeout, "timeout", "t", d.TimeoutMs, "Per-request timeout in ms")
	fs.Uint64VarP(&f.Granularity, "granularity", "g", d.GranularityMs, "Histogram bucket width in ms")
	fs.Uint64VarP(&f.InitSeqNum, "init-seq-num", "i", 0, "Initial sequence number for every SeqNum placeholder")
	fs.StringVarP(&f.Job, "job", "j", d.JobFile, "Job file (.toml, .yaml, .json)")
	fs.BoolVarP(&f.Debug, "debug", "d", false, "Log every completed request")
	fs.Float64VarP(&f.Rate, "rate", "r", 0, "Max requests per second (0 = unlimited)")
	fs.StringVar(&f.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address during the run")
	fs.BoolVar(&f.NoProgress, "no-progress", false, "Disable the progress line")
	fs.BoolVar(&f.Insecure, "insecure", false, "Skip TLS certificate verification")
	fs.StringVar(&f.CAFile, "ca-file", "", "PEM file with additional root CAs")
	return f
}

// Options converts parsed flags to RunOptions
func (f *RunFlags) Options() RunOptions {
	return RunOptions{
		JobFile:       f.Job,
		WorkerThreads: f.Workers,
		Concurrency:   f.Concurrency,
		TotalRequests: f.Total,
		TimeoutMs:     f.Timeout,
		GranularityMs: f.Granularity,
		InitSeqNum:    f.InitSeqNum,
		RatePerSecond: f.Rate,
		MetricsAddr:   f.MetricsAddr,
		NoProgress:    f.NoProgress || f.Debug,
		Insecure:      f.Insecure,
		CAFile:        f.CAFile,
	}
}
