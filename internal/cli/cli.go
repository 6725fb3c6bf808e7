package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/studiowebux/jobbench/internal/executor"
	"github.com/studiowebux/jobbench/internal/filter"
	"github.com/studiowebux/jobbench/internal/metrics"
	"github.com/studiowebux/jobbench/internal/parser"
	"github.com/studiowebux/jobbench/internal/stresstest"
	"go.uber.org/zap"
)

// RunOptions contains options for one load run
type RunOptions struct {
	JobFile       string
	WorkerThreads int
	Concurrency   int
	TotalRequests uint64
	TimeoutMs     uint64
	GranularityMs uint64
	InitSeqNum    uint64 // replaces the job's init_seq_num
	RatePerSecond float64
	MetricsAddr   string
	NoProgress    bool
	Insecure      bool
	CAFile        string

	Logger *zap.Logger
	Stdout io.Writer // report
	Stderr io.Writer // progress line
}

func (o *RunOptions) defaults() {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
}

// Run loads the job, dispatches every request and prints the report. Any
// error returned before dispatch is a configuration error; once dispatch
// starts the report is always printed.
func Run(ctx context.Context, opts RunOptions) (*stresstest.Summary, error) {
	opts.defaults()
	logger := opts.Logger

	job, err := parser.LoadJob(opts.JobFile)
	if err != nil {
		return nil, err
	}
	job.InitSeqNum = opts.InitSeqNum

	tmpl, err := parser.Compile(job)
	if err != nil {
		return nil, withPath(err, opts.JobFile)
	}

	expect, err := filter.Compile(job.Expect)
	if err != nil {
		return nil, &parser.ConfigError{Path: opts.JobFile, Err: fmt.Errorf("expect: %w", err)}
	}

	// Problems that would fail every index are reported before dispatch
	if _, err := tmpl.Materialize(0); err != nil {
		return nil, &parser.ConfigError{Path: opts.JobFile, Err: err}
	}

	cfg := &stresstest.Config{
		WorkerThreads: opts.WorkerThreads,
		Concurrency:   opts.Concurrency,
		TotalRequests: opts.TotalRequests,
		TimeoutMs:     opts.TimeoutMs,
		GranularityMs: opts.GranularityMs,
		RatePerSecond: opts.RatePerSecond,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport, err := executor.NewHTTPTransport(executor.Options{
		Timeout:             cfg.GetRequestTimeout(),
		MaxIdleConnsPerHost: cfg.Concurrency,
		InsecureSkipVerify:  opts.Insecure,
		CAFile:              opts.CAFile,
	})
	if err != nil {
		return nil, err
	}

	var collector *metrics.Collector
	if opts.MetricsAddr != "" {
		collector = metrics.NewCollector()
		stop, err := collector.Serve(ctx, opts.MetricsAddr, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer stop()
	}

	prev := cfg.ApplyRuntime()
	defer runtime.GOMAXPROCS(prev)

	var progress *Progress
	if !opts.NoProgress {
		progress = NewProgress(opts.Stderr, cfg.TotalRequests)
	}

	exec := &stresstest.ExecutionConfig{
		Config:    cfg,
		Template:  tmpl,
		Transport: transport,
		Expect:    expect,
		Logger:    logger,
	}
	if collector != nil {
		exec.Observer = collector
	}
	if progress != nil {
		exec.OnProgress = progress.Set
	}

	e, err := stresstest.NewExecutor(exec)
	if err != nil {
		return nil, err
	}

	logger.Info("starting run",
		zap.String("job", opts.JobFile),
		zap.String("url", job.URL),
		zap.String("method", job.Method.HTTP()),
		zap.Int("concurrency", cfg.Concurrency),
		zap.Uint64("total", cfg.TotalRequests))

	if progress != nil {
		progress.Start()
	}
	summary, err := e.Run(ctx)
	if progress != nil {
		progress.Stop()
	}
	if err != nil {
		return nil, err
	}
	if summary.Interrupted {
		logger.Warn("run interrupted",
			zap.Uint64("dispatched", summary.Dispatched),
			zap.Uint64("total", summary.Total))
	}

	NewReporter(opts.Stdout).Print(summary)
	return summary, nil
}

func withPath(err error, path string) error {
	var ce *parser.ConfigError
	if errors.As(err, &ce) && ce.Path == "" {
		return &parser.ConfigError{Path: path, Err: ce.Err}
	}
	return err
}
