package stresstest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/studiowebux/jobbench/internal/executor"
	"github.com/studiowebux/jobbench/internal/filter"
	"github.com/studiowebux/jobbench/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Materializer builds the request for an index. parser.Template satisfies it.
type Materializer interface {
	Materialize(index uint64) (*types.Request, error)
}

// Observer receives every result as it is recorded. Implementations must be
// safe for concurrent use.
type Observer interface {
	Observe(result *types.TaskResult)
}

// ExecutionConfig contains the runtime collaborators for a run
type ExecutionConfig struct {
	Config     *Config
	Template   Materializer
	Transport  executor.Transport
	Expect     *filter.Expectation
	Logger     *zap.Logger
	Observer   Observer
	OnProgress func(done, total uint64)
}

// Summary is the final state of a run
type Summary struct {
	Record      *Record
	Total       uint64
	Dispatched  uint64
	WallClock   time.Duration
	Interrupted bool
	MaxInFlight int64
}

// Failed returns total - success
func (s *Summary) Failed() uint64 {
	success := s.Record.Success()
	if success > s.Total {
		return 0
	}
	return s.Total - success
}

// Throughput returns total requests per wall-clock second
func (s *Summary) Throughput() float64 {
	secs := s.WallClock.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(s.Total) / secs
}

// Executor drains the index range 0..TotalRequests through a fixed pool of
// workers. Workers claim indices from a shared atomic counter, so memory use
// does not grow with the request count.
type Executor struct {
	config    *Config
	exec      *ExecutionConfig
	logger    *zap.Logger
	limiter   *rate.Limiter
	next      atomic.Uint64
	completed atomic.Uint64
	inFlight  atomic.Int64
	maxFlight atomic.Int64
}

// NewExecutor creates a new executor
func NewExecutor(exec *ExecutionConfig) (*Executor, error) {
	if exec == nil || exec.Config == nil {
		return nil, fmt.Errorf("%w: missing config", ErrInvalidConfig)
	}
	if err := exec.Config.Validate(); err != nil {
		return nil, err
	}
	if exec.Template == nil {
		return nil, fmt.Errorf("%w: missing template", ErrInvalidConfig)
	}
	if exec.Transport == nil {
		return nil, fmt.Errorf("%w: missing transport", ErrInvalidConfig)
	}

	logger := exec.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Executor{
		config: exec.Config,
		exec:   exec,
		logger: logger,
	}
	if r := exec.Config.RatePerSecond; r > 0 {
		burst := int(r)
		if burst < 1 {
			burst = 1
		}
		e.limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
	return e, nil
}

// Run dispatches every index and blocks until all workers return. A
// cancelled ctx stops workers from claiming new indices; requests already
// in flight run to completion or their timeout. The summary always reflects
// what was recorded.
func (e *Executor) Run(ctx context.Context) (*Summary, error) {
	concurrency := e.config.Concurrency
	records := make([]*Record, concurrency)

	e.logger.Debug("starting workers",
		zap.Int("concurrency", concurrency),
		zap.Uint64("total", e.config.TotalRequests))

	start := time.Now()
	var g errgroup.Group
	for i := 0; i < concurrency; i++ {
		rec := NewRecord(e.config.GranularityMs)
		records[i] = rec
		id := i
		g.Go(func() error {
			e.worker(ctx, id, rec)
			return nil
		})
	}
	err := g.Wait()
	wallClock := time.Since(start)

	merged := NewRecord(e.config.GranularityMs)
	for _, rec := range records {
		merged.Merge(rec)
	}

	dispatched := e.next.Load()
	if dispatched > e.config.TotalRequests {
		dispatched = e.config.TotalRequests
	}

	return &Summary{
		Record:      merged,
		Total:       e.config.TotalRequests,
		Dispatched:  dispatched,
		WallClock:   wallClock,
		Interrupted: ctx.Err() != nil && dispatched < e.config.TotalRequests,
		MaxInFlight: e.maxFlight.Load(),
	}, err
}

// Completed returns the number of indices fully processed so far
func (e *Executor) Completed() uint64 {
	return e.completed.Load()
}

// worker claims indices until the range is exhausted or ctx is done
func (e *Executor) worker(ctx context.Context, id int, rec *Record) {
	total := e.config.TotalRequests
	processed := 0
	defer func() {
		e.logger.Debug("worker finished", zap.Int("worker", id), zap.Int("processed", processed))
	}()

	for {
		if ctx.Err() != nil || e.next.Load() >= total {
			return
		}
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return
			}
		}

		index := e.next.Add(1) - 1
		if index >= total {
			return
		}

		result := e.execute(ctx, index)
		rec.Add(result)
		if e.exec.Observer != nil {
			e.exec.Observer.Observe(result)
		}
		processed++

		done := e.completed.Add(1)
		if e.exec.OnProgress != nil {
			e.exec.OnProgress(done, total)
		}
	}
}

// execute runs the full lifecycle for one index and classifies the outcome
func (e *Executor) execute(ctx context.Context, index uint64) *types.TaskResult {
	result := &types.TaskResult{Index: index}

	req, err := e.exec.Template.Materialize(index)
	if err != nil {
		result.Outcome = types.OutcomeMaterializeError
		result.Err = err
		e.logger.Warn("materialize err", zap.Uint64("index", index), zap.Error(err))
		return result
	}
	result.Request = req

	// In-flight calls are not cancelled with the run; the transport timeout
	// bounds them.
	e.enter()
	resp, err := e.exec.Transport.Do(context.WithoutCancel(ctx), req)
	e.leave()
	if err != nil {
		result.Outcome = types.OutcomeTransportError
		result.Err = err
		e.logger.Warn("task err", zap.Uint64("index", index), zap.String("url", req.URL), zap.Error(err))
		return result
	}

	result.StatusCode = resp.StatusCode
	result.Elapsed = resp.Elapsed

	var decoded any
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		result.Outcome = types.OutcomeDecodeError
		result.Err = fmt.Errorf("decode json: %w", err)
		result.Body = string(resp.Body)
		e.logger.Warn("decode json err",
			zap.Uint64("index", index),
			zap.Int("status", resp.StatusCode),
			zap.Error(err))
		return result
	}
	if text, err := json.Marshal(decoded); err == nil {
		result.Body = string(text)
	}

	if resp.StatusCode != http.StatusOK {
		result.Outcome = types.OutcomeStatus
		e.logger.Warn("task err",
			zap.Uint64("index", index),
			zap.Int("status", resp.StatusCode),
			zap.Duration("elapsed", resp.Elapsed),
			zap.String("body", result.Body))
		return result
	}

	ok, err := e.exec.Expect.Check(decoded)
	if err != nil || !ok {
		result.Outcome = types.OutcomeAssertFailed
		if err == nil {
			err = fmt.Errorf("expect %q was falsy", e.exec.Expect.String())
		}
		result.Err = err
		e.logger.Warn("assertion failed", zap.Uint64("index", index), zap.Error(err))
		return result
	}

	result.Outcome = types.OutcomeOK
	e.logger.Debug("completed",
		zap.Uint64("index", index),
		zap.String("url", req.URL),
		zap.Duration("elapsed", resp.Elapsed),
		zap.String("body", result.Body))
	return result
}

func (e *Executor) enter() {
	n := e.inFlight.Add(1)
	for {
		cur := e.maxFlight.Load()
		if n <= cur || e.maxFlight.CompareAndSwap(cur, n) {
			return
		}
	}
}

func (e *Executor) leave() {
	e.inFlight.Add(-1)
}
