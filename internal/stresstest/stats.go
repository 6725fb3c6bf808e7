package stresstest

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/studiowebux/jobbench/internal/types"
)

const (
	// HDR histogram range, in microseconds
	hdrLowest  = 1
	hdrHighest = int64(time.Hour / time.Microsecond)
	hdrSigFigs = 3
)

// Record aggregates request outcomes. Add is safe for concurrent use; the
// executor gives each worker its own Record and merges them after the pool
// joins, so the lock is normally uncontended.
type Record struct {
	mu            sync.Mutex
	granularityMs uint64
	success       uint64
	elapsedSum    float64 // seconds, responded requests only
	buckets       []uint64
	outcomes      map[types.Outcome]uint64
	hdr           *hdrhistogram.Histogram
}

// NewRecord creates an empty Record with the given bucket width
func NewRecord(granularityMs uint64) *Record {
	if granularityMs == 0 {
		granularityMs = DefaultGranularityMs
	}
	return &Record{
		granularityMs: granularityMs,
		outcomes:      make(map[types.Outcome]uint64),
		hdr:           hdrhistogram.New(hdrLowest, hdrHighest, hdrSigFigs),
	}
}

// Bucket is one non-empty histogram range [LoMs, HiMs)
type Bucket struct {
	LoMs  uint64
	HiMs  uint64
	Count uint64
}

// Categorize increments the bucket for elapsedMs, growing buckets with
// zero-filled entries as needed, and returns the (possibly new) slice
func Categorize(buckets []uint64, granularityMs uint64, elapsedMs float64) []uint64 {
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	i := int(uint64(elapsedMs) / granularityMs)
	for len(buckets) <= i {
		buckets = append(buckets, 0)
	}
	buckets[i]++
	return buckets
}

// Add records one outcome. A 200 with an OK outcome counts as a success;
// every outcome that received a response contributes its latency.
func (r *Record) Add(result *types.TaskResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.outcomes[result.Outcome]++
	if result.Success() {
		r.success++
	}
	if !result.Outcome.Responded() {
		return
	}

	r.elapsedSum += result.ElapsedSeconds()
	elapsedMs := float64(result.Elapsed) / float64(time.Millisecond)
	r.buckets = Categorize(r.buckets, r.granularityMs, elapsedMs)
	r.recordHDR(result.Elapsed)
}

func (r *Record) recordHDR(elapsed time.Duration) {
	us := elapsed.Microseconds()
	if us < hdrLowest {
		us = hdrLowest
	}
	if us > hdrHighest {
		us = hdrHighest
	}
	_ = r.hdr.RecordValue(us)
}

// Merge folds other into r. Accumulation is commutative, so the order in
// which worker records are merged does not matter.
func (r *Record) Merge(other *Record) {
	if other == nil || other == r {
		return
	}

	other.mu.Lock()
	success := other.success
	elapsedSum := other.elapsedSum
	buckets := append([]uint64(nil), other.buckets...)
	outcomes := make(map[types.Outcome]uint64, len(other.outcomes))
	for k, v := range other.outcomes {
		outcomes[k] = v
	}
	snapshot := hdrhistogram.Import(other.hdr.Export())
	other.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.success += success
	r.elapsedSum += elapsedSum
	for len(r.buckets) < len(buckets) {
		r.buckets = append(r.buckets, 0)
	}
	for i, n := range buckets {
		r.buckets[i] += n
	}
	for k, v := range outcomes {
		r.outcomes[k] += v
	}
	r.hdr.Merge(snapshot)
}

// Success returns the number of successful requests
func (r *Record) Success() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.success
}

// ElapsedSum returns the summed latency in seconds of responded requests
func (r *Record) ElapsedSum() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsedSum
}

// ElapsedNum returns the number of latencies in the histogram
func (r *Record) ElapsedNum() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsedNum()
}

func (r *Record) elapsedNum() uint64 {
	var n uint64
	for _, c := range r.buckets {
		n += c
	}
	return n
}

// AverageMs returns elapsed_sum / elapsed_num in milliseconds, or 0 when
// nothing was recorded
func (r *Record) AverageMs() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.elapsedNum()
	if n == 0 {
		return 0
	}
	return r.elapsedSum / float64(n) * 1000
}

// Histogram returns a copy of the raw bucket counts
func (r *Record) Histogram() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint64(nil), r.buckets...)
}

// Buckets returns the non-empty buckets in ascending order
func (r *Record) Buckets() []Bucket {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Bucket
	for i, n := range r.buckets {
		if n == 0 {
			continue
		}
		lo := uint64(i) * r.granularityMs
		out = append(out, Bucket{LoMs: lo, HiMs: lo + r.granularityMs, Count: n})
	}
	return out
}

// Granularity returns the bucket width
func (r *Record) Granularity() uint64 {
	return r.granularityMs
}

// Count returns how many results had the given outcome
func (r *Record) Count(outcome types.Outcome) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcomes[outcome]
}

// Total returns the number of recorded results of any outcome
func (r *Record) Total() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n uint64
	for _, c := range r.outcomes {
		n += c
	}
	return n
}

// Percentile returns the latency at quantile q (0-100), or 0 when empty
func (r *Record) Percentile(q float64) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hdr.TotalCount() == 0 {
		return 0
	}
	return time.Duration(r.hdr.ValueAtQuantile(q)) * time.Microsecond
}

// MaxLatency returns the largest recorded latency
func (r *Record) MaxLatency() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hdr.TotalCount() == 0 {
		return 0
	}
	return time.Duration(r.hdr.Max()) * time.Microsecond
}
