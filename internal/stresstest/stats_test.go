package stresstest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/studiowebux/jobbench/internal/types"
)

func result(status int, elapsed time.Duration, outcome types.Outcome) *types.TaskResult {
	return &types.TaskResult{StatusCode: status, Elapsed: elapsed, Outcome: outcome}
}

func TestCategorize(t *testing.T) {
	var buckets []uint64
	buckets = Categorize(buckets, 50, 30)
	buckets = Categorize(buckets, 50, 49.9)
	buckets = Categorize(buckets, 50, 120)

	assert.Equal(t, []uint64{2, 0, 1}, buckets)
}

func TestRecord_BucketsSkipEmpty(t *testing.T) {
	r := NewRecord(50)
	r.Add(result(200, 30*time.Millisecond, types.OutcomeOK))
	r.Add(result(200, 120*time.Millisecond, types.OutcomeOK))

	assert.Equal(t, []Bucket{
		{LoMs: 0, HiMs: 50, Count: 1},
		{LoMs: 100, HiMs: 150, Count: 1},
	}, r.Buckets())
	assert.Equal(t, []uint64{1, 0, 1}, r.Histogram())
	assert.Equal(t, uint64(50), r.Granularity())
	assert.InDelta(t, 75.0, r.AverageMs(), 0.001)
}

func TestRecord_EmptyAverage(t *testing.T) {
	r := NewRecord(50)
	assert.Equal(t, 0.0, r.AverageMs())
	assert.Equal(t, time.Duration(0), r.Percentile(99))
	assert.Equal(t, time.Duration(0), r.MaxLatency())

	r.Add(result(0, 0, types.OutcomeTransportError))
	assert.Equal(t, 0.0, r.AverageMs())
	assert.Equal(t, uint64(1), r.Total())
}

func TestRecord_SuccessRequires200AndOK(t *testing.T) {
	r := NewRecord(50)
	r.Add(result(200, time.Millisecond, types.OutcomeOK))
	r.Add(result(201, time.Millisecond, types.OutcomeStatus))
	r.Add(result(200, time.Millisecond, types.OutcomeAssertFailed))
	r.Add(result(200, time.Millisecond, types.OutcomeDecodeError))

	assert.Equal(t, uint64(1), r.Success())
	assert.Equal(t, uint64(4), r.ElapsedNum())
}

func TestRecord_MergeCommutative(t *testing.T) {
	build := func() (*Record, *Record) {
		a := NewRecord(10)
		a.Add(result(200, 5*time.Millisecond, types.OutcomeOK))
		a.Add(result(500, 25*time.Millisecond, types.OutcomeStatus))
		b := NewRecord(10)
		b.Add(result(200, 45*time.Millisecond, types.OutcomeOK))
		b.Add(result(0, 0, types.OutcomeTransportError))
		return a, b
	}

	a1, b1 := build()
	ab := NewRecord(10)
	ab.Merge(a1)
	ab.Merge(b1)

	a2, b2 := build()
	ba := NewRecord(10)
	ba.Merge(b2)
	ba.Merge(a2)

	assert.Equal(t, ab.Histogram(), ba.Histogram())
	assert.Equal(t, ab.Success(), ba.Success())
	assert.InDelta(t, ab.ElapsedSum(), ba.ElapsedSum(), 1e-12)
	assert.Equal(t, ab.Percentile(50), ba.Percentile(50))
	assert.Equal(t, uint64(4), ab.Total())
	assert.Equal(t, uint64(2), ab.Success())
	assert.Equal(t, []uint64{1, 0, 1, 0, 1}, ab.Histogram())
	assert.Equal(t, uint64(1), ab.Count(types.OutcomeTransportError))
}

func TestRecord_Percentiles(t *testing.T) {
	r := NewRecord(50)
	for i := 1; i <= 100; i++ {
		r.Add(result(200, time.Duration(i)*time.Millisecond, types.OutcomeOK))
	}

	assert.InDelta(t, float64(50*time.Millisecond), float64(r.Percentile(50)), float64(time.Millisecond))
	assert.InDelta(t, float64(99*time.Millisecond), float64(r.Percentile(99)), float64(time.Millisecond))
	assert.InDelta(t, float64(100*time.Millisecond), float64(r.MaxLatency()), float64(time.Millisecond))
}
