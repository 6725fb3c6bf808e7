/*
Package stresstest drives a compiled job against an HTTP endpoint and
aggregates the results.

# Architecture

The package consists of three parts:

 1. Config (config.go): run parameters and validation
 2. Executor (executor.go): the dispatch engine
 3. Record (stats.go): success count, latency sum, fixed-width histogram and
    HDR percentiles

# Executor Design

The Executor uses a worker pool pattern:
  - Concurrency workers share one transport and its connection pool
  - Workers claim request indices from an atomic counter, so nothing is
    pre-materialized
  - Each worker accumulates into its own Record; the Records are merged
    after the pool joins
  - An optional rate.Limiter caps dispatches per second across all workers

Every claimed index is recorded with exactly one Outcome. Only outcomes that
carried an HTTP response contribute to latency statistics.

# Cancellation

Cancelling the context passed to Run stops workers from claiming new
indices. Requests already in flight are not cancelled; the transport timeout
bounds them. Run still returns a Summary with everything recorded so far.
*/
package stresstest
