package verify

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"md5check/internal/digest"
	"md5check/internal/manifest"
	"md5check/internal/metrics"
)

// Run verifies every task against its expected digest using opts.Workers
// concurrent units and returns the aggregate summary. Counters accumulate in
// stats as the run progresses; events fire on l as tasks move through their
// lifecycle.
//
// All tasks are admitted up front. Cancelling ctx makes in-flight units stop
// at their next chunk boundary and not-yet-started tasks skip without
// opening their files, all reported as Cancelled. A cancelled run waits up
// to opts.StopGrace for workers to unwind and then aggregates regardless;
// tasks a blocked reader never reported are counted as Cancelled, so the
// five status counters always sum to the task total.
func Run(ctx context.Context, tasks []manifest.Task, opts Options, stats *metrics.Stats, l Listener) metrics.Summary {
	opts = opts.withDefaults()
	if stats == nil {
		stats = &metrics.Stats{}
	}
	atomic.StoreInt64(&stats.Total, int64(len(tasks)))
	stats.Start()

	jobs := make(chan int, len(tasks))
	for i := range tasks {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	wg.Add(opts.Workers)
	for w := 0; w < opts.Workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				res := runTask(ctx, tasks[i], i, opts, l)
				record(stats, res.Status)
				emitFinished(l, i, res)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// Bounded grace for in-flight reads to reach a chunk boundary.
		select {
		case <-done:
		case <-time.After(opts.StopGrace):
		}
	}

	stats.Stop()
	sum := stats.Snapshot()
	if short := sum.Total - counted(sum); short > 0 {
		sum.Cancelled += short
	}
	l.done(sum)
	return sum
}

// runTask is the unit boundary: a panic anywhere inside it, subscriber
// callbacks included, poisons only this task.
func runTask(ctx context.Context, t manifest.Task, idx int, opts Options, l Listener) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Status: StatusIOError, Err: fmt.Errorf("verifying %s: panic: %v", t.Label, r)}
		}
	}()

	// Skip without opening the file once a stop was requested.
	if err := ctx.Err(); err != nil {
		return Result{Status: StatusCancelled, Err: err}
	}

	l.started(idx)

	computed, err := digest.File(ctx, t.Path, opts.ChunkSize, func(pct int) {
		l.progress(idx, pct)
	})
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Result{Status: StatusCancelled, Err: err}
	case errors.Is(err, fs.ErrNotExist):
		return Result{Status: StatusMissing, Err: err}
	default:
		return Result{Status: StatusIOError, Err: err}
	}

	if strings.EqualFold(computed, strings.TrimSpace(t.Expected)) {
		return Result{Status: StatusOK, Digest: computed}
	}
	return Result{Status: StatusFailed, Digest: computed}
}

func record(stats *metrics.Stats, s Status) {
	switch s {
	case StatusOK:
		atomic.AddInt64(&stats.OK, 1)
	case StatusFailed:
		atomic.AddInt64(&stats.Failed, 1)
	case StatusMissing:
		atomic.AddInt64(&stats.Missing, 1)
	case StatusIOError:
		atomic.AddInt64(&stats.IOErrors, 1)
	case StatusCancelled:
		atomic.AddInt64(&stats.Cancelled, 1)
	}
	atomic.AddInt64(&stats.Processed, 1)
}

// emitFinished shields the pool from a panicking subscriber; the task's
// status is already recorded by the time it runs.
func emitFinished(l Listener, idx int, res Result) {
	defer func() {
		_ = recover()
	}()
	l.finished(idx, res)
}

func counted(s metrics.Summary) int64 {
	return s.OK + s.Failed + s.Missing + s.IOErrors + s.Cancelled
}
