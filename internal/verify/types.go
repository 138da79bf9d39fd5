package verify

import (
	"fmt"
	"runtime"
	"time"

	"md5check/internal/metrics"
)

// Status is the lifecycle state of one verification task. A task is Pending
// until a worker picks it up, Verifying from its Started event until its
// Finished event, and then exactly one of the terminal states.
type Status int

const (
	StatusPending Status = iota
	StatusVerifying
	StatusOK
	StatusFailed
	StatusMissing
	StatusIOError
	StatusCancelled
)

var statusNames = [...]string{
	"PENDING",
	"VERIFYING",
	"OK",
	"FAILED",
	"MISSING",
	"IO_ERROR",
	"CANCELLED",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// Terminal reports whether s is a final per-task outcome.
func (s Status) Terminal() bool {
	switch s {
	case StatusOK, StatusFailed, StatusMissing, StatusIOError, StatusCancelled:
		return true
	}
	return false
}

// Result is the terminal outcome of one task. Digest is set whenever a
// digest was actually computed, so a Failed result carries the actual
// digest alongside the task's expected one.
type Result struct {
	Status Status
	Digest string
	Err    error
}

// DefaultStopGrace bounds how long a cancelled run waits for in-flight
// reads to hit a chunk boundary before aggregating anyway.
const DefaultStopGrace = 3 * time.Second

// Options tune one verification run.
type Options struct {
	Workers   int           // concurrent units; <=0 means the logical CPU count
	ChunkSize int           // read granularity in bytes; <=0 selects the digest default
	StopGrace time.Duration // wait after cancellation; <=0 means DefaultStopGrace
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.StopGrace <= 0 {
		o.StopGrace = DefaultStopGrace
	}
	return o
}

// Listener is the event surface a presentation layer subscribes to; any
// field may be nil. Callbacks run on worker goroutines, so subscribers
// synchronize their own state. For one task, Started precedes its Progress
// calls, whose percentages never decrease, and exactly one Finished follows;
// nothing is ordered across tasks. Done fires once with the final summary.
// A run that gave up waiting on a blocked reader can deliver that task's
// Finished after Done.
type Listener struct {
	Started  func(index int)
	Progress func(index, percent int)
	Finished func(index int, res Result)
	Done     func(sum metrics.Summary)
}

func (l Listener) started(i int) {
	if l.Started != nil {
		l.Started(i)
	}
}

func (l Listener) progress(i, pct int) {
	if l.Progress != nil {
		l.Progress(i, pct)
	}
}

func (l Listener) finished(i int, res Result) {
	if l.Finished != nil {
		l.Finished(i, res)
	}
}

func (l Listener) done(sum metrics.Summary) {
	if l.Done != nil {
		l.Done(sum)
	}
}
