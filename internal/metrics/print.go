package metrics

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// Summary is the aggregate outcome of a run. After a run completes, the five
// status counters sum to Total. Processed counts tasks that reported a
// terminal status themselves; it trails Total only when a cancelled run gave
// up waiting on blocked readers.
type Summary struct {
	Total     int64
	Processed int64
	OK        int64
	Failed    int64
	Missing   int64
	IOErrors  int64
	Cancelled int64
	Elapsed   time.Duration
}

// Success reports whether every task verified clean.
func (s Summary) Success() bool { return s.OK == s.Total }

// Interrupted reports whether the run was cut short by cancellation, as
// opposed to finding genuine integrity problems.
func (s Summary) Interrupted() bool { return s.Cancelled > 0 }

// Problems counts tasks that ended Failed, Missing or IOError.
func (s Summary) Problems() int64 { return s.Failed + s.Missing + s.IOErrors }

func (s *Stats) Snapshot() Summary {
	return Summary{
		Total:     atomic.LoadInt64(&s.Total),
		Processed: atomic.LoadInt64(&s.Processed),
		OK:        atomic.LoadInt64(&s.OK),
		Failed:    atomic.LoadInt64(&s.Failed),
		Missing:   atomic.LoadInt64(&s.Missing),
		IOErrors:  atomic.LoadInt64(&s.IOErrors),
		Cancelled: atomic.LoadInt64(&s.Cancelled),
		Elapsed:   s.Duration(),
	}
}

func Print(w io.Writer, sum Summary) {
	fmt.Fprintln(w, "--- verification summary ---")
	fmt.Fprintln(w, "total:", sum.Total)
	fmt.Fprintln(w, "ok:", sum.OK)
	fmt.Fprintln(w, "failed:", sum.Failed)
	fmt.Fprintln(w, "missing:", sum.Missing)
	fmt.Fprintln(w, "io_errors:", sum.IOErrors)
	if sum.Cancelled > 0 {
		fmt.Fprintln(w, "cancelled:", sum.Cancelled)
	}
	fmt.Fprintf(w, "total time: %.2f seconds\n", sum.Elapsed.Seconds())

	if secs := sum.Elapsed.Seconds(); secs > 0 && sum.Processed > 0 {
		fmt.Fprintf(w, "throughput: %.1f files/sec\n", float64(sum.Processed)/secs)
	}

	switch {
	case sum.Interrupted():
		fmt.Fprintln(w, "run cancelled before completion")
	case sum.Success():
		fmt.Fprintln(w, "all files verified successfully")
	}
}
