package metrics

import (
	"sync/atomic"
	"time"
)

// Stats holds the live counters for one verification run. Workers update the
// int64 fields with sync/atomic; observers read them through Snapshot.
type Stats struct {
	Total     int64
	Processed int64

	OK        int64
	Failed    int64
	Missing   int64
	IOErrors  int64
	Cancelled int64

	// Unix nanoseconds, accessed atomically: Snapshot runs concurrently
	// with Start and Stop (the progress bar's describe loop observes a
	// run in flight).
	startedNS  int64
	finishedNS int64
}

func (s *Stats) Start() { atomic.StoreInt64(&s.startedNS, time.Now().UnixNano()) }
func (s *Stats) Stop()  { atomic.StoreInt64(&s.finishedNS, time.Now().UnixNano()) }

func (s *Stats) Duration() time.Duration {
	started := atomic.LoadInt64(&s.startedNS)
	if started == 0 {
		return 0
	}
	finished := atomic.LoadInt64(&s.finishedNS)
	if finished == 0 {
		return time.Duration(time.Now().UnixNano() - started)
	}
	return time.Duration(finished - started)
}
