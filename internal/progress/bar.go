// Package progress renders a terminal bar over the verification event
// surface: one tick per finished file, with a description refreshed from a
// counter snapshot.
package progress

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"md5check/internal/metrics"
)

// SnapshotFn supplies the live counters shown in the bar description.
type SnapshotFn func() metrics.Summary

type Bar struct {
	bar  *progressbar.ProgressBar
	ch   chan struct{}
	done chan struct{}
	stop chan struct{}

	mu     sync.Mutex
	closed bool

	snap SnapshotFn
}

// New builds a bar sized to totalFiles and starts its feed and describe
// loops. Callers report completions with FileDone from any goroutine and
// must Close the bar when the run ends.
func New(totalFiles int64, snap SnapshotFn) *Bar {
	b := &Bar{
		ch:   make(chan struct{}, 4096),
		done: make(chan struct{}),
		stop: make(chan struct{}),
		snap: snap,
	}

	b.bar = progressbar.NewOptions64(
		totalFiles,
		progressbar.OptionSetWriter(os.Stdout),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetDescription("verifying"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(120*time.Millisecond),
	)

	err := b.bar.RenderBlank()
	if err != nil {
		panic(err)
	}
	go func() {
		defer close(b.done)
		for range b.ch {
			_ = b.bar.Add(1)
		}
		_ = b.bar.Finish()
	}()

	go func() {
		t := time.NewTicker(1 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				b.updateDescription()
			case <-b.stop:
				return
			}
		}
	}()

	return b
}

// FileDone records one finished file. Safe from worker goroutines, and a
// no-op after Close: a run that gave up waiting on a blocked reader can
// still deliver that reader's completion after the bar is gone.
func (b *Bar) FileDone() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.ch <- struct{}{}
}

// Close stops the describe loop, drains pending ticks and finishes the bar.
// Idempotent.
func (b *Bar) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	close(b.stop)
	close(b.ch)
	<-b.done
}

func (b *Bar) updateDescription() {
	if b.snap == nil {
		return
	}
	s := b.snap()

	desc := fmt.Sprintf("verifying %d/%d files | ok=%d failed=%d missing=%d err=%d",
		s.Processed, s.Total, s.OK, s.Failed, s.Missing, s.IOErrors,
	)
	if s.Cancelled > 0 {
		desc += fmt.Sprintf(" cancelled=%d", s.Cancelled)
	}
	b.bar.Describe(desc)
}
