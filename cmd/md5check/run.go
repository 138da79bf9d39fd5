package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"md5check/internal/manifest"
	"md5check/internal/metrics"
	"md5check/internal/progress"
	"md5check/internal/verify"
)

// verifyManifests runs each manifest through the engine in turn, printing a
// per-manifest summary and, for multi-manifest runs, a grand total. rootFor
// maps a manifest path to the directory its entries resolve against.
func verifyManifests(ctx context.Context, manifests []string, rootFor func(string) string) error {
	var grand metrics.Summary
	for _, m := range manifests {
		if ctx.Err() != nil {
			logger.Warn("stop requested, skipping remaining manifests")
			break
		}
		sum, err := verifyManifest(ctx, m, rootFor(m))
		if err != nil {
			return err
		}
		accumulate(&grand, sum)
	}

	if len(manifests) > 1 && !quiet {
		fmt.Printf("\ngrand total across %d manifests:\n", len(manifests))
		metrics.Print(os.Stdout, grand)
	}

	switch {
	case grand.Interrupted():
		return errCancelled
	case grand.Problems() > 0:
		return errProblems
	}
	return nil
}

// verifyManifest parses one manifest and drives a full engine run over its
// tasks, wiring the event surface to the logger and the progress bar.
func verifyManifest(ctx context.Context, path, rootDir string) (metrics.Summary, error) {
	tasks, warnings, err := manifest.Parse(path, rootDir)
	if err != nil {
		return metrics.Summary{}, err
	}
	for _, w := range warnings {
		logger.Warn("skipping malformed manifest line",
			zap.String("manifest", path),
			zap.Int("line", w.Line),
			zap.String("text", w.Text))
	}
	logger.Info("verifying manifest", zap.String("manifest", path), zap.Int("files", len(tasks)))
	if len(tasks) == 0 {
		return metrics.Summary{}, nil
	}

	stats := &metrics.Stats{}

	var bar *progress.Bar
	if !noProgress && !quiet {
		bar = progress.New(int64(len(tasks)), stats.Snapshot)
	}

	l := verify.Listener{
		Finished: func(i int, res verify.Result) {
			reportFinished(tasks[i], res)
			if bar != nil {
				bar.FileDone()
			}
		},
	}

	opts := verify.Options{Workers: threads, ChunkSize: chunkSize, StopGrace: stopGrace}
	sum := verify.Run(ctx, tasks, opts, stats, l)

	if bar != nil {
		bar.Close()
	}
	if sum.Processed < sum.Total {
		logger.Warn("gave up waiting for blocked readers",
			zap.Int64("unreported", sum.Total-sum.Processed))
	}
	if !quiet {
		metrics.Print(os.Stdout, sum)
	}
	return sum, nil
}

func reportFinished(t manifest.Task, res verify.Result) {
	switch res.Status {
	case verify.StatusOK:
		logger.Debug("ok", zap.String("file", t.Label))
	case verify.StatusFailed:
		logger.Error("digest mismatch",
			zap.String("file", t.Label),
			zap.String("expected", strings.ToLower(t.Expected)),
			zap.String("actual", res.Digest))
	case verify.StatusMissing:
		logger.Error("file missing", zap.String("file", t.Label))
	case verify.StatusIOError:
		logger.Error("read failed", zap.String("file", t.Label), zap.Error(res.Err))
	case verify.StatusCancelled:
		logger.Debug("cancelled", zap.String("file", t.Label))
	}
}

func accumulate(g *metrics.Summary, s metrics.Summary) {
	g.Total += s.Total
	g.Processed += s.Processed
	g.OK += s.OK
	g.Failed += s.Failed
	g.Missing += s.Missing
	g.IOErrors += s.IOErrors
	g.Cancelled += s.Cancelled
	g.Elapsed += s.Elapsed
}
