package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"md5check/internal/config"
	"md5check/internal/digest"
	"md5check/internal/locate"
	"md5check/internal/verify"
)

var (
	threads      int
	chunkSize    int
	stopGrace    time.Duration
	manifestPath string
	noProgress   bool
	quiet        bool
	verbose      bool

	logger *zap.Logger
)

// Sentinels RunE returns so main can map outcomes to exit codes: 1 for
// integrity problems, 130 for an operator abort.
var (
	errProblems  = errors.New("verification problems found")
	errCancelled = errors.New("run cancelled")
)

var rootCmd = &cobra.Command{
	Use:   "md5check [dir]",
	Short: "Verify files against MD5 digest manifests",
	Long: `md5check verifies on-disk files against the MD5 digests recorded in
manifest files. Each manifest line reads <hexDigest>*<relativePath>; lines
starting with ';' are comments.

Without --manifest, the directory's co-located manifests are used: every
*.md5 file under <dir>/MD5/, with entries resolved against <dir>.`,
	Args:              cobra.MaximumNArgs(1),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runVerify,
}

func init() {
	rootCmd.PersistentPreRunE = setup

	pf := rootCmd.PersistentFlags()
	pf.IntVarP(&threads, "threads", "t", runtime.NumCPU(), "concurrent verification workers")
	pf.IntVar(&chunkSize, "chunk-size", digest.DefaultChunkSize, "read chunk size in bytes")
	pf.DurationVar(&stopGrace, "stop-grace", verify.DefaultStopGrace, "how long a cancelled run waits for in-flight reads")
	pf.BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
	pf.BoolVarP(&quiet, "quiet", "q", false, "only report problems")
	pf.BoolVarP(&verbose, "verbose", "v", false, "log every file as it verifies")

	rootCmd.Flags().StringVar(&manifestPath, "manifest", "", "verify this manifest instead of <dir>/MD5/*.md5")
}

// setup loads env-backed defaults and builds the logger. Explicit flags win
// over the environment; the environment wins over compiled defaults.
func setup(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pf := rootCmd.PersistentFlags()
	if !pf.Changed("threads") {
		threads = cfg.Workers
	}
	if !pf.Changed("chunk-size") {
		chunkSize = cfg.ChunkSize
	}
	if !pf.Changed("stop-grace") {
		stopGrace = cfg.StopGrace
	}
	if !pf.Changed("no-progress") {
		noProgress = cfg.NoProgress
	}

	level := zap.NewAtomicLevelAt(cfg.LogLevel)
	switch {
	case verbose:
		level.SetLevel(zapcore.DebugLevel)
	case quiet:
		level.SetLevel(zapcore.WarnLevel)
	}

	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = level
	zcfg.DisableStacktrace = true
	logger, err = zcfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	return nil
}

// runVerify checks one directory: either the manifest named by --manifest or
// the co-located ones under <dir>/MD5/, verified sequentially against <dir>.
func runVerify(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	var manifests []string
	root := dir
	if manifestPath != "" {
		manifests = []string{manifestPath}
		if len(args) == 0 {
			root = "" // resolve entries against the manifest's own directory
		}
	} else {
		var err error
		manifests, err = locate.InDir(dir)
		if err != nil {
			return err
		}
	}

	return verifyManifests(ctx, manifests, func(string) string { return root })
}

func main() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	if errors.Is(err, errCancelled) {
		os.Exit(130)
	}
	if !errors.Is(err, errProblems) {
		fmt.Fprintln(os.Stderr, "md5check:", err)
	}
	os.Exit(1)
}
