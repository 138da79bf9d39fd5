package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"md5check/internal/locate"
)

var excludes []string

var scanCmd = &cobra.Command{
	Use:   "scan [root]",
	Short: "Discover and verify every manifest under a directory tree",
	Long: `scan walks the tree under root, collecting *.md5 manifests from every
directory named MD5, and verifies each against the directory containing its
MD5 folder. Exclude patterns are doublestar globs matched against the
slash-form path relative to root; a trailing / marks a directory pattern.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringArrayVar(&excludes, "exclude", nil, "skip subtrees matching this pattern (repeatable)")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	manifests, err := locate.Walk(ctx, root, excludes)
	if err != nil {
		return err
	}
	if len(manifests) == 0 {
		logger.Info("no manifests found", zap.String("root", root))
		return nil
	}
	logger.Info("manifests discovered", zap.String("root", root), zap.Int("count", len(manifests)))

	// A manifest lives at <content>/MD5/<name>.md5; entries resolve
	// against <content>.
	return verifyManifests(ctx, manifests, func(m string) string {
		return filepath.Dir(filepath.Dir(m))
	})
}
