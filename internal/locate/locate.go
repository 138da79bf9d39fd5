// Package locate implements the two conventions for finding digest
// manifests: co-located under a fixed subfolder, or discovered by walking a
// tree for that subfolder. The verification engine is indifferent to which
// one supplied a manifest path.
package locate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

// DirName is the fixed subfolder name manifests live in.
const DirName = "MD5"

// manifestExt matches manifest filenames inside a DirName folder,
// case-insensitively.
const manifestExt = ".md5"

// walkWorkers bounds parallel directory reads during tree discovery.
const walkWorkers = 8

// ErrNoManifest reports that a directory has no co-located manifests.
var ErrNoManifest = errors.New("no manifest found")

// InDir returns the manifests co-located with dir's content, meaning the
// manifest files under dir's MD5 subfolder, sorted by name.
func InDir(dir string) ([]string, error) {
	sub := filepath.Join(dir, DirName)
	entries, err := os.ReadDir(sub)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", sub, ErrNoManifest)
		}
		return nil, fmt.Errorf("read %s: %w", sub, err)
	}

	manifests := manifestsIn(sub, entries)
	if len(manifests) == 0 {
		return nil, fmt.Errorf("%s: %w", sub, ErrNoManifest)
	}
	sort.Strings(manifests)
	return manifests, nil
}

// Walk discovers manifests under root by scanning the tree for directories
// named MD5. excludes are doublestar patterns matched against the slash-form
// path relative to root; a trailing `/` marks a directory pattern.
// Unreadable subtrees are skipped; any other read error stops the walk.
// Results come back sorted.
func Walk(ctx context.Context, root string, excludes []string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", absRoot)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(walkWorkers)

	var (
		mu        sync.Mutex
		manifests []string
	)

	var scan func(dir string) error
	scan = func(dir string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return nil // unreadable subtree, keep scanning the rest
			}
			return fmt.Errorf("read %s: %w", dir, err)
		}

		if filepath.Base(dir) == DirName {
			if found := manifestsIn(dir, entries); len(found) > 0 {
				mu.Lock()
				manifests = append(manifests, found...)
				mu.Unlock()
			}
			return nil // manifest folders hold no content subtree
		}

		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			sub := filepath.Join(dir, e.Name())
			rel, err := filepath.Rel(absRoot, sub)
			if err != nil {
				return err
			}
			if isExcluded(filepath.ToSlash(rel), excludes) {
				continue
			}
			// Take a pool slot when one is free, recurse inline otherwise;
			// blocking on g.Go from inside a worker would deadlock the pool.
			if !g.TryGo(func() error { return scan(sub) }) {
				if err := scan(sub); err != nil {
					return err
				}
			}
		}
		return nil
	}

	g.Go(func() error { return scan(absRoot) })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(manifests)
	return manifests, nil
}

func manifestsIn(dir string, entries []fs.DirEntry) []string {
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), manifestExt) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out
}

// isExcluded checks a slash-form relative path against exclude patterns.
// Patterns with a trailing slash exclude a directory and everything under
// it.
func isExcluded(relPath string, excludes []string) bool {
	for _, pattern := range excludes {
		if strings.HasSuffix(pattern, "/") {
			dirPattern := strings.TrimSuffix(pattern, "/")
			if matched, _ := doublestar.Match(dirPattern, relPath); matched {
				return true
			}
			parts := strings.Split(relPath, "/")
			for i := 1; i <= len(parts); i++ {
				if matched, _ := doublestar.Match(dirPattern, strings.Join(parts[:i], "/")); matched {
					return true
				}
			}
			continue
		}
		if matched, _ := doublestar.Match(pattern, relPath); matched {
			return true
		}
	}
	return false
}
