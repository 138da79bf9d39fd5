package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

const commentPrefix = ";"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse reads a digest manifest and resolves each entry against rootDir.
// Lines look like `<hexDigest>*<relativePath>`; blank lines and lines
// starting with `;` are ignored. Malformed lines are skipped and reported
// as warnings, entries come back in manifest order, and duplicates are kept.
// Resolution never touches the filesystem. An empty rootDir resolves entries
// against the manifest's own directory. Only an unreadable or undecodable
// manifest is an error.
func Parse(path, rootDir string) ([]Task, []Warning, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, nil, fmt.Errorf("read manifest: %w", err)
	}
	text, err := decode(data)
	if err != nil {
		return nil, nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}

	if rootDir == "" {
		rootDir = filepath.Dir(path)
	}
	root, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve root %s: %w", rootDir, err)
	}

	var (
		tasks    []Task
		warnings []Warning
	)
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}

		// Split at the first `*` only; the path half may contain more.
		sum, rel, found := strings.Cut(line, "*")
		sum = strings.TrimSpace(sum)
		rel = strings.TrimSpace(rel)
		if !found || sum == "" || rel == "" {
			warnings = append(warnings, Warning{Line: i + 1, Text: line})
			continue
		}

		rel = normalize(rel)
		tasks = append(tasks, Task{
			Path:     filepath.Join(root, filepath.FromSlash(rel)),
			Expected: sum,
			Label:    rel,
		})
	}
	return tasks, warnings, nil
}

// decode accepts UTF-8 as is and retries once with Windows-1252 for
// manifests written by legacy Windows tooling. A UTF-8 BOM is stripped.
func decode(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("not UTF-8 and %v fallback failed: %w", charmap.Windows1252, err)
	}
	return string(out), nil
}

func normalize(rel string) string {
	rel = strings.ReplaceAll(rel, `\`, "/")
	return strings.TrimPrefix(rel, "./")
}
