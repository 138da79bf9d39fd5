package manifest_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"md5check/internal/manifest"
)

func writeManifest(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		t.Fatalf("write manifest %s: %v", p, err)
	}
	return p
}

func TestParse_TableDriven(t *testing.T) {
	// rel is slash-form and joined to the test root to build the wanted Path.
	type wantTask struct {
		expected string
		label    string
		rel      string
	}

	tests := []struct {
		name      string
		content   []byte
		wantTasks []wantTask
		wantWarns []manifest.Warning
	}{
		{
			name: "entries preserve manifest order",
			content: []byte("d41d8cd98f00b204e9800998ecf8427e*empty.bin\n" +
				"aa00bb11cc22dd33ee44ff5566778899*sub/data.bin\n"),
			wantTasks: []wantTask{
				{"d41d8cd98f00b204e9800998ecf8427e", "empty.bin", "empty.bin"},
				{"aa00bb11cc22dd33ee44ff5566778899", "sub/data.bin", "sub/data.bin"},
			},
		},
		{
			name:    "comments and blank lines ignored with CRLF endings",
			content: []byte("; generated by a windows tool\r\n\r\nABC123*a.bin\r\n"),
			wantTasks: []wantTask{
				{"ABC123", "a.bin", "a.bin"},
			},
		},
		{
			name:    "split at first star keeps later stars in the path",
			content: []byte("ABC123*weird*name.bin\n"),
			wantTasks: []wantTask{
				{"ABC123", "weird*name.bin", "weird*name.bin"},
			},
		},
		{
			name:    "md5sum style space before star",
			content: []byte("ABC123 *a.bin\n"),
			wantTasks: []wantTask{
				{"ABC123", "a.bin", "a.bin"},
			},
		},
		{
			name:    "backslash separators and dot prefix normalized",
			content: []byte("ABC123*.\\sub\\a.bin\n"),
			wantTasks: []wantTask{
				{"ABC123", "sub/a.bin", "sub/a.bin"},
			},
		},
		{
			name: "malformed lines warn and are skipped",
			content: []byte("no-separator-here\n" +
				"*path-only.bin\n" +
				"ABC123*\n" +
				"ABC123*ok.bin\n"),
			wantTasks: []wantTask{
				{"ABC123", "ok.bin", "ok.bin"},
			},
			wantWarns: []manifest.Warning{
				{Line: 1, Text: "no-separator-here"},
				{Line: 2, Text: "*path-only.bin"},
				{Line: 3, Text: "ABC123*"},
			},
		},
		{
			name:    "duplicate paths produce duplicate tasks",
			content: []byte("ABC123*a.bin\nABC123*a.bin\n"),
			wantTasks: []wantTask{
				{"ABC123", "a.bin", "a.bin"},
				{"ABC123", "a.bin", "a.bin"},
			},
		},
		{
			name:    "empty manifest yields empty list",
			content: []byte(""),
		},
		{
			name:    "all-comment manifest yields empty list",
			content: []byte("; one\n; two\n"),
		},
		{
			name:    "utf-8 BOM stripped",
			content: append([]byte{0xEF, 0xBB, 0xBF}, []byte("ABC123*a.bin\n")...),
			wantTasks: []wantTask{
				{"ABC123", "a.bin", "a.bin"},
			},
		},
		{
			name:    "invalid utf-8 falls back to windows-1252",
			content: []byte("ABC123*caf\xe9.bin\n"),
			wantTasks: []wantTask{
				{"ABC123", "café.bin", "café.bin"},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			p := writeManifest(t, root, "files.md5", tt.content)

			tasks, warns, err := manifest.Parse(p, root)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			want := make([]manifest.Task, 0, len(tt.wantTasks))
			for _, w := range tt.wantTasks {
				want = append(want, manifest.Task{
					Path:     filepath.Join(root, filepath.FromSlash(w.rel)),
					Expected: w.expected,
					Label:    w.label,
				})
			}
			if len(tasks) != len(want) {
				t.Fatalf("task count mismatch:\n got: %d (%+v)\nwant: %d", len(tasks), tasks, len(want))
			}
			if len(want) > 0 && !reflect.DeepEqual(tasks, want) {
				t.Fatalf("tasks mismatch:\n got: %+v\nwant: %+v", tasks, want)
			}

			if len(warns) != len(tt.wantWarns) {
				t.Fatalf("warning count mismatch:\n got: %d (%+v)\nwant: %d", len(warns), warns, len(tt.wantWarns))
			}
			if len(tt.wantWarns) > 0 && !reflect.DeepEqual(warns, tt.wantWarns) {
				t.Fatalf("warnings mismatch:\n got: %+v\nwant: %+v", warns, tt.wantWarns)
			}
		})
	}
}

func TestParse_RootResolution(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "MD5")
	if err := os.MkdirAll(sub, 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	p := writeManifest(t, sub, "files.md5", []byte("ABC123*a.bin\nDEF456*..\\up.bin\n"))

	t.Run("empty root defaults to the manifest directory", func(t *testing.T) {
		tasks, _, err := manifest.Parse(p, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got, want := tasks[0].Path, filepath.Join(sub, "a.bin"); got != want {
			t.Fatalf("path mismatch:\n got: %s\nwant: %s", got, want)
		}
		// Parent references resolve without touching the filesystem.
		if got, want := tasks[1].Path, filepath.Join(dir, "up.bin"); got != want {
			t.Fatalf("parent path mismatch:\n got: %s\nwant: %s", got, want)
		}
	})

	t.Run("explicit root wins", func(t *testing.T) {
		other := t.TempDir()
		tasks, _, err := manifest.Parse(p, other)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got, want := tasks[0].Path, filepath.Join(other, "a.bin"); got != want {
			t.Fatalf("path mismatch:\n got: %s\nwant: %s", got, want)
		}
	})
}

func TestParse_MissingManifest(t *testing.T) {
	tasks, warns, err := manifest.Parse(filepath.Join(t.TempDir(), "nope.md5"), "")
	if err == nil {
		t.Fatalf("expected error, got tasks=%v warns=%v", tasks, warns)
	}
	if tasks != nil {
		t.Fatalf("expected no tasks on error, got %+v", tasks)
	}
}
