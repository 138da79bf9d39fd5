package manifest

// Task pairs one file with the digest the manifest records for it. Tasks are
// created once at parse time and never mutated afterwards.
type Task struct {
	Path     string // absolute path, fully resolved at parse time
	Expected string // hex digest as listed, compared case-insensitively
	Label    string // normalized manifest-relative path, for display
}

// Warning describes a manifest line that was skipped as malformed.
type Warning struct {
	Line int // 1-based line number
	Text string
}
