package artifact

import (
	"sort"
	"strings"
)

// Map associates artifact file paths with their content. Paths are
// slash-separated and relative to the project root; nested directories
// are preserved.
type Map map[string]string

// ReadmeFile is the merged destination for all README-like segments.
const ReadmeFile = "README.md"

// Options controls parsing behavior.
type Options struct {
	// StrictExtensions requires accepted paths to end in a recognized
	// extension. README-like names are exempt. Code-producing stages
	// use strict mode; deployment output is lenient so files like
	// Dockerfile survive.
	StrictExtensions bool

	// Warn receives one message per rejected segment. Nil disables it.
	Warn func(format string, args ...interface{})
}

// Parse converts a single block of generated text into an artifact map.
//
// The text is split on triple-backtick fences. Each segment whose first
// line names a valid file path becomes an entry: first line is the path,
// the remaining lines are the content. Segments that fail path
// validation are dropped and reported, never fatal. All README-like
// segments are merged, in encounter order, into one README.md entry.
//
// Parse is a pure function: no I/O, deterministic for identical input.
func Parse(text string, opts Options) Map {
	out := Map{}
	if !strings.Contains(text, "```") {
		return out
	}

	warn := opts.Warn
	if warn == nil {
		warn = func(string, ...interface{}) {}
	}

	var readme []string
	for _, segment := range strings.Split(text, "```") {
		lines := strings.Split(strings.TrimSpace(segment), "\n")
		if len(lines) < 2 {
			continue
		}
		path := CleanPath(lines[0])
		content := strings.Join(lines[1:], "\n")

		if path == "" || strings.HasSuffix(path, "/") {
			warn("skipping directory reference: %q", lines[0])
			continue
		}
		if IsReadmeLike(path) {
			readme = append(readme, content)
			continue
		}
		if !ValidatePath(path, opts.StrictExtensions) {
			warn("skipping invalid artifact path: %q", path)
			continue
		}
		// Duplicate paths overwrite earlier ones; last write wins.
		out[path] = content
	}

	if len(readme) > 0 {
		out[ReadmeFile] = strings.Join(readme, "\n\n")
	}
	return out
}

// Paths returns the artifact paths in lexicographic order.
func (m Map) Paths() []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
