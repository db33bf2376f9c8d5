// Package buildinfo holds version metadata injected at build time via
// -ldflags.
package buildinfo

var (
	// Version is the release version, e.g. v0.3.1.
	Version = "dev"
	// Commit is the short git commit hash of the build.
	Commit = "none"
	// Date is the build timestamp in RFC 3339.
	Date = "unknown"
)
