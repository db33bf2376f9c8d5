package artifact

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Path rejection patterns. These mirror the classes of junk that model
// output reliably produces in place of filenames: directory references,
// markdown list items, shell hints, and names that cannot exist on
// Windows filesystems.
var (
	reCommentOnly  = regexp.MustCompile(`^[#\s]*$`)
	reNumberedItem = regexp.MustCompile(`^[0-9]+\.`)
	reForbidden    = regexp.MustCompile(`[:*?"<>|]`)
	reStrictName   = regexp.MustCompile(`^[\w\-./]+\.\w+$`)
)

// reservedTokens are bare words that show up as fence info strings but
// never name a real file.
var reservedTokens = map[string]bool{
	"bash":       true,
	"sh":         true,
	"shell":      true,
	"plaintext":  true,
	"text":       true,
	"console":    true,
	"powershell": true,
}

// CleanPath normalizes a candidate artifact path: NFC normalization,
// backslash to slash, parent references stripped, surrounding space
// trimmed.
func CleanPath(p string) string {
	p = norm.NFC.String(p)
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.ReplaceAll(p, "..", "")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	p = strings.TrimSpace(p)
	return strings.TrimPrefix(p, "./")
}

// ValidatePath reports whether a cleaned path names a writable file
// artifact. strictExt additionally requires a recognized extension; the
// README exception is handled by the parser before this check.
func ValidatePath(p string, strictExt bool) bool {
	if p == "" || reCommentOnly.MatchString(p) {
		return false
	}
	if strings.HasSuffix(p, "/") {
		return false
	}
	lower := strings.ToLower(p)
	if lower == "project_root" || strings.HasPrefix(lower, "project_root/") {
		return false
	}
	if reservedTokens[lower] {
		return false
	}
	if reNumberedItem.MatchString(p) {
		return false
	}
	if reForbidden.MatchString(p) {
		return false
	}
	if strictExt && !reStrictName.MatchString(p) {
		return false
	}
	return true
}

// IsReadmeLike reports whether a path falls under the README merge rule:
// the name contains "readme" (case-insensitive) or ends in ".md".
func IsReadmeLike(p string) bool {
	lower := strings.ToLower(p)
	return strings.Contains(lower, "readme") || strings.HasSuffix(lower, ".md")
}
