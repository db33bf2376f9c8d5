package pipeline

import (
	"fmt"
	"regexp"
	"strings"
)

// Allowed placeholders for prompt expansion.
var Allowed = []string{
	"requirements", "story", "design", "code", "tests", "feedback",
}

var allowedSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Allowed))
	for _, a := range Allowed {
		m[a] = struct{}{}
	}
	return m
}()

// Regular expression to match placeholders {name}
var rePH = regexp.MustCompile(`\{[a-zA-Z_][a-zA-Z0-9_]*\}`)

// ValidatePlaceholders checks for unknown placeholders and returns the
// unknown and used placeholder names found in the text.
func ValidatePlaceholders(text string) (unknown []string, used []string) {
	// Escaped braces are not placeholders
	cleanText := strings.ReplaceAll(text, `\{`, "\x00ESCAPED_BRACE\x00")

	seenUnknown := map[string]struct{}{}
	seenUsed := map[string]struct{}{}

	for _, ph := range rePH.FindAllString(cleanText, -1) {
		name := ph[1 : len(ph)-1]
		if _, ok := allowedSet[name]; !ok {
			if _, exists := seenUnknown[name]; !exists {
				unknown = append(unknown, name)
				seenUnknown[name] = struct{}{}
			}
		} else {
			if _, exists := seenUsed[name]; !exists {
				used = append(used, name)
				seenUsed[name] = struct{}{}
			}
		}
	}
	return unknown, used
}

// ExpandPrompt expands placeholders in a prompt template with the
// provided variables. Unknown placeholders are an error so template
// typos fail loudly instead of reaching the agent.
func ExpandPrompt(text string, vars map[string]string) (string, error) {
	unknown, _ := ValidatePlaceholders(text)
	if len(unknown) > 0 {
		return "", fmt.Errorf("prompt: unknown placeholders %v (allowed: %v)", unknown, Allowed)
	}

	_, used := ValidatePlaceholders(text)
	pairs := make([]string, 0, len(used)*2)
	for _, name := range used {
		v, ok := vars[name]
		if !ok {
			return "", fmt.Errorf("prompt: no value for placeholder {%s}", name)
		}
		pairs = append(pairs, "{"+name+"}", v)
	}
	// Single-pass replacement: brace tokens inside substituted content
	// are never re-interpreted as placeholders.
	out := strings.NewReplacer(pairs...).Replace(text)

	// Handle escaped braces (convert \{ to {)
	out = strings.ReplaceAll(out, `\{`, "{")

	return out, nil
}
