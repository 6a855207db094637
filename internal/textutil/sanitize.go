package textutil

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	unsafeFileChars = regexp.MustCompile(`[^\w\-.]`)
	underscoreRuns  = regexp.MustCompile(`_+`)
)

// SanitizeFileName replaces every character outside [A-Za-z0-9_.-] with an
// underscore, collapses underscore runs, and trims leading/trailing
// underscores. Returns "" when nothing usable remains.
func SanitizeFileName(name string) string {
	name = unsafeFileChars.ReplaceAllString(strings.TrimSpace(name), "_")
	name = underscoreRuns.ReplaceAllString(name, "_")
	return strings.Trim(name, "_")
}

// NormalizeWhitespace collapses every whitespace run into a single space.
func NormalizeWhitespace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// Truncate returns at most limit runes of value.
func Truncate(value string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	return string(runes[:limit])
}
