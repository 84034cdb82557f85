package util

import (
	"regexp"
	"strings"
)

var whitespace = regexp.MustCompile(`\s+`)

// NormalizeWhitespace trims and collapses whitespace to single spaces.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// CountAnyCaseInsensitive counts how many of the needles appear in text.
func CountAnyCaseInsensitive(text string, needles []string) int {
	lt := strings.ToLower(text)
	n := 0
	for _, needle := range needles {
		if strings.Contains(lt, strings.ToLower(needle)) {
			n++
		}
	}
	return n
}
