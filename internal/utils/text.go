package utils

import (
	"strings"
	"unicode/utf8"
)

// Truncate cuts s to at most max bytes without splitting a rune. max <= 0
// means no limit.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n[... truncated ...]"
}

// SanitizeUTF8 drops invalid byte sequences and control characters that
// upset downstream APIs, keeping tabs and newlines.
func SanitizeUTF8(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == '\r' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
