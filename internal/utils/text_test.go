package utils

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 100); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := Truncate("whatever", 0); got != "whatever" {
		t.Errorf("zero max must disable truncation, got %q", got)
	}

	long := strings.Repeat("a", 50)
	got := Truncate(long, 10)
	if !strings.HasPrefix(got, strings.Repeat("a", 10)) || !strings.Contains(got, "truncated") {
		t.Errorf("got %q", got)
	}

	// Cut point lands mid-rune; the rune is dropped whole.
	multi := "aaé"
	got = Truncate(multi, 3)
	if !utf8.ValidString(got) {
		t.Errorf("truncation split a rune: %q", got)
	}
}

func TestSanitizeUTF8(t *testing.T) {
	if got := SanitizeUTF8("plain text"); got != "plain text" {
		t.Errorf("got %q", got)
	}
	if got := SanitizeUTF8("keep\nnew\tlines\r"); got != "keep\nnew\tlines\r" {
		t.Errorf("got %q", got)
	}
	if got := SanitizeUTF8("null\x00byte\x1b"); got != "nullbyte" {
		t.Errorf("control characters must be dropped, got %q", got)
	}
	if got := SanitizeUTF8("bad\xffbyte"); !utf8.ValidString(got) {
		t.Errorf("invalid sequences must be dropped, got %q", got)
	}
}
