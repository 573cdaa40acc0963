package sanitize

import (
	"errors"
	"strings"
	"testing"
)

func TestClean_PlainTextUnchanged(t *testing.T) {
	got, err := Clean("hello there", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello there" {
		t.Errorf("got %q, want %q", got, "hello there")
	}
}

func TestClean_StripsControlCharacters(t *testing.T) {
	got, err := Clean("a\x00b\x07c\x0bd\x0ce\x1ff", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "abcdef" {
		t.Errorf("got %q, want %q", got, "abcdef")
	}
}

func TestClean_KeepsTabAndNewlines(t *testing.T) {
	in := "line1\nline2\tend\r\n"
	got, err := Clean(in, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "line1\nline2\tend" {
		t.Errorf("got %q", got)
	}
}

func TestClean_TruncatesAtMaxLen(t *testing.T) {
	in := strings.Repeat("x", MaxLen+500)
	got, err := Clean(in, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len([]rune(got)) != MaxLen {
		t.Errorf("length: got %d, want %d", len([]rune(got)), MaxLen)
	}
}

func TestClean_TruncatesRunesNotBytes(t *testing.T) {
	in := strings.Repeat("é", MaxLen+10)
	got, err := Clean(in, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len([]rune(got)); n != MaxLen {
		t.Errorf("rune length: got %d, want %d", n, MaxLen)
	}
}

func TestClean_EmptyAfterCleaning(t *testing.T) {
	for _, in := range []string{"", "   ", "\x00\x01\x02", " \t \n "} {
		if _, err := Clean(in, true); !errors.Is(err, ErrEmpty) {
			t.Errorf("Clean(%q): got %v, want ErrEmpty", in, err)
		}
	}
}

func TestClean_DisabledPassesThrough(t *testing.T) {
	in := "\x00" + strings.Repeat("x", MaxLen+1) + "  "
	got, err := Clean(in, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != in {
		t.Error("disabled sanitizer must not modify input")
	}
}

func TestClean_TrimsWhitespace(t *testing.T) {
	got, err := Clean("  hi  ", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hi" {
		t.Errorf("got %q, want %q", got, "hi")
	}
}
