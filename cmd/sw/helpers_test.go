package main

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"a longer title that overflows", 10, "a longe..."},
		{"tiny", 3, "tiny"},
	}
	for _, c := range cases {
		if got := truncate(c.in, c.max); got != c.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", c.in, c.max, got, c.want)
		}
	}
}

func TestTruncate_MultiByteTitles(t *testing.T) {
	in := strings.Repeat("日本語のタイトル", 4)
	got := truncate(in, 10)

	if !utf8.ValidString(got) {
		t.Fatalf("truncate(%q, 10) = %q, not valid UTF-8", in, got)
	}
	if n := utf8.RuneCountInString(got); n != 10 {
		t.Errorf("rune count = %d, want 10", n)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("got %q, want ellipsis suffix", got)
	}
}

func TestBar(t *testing.T) {
	if got := bar(50, 10); got != "[#####-----]" {
		t.Errorf("bar(50, 10) = %q", got)
	}
	if got := bar(150, 4); got != "[####]" {
		t.Errorf("bar(150, 4) = %q, want clamped full bar", got)
	}
	if got := bar(-5, 4); got != "[----]" {
		t.Errorf("bar(-5, 4) = %q, want clamped empty bar", got)
	}
}
