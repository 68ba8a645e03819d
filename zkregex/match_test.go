package zkregex

import (
	"reflect"
	"strings"
	"testing"
)

func cfg(parts ...Part) Config {
	return Config{Name: "test", Parts: parts}
}

func TestFragmentSpansAreContiguous(t *testing.T) {
	c := cfg(
		Part{IsPublic: true, RegexDef: "Hi"},
		Part{IsPublic: true, RegexDef: "!"},
	)
	input := "Hello Hi! How are you?"
	spans, err := ExtractSubstrIdxes(input, c, false)
	if err != nil {
		t.Fatalf("ExtractSubstrIdxes: %v", err)
	}
	want := []Span{{Start: 6, End: 8}, {Start: 8, End: 9}}
	if !reflect.DeepEqual(spans, want) {
		t.Fatalf("spans = %v, want %v", spans, want)
	}
	if input[spans[0].Start:spans[0].End] != "Hi" || input[spans[1].Start:spans[1].End] != "!" {
		t.Fatal("spans do not cover the matched fragments")
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	c := cfg(
		Part{IsPublic: false, RegexDef: "a+"},
		Part{IsPublic: true, RegexDef: "a*b"},
	)
	input := "xxaaaab yy aab"
	first, err := ExtractSubstrIdxes(input, c, true)
	if err != nil {
		t.Fatalf("ExtractSubstrIdxes: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := ExtractSubstrIdxes(input, c, true)
		if err != nil {
			t.Fatalf("ExtractSubstrIdxes: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d gave %v, first run gave %v", i, again, first)
		}
	}
	// Leftmost match, and the first fragment is greedy: it takes "aaaa",
	// leaving the minimal "b" tail that still tiles the match.
	want := []Span{{Start: 2, End: 6}, {Start: 6, End: 7}}
	if !reflect.DeepEqual(first, want) {
		t.Fatalf("spans = %v, want %v", first, want)
	}
}

func TestRevealPrivateTilesWholeMatch(t *testing.T) {
	c := cfg(
		Part{IsPublic: false, RegexDef: "(\\r\\n|^)subject:"},
		Part{IsPublic: true, RegexDef: "[^\\r\\n]+"},
		Part{IsPublic: false, RegexDef: "\\r\\n"},
	)
	input := "from:a@b.c\r\nsubject:Hello World\r\nto:d@e.f\r\n"
	spans, err := ExtractSubstrIdxes(input, c, true)
	if err != nil {
		t.Fatalf("ExtractSubstrIdxes: %v", err)
	}
	if len(spans) != 3 {
		t.Fatalf("got %d spans, want 3", len(spans))
	}
	for i := 1; i < len(spans); i++ {
		if spans[i].Start != spans[i-1].End {
			t.Fatalf("spans %v are not contiguous", spans)
		}
	}
	if got := input[spans[1].Start:spans[1].End]; got != "Hello World" {
		t.Fatalf("subject span = %q", got)
	}
}

func TestNoMatchError(t *testing.T) {
	c := cfg(Part{IsPublic: true, RegexDef: "zzz"})
	_, err := ExtractSubstrIdxes("nothing here", c, false)
	if err == nil {
		t.Fatal("expected a no-match error")
	}
	if !strings.HasPrefix(err.Error(), "Failed to match regex:") {
		t.Fatalf("error %q lacks the regex prefix", err)
	}
}

func TestUnsupportedConstructs(t *testing.T) {
	for _, def := range []string{
		"a(?=b)",
		"a(?!b)",
		"(?<name>a)",
		"(a)\\1",
		"a*?",
		"a\\b",
	} {
		c := cfg(Part{IsPublic: true, RegexDef: def})
		if _, err := ExtractSubstrIdxes("aaab", c, false); err == nil {
			t.Errorf("pattern %q compiled, want an unsupported-construct error", def)
		}
	}
}

func TestBoundedRepetition(t *testing.T) {
	c := cfg(
		Part{IsPublic: false, RegexDef: "0x"},
		Part{IsPublic: true, RegexDef: "[a-f0-9]{4}"},
	)
	input := "addr 0xdeadbeef tail"
	spans, err := ExtractSubstrIdxes(input, c, false)
	if err != nil {
		t.Fatalf("ExtractSubstrIdxes: %v", err)
	}
	if got := input[spans[0].Start:spans[0].End]; got != "dead" {
		t.Fatalf("matched %q, want exactly four hex chars", got)
	}
}

func TestAnchorsAndAlternation(t *testing.T) {
	c := cfg(
		Part{IsPublic: false, RegexDef: "(\\r\\n|^)from:"},
		Part{IsPublic: true, RegexDef: "[^\\r\\n]+"},
		Part{IsPublic: false, RegexDef: "\\r\\n"},
	)
	// The from header opens the input, so only the ^ branch applies.
	input := "from:alice@example.com\r\nto:bob@example.com\r\n"
	spans, err := ExtractSubstrIdxes(input, c, false)
	if err != nil {
		t.Fatalf("ExtractSubstrIdxes: %v", err)
	}
	if got := input[spans[0].Start:spans[0].End]; got != "alice@example.com" {
		t.Fatalf("matched %q", got)
	}
	// "x-from:" must not shadow the real header.
	input2 := "x-from:mallory@evil.test\r\nfrom:alice@example.com\r\n"
	spans2, err := ExtractSubstrIdxes(input2, c, false)
	if err != nil {
		t.Fatalf("ExtractSubstrIdxes: %v", err)
	}
	if got := input2[spans2[0].Start:spans2[0].End]; got != "alice@example.com" {
		t.Fatalf("matched %q", got)
	}
}

func TestNegatedClass(t *testing.T) {
	c := cfg(
		Part{IsPublic: false, RegexDef: "\""},
		Part{IsPublic: true, RegexDef: "[^\"]+"},
		Part{IsPublic: false, RegexDef: "\""},
	)
	input := `say "hello there" now`
	spans, err := ExtractSubstrIdxes(input, c, false)
	if err != nil {
		t.Fatalf("ExtractSubstrIdxes: %v", err)
	}
	if got := input[spans[0].Start:spans[0].End]; got != "hello there" {
		t.Fatalf("matched %q", got)
	}
}
