package dkim

import "testing"

// Vectors from RFC 6376 section 3.4.5.
func TestRelaxedHeaderCanonicalization(t *testing.T) {
	headers, _, err := parseMessage("A: X\r\nB : Y\t\r\n\tZ  \r\n\r\n")
	if err != nil {
		t.Fatalf("parseMessage: %v", err)
	}
	if len(headers) != 2 {
		t.Fatalf("parsed %d headers, want 2", len(headers))
	}
	if got := canonicalizeHeader(headers[0], canonRelaxed); got != "a:X\r\n" {
		t.Errorf("header A canonicalized to %q", got)
	}
	if got := canonicalizeHeader(headers[1], canonRelaxed); got != "b:Y Z\r\n" {
		t.Errorf("header B canonicalized to %q", got)
	}
}

func TestSimpleHeaderCanonicalization(t *testing.T) {
	headers, _, err := parseMessage("B : Y\t\r\n\tZ  \r\n\r\n")
	if err != nil {
		t.Fatalf("parseMessage: %v", err)
	}
	if got := canonicalizeHeader(headers[0], canonSimple); got != "B : Y\t\r\n\tZ  \r\n" {
		t.Errorf("simple canonicalization altered the header: %q", got)
	}
}

func TestRelaxedBodyCanonicalization(t *testing.T) {
	got := canonicalizeBody(" C \r\nD \t E\r\n\r\n\r\n", canonRelaxed)
	if got != " C\r\nD E\r\n" {
		t.Errorf("relaxed body = %q, want %q", got, " C\r\nD E\r\n")
	}
	if got := canonicalizeBody("", canonRelaxed); got != "" {
		t.Errorf("relaxed empty body = %q, want empty", got)
	}
}

func TestSimpleBodyCanonicalization(t *testing.T) {
	if got := canonicalizeBody(" C \r\nD \t E\r\n\r\n\r\n", canonSimple); got != " C \r\nD \t E\r\n" {
		t.Errorf("simple body = %q", got)
	}
	if got := canonicalizeBody("", canonSimple); got != "\r\n" {
		t.Errorf("simple empty body = %q, want CRLF", got)
	}
	if got := canonicalizeBody("no trailing newline", canonSimple); got != "no trailing newline\r\n" {
		t.Errorf("simple body without CRLF = %q", got)
	}
}

func TestNormalizeCRLF(t *testing.T) {
	if got := normalizeCRLF("a\nb\r\nc\n"); got != "a\r\nb\r\nc\r\n" {
		t.Errorf("normalizeCRLF = %q", got)
	}
}

func TestParseTags(t *testing.T) {
	tags := parseTags("v=1; a=rsa-sha256;\r\n\td=example.com; b= abc\r\n def ;")
	if tags["v"] != "1" || tags["a"] != "rsa-sha256" || tags["d"] != "example.com" {
		t.Fatalf("tags = %v", tags)
	}
	if stripAllWSP(tags["b"]) != "abcdef" {
		t.Fatalf("b tag = %q", tags["b"])
	}
}

func TestStripBValue(t *testing.T) {
	f := HeaderField{
		Name:  "DKIM-Signature",
		Value: " v=1; bh=AAAA; b=SIGNATUREDATA",
		Raw:   "DKIM-Signature: v=1; bh=AAAA; b=SIGNATUREDATA",
	}
	stripped := stripBValue(f)
	if stripped.Raw != "DKIM-Signature: v=1; bh=AAAA; b=" {
		t.Errorf("raw = %q", stripped.Raw)
	}
	if stripped.Value != " v=1; bh=AAAA; b=" {
		t.Errorf("value = %q", stripped.Value)
	}
}
