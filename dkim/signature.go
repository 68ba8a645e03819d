package dkim

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// signatureHeader is a parsed DKIM-Signature field.
type signatureHeader struct {
	field       HeaderField
	algorithm   string
	headerCanon canonicalization
	bodyCanon   canonicalization
	domain      string
	selector    string
	headerNames []string
	bodyHash    []byte
	signature   []byte
}

// parseTags splits a tag=value list (RFC 6376 section 3.2). Folding and
// surrounding whitespace are dropped.
func parseTags(value string) map[string]string {
	tags := make(map[string]string)
	for _, item := range strings.Split(unfold(value), ";") {
		item = strings.Trim(item, " \t")
		if item == "" {
			continue
		}
		eq := strings.IndexByte(item, '=')
		if eq < 0 {
			continue
		}
		name := strings.Trim(item[:eq], " \t")
		tags[name] = strings.Trim(item[eq+1:], " \t")
	}
	return tags
}

func stripAllWSP(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			return -1
		}
		return r
	}, s)
}

func parseSignatureHeader(f HeaderField) (*signatureHeader, error) {
	tags := parseTags(f.Value)
	for _, required := range []string{"v", "a", "c", "d", "s", "h", "bh", "b"} {
		if _, ok := tags[required]; !ok {
			return nil, fmt.Errorf("%w: missing %s= tag", ErrInvalidDKIMHeader, required)
		}
	}
	if tags["v"] != "1" {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrInvalidDKIMHeader, tags["v"])
	}
	if tags["a"] != "rsa-sha256" {
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidDKIMHeader, tags["a"])
	}

	headerCanon, bodyCanon := canonSimple, canonSimple
	parts := strings.SplitN(tags["c"], "/", 2)
	switch canonicalization(parts[0]) {
	case canonSimple, canonRelaxed:
		headerCanon = canonicalization(parts[0])
	default:
		return nil, fmt.Errorf("%w: unknown canonicalization %q", ErrInvalidDKIMHeader, tags["c"])
	}
	if len(parts) == 2 {
		switch canonicalization(parts[1]) {
		case canonSimple, canonRelaxed:
			bodyCanon = canonicalization(parts[1])
		default:
			return nil, fmt.Errorf("%w: unknown canonicalization %q", ErrInvalidDKIMHeader, tags["c"])
		}
	}

	bodyHash, err := base64.StdEncoding.DecodeString(stripAllWSP(tags["bh"]))
	if err != nil {
		return nil, fmt.Errorf("%w: bad bh= value: %v", ErrInvalidDKIMHeader, err)
	}
	signature, err := base64.StdEncoding.DecodeString(stripAllWSP(tags["b"]))
	if err != nil {
		return nil, fmt.Errorf("%w: bad b= value: %v", ErrInvalidDKIMHeader, err)
	}
	if len(signature) == 0 {
		return nil, fmt.Errorf("%w: empty b= value", ErrInvalidDKIMHeader)
	}

	var names []string
	for _, n := range strings.Split(tags["h"], ":") {
		n = strings.Trim(unfold(n), " \t")
		if n != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: empty h= tag", ErrInvalidDKIMHeader)
	}

	return &signatureHeader{
		field:       f,
		algorithm:   tags["a"],
		headerCanon: headerCanon,
		bodyCanon:   bodyCanon,
		domain:      tags["d"],
		selector:    tags["s"],
		headerNames: names,
		bodyHash:    bodyHash,
		signature:   signature,
	}, nil
}

// stripBValue empties the b= tag of a raw DKIM-Signature field, which is how
// the field enters its own signed data.
func stripBValue(f HeaderField) HeaderField {
	strip := func(s string) string {
		var b strings.Builder
		b.Grow(len(s))
		segments := strings.Split(s, ";")
		for i, seg := range segments {
			if i > 0 {
				b.WriteByte(';')
			}
			trimmed := strings.TrimLeft(seg, " \t\r\n")
			if name, _, ok := strings.Cut(trimmed, "="); ok && strings.Trim(name, " \t\r\n") == "b" {
				eq := strings.IndexByte(seg, '=')
				b.WriteString(seg[:eq+1])
				continue
			}
			b.WriteString(seg)
		}
		return b.String()
	}
	f.Value = strip(f.Value)
	f.Raw = strip(f.Raw)
	return f
}

// buildSignedHeader assembles the data covered by the signature: each header
// named in h= (consumed bottom-up on duplicates), then the DKIM-Signature
// field itself with an emptied b= tag and no trailing CRLF.
func buildSignedHeader(sig *signatureHeader, headers EmailHeaders) string {
	used := make([]bool, len(headers))
	var b strings.Builder
	for _, name := range sig.headerNames {
		for i := len(headers) - 1; i >= 0; i-- {
			if used[i] || !strings.EqualFold(headers[i].Name, name) {
				continue
			}
			used[i] = true
			b.WriteString(canonicalizeHeader(headers[i], sig.headerCanon))
			break
		}
	}
	canonSig := canonicalizeHeader(stripBValue(sig.field), sig.headerCanon)
	b.WriteString(strings.TrimSuffix(canonSig, "\r\n"))
	return b.String()
}
