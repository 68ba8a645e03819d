package dkim

import "strings"

// RFC 6376 section 3.4 canonicalization.

type canonicalization string

const (
	canonSimple  canonicalization = "simple"
	canonRelaxed canonicalization = "relaxed"
)

func canonicalizeHeader(f HeaderField, c canonicalization) string {
	if c == canonSimple {
		return f.Raw + "\r\n"
	}
	name := strings.ToLower(strings.TrimRight(f.Name, " \t"))
	value := unfold(f.Value)
	value = collapseWSP(value)
	value = strings.Trim(value, " \t")
	return name + ":" + value + "\r\n"
}

func canonicalizeBody(body string, c canonicalization) string {
	if c == canonSimple {
		if body == "" {
			return "\r\n"
		}
		s := body
		if !strings.HasSuffix(s, "\r\n") {
			s += "\r\n"
		}
		for strings.HasSuffix(s, "\r\n\r\n") {
			s = s[:len(s)-2]
		}
		return s
	}

	lines := strings.Split(body, "\r\n")
	for i, line := range lines {
		line = collapseWSP(line)
		lines[i] = strings.TrimRight(line, " \t")
	}
	s := strings.Join(lines, "\r\n")
	for strings.HasSuffix(s, "\r\n") {
		s = s[:len(s)-2]
	}
	if s != "" {
		s += "\r\n"
	}
	return s
}

// unfold removes CRLF pairs from a folded header value.
func unfold(s string) string {
	return strings.ReplaceAll(s, "\r\n", "")
}

// collapseWSP reduces every run of spaces and tabs to a single space.
func collapseWSP(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inWSP := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' || c == '\t' {
			inWSP = true
			continue
		}
		if inWSP {
			b.WriteByte(' ')
			inWSP = false
		}
		b.WriteByte(c)
	}
	if inWSP {
		b.WriteByte(' ')
	}
	return b.String()
}
