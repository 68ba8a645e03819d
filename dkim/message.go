package dkim

import (
	"fmt"
	"strings"
)

// HeaderField is one header of the raw message. Raw preserves the original
// bytes including folding (without the final CRLF), Value is the text after
// the colon with folds intact.
type HeaderField struct {
	Name  string
	Value string
	Raw   string
}

// EmailHeaders is the ordered header list of a parsed message.
type EmailHeaders []HeaderField

// GetHeaderValue returns the value of the first header with the given name,
// case insensitively.
func (h EmailHeaders) GetHeaderValue(name string) (string, bool) {
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}
	return "", false
}

// normalizeCRLF rewrites bare LF line endings to CRLF. Circuit fixtures are
// frequently checked out with LF endings, which would otherwise break
// canonicalization byte-for-byte.
func normalizeCRLF(raw string) string {
	if !strings.Contains(raw, "\n") {
		return raw
	}
	var b strings.Builder
	b.Grow(len(raw) + 16)
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c == '\n' && (i == 0 || raw[i-1] != '\r') {
			b.WriteByte('\r')
		}
		b.WriteByte(c)
	}
	return b.String()
}

// parseMessage splits a raw message into its header fields and body.
func parseMessage(raw string) (EmailHeaders, string, error) {
	headerPart := raw
	body := ""
	if idx := strings.Index(raw, "\r\n\r\n"); idx >= 0 {
		headerPart = raw[:idx+2]
		body = raw[idx+4:]
	} else if !strings.HasSuffix(headerPart, "\r\n") {
		headerPart += "\r\n"
	}

	var headers EmailHeaders
	lines := strings.Split(strings.TrimSuffix(headerPart, "\r\n"), "\r\n")
	for _, line := range lines {
		if line == "" {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			if len(headers) == 0 {
				return nil, "", fmt.Errorf("Failed to parse email: continuation line before any header")
			}
			last := &headers[len(headers)-1]
			last.Value += "\r\n" + line
			last.Raw += "\r\n" + line
			continue
		}
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			return nil, "", fmt.Errorf("Failed to parse email: malformed header line %q", line)
		}
		headers = append(headers, HeaderField{
			Name:  line[:colon],
			Value: line[colon+1:],
			Raw:   line,
		})
	}
	return headers, body, nil
}
