package padding

import (
	"bytes"
	"fmt"
)

// RemoveSoftLineBreaks strips quoted-printable soft line breaks ("=\r\n")
// from a body buffer while preserving its length: for every removed break,
// three zero bytes are appended. Matching the input length keeps the cleaned
// buffer aligned with the circuit's fixed-size body signal.
func RemoveSoftLineBreaks(body []byte) []byte {
	out := make([]byte, 0, len(body))
	for i := 0; i < len(body); {
		if i+2 < len(body) && body[i] == '=' && body[i+1] == '\r' && body[i+2] == '\n' {
			i += 3
			continue
		}
		out = append(out, body[i])
		i++
	}
	for len(out) < len(body) {
		out = append(out, 0)
	}
	return out
}

// PadString zero pads the bytes of s to paddedSize.
func PadString(s string, paddedSize int) ([]byte, error) {
	if len(s) > paddedSize {
		return nil, fmt.Errorf("Exceeded max length: value is %d bytes but the maximum is %d", len(s), paddedSize)
	}
	out := make([]byte, paddedSize)
	copy(out, s)
	return out, nil
}

// FindIndexInBody returns the byte offset of the first occurrence of s in
// body, or 0 when s is empty or absent.
func FindIndexInBody(body []byte, s string) int {
	if s == "" {
		return 0
	}
	idx := bytes.Index(body, []byte(s))
	if idx < 0 {
		return 0
	}
	return idx
}
