// Package padding prepares byte buffers for fixed-size SHA-256 circuits:
// standard merkle-damgard padding into a constant-length buffer, midstate
// extraction for partial hashing, and quoted-printable soft break removal.
package padding

import (
	"crypto/sha256"
	"encoding"
	"encoding/binary"
	"fmt"
	"regexp"
)

const shaBlockSize = 64

// Sha256Pad applies SHA-256 message padding to data and zero extends the
// result to exactly maxShaBytes. The returned length is the padded message
// length in bytes (a multiple of 64) before zero extension; the circuit uses
// it to locate the true end of the message inside the fixed-size buffer.
func Sha256Pad(data []byte, maxShaBytes int) ([]byte, int, error) {
	bitLen := uint64(len(data)) * 8
	padded := make([]byte, 0, maxShaBytes)
	padded = append(padded, data...)
	padded = append(padded, 0x80)
	for (len(padded)+8)%shaBlockSize != 0 {
		padded = append(padded, 0)
	}
	padded = binary.BigEndian.AppendUint64(padded, bitLen)
	messageLen := len(padded)
	if messageLen > maxShaBytes {
		return nil, 0, fmt.Errorf("Exceeded max length: padded message is %d bytes but the maximum is %d", messageLen, maxShaBytes)
	}
	for len(padded) < maxShaBytes {
		padded = append(padded, 0)
	}
	return padded, messageLen, nil
}

// PartialSha hashes the first msgLen bytes of msg and returns the 32-byte
// internal SHA-256 state. msgLen must sit on a 64-byte block boundary, since
// the state only reflects fully compressed blocks.
func PartialSha(msg []byte, msgLen int) ([]byte, error) {
	if msgLen%shaBlockSize != 0 {
		return nil, fmt.Errorf("partial sha length %d is not a multiple of the block size", msgLen)
	}
	if msgLen > len(msg) {
		return nil, fmt.Errorf("partial sha length %d exceeds the message length %d", msgLen, len(msg))
	}
	h := sha256.New()
	h.Write(msg[:msgLen])
	state, err := h.(encoding.BinaryMarshaler).MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sha256 state: %w", err)
	}
	// The marshaled state is "sha\x03" + 8 big-endian u32 words + buffer + length.
	return state[4 : 4+sha256.Size], nil
}

// GeneratePartialSha splits a padded body into a precomputable prefix and the
// remainder that the circuit hashes itself. When selectorRegex is non-empty,
// the split point is the last block boundary at or before the first match of
// the selector; otherwise the whole body is left for the circuit. The
// remainder is zero extended to maxRemainingBodyLength.
func GeneratePartialSha(body []byte, bodyLen int, selectorRegex string, maxRemainingBodyLength int) (precomputedSha []byte, remaining []byte, remainingLen int, err error) {
	selectorIndex := 0
	if selectorRegex != "" {
		re, compileErr := regexp.Compile(selectorRegex)
		if compileErr != nil {
			return nil, nil, 0, fmt.Errorf("Failed to match regex: invalid selector %q: %w", selectorRegex, compileErr)
		}
		// Search only the message proper, not the padding tail.
		loc := re.FindIndex(body[:bodyLen])
		if loc == nil {
			return nil, nil, 0, fmt.Errorf("Failed to match regex: selector %q is not found in the body", selectorRegex)
		}
		selectorIndex = loc[0]
	}
	shaCutoff := (selectorIndex / shaBlockSize) * shaBlockSize

	remainingLen = bodyLen - shaCutoff
	if remainingLen > maxRemainingBodyLength {
		return nil, nil, 0, fmt.Errorf("Exceeded max length: %d bytes remain after the partial hash cutoff but the maximum is %d", remainingLen, maxRemainingBodyLength)
	}
	remaining = make([]byte, 0, maxRemainingBodyLength)
	remaining = append(remaining, body[shaCutoff:]...)
	if len(remaining) > maxRemainingBodyLength {
		remaining = remaining[:maxRemainingBodyLength]
	}
	for len(remaining) < maxRemainingBodyLength {
		remaining = append(remaining, 0)
	}

	precomputedSha, err = PartialSha(body, shaCutoff)
	if err != nil {
		return nil, nil, 0, err
	}
	return precomputedSha, remaining, remainingLen, nil
}
