package padding

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"strings"
	"testing"
)

func TestSha256PadLayout(t *testing.T) {
	data := []byte("hello world")
	padded, messageLen, err := Sha256Pad(data, 192)
	if err != nil {
		t.Fatalf("Sha256Pad: %v", err)
	}
	if len(padded) != 192 {
		t.Fatalf("padded length %d, want 192", len(padded))
	}
	if messageLen != 64 {
		t.Fatalf("message length %d, want 64", messageLen)
	}
	if !bytes.Equal(padded[:len(data)], data) {
		t.Fatal("data prefix was modified")
	}
	if padded[len(data)] != 0x80 {
		t.Fatalf("byte after data is %#x, want 0x80", padded[len(data)])
	}
	bitLen := binary.BigEndian.Uint64(padded[messageLen-8 : messageLen])
	if bitLen != uint64(len(data))*8 {
		t.Fatalf("length suffix %d, want %d", bitLen, len(data)*8)
	}
	for i := messageLen; i < len(padded); i++ {
		if padded[i] != 0 {
			t.Fatalf("padding tail has nonzero byte at %d", i)
		}
	}
}

// Stripping the zero tail, the length suffix, the zero fill and the 0x80
// marker recovers the original data.
func TestSha256PadRoundTrip(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog")
	padded, messageLen, err := Sha256Pad(data, 256)
	if err != nil {
		t.Fatalf("Sha256Pad: %v", err)
	}
	msg := padded[:messageLen-8]
	end := len(msg) - 1
	for msg[end] == 0 {
		end--
	}
	if msg[end] != 0x80 {
		t.Fatalf("expected 0x80 marker, got %#x", msg[end])
	}
	if !bytes.Equal(msg[:end], data) {
		t.Fatal("round trip did not recover the original data")
	}
}

func TestSha256PadExceedsMax(t *testing.T) {
	_, _, err := Sha256Pad(make([]byte, 60), 64)
	if err == nil {
		t.Fatal("60 bytes cannot fit a 64-byte padded buffer")
	}
	if !strings.HasPrefix(err.Error(), "Exceeded max length:") {
		t.Fatalf("error %q lacks the length prefix", err)
	}
}

// The midstate after absorbing a fully padded message equals the final digest
// of the unpadded data.
func TestPartialShaMatchesFinalDigest(t *testing.T) {
	data := []byte("partial hashing test vector")
	padded, messageLen, err := Sha256Pad(data, 128)
	if err != nil {
		t.Fatalf("Sha256Pad: %v", err)
	}
	state, err := PartialSha(padded, messageLen)
	if err != nil {
		t.Fatalf("PartialSha: %v", err)
	}
	want := sha256.Sum256(data)
	if !bytes.Equal(state, want[:]) {
		t.Fatalf("midstate %x, want %x", state, want)
	}
}

func TestPartialShaRejectsUnalignedLength(t *testing.T) {
	if _, err := PartialSha(make([]byte, 128), 63); err == nil {
		t.Fatal("unaligned length should be rejected")
	}
}

func TestGeneratePartialShaSplitsAtBlockBoundary(t *testing.T) {
	body := make([]byte, 0, 256)
	body = append(body, bytes.Repeat([]byte{'x'}, 100)...)
	body = append(body, []byte("MARKER")...)
	padded, bodyLen, err := Sha256Pad(body, 256)
	if err != nil {
		t.Fatalf("Sha256Pad: %v", err)
	}

	pre, remaining, remainingLen, err := GeneratePartialSha(padded, bodyLen, "MARKER", 192)
	if err != nil {
		t.Fatalf("GeneratePartialSha: %v", err)
	}
	// MARKER starts at 100, so the cutoff is block 1 (byte 64).
	wantPre, err := PartialSha(padded, 64)
	if err != nil {
		t.Fatalf("PartialSha: %v", err)
	}
	if !bytes.Equal(pre, wantPre) {
		t.Fatal("precomputed state does not match the block-aligned prefix")
	}
	if remainingLen != bodyLen-64 {
		t.Fatalf("remaining length %d, want %d", remainingLen, bodyLen-64)
	}
	if len(remaining) != 192 {
		t.Fatalf("remaining buffer %d bytes, want 192", len(remaining))
	}
	if !bytes.Equal(remaining[:bodyLen-64], padded[64:bodyLen]) {
		t.Fatal("remaining bytes do not continue where the prefix stopped")
	}
}

func TestGeneratePartialShaNoSelector(t *testing.T) {
	padded, bodyLen, err := Sha256Pad([]byte("abc"), 128)
	if err != nil {
		t.Fatalf("Sha256Pad: %v", err)
	}
	pre, _, remainingLen, err := GeneratePartialSha(padded, bodyLen, "", 128)
	if err != nil {
		t.Fatalf("GeneratePartialSha: %v", err)
	}
	if remainingLen != bodyLen {
		t.Fatalf("remaining length %d, want the whole body %d", remainingLen, bodyLen)
	}
	// Cutoff zero leaves the initial state.
	empty, err := PartialSha(padded, 0)
	if err != nil {
		t.Fatalf("PartialSha: %v", err)
	}
	if !bytes.Equal(pre, empty) {
		t.Fatal("expected the initial sha256 state")
	}
}

func TestGeneratePartialShaErrors(t *testing.T) {
	padded, bodyLen, err := Sha256Pad(make([]byte, 100), 256)
	if err != nil {
		t.Fatalf("Sha256Pad: %v", err)
	}
	if _, _, _, err := GeneratePartialSha(padded, bodyLen, "missing", 256); err == nil {
		t.Fatal("absent selector should fail")
	} else if !strings.HasPrefix(err.Error(), "Failed to match regex:") {
		t.Fatalf("error %q lacks the regex prefix", err)
	}
	if _, _, _, err := GeneratePartialSha(padded, bodyLen, "", 64); err == nil {
		t.Fatal("remaining body over the maximum should fail")
	} else if !strings.HasPrefix(err.Error(), "Exceeded max length:") {
		t.Fatalf("error %q lacks the length prefix", err)
	}
}
