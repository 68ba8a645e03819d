package field

import (
	"math/big"
	"strings"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

func TestHexToFieldRoundTrip(t *testing.T) {
	in := "0x00000000000000000000000000000000000000000000000000000000000001ff"
	e, err := HexToField(in)
	if err != nil {
		t.Fatalf("HexToField: %v", err)
	}
	var v big.Int
	e.BigInt(&v)
	if v.Int64() != 0x1ff {
		t.Fatalf("decoded %s, want 511", v.String())
	}
	if out := FieldToHex(e); out != in {
		t.Fatalf("FieldToHex = %s, want %s", out, in)
	}
}

func TestHexToFieldRejectsBadInput(t *testing.T) {
	cases := []string{
		"",
		"1234",
		"0x12",
		"0xzz000000000000000000000000000000000000000000000000000000000000",
		// the BN254 modulus itself is not canonical
		"0x30644e72e131a029b85045b68181585d2833e84879b9709143e1f593f0000001",
	}
	for _, c := range cases {
		if _, err := HexToField(c); err == nil {
			t.Errorf("HexToField(%q) succeeded, want error", c)
		} else if !strings.HasPrefix(err.Error(), "Failed to encode field:") {
			t.Errorf("HexToField(%q) error %q lacks the encoding prefix", c, err)
		}
	}
}

func TestBytesToFieldsLittleEndian(t *testing.T) {
	fields := BytesToFields([]byte{0x02, 0x01})
	if len(fields) != 1 {
		t.Fatalf("got %d fields, want 1", len(fields))
	}
	var v big.Int
	fields[0].BigInt(&v)
	if v.Int64() != 0x0102 {
		t.Fatalf("packed value %s, want 258", v.String())
	}
}

func TestBytesToFieldsChunking(t *testing.T) {
	b := make([]byte, 62)
	b[0] = 1
	b[31] = 7
	fields := BytesToFields(b)
	if len(fields) != 2 {
		t.Fatalf("got %d fields, want 2", len(fields))
	}
	var v0, v1 big.Int
	fields[0].BigInt(&v0)
	fields[1].BigInt(&v1)
	if v0.Int64() != 1 || v1.Int64() != 7 {
		t.Fatalf("chunk values %s, %s; want 1, 7", v0.String(), v1.String())
	}
	if got := len(BytesToFields(make([]byte, 32))); got != 2 {
		t.Fatalf("33rd byte should open a second chunk, got %d fields", got)
	}
}

func TestBytesChunkFieldsRSA2048Layout(t *testing.T) {
	// 2048-bit modulus, low byte 0xab.
	mod := make([]byte, 256)
	mod[0] = 0xab
	mod[255] = 0x80
	fields, err := BytesChunkFields(mod, 121, 2, 17)
	if err != nil {
		t.Fatalf("BytesChunkFields: %v", err)
	}
	// 17 chunks of 121 bits, two per element.
	if len(fields) != 9 {
		t.Fatalf("got %d fields, want 9", len(fields))
	}
	var v big.Int
	fields[0].BigInt(&v)
	low := new(big.Int).And(&v, big.NewInt(0xff))
	if low.Int64() != 0xab {
		t.Fatalf("low byte of first element is %#x, want 0xab", low.Int64())
	}
}

func TestBytesChunkFieldsRejectsOverwideElements(t *testing.T) {
	if _, err := BytesChunkFields([]byte{1}, 121, 3, 17); err == nil {
		t.Fatal("3x121 bits should exceed the field capacity")
	}
}

func TestToCircomBigIntBytes(t *testing.T) {
	num := new(big.Int).Lsh(big.NewInt(5), 121)
	num.Add(num, big.NewInt(3))
	limbs := ToCircomBigIntBytes(num)
	if len(limbs) != 17 {
		t.Fatalf("got %d limbs, want 17", len(limbs))
	}
	if limbs[0] != "3" || limbs[1] != "5" {
		t.Fatalf("limbs[0..1] = %s, %s; want 3, 5", limbs[0], limbs[1])
	}
	for _, l := range limbs[2:] {
		if l != "0" {
			t.Fatalf("high limb %s, want 0", l)
		}
	}
}

func TestComputeSignalLength(t *testing.T) {
	for _, tc := range []struct{ max, want int }{
		{0, 0}, {1, 1}, {31, 1}, {32, 2}, {256, 9}, {605, 20},
	} {
		if got := ComputeSignalLength(tc.max); got != tc.want {
			t.Errorf("ComputeSignalLength(%d) = %d, want %d", tc.max, got, tc.want)
		}
	}
}

func TestStringToCircomLimbs(t *testing.T) {
	limbs := StringToCircomLimbs("ab")
	if len(limbs) != 1 {
		t.Fatalf("got %d limbs, want 1", len(limbs))
	}
	// 'a'=0x61 low byte, 'b'=0x62 next byte.
	if limbs[0] != "25185" {
		t.Fatalf("limbs[0] = %s, want 25185", limbs[0])
	}
}

func TestDecimalRoundTrip(t *testing.T) {
	e, err := DecimalToField("123456789")
	if err != nil {
		t.Fatalf("DecimalToField: %v", err)
	}
	if got := FieldToDecimal(e); got != "123456789" {
		t.Fatalf("round trip gave %s", got)
	}
	if _, err := DecimalToField(fr.Modulus().String()); err == nil {
		t.Fatal("modulus should be rejected")
	}
}
