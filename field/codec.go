package field

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

const (
	// Circom bigint limb layout used by the email-verifier circuits:
	// 2048-bit RSA values are split into 17 limbs of 121 bits each.
	circomBigIntBits  = 121
	circomBigIntLimbs = 17

	// Bytes packed per field element. 31*8 = 248 bits, safely below the
	// 254-bit BN254 scalar field.
	bytesPerField = 31
)

// BytesToFields packs a byte slice into field elements, 31 bytes per element.
// Within each 31-byte chunk the bytes are interpreted little-endian, so the
// first byte of the input is the least significant byte of the first element.
func BytesToFields(b []byte) []fr.Element {
	fields := make([]fr.Element, 0, (len(b)+bytesPerField-1)/bytesPerField)
	for i := 0; i < len(b); i += bytesPerField {
		end := i + bytesPerField
		if end > len(b) {
			end = len(b)
		}
		chunk := b[i:end]
		rev := make([]byte, len(chunk))
		for j, c := range chunk {
			rev[len(chunk)-1-j] = c
		}
		var e fr.Element
		e.SetBigInt(new(big.Int).SetBytes(rev))
		fields = append(fields, e)
	}
	return fields
}

// BytesChunkFields splits a little-endian byte slice into chunks of
// chunkBitSize bits and groups numChunkInField consecutive chunks into one
// field element, lower chunks in lower bits. The input is zero extended to
// maxChunkSize chunks before splitting, so the output length is fixed for a
// fixed configuration. The per-element bit width must stay below the field
// capacity.
func BytesChunkFields(b []byte, chunkBitSize, numChunkInField, maxChunkSize int) ([]fr.Element, error) {
	if chunkBitSize*numChunkInField >= fr.Bits {
		return nil, fmt.Errorf("Failed to encode field: %d chunks of %d bits exceed the %d-bit field capacity", numChunkInField, chunkBitSize, fr.Bits)
	}
	maxBytes := maxChunkSize * chunkBitSize / 8
	buf := b
	if len(b) < maxBytes {
		buf = make([]byte, maxBytes)
		copy(buf, b)
	}

	// Fold the little-endian bytes into one integer, then slice it.
	whole := new(big.Int)
	for i := len(buf) - 1; i >= 0; i-- {
		whole.Lsh(whole, 8)
		whole.Or(whole, big.NewInt(int64(buf[i])))
	}
	numChunks := (len(buf)*8 + chunkBitSize - 1) / chunkBitSize
	mask := new(big.Int).Lsh(big.NewInt(1), uint(chunkBitSize))
	mask.Sub(mask, big.NewInt(1))

	fields := make([]fr.Element, 0, (numChunks+numChunkInField-1)/numChunkInField)
	for i := 0; i < numChunks; i += numChunkInField {
		acc := new(big.Int)
		for j := numChunkInField - 1; j >= 0; j-- {
			if i+j >= numChunks {
				continue
			}
			chunk := new(big.Int).Rsh(whole, uint((i+j)*chunkBitSize))
			chunk.And(chunk, mask)
			acc.Lsh(acc, uint(chunkBitSize))
			acc.Or(acc, chunk)
		}
		var e fr.Element
		e.SetBigInt(acc)
		fields = append(fields, e)
	}
	return fields, nil
}

// ToCircomBigIntBytes decomposes a non-negative integer into the 17x121-bit
// limb layout the circuits expect, least significant limb first, each limb
// rendered as a decimal string.
func ToCircomBigIntBytes(num *big.Int) []string {
	mask := new(big.Int).Lsh(big.NewInt(1), circomBigIntBits)
	mask.Sub(mask, big.NewInt(1))
	limbs := make([]string, 0, circomBigIntLimbs)
	for i := 0; i < circomBigIntLimbs; i++ {
		limb := new(big.Int).Rsh(num, uint(i*circomBigIntBits))
		limb.And(limb, mask)
		limbs = append(limbs, limb.String())
	}
	return limbs
}

// StringToCircomLimbs packs the bytes of s into 31-byte field elements and
// renders each as a decimal string, the signal encoding for variable-length
// string inputs.
func StringToCircomLimbs(s string) []string {
	fields := BytesToFields([]byte(s))
	limbs := make([]string, 0, len(fields))
	for i := range fields {
		var v big.Int
		fields[i].BigInt(&v)
		limbs = append(limbs, v.String())
	}
	return limbs
}

// ComputeSignalLength returns the number of field elements needed to carry
// maxLength bytes at 31 bytes per element.
func ComputeSignalLength(maxLength int) int {
	return (maxLength + bytesPerField - 1) / bytesPerField
}

// FieldToDecimal renders a field element as a decimal string.
func FieldToDecimal(e *fr.Element) string {
	var v big.Int
	e.BigInt(&v)
	return v.String()
}

// DecimalToField parses a decimal string into a field element.
func DecimalToField(s string) (*fr.Element, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("Failed to encode field: %s is not a decimal integer", strconv.Quote(s))
	}
	if v.Sign() < 0 || v.Cmp(fr.Modulus()) >= 0 {
		return nil, fmt.Errorf("Failed to encode field: %s is not a canonical field element", strconv.Quote(s))
	}
	var e fr.Element
	e.SetBigInt(v)
	return &e, nil
}
