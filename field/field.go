// Package field converts between byte sequences and BN254 scalar field
// elements, the native value type of the proving circuits. All hash and
// commitment outputs of this module are elements of this field, encoded
// as 0x-prefixed, 32-byte hexadecimal strings.
package field

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// HexToField decodes a 0x-prefixed, 32-byte hexadecimal string into a field
// element. The encoded value must be canonical (strictly below the field
// modulus).
func HexToField(inputHex string) (*fr.Element, error) {
	if len(inputHex) < 2 || inputHex[:2] != "0x" {
		return nil, fmt.Errorf("Failed to encode field: the input string %q must be a hex string with 0x prefix", inputHex)
	}
	raw, err := hex.DecodeString(inputHex[2:])
	if err != nil {
		return nil, fmt.Errorf("Failed to encode field: the input string %q is invalid hex: %w", inputHex, err)
	}
	if len(raw) != fr.Bytes {
		return nil, fmt.Errorf("Failed to encode field: the input string %q must be %d bytes but is %d bytes", inputHex, fr.Bytes, len(raw))
	}
	v := new(big.Int).SetBytes(raw)
	if v.Cmp(fr.Modulus()) >= 0 {
		return nil, fmt.Errorf("Failed to encode field: the input string %q is not a canonical field element", inputHex)
	}
	var e fr.Element
	e.SetBigInt(v)
	return &e, nil
}

// FieldToHex encodes a field element as a 0x-prefixed hexadecimal string.
// The output is always 0x followed by 64 hex digits, zero padded.
func FieldToHex(e *fr.Element) string {
	b := e.Bytes()
	return "0x" + hex.EncodeToString(b[:])
}

// BytesToBigInt interprets a byte slice as a big-endian unsigned integer.
func BytesToBigInt(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}
