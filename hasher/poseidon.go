// Package hasher computes the Poseidon-based commitments, nullifiers and
// salts that tie email evidence to on-chain accounts. The permutation is the
// circom-compatible Poseidon over the BN254 scalar field, so every output
// here can be recomputed inside the proving circuits.
package hasher

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/iden3/go-iden3-crypto/poseidon"

	"github.com/zkemail/relayer-utils/field"
	"github.com/zkemail/relayer-utils/padding"
)

// RSA values are decomposed into 121-bit chunks, two per field element,
// 17 chunks total, the limb layout of the email-verifier circuits.
const (
	rsaChunkBits      = 121
	rsaChunksPerField = 2
	rsaChunkCount     = 17
)

// MaxEmailAddrBytes is the fixed padded size of email addresses in circuit
// signals.
const MaxEmailAddrBytes = 256

// PoseidonFields hashes a sequence of field elements.
func PoseidonFields(inputs []fr.Element) (*fr.Element, error) {
	bigs := make([]*big.Int, len(inputs))
	for i := range inputs {
		bigs[i] = new(big.Int)
		inputs[i].BigInt(bigs[i])
	}
	h, err := poseidon.Hash(bigs)
	if err != nil {
		return nil, fmt.Errorf("Failed to encode field: poseidon rejected %d inputs: %w", len(inputs), err)
	}
	var e fr.Element
	e.SetBigInt(h)
	return &e, nil
}

// PoseidonBytes packs a byte slice into 31-byte field elements and hashes
// them.
func PoseidonBytes(b []byte) (*fr.Element, error) {
	return PoseidonFields(field.BytesToFields(b))
}

// PublicKeyHash hashes an RSA public key modulus given as little-endian
// bytes. The result is the circuit's public identifier for a DKIM key.
func PublicKeyHash(publicKeyLE []byte) (*fr.Element, error) {
	inputs, err := field.BytesChunkFields(publicKeyLE, rsaChunkBits, rsaChunksPerField, rsaChunkCount)
	if err != nil {
		return nil, err
	}
	return PoseidonFields(inputs)
}

// signRand derives the signer-bound randomness from a little-endian RSA
// signature.
func signRand(signatureLE []byte) (*fr.Element, error) {
	inputs, err := field.BytesChunkFields(signatureLE, rsaChunkBits, rsaChunksPerField, rsaChunkCount)
	if err != nil {
		return nil, err
	}
	return PoseidonFields(inputs)
}

// EmailNullifier derives the nullifier of a signed email from its
// little-endian RSA signature: a double Poseidon, so the nullifier reveals
// nothing about the signature itself.
func EmailNullifier(signatureLE []byte) (*fr.Element, error) {
	rand, err := signRand(signatureLE)
	if err != nil {
		return nil, err
	}
	return PoseidonFields([]fr.Element{*rand})
}

// ExtractRandFromSignature derives commitment randomness from a little-endian
// RSA signature. A trailing one distinguishes it from the nullifier preimage.
func ExtractRandFromSignature(signatureLE []byte) (*fr.Element, error) {
	inputs, err := field.BytesChunkFields(signatureLE, rsaChunkBits, rsaChunksPerField, rsaChunkCount)
	if err != nil {
		return nil, err
	}
	return PoseidonFields(append(inputs, fr.One()))
}

// PaddedEmailAddr is an email address zero padded to the fixed circuit size.
type PaddedEmailAddr struct {
	PaddedBytes  []byte
	EmailAddrLen int
}

// PadEmailAddr pads an email address to MaxEmailAddrBytes.
func PadEmailAddr(emailAddr string) (PaddedEmailAddr, error) {
	padded, err := padding.PadString(emailAddr, MaxEmailAddrBytes)
	if err != nil {
		return PaddedEmailAddr{}, err
	}
	return PaddedEmailAddr{PaddedBytes: padded, EmailAddrLen: len(emailAddr)}, nil
}

// Fields packs the padded address into field elements.
func (p PaddedEmailAddr) Fields() []fr.Element {
	return field.BytesToFields(p.PaddedBytes)
}

// Commit commits to the address under the given randomness:
// poseidon(rand, addr...).
func (p PaddedEmailAddr) Commit(rand *fr.Element) (*fr.Element, error) {
	inputs := append([]fr.Element{*rand}, p.Fields()...)
	return PoseidonFields(inputs)
}

// CommitWithSignature commits to the address under randomness derived from a
// little-endian RSA signature.
func (p PaddedEmailAddr) CommitWithSignature(signatureLE []byte) (*fr.Element, error) {
	rand, err := ExtractRandFromSignature(signatureLE)
	if err != nil {
		return nil, err
	}
	return p.Commit(rand)
}

// EmailAddrCommit commits to an email address under explicit randomness.
func EmailAddrCommit(emailAddr string, rand *fr.Element) (*fr.Element, error) {
	padded, err := PadEmailAddr(emailAddr)
	if err != nil {
		return nil, err
	}
	return padded.Commit(rand)
}

// EmailAddrCommitWithSignature commits to an email address under randomness
// derived from a little-endian RSA signature.
func EmailAddrCommitWithSignature(emailAddr string, signatureLE []byte) (*fr.Element, error) {
	padded, err := PadEmailAddr(emailAddr)
	if err != nil {
		return nil, err
	}
	return padded.CommitWithSignature(signatureLE)
}
