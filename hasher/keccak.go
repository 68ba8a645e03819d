package hasher

import (
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Keccak256 hashes data with Ethereum's keccak-256, for values consumed by
// contracts rather than circuits.
func Keccak256(data []byte) []byte {
	return ethcrypto.Keccak256(data)
}
