package hasher

import (
	"fmt"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/zkemail/relayer-utils/field"
)

// GenerateAccountCode draws a uniformly random field element to serve as a
// user's private account code.
func GenerateAccountCode() (*fr.Element, error) {
	var e fr.Element
	if _, err := e.SetRandom(); err != nil {
		return nil, fmt.Errorf("failed to sample account code: %w", err)
	}
	return &e, nil
}

// GenerateRelayerRand draws the relayer's private randomness.
func GenerateRelayerRand() (*fr.Element, error) {
	var e fr.Element
	if _, err := e.SetRandom(); err != nil {
		return nil, fmt.Errorf("failed to sample relayer rand: %w", err)
	}
	return &e, nil
}

// RelayerRandHash is the relayer's public commitment to its randomness.
func RelayerRandHash(rand *fr.Element) (*fr.Element, error) {
	return PoseidonFields([]fr.Element{*rand})
}

// AccountSaltFields computes the account salt from pre-padded address fields:
// poseidon(addr..., code, 0). The trailing zero is a domain separator kept
// for circuit compatibility.
func AccountSaltFields(addr PaddedEmailAddr, accountCode *fr.Element) (*fr.Element, error) {
	var zero fr.Element
	inputs := append(addr.Fields(), *accountCode, zero)
	return PoseidonFields(inputs)
}

// AccountSalt derives the deterministic account salt from an email address
// and a hex-encoded account code. The code may carry a 0x prefix or not.
func AccountSalt(emailAddr, accountCodeHex string) (string, error) {
	if !strings.HasPrefix(accountCodeHex, "0x") {
		accountCodeHex = "0x" + accountCodeHex
	}
	code, err := field.HexToField(accountCodeHex)
	if err != nil {
		return "", err
	}
	padded, err := PadEmailAddr(emailAddr)
	if err != nil {
		return "", err
	}
	salt, err := AccountSaltFields(padded, code)
	if err != nil {
		return "", err
	}
	return field.FieldToHex(salt), nil
}

// AccountCodeCommit binds an account code to an email address and a relayer:
// poseidon(code, addr..., relayerRandHash).
func AccountCodeCommit(accountCode *fr.Element, emailAddr string, relayerRandHash *fr.Element) (*fr.Element, error) {
	padded, err := PadEmailAddr(emailAddr)
	if err != nil {
		return nil, err
	}
	inputs := append([]fr.Element{*accountCode}, padded.Fields()...)
	inputs = append(inputs, *relayerRandHash)
	return PoseidonFields(inputs)
}
