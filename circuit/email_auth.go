package circuit

import (
	"context"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/zkemail/relayer-utils/dkim"
	"github.com/zkemail/relayer-utils/field"
	"github.com/zkemail/relayer-utils/hasher"
	"github.com/zkemail/relayer-utils/padding"
)

// EmailCircuitParams configures the email-auth witness layout.
type EmailCircuitParams struct {
	IgnoreBodyHashCheck   bool
	MaxHeaderLength       int
	MaxBodyLength         int
	ShaPrecomputeSelector string
}

// EmailAuthInput is the witness of the email-auth circuit. Byte buffers are
// serialized as integer arrays; absent body fields serialize as null.
type EmailAuthInput struct {
	PaddedHeader      []int    `json:"padded_header"`
	PaddedBody        []int    `json:"padded_body"`
	BodyHashIdx       *int     `json:"body_hash_idx"`
	PublicKey         []string `json:"public_key"`
	Signature         []string `json:"signature"`
	PaddedHeaderLen   int      `json:"padded_header_len"`
	PaddedBodyLen     *int     `json:"padded_body_len"`
	PrecomputedSha    []int    `json:"precomputed_sha"`
	AccountCode       string   `json:"account_code"`
	FromAddrIdx       int      `json:"from_addr_idx"`
	SubjectIdx        *int     `json:"subject_idx,omitempty"`
	DomainIdx         int      `json:"domain_idx"`
	TimestampIdx      int      `json:"timestamp_idx"`
	CodeIdx           int      `json:"code_idx"`
	CommandIdx        int      `json:"command_idx"`
	PaddedCleanedBody []int    `json:"padded_cleaned_body"`
}

// GenerateEmailCircuitInput verifies the email and assembles the email-auth
// witness: the padded header/body with the indices of the sender address,
// domain, timestamp, invitation code and command.
func GenerateEmailCircuitInput(
	ctx context.Context,
	email string,
	accountCode *fr.Element,
	params *EmailCircuitParams,
	resolver dkim.KeyResolver,
) (*EmailAuthInput, error) {
	var p EmailCircuitParams
	if params != nil {
		p = *params
	}
	parsed, bodyHashIdx, err := parseForCircuit(ctx, email, p.IgnoreBodyHashCheck, resolver)
	if err != nil {
		return nil, err
	}

	ri, err := generateRawInputs(inputParams{
		header:                []byte(parsed.CanonicalizedHeader),
		body:                  []byte(parsed.CanonicalizedBody),
		bodyHashIdx:           bodyHashIdx,
		rsaSignature:          field.BytesToBigInt(reverse(parsed.Signature)),
		rsaPublicKey:          field.BytesToBigInt(reverse(parsed.PublicKey)),
		shaPrecomputeSelector: p.ShaPrecomputeSelector,
		maxHeaderLength:       orDefault(p.MaxHeaderLength, DefaultMaxHeaderLength),
		maxBodyLength:         orDefault(p.MaxBodyLength, DefaultMaxBodyLength),
		ignoreBodyHashCheck:   p.IgnoreBodyHashCheck,
	})
	if err != nil {
		return nil, err
	}

	fromAddrIdxes, err := parsed.FromAddrIdxes()
	if err != nil {
		return nil, err
	}
	domainIdxes, err := parsed.EmailDomainIdxes()
	if err != nil {
		return nil, err
	}

	input := &EmailAuthInput{
		PaddedHeader:    byteInts(ri.headerPadded),
		PublicKey:       ri.pubkey,
		Signature:       ri.signature,
		PaddedHeaderLen: ri.headerPaddedLen,
		AccountCode:     field.FieldToHex(accountCode),
		FromAddrIdx:     fromAddrIdxes[0].Start,
		DomainIdx:       domainIdxes[0].Start,
	}

	// Indices that may legitimately be absent fall back to zero.
	if idxes, err := parsed.TimestampIdxes(); err == nil {
		input.TimestampIdx = idxes[0].Start
	}
	if idxes, err := parsed.InvitationCodeIdxes(p.IgnoreBodyHashCheck); err == nil {
		input.CodeIdx = idxes[0].Start
	}
	if idxes, err := parsed.CommandIdxes(p.IgnoreBodyHashCheck); err == nil {
		input.CommandIdx = idxes[0].Start
	}

	if !ri.hasBody {
		subjectIdxes, err := parsed.SubjectAllIdxes()
		if err != nil {
			return nil, err
		}
		subjectIdx := subjectIdxes[0].Start
		input.SubjectIdx = &subjectIdx
		return input, nil
	}

	cleaned := padding.RemoveSoftLineBreaks(ri.bodyPadded)
	input.PaddedBody = byteInts(ri.bodyPadded)
	input.PaddedBodyLen = &ri.bodyPaddedLen
	input.BodyHashIdx = &ri.bodyHashIdx
	input.PrecomputedSha = byteInts(ri.precomputedSha)
	input.PaddedCleanedBody = byteInts(cleaned)

	// The header indices located the code and command in the canonical
	// body; recompute them against the truncated, cleaned body buffer.
	code, codeErr := parsed.InvitationCode(p.IgnoreBodyHashCheck)
	if codeErr != nil {
		code = ""
	}
	command, err := parsed.Command(p.IgnoreBodyHashCheck)
	if err != nil {
		return nil, err
	}
	input.CodeIdx = padding.FindIndexInBody(cleaned, code)
	input.CommandIdx = padding.FindIndexInBody(cleaned, command)

	return input, nil
}

// ClaimInput is the witness of the claim circuit: the padded email address
// with the commitment randomness and account code that bind it.
type ClaimInput struct {
	EmailAddr   []int  `json:"email_addr"`
	CmRand      string `json:"cm_rand"`
	AccountCode string `json:"account_code"`
}

// GenerateClaimInput assembles the claim-circuit witness.
func GenerateClaimInput(emailAddr, emailAddrRand, accountCode string) (*ClaimInput, error) {
	padded, err := hasher.PadEmailAddr(emailAddr)
	if err != nil {
		return nil, err
	}
	return &ClaimInput{
		EmailAddr:   byteInts(padded.PaddedBytes),
		CmRand:      emailAddrRand,
		AccountCode: accountCode,
	}, nil
}
