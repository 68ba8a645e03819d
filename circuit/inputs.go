// Package circuit assembles the witness inputs of the email proving
// circuits: fixed-size padded buffers, RSA limb decompositions, substring
// indices and packed external signals, keyed exactly as the circom circuits
// expect them.
package circuit

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zkemail/relayer-utils/dkim"
	"github.com/zkemail/relayer-utils/field"
	"github.com/zkemail/relayer-utils/padding"
	"github.com/zkemail/relayer-utils/zkregex"
)

// Default padded sizes of the email-auth circuits.
const (
	DefaultMaxHeaderLength = 1024
	DefaultMaxBodyLength   = 1536
)

// Params configures witness generation with decomposed regexes.
type Params struct {
	MaxHeaderLength       int
	MaxBodyLength         int
	IgnoreBodyHashCheck   bool
	RemoveSoftLineBreaks  bool
	ShaPrecomputeSelector string
	ProverETHAddress      string
}

// ExternalInput is an out-of-band signal packed into the witness alongside
// the email material.
type ExternalInput struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	MaxLength int    `json:"maxLength"`
}

// Inputs is the witness map serialized for the circom circuit.
type Inputs map[string]any

// rawInputs is the email material shared by every witness layout.
type rawInputs struct {
	headerPadded    []byte
	pubkey          []string
	signature       []string
	headerPaddedLen int
	precomputedSha  []byte
	bodyPadded      []byte
	bodyPaddedLen   int
	bodyHashIdx     int
	hasBody         bool
}

type inputParams struct {
	header                []byte
	body                  []byte
	bodyHashIdx           int
	rsaSignature          *big.Int
	rsaPublicKey          *big.Int
	shaPrecomputeSelector string
	maxHeaderLength       int
	maxBodyLength         int
	ignoreBodyHashCheck   bool
}

func generateRawInputs(p inputParams) (*rawInputs, error) {
	headerPadded, headerPaddedLen, err := padding.Sha256Pad(p.header, p.maxHeaderLength)
	if err != nil {
		return nil, fmt.Errorf("Exceeded max length: the canonicalized header (%d bytes) does not fit maxHeaderLength %d", len(p.header), p.maxHeaderLength)
	}
	ri := &rawInputs{
		headerPadded:    headerPadded,
		pubkey:          field.ToCircomBigIntBytes(p.rsaPublicKey),
		signature:       field.ToCircomBigIntBytes(p.rsaSignature),
		headerPaddedLen: headerPaddedLen,
	}
	if p.ignoreBodyHashCheck {
		return ri, nil
	}

	// The body may exceed maxBodyLength as long as everything after the
	// precompute cutoff fits; pad to whichever bound is larger first.
	bodyShaLength := ((len(p.body) + 63 + 65) / 64) * 64
	maxBody := p.maxBodyLength
	if bodyShaLength > maxBody {
		maxBody = bodyShaLength
	}
	bodyPadded, bodyPaddedLen, err := padding.Sha256Pad(p.body, maxBody)
	if err != nil {
		return nil, err
	}
	precomputedSha, bodyRemaining, bodyRemainingLen, err := padding.GeneratePartialSha(
		bodyPadded, bodyPaddedLen, p.shaPrecomputeSelector, p.maxBodyLength)
	if err != nil {
		return nil, err
	}
	ri.precomputedSha = precomputedSha
	ri.bodyPadded = bodyRemaining
	ri.bodyPaddedLen = bodyRemainingLen
	ri.bodyHashIdx = p.bodyHashIdx
	ri.hasBody = true
	return ri, nil
}

func byteInts(b []byte) []int {
	out := make([]int, len(b))
	for i, c := range b {
		out[i] = int(c)
	}
	return out
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func parseForCircuit(ctx context.Context, email string, ignoreBodyHashCheck bool, resolver dkim.KeyResolver) (*dkim.ParsedEmail, int, error) {
	var opts []dkim.Option
	if ignoreBodyHashCheck {
		opts = append(opts, dkim.WithSkipBodyHashCheck())
	}
	parsed, err := dkim.ParseEmail(ctx, email, resolver, opts...)
	if err != nil {
		return nil, 0, err
	}
	bodyHashIdxes, err := parsed.BodyHashIdxes()
	if err != nil {
		return nil, 0, err
	}
	return parsed, bodyHashIdxes[0].Start, nil
}

// GenerateCircuitInputsWithDecomposedRegexesAndExternalInputs verifies the
// email and assembles the generic witness map: padded header/body, RSA limbs,
// one <name>RegexIdx entry per decomposed regex and one packed signal per
// external input.
func GenerateCircuitInputsWithDecomposedRegexesAndExternalInputs(
	ctx context.Context,
	email string,
	decomposedRegexes []zkregex.Config,
	externalInputs []ExternalInput,
	params Params,
	resolver dkim.KeyResolver,
) (Inputs, error) {
	parsed, bodyHashIdx, err := parseForCircuit(ctx, email, params.IgnoreBodyHashCheck, resolver)
	if err != nil {
		return nil, err
	}

	ri, err := generateRawInputs(inputParams{
		header:                []byte(parsed.CanonicalizedHeader),
		body:                  []byte(parsed.CanonicalizedBody),
		bodyHashIdx:           bodyHashIdx,
		rsaSignature:          field.BytesToBigInt(reverse(parsed.Signature)),
		rsaPublicKey:          field.BytesToBigInt(reverse(parsed.PublicKey)),
		shaPrecomputeSelector: params.ShaPrecomputeSelector,
		maxHeaderLength:       orDefault(params.MaxHeaderLength, DefaultMaxHeaderLength),
		maxBodyLength:         orDefault(params.MaxBodyLength, DefaultMaxBodyLength),
		ignoreBodyHashCheck:   params.IgnoreBodyHashCheck,
	})
	if err != nil {
		return nil, err
	}

	inputs := Inputs{
		"emailHeader":       byteInts(ri.headerPadded),
		"emailHeaderLength": ri.headerPaddedLen,
		"pubkey":            ri.pubkey,
		"signature":         ri.signature,
	}
	if ri.hasBody {
		inputs["bodyHashIndex"] = ri.bodyHashIdx
		inputs["precomputedSHA"] = byteInts(ri.precomputedSha)
		inputs["emailBody"] = byteInts(ri.bodyPadded)
		inputs["emailBodyLength"] = ri.bodyPaddedLen
	}

	var cleanedBody []byte
	if ri.hasBody {
		cleanedBody = padding.RemoveSoftLineBreaks(ri.bodyPadded)
	}
	if params.RemoveSoftLineBreaks {
		if ri.hasBody {
			inputs["decodedEmailBodyIn"] = byteInts(cleanedBody)
		} else {
			// No body inputs, so the decoded body serializes as null.
			inputs["decodedEmailBodyIn"] = nil
		}
	}

	for _, cfg := range decomposedRegexes {
		var input string
		switch {
		case cfg.Location == zkregex.LocationHeader:
			input = string(ri.headerPadded)
		case params.RemoveSoftLineBreaks:
			input = string(cleanedBody)
		default:
			input = string(ri.bodyPadded)
		}
		spans, err := zkregex.ExtractSubstrIdxes(input, cfg, false)
		if err != nil {
			return nil, err
		}
		if cfg.MaxLength > 0 {
			revealed := 0
			for _, s := range spans {
				revealed += s.End - s.Start
			}
			if revealed > cfg.MaxLength {
				return nil, fmt.Errorf("Exceeded max length: decomposed regex %q reveals %d bytes but maxLength is %d", cfg.Name, revealed, cfg.MaxLength)
			}
		}
		inputs[cfg.Name+"RegexIdx"] = spans[0].Start
	}

	for _, ext := range externalInputs {
		if len(ext.Value) > ext.MaxLength {
			return nil, fmt.Errorf("Exceeded max length: external input %q is %d bytes but maxLength is %d", ext.Name, len(ext.Value), ext.MaxLength)
		}
		limbs := field.StringToCircomLimbs(ext.Value)
		signalLength := field.ComputeSignalLength(ext.MaxLength)
		for len(limbs) < signalLength {
			limbs = append(limbs, "0")
		}
		inputs[ext.Name] = limbs
	}

	if params.ProverETHAddress != "" {
		if !common.IsHexAddress(params.ProverETHAddress) {
			return nil, fmt.Errorf("Failed to encode field: %q is not an Ethereum address", params.ProverETHAddress)
		}
		addr := common.HexToAddress(params.ProverETHAddress)
		inputs["proverETHAddress"] = new(big.Int).SetBytes(addr.Bytes()).String()
	} else {
		inputs["proverETHAddress"] = "0"
	}

	return inputs, nil
}

func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}
