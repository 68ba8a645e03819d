package circuit

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Command templates are whitespace-separated words where placeholders such
// as {uint} or {ethAddr} stand for typed values to extract and ABI encode.

const (
	stringPattern   = `\S+`
	uintPattern     = `\d+`
	intPattern      = `-?\d+`
	ethAddrPattern  = `0x[a-fA-F0-9]{40}`
	decimalsPattern = `\d+\.\d+`
)

// TemplateKind enumerates the placeholder types of a command template.
type TemplateKind int

const (
	TemplateString TemplateKind = iota
	TemplateUint
	TemplateInt
	TemplateDecimals
	TemplateEthAddr
)

// TemplateValue is one value extracted from a command.
type TemplateValue struct {
	Kind     TemplateKind
	String   string
	Uint     *big.Int
	Int      *big.Int
	Decimals string
	EthAddr  common.Address
}

var (
	abiString, _  = abi.NewType("string", "", nil)
	abiUint256, _ = abi.NewType("uint256", "", nil)
	abiInt256, _  = abi.NewType("int256", "", nil)
	abiAddress, _ = abi.NewType("address", "", nil)
)

// AbiEncode encodes the value as a single ABI argument. decimalSize scales
// Decimals values; zero means the ether default of 18.
func (v TemplateValue) AbiEncode(decimalSize uint8) ([]byte, error) {
	pack := func(t abi.Type, val any) ([]byte, error) {
		return abi.Arguments{{Type: t}}.Pack(val)
	}
	switch v.Kind {
	case TemplateString:
		return pack(abiString, v.String)
	case TemplateUint:
		return pack(abiUint256, v.Uint)
	case TemplateInt:
		return pack(abiInt256, v.Int)
	case TemplateDecimals:
		if decimalSize == 0 {
			decimalSize = 18
		}
		scaled, err := DecimalsStrToUint(v.Decimals, decimalSize)
		if err != nil {
			return nil, err
		}
		return pack(abiUint256, scaled)
	case TemplateEthAddr:
		return pack(abiAddress, v.EthAddr)
	default:
		return nil, fmt.Errorf("unknown template value kind %d", v.Kind)
	}
}

// DecimalsStrToUint scales a decimal string like "1.5" to an integer with
// decimalSize fractional digits.
func DecimalsStrToUint(s string, decimalSize uint8) (*big.Int, error) {
	before, after, _ := strings.Cut(s, ".")
	if len(after) > int(decimalSize) {
		return nil, fmt.Errorf("Exceeded max length: %q has %d fractional digits but the token has %d decimals", s, len(after), decimalSize)
	}
	composed := before + after + strings.Repeat("0", int(decimalSize)-len(after))
	v, ok := new(big.Int).SetString(composed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal string %q", s)
	}
	return v, nil
}

// UintToDecimalString renders an integer with the given number of decimals
// as a human decimal string, trimming trailing fractional zeros.
func UintToDecimalString(v *big.Int, decimal int) string {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimal)), nil)
	intPart, fracPart := new(big.Int).QuoRem(v, scale, new(big.Int))
	frac := fracPart.String()
	if len(frac) < decimal {
		frac = strings.Repeat("0", decimal-len(frac)) + frac
	}
	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		return intPart.String()
	}
	return intPart.String() + "." + frac
}

func placeholderPattern(template string) (string, bool) {
	switch template {
	case "{string}":
		return stringPattern, true
	case "{uint}":
		return uintPattern, true
	case "{int}":
		return intPattern, true
	case "{decimals}":
		return decimalsPattern, true
	case "{ethAddr}":
		return ethAddrPattern, true
	}
	return regexp.QuoteMeta(template), false
}

// ExtractTemplateValsFromCommand locates the template inside input and
// extracts its placeholder values.
func ExtractTemplateValsFromCommand(input string, templates []string) ([]TemplateValue, error) {
	patterns := make([]string, len(templates))
	for i, t := range templates {
		patterns[i], _ = placeholderPattern(t)
	}
	re, err := regexp.Compile(strings.Join(patterns, `\s+`))
	if err != nil {
		return nil, fmt.Errorf("Failed to match regex: invalid command template: %w", err)
	}
	loc := re.FindStringIndex(input)
	if loc == nil {
		return nil, fmt.Errorf("Failed to match regex: the command does not match the template")
	}
	return extractTemplateVals(input[loc[0]:], templates)
}

// extractTemplateVals reads one whitespace-separated word per template item
// and converts the placeholder words.
func extractTemplateVals(input string, templates []string) ([]TemplateValue, error) {
	words := strings.Fields(input)
	var vals []TemplateValue
	for i, template := range templates {
		if i >= len(words) {
			return nil, fmt.Errorf("Failed to match regex: the command is shorter than the template")
		}
		word := strings.Split(words[i], "</div>")[0]
		switch template {
		case "{string}":
			vals = append(vals, TemplateValue{Kind: TemplateString, String: word})
		case "{uint}":
			if !regexp.MustCompile("^" + uintPattern + "$").MatchString(word) {
				return nil, fmt.Errorf("Failed to match regex: %q is not a uint", word)
			}
			v, _ := new(big.Int).SetString(word, 10)
			vals = append(vals, TemplateValue{Kind: TemplateUint, Uint: v})
		case "{int}":
			if !regexp.MustCompile("^" + intPattern + "$").MatchString(word) {
				return nil, fmt.Errorf("Failed to match regex: %q is not an int", word)
			}
			v, _ := new(big.Int).SetString(word, 10)
			vals = append(vals, TemplateValue{Kind: TemplateInt, Int: v})
		case "{decimals}":
			if !regexp.MustCompile("^" + decimalsPattern + "$").MatchString(word) {
				return nil, fmt.Errorf("Failed to match regex: %q is not a decimal amount", word)
			}
			vals = append(vals, TemplateValue{Kind: TemplateDecimals, Decimals: word})
		case "{ethAddr}":
			if !regexp.MustCompile("^" + ethAddrPattern + "$").MatchString(word) {
				return nil, fmt.Errorf("Failed to match regex: %q is not an Ethereum address", word)
			}
			vals = append(vals, TemplateValue{Kind: TemplateEthAddr, EthAddr: common.HexToAddress(word)})
		}
	}
	return vals, nil
}
