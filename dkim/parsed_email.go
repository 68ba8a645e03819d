package dkim

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/zkemail/relayer-utils/padding"
	"github.com/zkemail/relayer-utils/zkregex"
)

// ParsedEmail is a verified email reduced to the byte material the circuits
// consume. Signature and PublicKey hold the RSA signature and modulus in
// little-endian byte order, the layout the field hashing expects.
type ParsedEmail struct {
	CanonicalizedHeader string
	CanonicalizedBody   string
	CleanedBody         string
	Signature           []byte
	PublicKey           []byte
	Domain              string
	Selector            string
	Headers             EmailHeaders
}

// SignatureHex encodes the little-endian signature bytes as 0x-prefixed hex.
func (p *ParsedEmail) SignatureHex() string {
	return "0x" + hex.EncodeToString(p.Signature)
}

// PublicKeyHex encodes the little-endian modulus bytes as 0x-prefixed hex.
func (p *ParsedEmail) PublicKeyHex() string {
	return "0x" + hex.EncodeToString(p.PublicKey)
}

func cleanedBody(canonicalBody string) string {
	return string(padding.RemoveSoftLineBreaks([]byte(canonicalBody)))
}

func (p *ParsedEmail) substr(input, config string) (string, error) {
	cfg, ok := zkregex.BuiltinConfig(config)
	if !ok {
		return "", fmt.Errorf("Failed to match regex: unknown built-in config %q", config)
	}
	outs, err := zkregex.ExtractSubstrs(input, cfg, false)
	if err != nil {
		return "", err
	}
	return outs[0], nil
}

// FromAddr extracts the sender address from the canonicalized header.
func (p *ParsedEmail) FromAddr() (string, error) {
	return p.substr(p.CanonicalizedHeader, "from_addr")
}

// ToAddr extracts the recipient address from the canonicalized header.
func (p *ParsedEmail) ToAddr() (string, error) {
	return p.substr(p.CanonicalizedHeader, "to_addr")
}

// SubjectAll extracts the full subject line value.
func (p *ParsedEmail) SubjectAll() (string, error) {
	return p.substr(p.CanonicalizedHeader, "subject_all")
}

// EmailDomain extracts the domain of the sender address.
func (p *ParsedEmail) EmailDomain() (string, error) {
	addr, err := p.FromAddr()
	if err != nil {
		return "", err
	}
	return p.substr(addr, "email_domain")
}

// MessageID extracts the Message-ID header value.
func (p *ParsedEmail) MessageID() (string, error) {
	return p.substr(p.CanonicalizedHeader, "message_id")
}

// Timestamp extracts the t= timestamp of the DKIM-Signature header.
func (p *ParsedEmail) Timestamp() (uint64, error) {
	s, err := p.substr(p.CanonicalizedHeader, "timestamp")
	if err != nil {
		return 0, err
	}
	ts, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("Failed to parse email: invalid timestamp %q: %w", s, err)
	}
	return ts, nil
}

// BodyHash extracts the bh= value of the DKIM-Signature header.
func (p *ParsedEmail) BodyHash() (string, error) {
	return p.substr(p.CanonicalizedHeader, "body_hash")
}

// FromAddrIdxes locates the sender address in the canonicalized header.
func (p *ParsedEmail) FromAddrIdxes() ([]zkregex.Span, error) {
	return zkregex.ExtractFromAddrIdxes(p.CanonicalizedHeader)
}

// ToAddrIdxes locates the recipient address in the canonicalized header.
func (p *ParsedEmail) ToAddrIdxes() ([]zkregex.Span, error) {
	return zkregex.ExtractToAddrIdxes(p.CanonicalizedHeader)
}

// EmailDomainIdxes locates the sender domain in the canonicalized header.
func (p *ParsedEmail) EmailDomainIdxes() ([]zkregex.Span, error) {
	return zkregex.ExtractEmailDomainIdxes(p.CanonicalizedHeader)
}

// SubjectAllIdxes locates the subject value in the canonicalized header.
func (p *ParsedEmail) SubjectAllIdxes() ([]zkregex.Span, error) {
	return zkregex.ExtractSubjectAllIdxes(p.CanonicalizedHeader)
}

// TimestampIdxes locates the t= timestamp in the canonicalized header.
func (p *ParsedEmail) TimestampIdxes() ([]zkregex.Span, error) {
	return zkregex.ExtractTimestampIdxes(p.CanonicalizedHeader)
}

// BodyHashIdxes locates the bh= value in the canonicalized header.
func (p *ParsedEmail) BodyHashIdxes() ([]zkregex.Span, error) {
	return zkregex.ExtractBodyHashIdxes(p.CanonicalizedHeader)
}

// EmailAddrInSubject extracts an email address embedded in the subject.
func (p *ParsedEmail) EmailAddrInSubject() (string, error) {
	subject, err := p.SubjectAll()
	if err != nil {
		return "", err
	}
	return p.substr(subject, "email_addr")
}

// EmailAddrInSubjectIdxes locates a subject-embedded address, with indices
// relative to the canonicalized header.
func (p *ParsedEmail) EmailAddrInSubjectIdxes() ([]zkregex.Span, error) {
	subjectIdxes, err := p.SubjectAllIdxes()
	if err != nil {
		return nil, err
	}
	subject := p.CanonicalizedHeader[subjectIdxes[0].Start:subjectIdxes[0].End]
	cfg, ok := zkregex.BuiltinConfig("email_addr")
	if !ok {
		return nil, fmt.Errorf("Failed to match regex: unknown built-in config %q", "email_addr")
	}
	spans, err := zkregex.ExtractSubstrIdxes(subject, cfg, false)
	if err != nil {
		return nil, err
	}
	for i := range spans {
		spans[i].Start += subjectIdxes[0].Start
		spans[i].End += subjectIdxes[0].Start
	}
	return spans, nil
}

// codeTarget returns the text the invitation code and command extractors
// search. When the body hash is not proven, they search the header instead.
func (p *ParsedEmail) codeTarget(ignoreBodyHashCheck bool) string {
	if ignoreBodyHashCheck {
		return p.CanonicalizedHeader
	}
	return p.CleanedBody
}

// InvitationCode extracts the hex invitation code.
func (p *ParsedEmail) InvitationCode(ignoreBodyHashCheck bool) (string, error) {
	return p.substr(p.codeTarget(ignoreBodyHashCheck), "invitation_code")
}

// InvitationCodeIdxes locates the invitation code together with its prefix.
func (p *ParsedEmail) InvitationCodeIdxes(ignoreBodyHashCheck bool) ([]zkregex.Span, error) {
	cfg, ok := zkregex.BuiltinConfig("invitation_code_with_prefix")
	if !ok {
		return nil, fmt.Errorf("Failed to match regex: unknown built-in config %q", "invitation_code_with_prefix")
	}
	return zkregex.ExtractSubstrIdxes(p.codeTarget(ignoreBodyHashCheck), cfg, false)
}

// Command extracts the command text from the command div.
func (p *ParsedEmail) Command(ignoreBodyHashCheck bool) (string, error) {
	if ignoreBodyHashCheck {
		return p.SubjectAll()
	}
	return p.substr(p.CleanedBody, "command")
}

// CommandIdxes locates the command text.
func (p *ParsedEmail) CommandIdxes(ignoreBodyHashCheck bool) ([]zkregex.Span, error) {
	if ignoreBodyHashCheck {
		return zkregex.ExtractSubjectAllIdxes(p.CanonicalizedHeader)
	}
	return zkregex.ExtractCommandIdxes(p.CleanedBody)
}
