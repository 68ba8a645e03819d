package dkim

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/emersion/go-message/mail"
)

// KeyResolver retrieves the RSA public key published for a DKIM domain and
// selector. Key retrieval is an external collaborator: the parser never
// touches the network itself.
type KeyResolver interface {
	ResolveDKIMKey(ctx context.Context, domain, selector string) (*rsa.PublicKey, error)
}

// KeyResolverFunc adapts a function to the KeyResolver interface.
type KeyResolverFunc func(ctx context.Context, domain, selector string) (*rsa.PublicKey, error)

func (f KeyResolverFunc) ResolveDKIMKey(ctx context.Context, domain, selector string) (*rsa.PublicKey, error) {
	return f(ctx, domain, selector)
}

// StaticKey resolves every domain and selector to the same key, for tests
// and offline input generation.
func StaticKey(pub *rsa.PublicKey) KeyResolver {
	return KeyResolverFunc(func(context.Context, string, string) (*rsa.PublicKey, error) {
		return pub, nil
	})
}

type options struct {
	skipBodyHashCheck bool
}

// Option configures ParseEmail.
type Option func(*options)

// WithSkipBodyHashCheck disables the bh= comparison, for emails whose body
// is not part of the proven statement.
func WithSkipBodyHashCheck() Option {
	return func(o *options) { o.skipBodyHashCheck = true }
}

// ParseEmail parses a raw email, canonicalizes its signed header and body
// and verifies the DKIM RSA-SHA256 signature with a key from the resolver.
func ParseEmail(ctx context.Context, rawEmail string, resolver KeyResolver, opts ...Option) (*ParsedEmail, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if strings.TrimSpace(rawEmail) == "" {
		return nil, ErrEmptyEmail
	}
	// Input validation comes before structural parsing so that callers can
	// classify "not an email at all" separately from parse failures.
	if !strings.Contains(rawEmail, "@") {
		return nil, ErrNoAtSymbol
	}

	headers, body, err := parseMessage(normalizeCRLF(rawEmail))
	if err != nil {
		return nil, err
	}
	fromDomain, err := fromAddressDomain(headers)
	if err != nil {
		return nil, err
	}

	sig, err := selectSignature(headers, fromDomain)
	if err != nil {
		return nil, err
	}

	canonicalBody := canonicalizeBody(body, sig.bodyCanon)
	if !o.skipBodyHashCheck {
		computed := sha256.Sum256([]byte(canonicalBody))
		if subtle.ConstantTimeCompare(computed[:], sig.bodyHash) != 1 {
			return nil, fmt.Errorf("Failed to verify signature: body hash mismatch: computed %s, header claims %s",
				base64.StdEncoding.EncodeToString(computed[:]),
				base64.StdEncoding.EncodeToString(sig.bodyHash))
		}
	}

	signedHeader := buildSignedHeader(sig, headers)
	pub, err := resolver.ResolveDKIMKey(ctx, sig.domain, sig.selector)
	if err != nil {
		return nil, fmt.Errorf("Failed to verify signature: cannot resolve the key for %s/%s: %w", sig.domain, sig.selector, err)
	}
	hashed := sha256.Sum256([]byte(signedHeader))
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, hashed[:], sig.signature); err != nil {
		return nil, fmt.Errorf("Failed to verify signature: %w", err)
	}

	return &ParsedEmail{
		CanonicalizedHeader: signedHeader,
		CanonicalizedBody:   canonicalBody,
		CleanedBody:         cleanedBody(canonicalBody),
		Signature:           reverseBytes(sig.signature),
		PublicKey:           reverseBytes(pub.N.Bytes()),
		Domain:              sig.domain,
		Selector:            sig.selector,
		Headers:             headers,
	}, nil
}

// fromAddressDomain validates the From header and returns the sender domain.
func fromAddressDomain(headers EmailHeaders) (string, error) {
	fromValue, ok := headers.GetHeaderValue("from")
	if !ok || !strings.Contains(fromValue, "@") {
		return "", ErrNoAtSymbol
	}
	var mh mail.Header
	mh.Set("From", strings.Trim(unfold(fromValue), " \t"))
	addr := ""
	if list, err := mh.AddressList("From"); err == nil && len(list) > 0 {
		addr = list[0].Address
	} else {
		// Fall back to the raw value for addresses the strict parser
		// rejects.
		addr = strings.Trim(unfold(fromValue), " \t<>")
	}
	at := strings.LastIndexByte(addr, '@')
	if at < 0 || at == len(addr)-1 {
		return "", ErrNoAtSymbol
	}
	return addr[at+1:], nil
}

// selectSignature picks the DKIM-Signature to verify: the first one whose
// d= domain matches the sender domain (or a forwarding variant of it),
// falling back to the first parseable signature.
func selectSignature(headers EmailHeaders, fromDomain string) (*signatureHeader, error) {
	var first *signatureHeader
	var firstErr error
	for _, f := range headers {
		if !strings.EqualFold(f.Name, "dkim-signature") {
			continue
		}
		sig, err := parseSignatureHeader(f)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if first == nil {
			first = sig
		}
		if domainsRelated(sig.domain, fromDomain) {
			return sig, nil
		}
	}
	if first != nil {
		return first, nil
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return nil, fmt.Errorf("%w: no DKIM-Signature header", ErrInvalidDKIMHeader)
}

// domainsRelated reports whether the signing domain covers the sender
// domain, directly or through a rewriting forwarder such as gappssmtp.
func domainsRelated(signingDomain, fromDomain string) bool {
	if strings.EqualFold(signingDomain, fromDomain) {
		return true
	}
	rewritten := strings.ReplaceAll(fromDomain, ".", "-")
	return strings.Contains(strings.ToLower(signingDomain), strings.ToLower(rewritten))
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}
