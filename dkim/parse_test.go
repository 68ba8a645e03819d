package dkim

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// signTestEmail builds a minimal relaxed/relaxed DKIM-signed email.
func signTestEmail(t *testing.T, key *rsa.PrivateKey, body string) string {
	t.Helper()

	rawHeaders := []HeaderField{
		{Name: "From", Value: " Alice <alice@example.com>", Raw: "From: Alice <alice@example.com>"},
		{Name: "To", Value: " bob@example.com", Raw: "To: bob@example.com"},
		{Name: "Subject", Value: " Hello World", Raw: "Subject: Hello World"},
		{Name: "Message-ID", Value: " <12345@example.com>", Raw: "Message-ID: <12345@example.com>"},
	}

	canonicalBody := canonicalizeBody(body, canonRelaxed)
	bodyHash := sha256.Sum256([]byte(canonicalBody))
	bh := base64.StdEncoding.EncodeToString(bodyHash[:])

	dkimValue := fmt.Sprintf(
		"v=1; a=rsa-sha256; c=relaxed/relaxed; d=example.com; s=test1; t=1694989812; h=from:to:subject:message-id; bh=%s; b=",
		bh,
	)
	dkimField := HeaderField{
		Name:  "DKIM-Signature",
		Value: " " + dkimValue,
		Raw:   "DKIM-Signature: " + dkimValue,
	}

	var signed strings.Builder
	for _, f := range rawHeaders {
		signed.WriteString(canonicalizeHeader(f, canonRelaxed))
	}
	signed.WriteString(strings.TrimSuffix(canonicalizeHeader(dkimField, canonRelaxed), "\r\n"))

	hashed := sha256.Sum256([]byte(signed.String()))
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, hashed[:])
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	var email strings.Builder
	email.WriteString(dkimField.Raw)
	email.WriteString(base64.StdEncoding.EncodeToString(sig))
	email.WriteString("\r\n")
	for _, f := range rawHeaders {
		email.WriteString(f.Raw)
		email.WriteString("\r\n")
	}
	email.WriteString("\r\n")
	email.WriteString(body)
	return email.String()
}

const testBody = "<div id=3D\"command\">Send 1.5 ETH to alice</div>\r\nYour invitation: Code 123abc\r\n"

func parseTestEmail(t *testing.T, opts ...Option) *ParsedEmail {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	raw := signTestEmail(t, key, testBody)
	parsed, err := ParseEmail(context.Background(), raw, StaticKey(&key.PublicKey), opts...)
	if err != nil {
		t.Fatalf("ParseEmail: %v", err)
	}
	return parsed
}

func TestParseEmailRoundTrip(t *testing.T) {
	parsed := parseTestEmail(t)
	if !strings.HasPrefix(parsed.CanonicalizedHeader, "from:Alice <alice@example.com>\r\n") {
		t.Errorf("canonicalized header starts with %q", parsed.CanonicalizedHeader[:40])
	}
	if strings.HasSuffix(parsed.CanonicalizedHeader, "\r\n") {
		t.Error("the trailing dkim-signature line must not end with CRLF")
	}
	if len(parsed.Signature) != 256 {
		t.Errorf("signature length %d, want 256", len(parsed.Signature))
	}
	if len(parsed.PublicKey) != 256 {
		t.Errorf("public key length %d, want 256", len(parsed.PublicKey))
	}
	if len(parsed.CleanedBody) != len(parsed.CanonicalizedBody) {
		t.Error("cleaned body must preserve the canonical body length")
	}
}

func TestParseEmailGetters(t *testing.T) {
	parsed := parseTestEmail(t)

	if got, err := parsed.FromAddr(); err != nil || got != "alice@example.com" {
		t.Errorf("FromAddr = %q, %v", got, err)
	}
	if got, err := parsed.ToAddr(); err != nil || got != "bob@example.com" {
		t.Errorf("ToAddr = %q, %v", got, err)
	}
	if got, err := parsed.SubjectAll(); err != nil || got != "Hello World" {
		t.Errorf("SubjectAll = %q, %v", got, err)
	}
	if got, err := parsed.EmailDomain(); err != nil || got != "example.com" {
		t.Errorf("EmailDomain = %q, %v", got, err)
	}
	if got, err := parsed.MessageID(); err != nil || got != "12345@example.com" {
		t.Errorf("MessageID = %q, %v", got, err)
	}
	if got, err := parsed.Timestamp(); err != nil || got != 1694989812 {
		t.Errorf("Timestamp = %d, %v", got, err)
	}
	if got, err := parsed.InvitationCode(false); err != nil || got != "123abc" {
		t.Errorf("InvitationCode = %q, %v", got, err)
	}
	if got, err := parsed.Command(false); err != nil || got != "Send 1.5 ETH to alice" {
		t.Errorf("Command = %q, %v", got, err)
	}
	bh, err := parsed.BodyHash()
	if err != nil {
		t.Fatalf("BodyHash: %v", err)
	}
	wantBody := sha256.Sum256([]byte(parsed.CanonicalizedBody))
	if bh != base64.StdEncoding.EncodeToString(wantBody[:]) {
		t.Errorf("BodyHash = %q does not match the canonical body", bh)
	}
}

func TestParseEmailEmpty(t *testing.T) {
	for _, raw := range []string{"", "   \r\n  "} {
		_, err := ParseEmail(context.Background(), raw, nil)
		if !errors.Is(err, ErrEmptyEmail) {
			t.Errorf("ParseEmail(%q) = %v, want ErrEmptyEmail", raw, err)
		}
	}
}

func TestParseEmailMissingAtSymbol(t *testing.T) {
	// Inputs that are not emails at all must classify as input validation,
	// not as header parse failures.
	for _, raw := range []string{
		"From: alice\r\nTo: bob\r\n\r\nhello\r\n",
		"invalid-email-format",
		// An @ outside the From header does not make a sender address.
		"From: alice\r\nReply-To: a@b.example\r\n\r\nhello\r\n",
	} {
		_, err := ParseEmail(context.Background(), raw, nil)
		if !errors.Is(err, ErrNoAtSymbol) {
			t.Fatalf("ParseEmail(%q) = %v, want ErrNoAtSymbol", raw, err)
		}
		if !strings.Contains(err.Error(), "Email must contain @ symbol") {
			t.Fatalf("error %q lost its stable message", err)
		}
	}
}

func TestParseEmailWithoutSignature(t *testing.T) {
	raw := "From: alice@example.com\r\n\r\nhello\r\n"
	_, err := ParseEmail(context.Background(), raw, nil)
	if !errors.Is(err, ErrInvalidDKIMHeader) {
		t.Fatalf("got %v, want ErrInvalidDKIMHeader", err)
	}
	if !strings.Contains(err.Error(), "Invalid DKIM signature") {
		t.Fatalf("error %q lost its stable message", err)
	}
}

func TestParseEmailBrokenSignatureHeader(t *testing.T) {
	raw := "DKIM-Signature: v=1; a=rsa-sha256\r\nFrom: alice@example.com\r\n\r\nhello\r\n"
	_, err := ParseEmail(context.Background(), raw, nil)
	if !errors.Is(err, ErrInvalidDKIMHeader) {
		t.Fatalf("got %v, want ErrInvalidDKIMHeader", err)
	}
}

func TestParseEmailBodyTamper(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	raw := signTestEmail(t, key, testBody)
	tampered := strings.Replace(raw, "Send 1.5 ETH", "Send 9.9 ETH", 1)

	_, err = ParseEmail(context.Background(), tampered, StaticKey(&key.PublicKey))
	if err == nil {
		t.Fatal("tampered body must not verify")
	}
	if !strings.HasPrefix(err.Error(), "Failed to verify signature:") {
		t.Fatalf("error %q lacks the verification prefix", err)
	}

	// Skipping the body hash check makes the same email verify, since the
	// signed header is untouched.
	parsed, err := ParseEmail(context.Background(), tampered, StaticKey(&key.PublicKey), WithSkipBodyHashCheck())
	if err != nil {
		t.Fatalf("ParseEmail with skip: %v", err)
	}
	if got, err := parsed.Command(true); err != nil || got != "Hello World" {
		t.Errorf("Command(ignore) = %q, %v, want the subject", got, err)
	}
}

func TestParseEmailSignatureTamper(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	raw := signTestEmail(t, key, testBody)
	tampered := strings.Replace(raw, "Subject: Hello World", "Subject: Hacked", 1)

	_, err = ParseEmail(context.Background(), tampered, StaticKey(&key.PublicKey))
	if err == nil {
		t.Fatal("tampered subject must not verify")
	}
	if !strings.HasPrefix(err.Error(), "Failed to verify signature:") {
		t.Fatalf("error %q lacks the verification prefix", err)
	}
}

func TestParseEmailWrongKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	raw := signTestEmail(t, key, testBody)
	if _, err := ParseEmail(context.Background(), raw, StaticKey(&other.PublicKey)); err == nil {
		t.Fatal("wrong key must not verify")
	}
}
