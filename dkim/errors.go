// Package dkim parses raw RFC 5322 emails, canonicalizes them per RFC 6376
// and verifies their DKIM RSA-SHA256 signatures, producing the exact byte
// material the proving circuits re-hash.
package dkim

import "errors"

// Error messages are a stable contract: callers and the CLI match on these
// prefixes, so wrap them rather than rewording.
var (
	ErrEmptyEmail        = errors.New("Invalid email: Email cannot be empty")
	ErrNoAtSymbol        = errors.New("Invalid email: Email must contain @ symbol")
	ErrInvalidDKIMHeader = errors.New("Failed to parse email: Invalid DKIM signature")
)
