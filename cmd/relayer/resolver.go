package relayer

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/zkemail/relayer-utils/dkim"
	"github.com/zkemail/relayer-utils/logger"
)

// DNSResolver resolves DKIM keys from the selector._domainkey TXT record of
// the signing domain.
func DNSResolver(log logger.Logger) dkim.KeyResolver {
	return dkim.KeyResolverFunc(func(ctx context.Context, domain, selector string) (*rsa.PublicKey, error) {
		name := selector + "._domainkey." + domain
		log.Debug("resolving DKIM key", "record", name)

		records, err := net.DefaultResolver.LookupTXT(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("TXT lookup for %s: %w", name, err)
		}
		var lastErr error
		for _, record := range records {
			key, err := parseDKIMRecord(record)
			if err != nil {
				lastErr = err
				continue
			}
			return key, nil
		}
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, fmt.Errorf("no DKIM key record at %s", name)
	})
}

// parseDKIMRecord extracts the RSA key of a "v=DKIM1; k=rsa; p=..." record.
func parseDKIMRecord(record string) (*rsa.PublicKey, error) {
	var keyData string
	found := false
	for _, tag := range strings.Split(record, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(tag), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(name) {
		case "k":
			if kind := strings.TrimSpace(value); kind != "rsa" {
				return nil, fmt.Errorf("unsupported key type %q", kind)
			}
		case "p":
			// The public key may be split across quoted strings; drop
			// any whitespace left after joining.
			keyData = strings.Join(strings.Fields(value), "")
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("record has no p= tag")
	}
	if keyData == "" {
		return nil, fmt.Errorf("the DKIM key is revoked")
	}
	der, err := base64.StdEncoding.DecodeString(keyData)
	if err != nil {
		return nil, fmt.Errorf("invalid p= value: %w", err)
	}
	return parseRSAPublicKey(der)
}

// LoadPublicKey reads an RSA public key from a PEM, DER or base64 file, for
// offline verification without DNS.
func LoadPublicKey(path string) (dkim.KeyResolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if block, _ := pem.Decode(data); block != nil {
		data = block.Bytes
	} else if der, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data))); err == nil {
		data = der
	}
	pub, err := parseRSAPublicKey(data)
	if err != nil {
		return nil, fmt.Errorf("cannot parse the public key in %s: %w", path, err)
	}
	return dkim.StaticKey(pub), nil
}

func parseRSAPublicKey(der []byte) (*rsa.PublicKey, error) {
	if pub, err := x509.ParsePKIXPublicKey(der); err == nil {
		rsaPub, ok := pub.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("not an RSA key")
		}
		return rsaPub, nil
	}
	return x509.ParsePKCS1PublicKey(der)
}
