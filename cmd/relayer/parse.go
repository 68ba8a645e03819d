package relayer

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/zkemail/relayer-utils/dkim"
	"github.com/zkemail/relayer-utils/logger"
)

type parseConfig struct {
	emailFile      string
	publicKeyFile  string
	ignoreBodyHash bool
	logLevel       string
	logFormat      string
}

// parseSummary is the JSON the parse command prints.
type parseSummary struct {
	FromAddr  string `json:"fromAddr"`
	ToAddr    string `json:"toAddr,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Domain    string `json:"domain"`
	Selector  string `json:"selector"`
	Timestamp uint64 `json:"timestamp,omitempty"`
	BodyHash  string `json:"bodyHash"`
	PublicKey string `json:"publicKey"`
	Signature string `json:"signature"`
}

func NewParseCmd() *cobra.Command {
	cfg := &parseConfig{}

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Verify a DKIM-signed email and print what it proves",
		Long:  `Parse an email, verify its DKIM signature and print the extracted sender, subject, signing domain and key material as JSON.`,
		Example: `  relayer-utils parse -e email.eml
  relayer-utils parse -e email.eml --public-key key.pem`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&cfg.emailFile, "email-file", "e", "", "Raw email file (required)")
	cmd.Flags().StringVar(&cfg.publicKeyFile, "public-key", "", "RSA public key file (PEM/DER/base64); skips the DNS lookup")
	cmd.Flags().BoolVar(&cfg.ignoreBodyHash, "ignore-body-hash", false, "Skip the body hash check")
	addLogFlags(cmd, &cfg.logLevel, &cfg.logFormat)
	_ = cmd.MarkFlagRequired("email-file")

	return cmd
}

func runParse(cmd *cobra.Command, cfg *parseConfig) error {
	log := logger.Setup(cfg.logLevel, cfg.logFormat)

	email, err := os.ReadFile(cfg.emailFile)
	if err != nil {
		return err
	}
	resolver, err := resolverFromFlags(cfg.publicKeyFile, log)
	if err != nil {
		return err
	}

	var opts []dkim.Option
	if cfg.ignoreBodyHash {
		opts = append(opts, dkim.WithSkipBodyHashCheck())
	}
	parsed, err := dkim.ParseEmail(cmd.Context(), string(email), resolver, opts...)
	if err != nil {
		return err
	}
	log.Info("signature verified", "domain", parsed.Domain, "selector", parsed.Selector)

	summary := parseSummary{
		Domain:    parsed.Domain,
		Selector:  parsed.Selector,
		PublicKey: parsed.PublicKeyHex(),
		Signature: parsed.SignatureHex(),
	}
	if summary.FromAddr, err = parsed.FromAddr(); err != nil {
		return err
	}
	if summary.BodyHash, err = parsed.BodyHash(); err != nil {
		return err
	}

	// Headers beyond From are informative; emails may legitimately lack
	// them.
	if to, err := parsed.ToAddr(); err == nil {
		summary.ToAddr = to
	}
	if subject, err := parsed.SubjectAll(); err == nil {
		summary.Subject = subject
	}
	if ts, err := parsed.Timestamp(); err == nil {
		summary.Timestamp = ts
	}

	return printJSON(summary)
}
