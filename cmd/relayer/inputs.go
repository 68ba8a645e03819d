// Package relayer holds the subcommands of the relayer-utils CLI.
package relayer

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zkemail/relayer-utils/circuit"
	"github.com/zkemail/relayer-utils/dkim"
	"github.com/zkemail/relayer-utils/logger"
	"github.com/zkemail/relayer-utils/zkregex"
)

type inputsConfig struct {
	emailFile          string
	regexesFile        string
	externalInputsFile string
	publicKeyFile      string
	params             circuit.Params
	logLevel           string
	logFormat          string
}

func NewInputsCmd() *cobra.Command {
	cfg := &inputsConfig{}

	cmd := &cobra.Command{
		Use:   "inputs",
		Short: "Generate circuit witness inputs from a DKIM-signed email",
		Long:  `Verify the DKIM signature of an email and print the witness inputs of the proving circuit as JSON. Substring locations come from decomposed regex configs, extra signals from an external inputs file.`,
		Example: `  # Generate inputs with a regex config, resolving the key over DNS
  relayer-utils inputs -e email.eml -r regexes.json

  # Offline, with the signer's public key from a file
  relayer-utils inputs -e email.eml -r regexes.json --public-key key.pem`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInputs(cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&cfg.emailFile, "email-file", "e", "", "Raw email file (required)")
	cmd.Flags().StringVarP(&cfg.regexesFile, "regexes-file", "r", "", "JSON file with decomposed regex configs")
	cmd.Flags().StringVar(&cfg.externalInputsFile, "external-inputs-file", "", "JSON file with external inputs")
	cmd.Flags().StringVar(&cfg.publicKeyFile, "public-key", "", "RSA public key file (PEM/DER/base64); skips the DNS lookup")

	cmd.Flags().IntVar(&cfg.params.MaxHeaderLength, "max-header-length", circuit.DefaultMaxHeaderLength, "Padded header size in bytes (multiple of 64)")
	cmd.Flags().IntVar(&cfg.params.MaxBodyLength, "max-body-length", circuit.DefaultMaxBodyLength, "Padded body size in bytes (multiple of 64)")
	cmd.Flags().BoolVar(&cfg.params.IgnoreBodyHashCheck, "ignore-body-hash", false, "Skip the body hash check and omit body inputs")
	cmd.Flags().BoolVar(&cfg.params.RemoveSoftLineBreaks, "remove-soft-line-breaks", false, "Emit the body with quoted-printable soft breaks removed")
	cmd.Flags().StringVar(&cfg.params.ShaPrecomputeSelector, "sha-precompute-selector", "", "Selector string for partial body hashing")
	cmd.Flags().StringVar(&cfg.params.ProverETHAddress, "prover-eth-address", "", "Ethereum address of the prover")

	addLogFlags(cmd, &cfg.logLevel, &cfg.logFormat)
	_ = cmd.MarkFlagRequired("email-file")

	return cmd
}

func runInputs(cmd *cobra.Command, cfg *inputsConfig) error {
	log := logger.Setup(cfg.logLevel, cfg.logFormat)

	email, err := os.ReadFile(cfg.emailFile)
	if err != nil {
		return err
	}

	var regexes []zkregex.Config
	if cfg.regexesFile != "" {
		if err := readJSONFile(cfg.regexesFile, &regexes); err != nil {
			return fmt.Errorf("cannot read regex configs: %w", err)
		}
	}
	var externalInputs []circuit.ExternalInput
	if cfg.externalInputsFile != "" {
		if err := readJSONFile(cfg.externalInputsFile, &externalInputs); err != nil {
			return fmt.Errorf("cannot read external inputs: %w", err)
		}
	}

	resolver, err := resolverFromFlags(cfg.publicKeyFile, log)
	if err != nil {
		return err
	}

	log.Debug("generating circuit inputs", "email", cfg.emailFile, "regexes", len(regexes))
	inputs, err := circuit.GenerateCircuitInputsWithDecomposedRegexesAndExternalInputs(
		cmd.Context(), string(email), regexes, externalInputs, cfg.params, resolver)
	if err != nil {
		return err
	}

	return printJSON(inputs)
}

func addLogFlags(cmd *cobra.Command, level, format *string) {
	cmd.Flags().StringVar(level, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(format, "log-format", "text", "Log format (text, json)")
}

func resolverFromFlags(publicKeyFile string, log logger.Logger) (dkim.KeyResolver, error) {
	if publicKeyFile != "" {
		return LoadPublicKey(publicKeyFile)
	}
	return DNSResolver(log), nil
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
