package relayer

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zkemail/relayer-utils/field"
	"github.com/zkemail/relayer-utils/hasher"
)

func NewAccountCodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "account-code",
		Short: "Generate a random account code",
		Long:  `Generate a fresh random account code, a field element printed as 0x-prefixed hex.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := hasher.GenerateAccountCode()
			if err != nil {
				return err
			}
			fmt.Println(field.FieldToHex(code))
			return nil
		},
	}
}

func NewAccountSaltCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "account-salt <email-addr> <account-code>",
		Short:   "Derive the account salt of an email address",
		Long:    `Derive the Poseidon account salt binding an email address to an account code. The code is 0x-prefixed hex as printed by account-code.`,
		Example: `  relayer-utils account-salt alice@example.com 0x1f9e...`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			salt, err := hasher.AccountSalt(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Println(salt)
			return nil
		},
	}
}
