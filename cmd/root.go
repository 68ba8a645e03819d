package main

import (
	"github.com/spf13/cobra"
	"github.com/zkemail/relayer-utils/cmd/relayer"
)

// Init the cmd
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "relayer-utils",
		Short: "Email proving utilities",
		Long:  `Tools for verifying DKIM-signed emails and generating the inputs of the email proving circuits`,
	}

	rootCmd.AddCommand(
		relayer.NewInputsCmd(),
		relayer.NewParseCmd(),
		relayer.NewAccountCodeCmd(),
		relayer.NewAccountSaltCmd(),
		NewVersionCmd(),
	)

	return rootCmd
}
