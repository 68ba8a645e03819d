package main

import (
	"fmt"
	"os"
)

// relayer-utils - CLI for DKIM email verification and ZK circuit input
// generation
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
