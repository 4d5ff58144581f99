// Package main is the entry point for the identity CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "identity",
	Short: "AGNTCY Identity Service CLI",
	Long: `Client tooling for the AGNTCY identity platform.
Issues and verifies badges for agentic services, exchanges access tokens,
and runs a gated reverse proxy in front of a protected service.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
