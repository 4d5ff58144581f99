package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/agntcy/identity-service/pkg/badge"
)

var (
	// Keep command flags
	keepInterval time.Duration
	keepOutFile  string
)

var badgeCmd = &cobra.Command{
	Use:   "badge",
	Short: "Manage badges for agentic services",
	Long: `Manage badges for agentic services.

A badge binds a service's identity to its current capability schema:
the MCP tool listing or the A2A agent card, packaged as claims and
registered with the badge authority.`,
}

// readArgOrStdin returns args[0], or stdin when it is "-".
func readArgOrStdin(args []string) (string, error) {
	if args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

var badgeCreateCmd = &cobra.Command{
	Use:   "create <service-url>",
	Short: "Discover a service's capabilities and issue its badge",
	Long: `Discover a service's capabilities and issue its badge.

The service must already be registered with the authority under the API
key's organization. Its kind decides discovery: MCP servers get their
tool listing pulled over streamable HTTP, A2A agents get their agent
card fetched from the well-known URL.

Examples:
  identity badge create https://weather.example.com
  identity badge create http://localhost:9090/mcp`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAuthorityClient()
		if err != nil {
			return err
		}

		issuer := badge.NewIssuer(client)
		issued, err := issuer.IssueBadgeFor(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Println(issued)
		return nil
	},
}

var badgeVerifyCmd = &cobra.Command{
	Use:   "verify <badge>",
	Short: "Verify a badge with the authority",
	Long: `Verify a badge with the authority. Pass "-" to read the badge
from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readArgOrStdin(args)
		if err != nil {
			return err
		}

		client, err := newAuthorityClient()
		if err != nil {
			return err
		}

		result, err := badge.NewIssuer(client).Verify(cmd.Context(), raw)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))

		if !result.Valid {
			return fmt.Errorf("badge rejected: %s", result.Reason)
		}
		return nil
	},
}

var badgeInspectCmd = &cobra.Command{
	Use:   "inspect <badge>",
	Short: "Decode a badge's claims without verifying it",
	Long: `Decode a badge's claims without verifying it.

The payload is printed as-is. Nothing about it is trusted; use verify
for an authoritative verdict. Pass "-" to read the badge from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		raw, err := readArgOrStdin(args)
		if err != nil {
			return err
		}

		claims, err := badge.Inspect(raw)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(claims, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var badgeKeepCmd = &cobra.Command{
	Use:   "keep <service-url>",
	Short: "Keep a service's badge current",
	Long: `Keep a service's badge current.

Issues the badge immediately, then reissues it on every interval so the
registered badge tracks the service's capability schema. Runs until
interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAuthorityClient()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		keeper := badge.NewKeeper(badge.NewIssuer(client), badge.KeeperConfig{
			ServiceURL: args[0],
			Interval:   keepInterval,
			OutputFile: keepOutFile,
		}, nil)

		return keeper.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(badgeCmd)
	badgeCmd.AddCommand(badgeCreateCmd)
	badgeCmd.AddCommand(badgeVerifyCmd)
	badgeCmd.AddCommand(badgeInspectCmd)
	badgeCmd.AddCommand(badgeKeepCmd)

	badgeKeepCmd.Flags().DurationVar(&keepInterval, "interval", 12*time.Hour, "Reissue interval")
	badgeKeepCmd.Flags().StringVar(&keepOutFile, "out", "", "File that receives the latest badge on each reissue")
}
