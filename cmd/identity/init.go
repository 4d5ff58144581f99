package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agntcy/identity-service/pkg/agentcard"
	"github.com/agntcy/identity-service/pkg/badge"
	"github.com/agntcy/identity-service/pkg/identity"
)

var (
	initServiceURL string
	initOutputDir  string
	initAutoBadge  bool
	initForce      bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Set up a local workspace for an agentic service",
	Long: `Set up a local workspace for an agentic service.

One command does everything:
  1. Resolves the service bound to the API key
  2. Scaffolds an agent-card.json declaring bearer JWT auth
  3. Issues the service's first badge (optional)

The API key can be provided via:
  - Environment variable: IDENTITY_SERVICE_API_KEY (recommended)
  - Flag: --api-key`,
	Example: `  # Initialize using environment variable (recommended)
  export IDENTITY_SERVICE_API_KEY=sk_live_...
  identity init

  # Initialize and issue the first badge
  identity init --service-url https://weather.example.com --auto-badge

  # Re-initialize an existing workspace
  identity init --force`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, _ []string) error {
	client, err := newAuthorityClient()
	if err != nil {
		return err
	}

	// 1. Resolve the service bound to this key.
	app, err := client.Apps().AppInfo(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Using service: %s (%s, %s)\n", app.Name, app.ID, app.Type)

	// 2. Set up the output directory.
	outputDir, err := setupOutputDir(app.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Output directory: %s\n", outputDir)

	// 3. Scaffold the agent card.
	cardPath := filepath.Join(outputDir, "agent-card.json")
	if err := saveAgentCard(cardPath, app, initServiceURL); err != nil {
		return err
	}
	fmt.Printf("Agent card saved: %s\n", cardPath)

	// 4. Issue the first badge.
	if initAutoBadge {
		if initServiceURL == "" {
			return fmt.Errorf("--auto-badge requires --service-url")
		}
		issued, err := badge.NewIssuer(client).IssueBadgeFor(cmd.Context(), initServiceURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: badge issuance failed: %v\n", err)
			fmt.Fprintln(os.Stderr, "  You can issue one later with: identity badge create "+initServiceURL)
		} else {
			badgePath := filepath.Join(outputDir, "badge.jwt")
			if err := os.WriteFile(badgePath, []byte(issued), 0o600); err != nil {
				return fmt.Errorf("writing badge: %w", err)
			}
			fmt.Printf("Badge saved: %s\n", badgePath)
		}
	}

	fmt.Println()
	fmt.Println("Service initialized. Next steps:")
	fmt.Printf("  1. Keep the badge current:  identity badge keep %s\n", initServiceURL)
	fmt.Println("  2. Gate inbound traffic:    identity gateway start")
	return nil
}

// setupOutputDir creates the workspace directory, refusing to overwrite an
// existing one unless --force is set.
func setupOutputDir(appID string) (string, error) {
	outputDir := initOutputDir
	if outputDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		outputDir = filepath.Join(homeDir, ".identity", appID)
	}

	cardPath := filepath.Join(outputDir, "agent-card.json")
	if _, err := os.Stat(cardPath); err == nil && !initForce {
		return "", fmt.Errorf("workspace already exists at %s, use --force to overwrite", outputDir)
	}

	if err := os.MkdirAll(outputDir, 0o700); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	return outputDir, nil
}

// saveAgentCard writes a minimal card declaring the bearer JWT scheme the
// request gate requires.
func saveAgentCard(path string, app *identity.App, serviceURL string) error {
	if serviceURL == "" {
		serviceURL = "http://localhost:8000"
	}

	card := agentcard.Card{
		ProtocolVersion: "0.3.0",
		Name:            app.Name,
		Description:     "Badge-protected agentic service",
		URL:             serviceURL,
		Version:         "1.0.0",
		SecuritySchemes: map[string]agentcard.SecurityScheme{
			"bearer": {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
		},
		Security: []map[string][]string{{"bearer": {}}},
		Skills:   []agentcard.Skill{},
	}

	data, err := json.MarshalIndent(card, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding agent card: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initServiceURL, "service-url", "",
		"URL the service is reachable at (used for discovery and the card)")
	initCmd.Flags().StringVar(&initOutputDir, "output", "",
		"Output directory (default: ~/.identity/{service-id}/)")
	initCmd.Flags().BoolVar(&initAutoBadge, "auto-badge", false,
		"Issue the service's first badge after setup")
	initCmd.Flags().BoolVar(&initForce, "force", false,
		"Overwrite an existing workspace")
}
