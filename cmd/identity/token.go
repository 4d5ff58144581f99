package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agntcy/identity-service/pkg/badge"
)

var (
	tokenAppID     string
	tokenTool      string
	tokenUserToken string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Obtain an access token for a protected service",
	Long: `Obtain an access token for a protected service.

Runs the two-step exchange against the authority: request authorization
for the target service and tool, then trade the authorization code for
an access token. The token goes on subsequent requests as a bearer
credential.

Example:
  identity token --app-id svc-1234 --tool get_weather`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if tokenAppID == "" {
			return fmt.Errorf("--app-id is required")
		}

		client, err := newAuthorityClient()
		if err != nil {
			return err
		}

		accessToken, err := badge.NewTokenSource(client).
			AccessToken(cmd.Context(), tokenAppID, tokenTool, tokenUserToken)
		if err != nil {
			return err
		}

		fmt.Println(accessToken)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().StringVar(&tokenAppID, "app-id", "", "Target agentic service ID")
	tokenCmd.Flags().StringVar(&tokenTool, "tool", "", "Tool name to request access to")
	tokenCmd.Flags().StringVar(&tokenUserToken, "user-token", "", "End-user token to bind into the authorization")
}
