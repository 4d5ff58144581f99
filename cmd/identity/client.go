package main

import (
	"github.com/agntcy/identity-service/pkg/authority"
)

var (
	authorityURL string
	apiKey       string
)

// newAuthorityClient builds the shared authority channel from flags and
// the environment.
func newAuthorityClient() (*authority.Client, error) {
	opts := []authority.Option{}
	if apiKey != "" {
		opts = append(opts, authority.WithAPIKey(apiKey))
	}
	return authority.NewClient(authorityURL, opts...)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&authorityURL, "authority", "https://api.agntcy.id", "Badge authority base URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Agentic service API key (defaults to IDENTITY_SERVICE_API_KEY)")
}
