// Package gate enforces bearer-token authentication on inbound HTTP
// requests to a protected agentic service. The gate itself holds no keys
// and verifies nothing locally: every presented token goes to the badge
// authority for a verdict. Configuration is validated at construction so a
// misdeclared security scheme stops the process before it serves.
package gate

import (
	"context"

	"github.com/agntcy/identity-service/pkg/agentcard"
	"github.com/agntcy/identity-service/pkg/identity"
	"go.uber.org/zap"
)

// TokenVerifier obtains the authority's verdict on a presented access
// token. A nil return means the token was accepted.
type TokenVerifier interface {
	Verify(ctx context.Context, accessToken, toolName string) error
}

// Config holds the immutable per-gate configuration.
type Config struct {
	// PublicPaths are exempt from authentication.
	PublicPaths []string

	// SecuritySchemes is the service's declared security descriptor. It
	// must contain at least one scheme, and every http scheme must be
	// bearer with JWT format.
	SecuritySchemes map[string]agentcard.SecurityScheme

	// ToolName optionally narrows every verification to one tool.
	ToolName string

	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Gate is the per-request allow/deny decision procedure. All fields are
// fixed at construction, so one Gate serves concurrent requests without
// locking.
type Gate struct {
	verifier    TokenVerifier
	publicPaths map[string]struct{}
	toolName    string
	logger      *zap.Logger
}

// New validates the configuration and builds a Gate. Any violation of the
// security-scheme invariant is a fatal configuration error, raised here and
// never at request time.
func New(verifier TokenVerifier, cfg Config) (*Gate, error) {
	if verifier == nil {
		return nil, identity.NewError(identity.ErrCodeConfig, "a token verifier is required")
	}

	if err := validateSchemes(cfg.SecuritySchemes); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	public := make(map[string]struct{}, len(cfg.PublicPaths))
	for _, p := range cfg.PublicPaths {
		public[p] = struct{}{}
	}

	return &Gate{
		verifier:    verifier,
		publicPaths: public,
		toolName:    cfg.ToolName,
		logger:      logger,
	}, nil
}

// NewFromCard builds a Gate from an A2A agent card's declared security
// schemes. A missing card is a configuration error.
func NewFromCard(verifier TokenVerifier, card *agentcard.Card, cfg Config) (*Gate, error) {
	if card == nil {
		return nil, identity.NewError(identity.ErrCodeConfig, "an agent card is required")
	}
	cfg.SecuritySchemes = card.SecuritySchemes
	return New(verifier, cfg)
}

// validateSchemes enforces the bearer/JWT invariant on the descriptor.
func validateSchemes(schemes map[string]agentcard.SecurityScheme) error {
	if len(schemes) == 0 {
		return identity.NewError(identity.ErrCodeConfig,
			"the security descriptor must declare at least one security scheme")
	}

	for name, scheme := range schemes {
		if scheme.Type != "http" {
			continue
		}
		if scheme.Scheme != "bearer" {
			return identity.NewError(identity.ErrCodeConfig,
				"security scheme %q uses %q; only the bearer scheme is supported",
				name, scheme.Scheme)
		}
		if scheme.BearerFormat != "JWT" {
			return identity.NewError(identity.ErrCodeConfig,
				"security scheme %q declares bearer format %q; only JWT is supported",
				name, scheme.BearerFormat)
		}
	}

	return nil
}
