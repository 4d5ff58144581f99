// Package discovery fetches the capability description of a target agentic
// service: the well-known agent card for A2A agents, the tool and resource
// listing for MCP servers. Discovery failures are fatal to badge issuance
// and surface unchanged; there are no retries here.
package discovery

import (
	"context"
	"encoding/json"

	"github.com/agntcy/identity-service/pkg/identity"
	"go.uber.org/zap"
)

// Schema is the discovered shape of a service: an opaque serialized document
// plus the kind it was discovered for. Consumed once by the claims builder.
type Schema struct {
	Kind     identity.AppType
	Document []byte
}

// Discoverer fetches the capability schema for a service kind at a URL.
type Discoverer interface {
	Discover(ctx context.Context, kind identity.AppType, url string) (*Schema, error)
}

// Client dispatches discovery to the protocol-specific client for the
// declared service kind.
type Client struct {
	a2a    *A2AClient
	mcp    *MCPClient
	logger *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a discovery client for both supported kinds.
func NewClient(opts ...Option) *Client {
	c := &Client{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	c.a2a = NewA2AClient(WithA2ALogger(c.logger))
	c.mcp = NewMCPClient(WithMCPLogger(c.logger))
	return c
}

// Discover fetches the capability schema for the service at url.
// Unrecognized kinds fail with a KIND_UNSUPPORTED error before any network
// activity.
func (c *Client) Discover(ctx context.Context, kind identity.AppType, url string) (*Schema, error) {
	switch kind {
	case identity.AppTypeA2AAgent:
		document, err := c.a2a.Discover(ctx, url)
		if err != nil {
			return nil, err
		}
		return &Schema{Kind: kind, Document: document}, nil

	case identity.AppTypeMCPServer:
		server, err := c.mcp.Discover(ctx, "", url)
		if err != nil {
			return nil, err
		}
		document, err := json.Marshal(server)
		if err != nil {
			return nil, identity.WrapError(identity.ErrCodeDiscovery, err,
				"serializing MCP server description for %s", url)
		}
		return &Schema{Kind: kind, Document: document}, nil

	default:
		return nil, identity.NewError(identity.ErrCodeUnsupportedKind,
			"cannot discover capabilities for service kind %q", kind)
	}
}
