package discovery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/agntcy/identity-service/pkg/agentcard"
	"github.com/agntcy/identity-service/pkg/identity"
	"go.uber.org/zap"
)

// DefaultA2ATimeout bounds the agent card fetch.
const DefaultA2ATimeout = 10 * time.Second

// A2AClient fetches the well-known agent card of an A2A agent.
type A2AClient struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// A2AOption configures an A2AClient.
type A2AOption func(*A2AClient)

// WithA2ALogger sets the logger.
func WithA2ALogger(logger *zap.Logger) A2AOption {
	return func(c *A2AClient) {
		c.logger = logger
	}
}

// WithA2AHTTPClient replaces the underlying HTTP client.
func WithA2AHTTPClient(httpClient *http.Client) A2AOption {
	return func(c *A2AClient) {
		c.httpClient = httpClient
	}
}

// NewA2AClient creates a new A2AClient.
func NewA2AClient(opts ...A2AOption) *A2AClient {
	c := &A2AClient{
		httpClient: &http.Client{Timeout: DefaultA2ATimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wellKnownURL appends the agent card path unless url already points at it.
func wellKnownURL(url string) string {
	if strings.HasSuffix(url, agentcard.WellKnownPath) {
		return url
	}
	return strings.TrimSuffix(url, "/") + agentcard.WellKnownPath
}

// Discover performs the HTTP GET of the agent card and returns the raw
// document. A non-200 status is a discovery failure.
func (c *A2AClient) Discover(ctx context.Context, url string) ([]byte, error) {
	cardURL := wellKnownURL(url)
	c.logger.Debug("fetching agent card", zap.String("url", cardURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cardURL, nil)
	if err != nil {
		return nil, identity.WrapError(identity.ErrCodeDiscovery, err,
			"building agent card request for %s", cardURL)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, identity.WrapError(identity.ErrCodeDiscovery, err,
			"fetching agent card from %s", cardURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, identity.WrapError(identity.ErrCodeDiscovery,
			fmt.Errorf("status %d", resp.StatusCode),
			"agent card endpoint %s returned non-success", cardURL)
	}

	document, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, identity.WrapError(identity.ErrCodeDiscovery, err,
			"reading agent card from %s", cardURL)
	}

	return document, nil
}
