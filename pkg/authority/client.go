// Package authority is the outbound contract to the badge authority: a
// single authenticated channel bound to one API key, with one statically
// typed client per backend service (apps, auth, badges).
package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/agntcy/identity-service/pkg/identity"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	// APIKeyEnv is consulted when no API key is passed explicitly.
	APIKeyEnv = "IDENTITY_SERVICE_API_KEY"

	// DefaultCallTimeout bounds each authority RPC. The reference behavior
	// leaves calls unbounded; this client does not.
	DefaultCallTimeout = 30 * time.Second

	apiKeyHeader = "X-Id-Api-Key"
)

// Client is the shared authenticated channel to the authority. It is safe
// for concurrent use; individual calls are independent.
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	breaker     *gobreaker.CircuitBreaker
	callTimeout time.Duration
	logger      *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the API key explicitly, overriding the environment.
func WithAPIKey(apiKey string) Option {
	return func(c *Client) {
		c.apiKey = apiKey
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithCallTimeout sets the per-call deadline. Zero disables it, restoring
// the unbounded reference behavior.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.callTimeout = d
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates the authority channel. The API key comes from the
// WithAPIKey option or, failing that, the IDENTITY_SERVICE_API_KEY
// environment variable; a client without a key is a configuration error.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		httpClient:  &http.Client{},
		callTimeout: DefaultCallTimeout,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.baseURL == "" {
		return nil, identity.NewError(identity.ErrCodeConfig, "authority URL is required")
	}

	if c.apiKey == "" {
		c.apiKey = os.Getenv(APIKeyEnv)
	}
	if c.apiKey == "" {
		return nil, identity.NewError(identity.ErrCodeConfig,
			"an organization or agentic service API key is required (set %s or pass WithAPIKey)",
			APIKeyEnv)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "identity-authority",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return c, nil
}

// Apps returns the typed client for the app service.
func (c *Client) Apps() AppService {
	return &appService{client: c}
}

// Auth returns the typed client for the auth service.
func (c *Client) Auth() AuthService {
	return &authService{client: c}
}

// Badges returns the typed client for the badge service.
func (c *Client) Badges() BadgeService {
	return &badgeService{client: c}
}

// do performs one authority RPC: marshal in, POST/GET, decode out.
// Failures come back as coded identity errors; the breaker opens after
// repeated transport or server failures so a dead authority fails fast.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	body, err := c.roundTrip(ctx, method, path, in)
	if err != nil {
		return err
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return identity.WrapError(identity.ErrCodeAuthority, err,
				"decoding authority response from %s", path)
		}
	}

	return nil
}

// roundTripResult carries the outcome of one authority exchange. Any HTTP
// response, including a rejection, is a successful use of the channel; only
// transport errors and 5xx count against the breaker.
type roundTripResult struct {
	body    []byte
	verdict error
}

func (c *Client) roundTrip(ctx context.Context, method, path string, in any) ([]byte, error) {
	var reqBody io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, identity.WrapError(identity.ErrCodeAuthority, err,
				"encoding authority request for %s", path)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, identity.WrapError(identity.ErrCodeAuthority, err,
			"building authority request for %s", path)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	result, err := c.breaker.Execute(func() (any, error) {
		start := time.Now()

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, identity.WrapError(identity.ErrCodeAuthorityTimeout, err,
					"authority call %s exceeded %s", path, c.callTimeout)
			}
			return nil, identity.WrapError(identity.ErrCodeAuthority, err,
				"authority call %s failed", path)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, identity.WrapError(identity.ErrCodeAuthority, err,
				"reading authority response from %s", path)
		}

		c.logger.Debug("authority call",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.Duration("took", time.Since(start)))

		if resp.StatusCode >= 500 {
			return nil, remoteError(path, resp.StatusCode, body)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return roundTripResult{verdict: remoteError(path, resp.StatusCode, body)}, nil
		}

		return roundTripResult{body: body}, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, identity.WrapError(identity.ErrCodeAuthority, err,
				"authority channel unavailable for %s", path)
		}
		return nil, err
	}

	rt := result.(roundTripResult)
	if rt.verdict != nil {
		return nil, rt.verdict
	}
	return rt.body, nil
}

// remoteError maps a non-success authority status to a coded error,
// preferring the message field of a structured error body.
func remoteError(path string, status int, body []byte) error {
	message := strings.TrimSpace(string(body))

	var structured struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &structured); err == nil {
		if structured.Message != "" {
			message = structured.Message
		} else if structured.Error != "" {
			message = structured.Error
		}
	}

	code := identity.ErrCodeAuthority
	switch status {
	case http.StatusNotFound:
		code = identity.ErrCodeNotFound
	case http.StatusUnauthorized:
		code = identity.ErrCodeUnauthorized
	case http.StatusForbidden:
		code = identity.ErrCodeForbidden
	}

	return identity.NewError(code, "authority returned status %d for %s: %s",
		status, path, message)
}

// String implements fmt.Stringer without exposing the API key.
func (c *Client) String() string {
	return fmt.Sprintf("authority.Client(%s)", c.baseURL)
}
