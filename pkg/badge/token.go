package badge

import (
	"context"
	"errors"
	"time"

	"github.com/agntcy/identity-service/pkg/authority"
	"github.com/agntcy/identity-service/pkg/identity"
	"github.com/avast/retry-go/v5"
	"go.uber.org/zap"
)

// Token exchange retry defaults. The authority may need a moment to make a
// fresh authorization code consumable; polling the exchange beats a blind
// settling sleep.
const (
	DefaultExchangeAttempts = 5
	DefaultExchangeDelay    = 200 * time.Millisecond
)

// TokenSource obtains access tokens via the two-step code exchange:
// Authorize yields a short-lived code, Token trades it for a bearer token.
type TokenSource struct {
	auth     authority.AuthService
	attempts uint
	delay    time.Duration
	logger   *zap.Logger
}

// TokenOption configures a TokenSource.
type TokenOption func(*TokenSource)

// WithExchangeRetry tunes the retry schedule for the code exchange.
func WithExchangeRetry(attempts uint, delay time.Duration) TokenOption {
	return func(s *TokenSource) {
		s.attempts = attempts
		s.delay = delay
	}
}

// WithTokenLogger sets the logger.
func WithTokenLogger(logger *zap.Logger) TokenOption {
	return func(s *TokenSource) {
		s.logger = logger
	}
}

// NewTokenSource creates a TokenSource over the authority channel.
func NewTokenSource(client *authority.Client, opts ...TokenOption) *TokenSource {
	s := &TokenSource{
		auth:     client.Auth(),
		attempts: DefaultExchangeAttempts,
		delay:    DefaultExchangeDelay,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AccessToken authorizes against appID (optionally narrowed to toolName)
// and exchanges the resulting code for an access token. The exchange is
// retried with backoff while the authority reports the code as not found
// yet; every other failure is final. The token is not cached.
func (s *TokenSource) AccessToken(ctx context.Context, appID, toolName, userToken string) (string, error) {
	auth, err := s.auth.Authorize(ctx, &authority.AuthorizeRequest{
		AppID:     appID,
		ToolName:  toolName,
		UserToken: userToken,
	})
	if err != nil {
		return "", err
	}

	var token *authority.TokenResponse

	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, identity.ErrNotFound)
		}),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Debug("authorization code not consumable yet, retrying",
				zap.Uint("attempt", n),
				zap.Error(err))
		}),
		retry.LastErrorOnly(true),
	)

	err = r.Do(func() error {
		var exchangeErr error
		token, exchangeErr = s.auth.Token(ctx, &authority.TokenRequest{
			AuthorizationCode: auth.AuthorizationCode,
		})
		return exchangeErr
	})
	if err != nil {
		return "", err
	}

	return token.AccessToken, nil
}

// Verify asks the authority whether an access token is valid, optionally
// for one tool. A nil return means the token was accepted.
func (s *TokenSource) Verify(ctx context.Context, accessToken, toolName string) error {
	return s.auth.ExtAuthz(ctx, &authority.ExtAuthzRequest{
		AccessToken: accessToken,
		ToolName:    toolName,
	})
}
