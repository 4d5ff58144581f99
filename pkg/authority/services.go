package authority

import (
	"context"
	"net/http"

	"github.com/agntcy/identity-service/pkg/identity"
)

// The authority exposes three logical services. Each gets a statically
// declared interface so every call site is checked at compile time; there is
// no runtime stub loading.

// AppService answers questions about the calling service's own registration.
type AppService interface {
	// AppInfo returns the identity the API key is bound to.
	AppInfo(ctx context.Context) (*identity.App, error)
}

// AuthService drives the token lifecycle: code issuance, code exchange, and
// request-time verification.
type AuthService interface {
	Authorize(ctx context.Context, req *AuthorizeRequest) (*AuthorizeResponse, error)
	Token(ctx context.Context, req *TokenRequest) (*TokenResponse, error)
	ExtAuthz(ctx context.Context, req *ExtAuthzRequest) error
}

// BadgeService issues and verifies badges.
type BadgeService interface {
	IssueBadge(ctx context.Context, req *IssueBadgeRequest) (*IssueBadgeResponse, error)
	VerifyBadge(ctx context.Context, req *VerifyBadgeRequest) (*VerificationResult, error)
}

// appService implements AppService over the shared channel.
type appService struct {
	client *Client
}

func (s *appService) AppInfo(ctx context.Context) (*identity.App, error) {
	var resp struct {
		App identity.App `json:"app"`
	}
	if err := s.client.do(ctx, http.MethodGet, "/v1alpha1/auth/app_info", nil, &resp); err != nil {
		return nil, annotate(err, "fetching app info")
	}
	return &resp.App, nil
}

// authService implements AuthService over the shared channel.
type authService struct {
	client *Client
}

func (s *authService) Authorize(ctx context.Context, req *AuthorizeRequest) (*AuthorizeResponse, error) {
	var resp AuthorizeResponse
	if err := s.client.do(ctx, http.MethodPost, "/v1alpha1/auth/authorize", req, &resp); err != nil {
		return nil, annotate(err, "authorizing app %q tool %q", req.AppID, req.ToolName)
	}
	return &resp, nil
}

func (s *authService) Token(ctx context.Context, req *TokenRequest) (*TokenResponse, error) {
	var resp TokenResponse
	if err := s.client.do(ctx, http.MethodPost, "/v1alpha1/auth/token", req, &resp); err != nil {
		return nil, annotate(err, "exchanging authorization code")
	}
	return &resp, nil
}

func (s *authService) ExtAuthz(ctx context.Context, req *ExtAuthzRequest) error {
	if err := s.client.do(ctx, http.MethodPost, "/v1alpha1/auth/ext_authz", req, nil); err != nil {
		return annotate(err, "verifying access token for tool %q", req.ToolName)
	}
	return nil
}

// badgeService implements BadgeService over the shared channel.
type badgeService struct {
	client *Client
}

func (s *badgeService) IssueBadge(ctx context.Context, req *IssueBadgeRequest) (*IssueBadgeResponse, error) {
	var resp IssueBadgeResponse
	if err := s.client.do(ctx, http.MethodPost, "/v1alpha1/badges/issue", req, &resp); err != nil {
		return nil, annotate(err, "issuing badge for app %q", req.AppID)
	}
	return &resp, nil
}

func (s *badgeService) VerifyBadge(ctx context.Context, req *VerifyBadgeRequest) (*VerificationResult, error) {
	var resp VerificationResult
	if err := s.client.do(ctx, http.MethodPost, "/v1alpha1/badges/verify", req, &resp); err != nil {
		return nil, annotate(err, "verifying badge")
	}
	return &resp, nil
}

// annotate prefixes the operation identifiers onto an authority error while
// keeping its code and cause chain intact.
func annotate(err error, format string, args ...any) error {
	code := identity.ErrorCode(err)
	if code == "" {
		code = identity.ErrCodeAuthority
	}
	return identity.WrapError(code, err, format, args...)
}
