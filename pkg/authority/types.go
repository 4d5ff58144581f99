package authority

import (
	"encoding/json"

	"github.com/agntcy/identity-service/pkg/claims"
)

// AuthorizeRequest asks the authority for an authorization code scoped to
// the target service and, optionally, one of its tools.
type AuthorizeRequest struct {
	// AppID identifies the service being authorized against. Empty means
	// the session covers all services and policy is evaluated at the
	// external-authorization step.
	AppID string `json:"app_id,omitempty"`

	// ToolName narrows the authorization to a single tool.
	ToolName string `json:"tool_name,omitempty"`

	// UserToken carries the end-user credential when present.
	UserToken string `json:"user_token,omitempty"`
}

// AuthorizeResponse carries the short-lived authorization code.
type AuthorizeResponse struct {
	AuthorizationCode string `json:"authorization_code"`
}

// TokenRequest exchanges an authorization code for an access token.
type TokenRequest struct {
	AuthorizationCode string `json:"authorization_code"`
}

// TokenResponse carries the issued access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

// ExtAuthzRequest asks the authority to validate a presented access token.
type ExtAuthzRequest struct {
	AccessToken string `json:"access_token"`
	ToolName    string `json:"tool_name,omitempty"`
}

// IssueBadgeRequest registers a badge for an app from its claims.
type IssueBadgeRequest struct {
	AppID  string        `json:"app_id"`
	Claims claims.Claims `json:"claims"`
}

// IssueBadgeResponse carries the issued badge as an opaque artifact.
// The SDK never parses or validates it locally.
type IssueBadgeResponse struct {
	Badge string `json:"badge"`
}

// VerifyBadgeRequest asks the authority to verify a presented badge.
type VerifyBadgeRequest struct {
	Badge string `json:"badge"`
}

// VerificationResult is the authority's verdict on a badge.
type VerificationResult struct {
	Valid bool `json:"valid"`

	// Reason explains a negative verdict.
	Reason string `json:"reason,omitempty"`

	// Document is the verified credential document, when the authority
	// returns one. Kept raw; its schema is owned by the authority.
	Document json.RawMessage `json:"document,omitempty"`
}
