package gate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agntcy/identity-service/pkg/agentcard"
	"github.com/agntcy/identity-service/pkg/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	calls  int
	tokens []string
	tools  []string
	err    error
}

func (f *fakeVerifier) Verify(_ context.Context, accessToken, toolName string) error {
	f.calls++
	f.tokens = append(f.tokens, accessToken)
	f.tools = append(f.tools, toolName)
	return f.err
}

func bearerSchemes() map[string]agentcard.SecurityScheme {
	return map[string]agentcard.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
	}
}

func newTestGate(t *testing.T, verifier TokenVerifier, cfg Config) *Gate {
	t.Helper()
	if cfg.SecuritySchemes == nil {
		cfg.SecuritySchemes = bearerSchemes()
	}
	g, err := New(verifier, cfg)
	require.NoError(t, err)
	return g
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestNew_Validation(t *testing.T) {
	verifier := &fakeVerifier{}

	t.Run("Nil Verifier", func(t *testing.T) {
		_, err := New(nil, Config{SecuritySchemes: bearerSchemes()})
		assert.ErrorIs(t, err, identity.ErrConfig)
	})

	t.Run("No Schemes", func(t *testing.T) {
		_, err := New(verifier, Config{})
		assert.ErrorIs(t, err, identity.ErrConfig)
	})

	t.Run("Basic Auth Rejected", func(t *testing.T) {
		_, err := New(verifier, Config{SecuritySchemes: map[string]agentcard.SecurityScheme{
			"basic": {Type: "http", Scheme: "basic"},
		}})
		require.ErrorIs(t, err, identity.ErrConfig)
		assert.Contains(t, err.Error(), "basic")
	})

	t.Run("Wrong Bearer Format rejected", func(t *testing.T) {
		_, err := New(verifier, Config{SecuritySchemes: map[string]agentcard.SecurityScheme{
			"bearer": {Type: "http", Scheme: "bearer", BearerFormat: "opaque"},
		}})
		assert.ErrorIs(t, err, identity.ErrConfig)
	})

	t.Run("Non HTTP Scheme Ignored", func(t *testing.T) {
		_, err := New(verifier, Config{SecuritySchemes: map[string]agentcard.SecurityScheme{
			"oidc":   {Type: "openIdConnect", OpenIDConnectURL: "https://idp.example/.well-known/openid-configuration"},
			"bearer": {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
		}})
		assert.NoError(t, err)
	})
}

func TestNewFromCard(t *testing.T) {
	verifier := &fakeVerifier{}

	t.Run("Missing Card", func(t *testing.T) {
		_, err := NewFromCard(verifier, nil, Config{})
		assert.ErrorIs(t, err, identity.ErrConfig)
	})

	t.Run("Card Without Schemes", func(t *testing.T) {
		_, err := NewFromCard(verifier, &agentcard.Card{Name: "svc"}, Config{})
		assert.ErrorIs(t, err, identity.ErrConfig)
	})

	t.Run("Valid Card", func(t *testing.T) {
		card := &agentcard.Card{Name: "svc", SecuritySchemes: bearerSchemes()}
		g, err := NewFromCard(verifier, card, Config{})
		require.NoError(t, err)
		assert.NotNil(t, g)
	})
}

func TestMiddleware_PublicPath(t *testing.T) {
	verifier := &fakeVerifier{err: identity.ErrForbidden}
	g := newTestGate(t, verifier, Config{PublicPaths: []string{"/healthz", "/.well-known/agent.json"}})

	handler := g.Middleware(okHandler())

	for _, path := range []string{"/healthz", "/.well-known/agent.json"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	// Public traffic must never reach the authority.
	assert.Zero(t, verifier.calls)
}

func TestMiddleware_MissingOrMalformedHeader(t *testing.T) {
	verifier := &fakeVerifier{}
	g := newTestGate(t, verifier, Config{})
	handler := g.Middleware(okHandler())

	cases := []struct {
		name   string
		header string
	}{
		{"No Header", ""},
		{"Wrong Scheme", "Basic dXNlcjpwYXNz"},
		{"Lowercase Bearer", "bearer token-123"},
		{"Empty Token", "Bearer "},
		{"No Space", "Bearertoken-123"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/messages", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body denial
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, "unauthorized", body.Error)
			assert.Contains(t, body.Reason, "Authorization header")
		})
	}

	// Malformed credentials are rejected locally.
	assert.Zero(t, verifier.calls)
}

func TestMiddleware_RejectedToken(t *testing.T) {
	verifier := &fakeVerifier{err: identity.NewError(identity.ErrCodeForbidden, "policy denied")}
	g := newTestGate(t, verifier, Config{ToolName: "get_weather"})
	handler := g.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader("{}"))
	req.Header.Set("Authorization", "Bearer tok-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	var body denial
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "forbidden", body.Error)
	assert.Contains(t, body.Reason, "Authentication failed")
	assert.Contains(t, body.Reason, "policy denied")

	require.Equal(t, 1, verifier.calls)
	assert.Equal(t, "tok-123", verifier.tokens[0])
	assert.Equal(t, "get_weather", verifier.tools[0])
}

func TestMiddleware_AcceptedToken(t *testing.T) {
	verifier := &fakeVerifier{}
	g := newTestGate(t, verifier, Config{})
	handler := g.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/messages", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, 1, verifier.calls)
}

func TestMiddleware_StreamingDenial(t *testing.T) {
	g := newTestGate(t, &fakeVerifier{err: identity.ErrForbidden}, Config{})
	handler := g.Middleware(okHandler())

	t.Run("Unauthorized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/stream", nil)
		req.Header.Set("Accept", "text/event-stream")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
		assert.Equal(t, "error unauthorized: Missing or malformed Authorization header.\n", rec.Body.String())
	})

	t.Run("Forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/stream", nil)
		req.Header.Set("Accept", "application/json, text/event-stream")
		req.Header.Set("Authorization", "Bearer tok-123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
		assert.True(t, strings.HasPrefix(rec.Body.String(), "error forbidden: Authentication failed:"))
	})
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"Bearer  abc", " abc", true},
		{"Bearer ", "", false},
		{"bearer abc", "", false},
		{"Token abc", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		token, ok := bearerToken(tc.header)
		assert.Equal(t, tc.ok, ok, tc.header)
		assert.Equal(t, tc.token, token, tc.header)
	}
}
