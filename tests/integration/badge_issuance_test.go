package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agntcy/identity-service/pkg/authority"
	"github.com/agntcy/identity-service/pkg/badge"
	"github.com/agntcy/identity-service/pkg/identity"
)

func newClient(t *testing.T, f *fakeAuthority) *authority.Client {
	t.Helper()
	client, err := authority.NewClient(f.URL(), authority.WithAPIKey("test-key"))
	require.NoError(t, err)
	return client
}

func TestBadgeIssuance_A2AEndToEnd(t *testing.T) {
	cardJSON := `{
		"name": "Weather Agent",
		"url": "https://weather.example.com",
		"securitySchemes": {
			"bearer": {"type": "http", "scheme": "bearer", "bearerFormat": "JWT"}
		},
		"skills": [{"id": "get_weather", "name": "Get Weather"}]
	}`

	agent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/agent.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(cardJSON))
	}))
	defer agent.Close()

	auth := newFakeAuthority(identity.App{
		ID:   "app-1",
		Name: "Weather Agent",
		Type: identity.AppTypeA2AAgent,
	})
	defer auth.Close()

	issuer := badge.NewIssuer(newClient(t, auth))
	issued, err := issuer.IssueBadgeFor(context.Background(), agent.URL)
	require.NoError(t, err)
	assert.NotEmpty(t, issued)

	// The claims carry the agent card exactly as served.
	issuedClaims := auth.issuedClaims(0)
	require.NotNil(t, issuedClaims.A2A)
	assert.Nil(t, issuedClaims.MCP)

	document, err := issuedClaims.A2A.DecodeSchema()
	require.NoError(t, err)
	assert.JSONEq(t, cardJSON, string(document))

	// The issued badge verifies.
	result, err := issuer.Verify(context.Background(), issued)
	require.NoError(t, err)
	assert.True(t, result.Valid)

	// A stale badge does not.
	result, err = issuer.Verify(context.Background(), "badge-stale")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, "unknown badge", result.Reason)
}

func TestBadgeIssuance_UnsupportedKind(t *testing.T) {
	auth := newFakeAuthority(identity.App{
		ID:   "app-2",
		Name: "OASF Thing",
		Type: identity.AppTypeUnspecified,
	})
	defer auth.Close()

	issuer := badge.NewIssuer(newClient(t, auth))
	_, err := issuer.IssueBadgeFor(context.Background(), "http://unreachable.invalid")
	require.Error(t, err)
	assert.ErrorIs(t, err, identity.ErrUnsupportedKind)

	// Nothing was issued.
	auth.mu.Lock()
	defer auth.mu.Unlock()
	assert.Empty(t, auth.issued)
}

func TestBadgeIssuance_DiscoveryFailure(t *testing.T) {
	agent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer agent.Close()

	auth := newFakeAuthority(identity.App{
		ID:   "app-3",
		Name: "Broken Agent",
		Type: identity.AppTypeA2AAgent,
	})
	defer auth.Close()

	issuer := badge.NewIssuer(newClient(t, auth))
	_, err := issuer.IssueBadgeFor(context.Background(), agent.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, identity.ErrDiscovery)

	auth.mu.Lock()
	defer auth.mu.Unlock()
	assert.Empty(t, auth.issued)
}

func TestBadgeIssuance_ClaimsWireShape(t *testing.T) {
	agent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"name":"A","url":"https://a.example"}`))
	}))
	defer agent.Close()

	auth := newFakeAuthority(identity.App{ID: "app-4", Type: identity.AppTypeA2AAgent})
	defer auth.Close()

	_, err := badge.NewIssuer(newClient(t, auth)).IssueBadgeFor(context.Background(), agent.URL)
	require.NoError(t, err)

	// The wire shape is {"a2a":{"schema_base64":...}}.
	raw, err := json.Marshal(auth.issuedClaims(0))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"a2a"`)
	assert.Contains(t, string(raw), `"schema_base64"`)
	assert.NotContains(t, string(raw), `"mcp"`)
}
