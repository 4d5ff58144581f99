package discovery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agntcy/identity-service/pkg/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestA2ADiscover(t *testing.T) {
	card := `{"name":"demo"}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/.well-known/agent.json", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(card))
	}))
	defer srv.Close()

	a2a := NewA2AClient()

	document, err := a2a.Discover(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, card, string(document))
}

func TestA2ADiscover_ExplicitWellKnownURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/.well-known/agent.json", r.URL.Path)
		_, _ = w.Write([]byte(`{"name":"demo"}`))
	}))
	defer srv.Close()

	a2a := NewA2AClient()

	_, err := a2a.Discover(context.Background(), srv.URL+"/.well-known/agent.json")
	require.NoError(t, err)
}

func TestA2ADiscover_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	a2a := NewA2AClient()

	_, err := a2a.Discover(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, identity.ErrDiscovery))
}

func TestA2ADiscover_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	a2a := NewA2AClient()

	_, err := a2a.Discover(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, identity.ErrDiscovery))
}

func TestClientDiscover_A2A(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"demo"}`))
	}))
	defer srv.Close()

	c := NewClient()

	schema, err := c.Discover(context.Background(), identity.AppTypeA2AAgent, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, identity.AppTypeA2AAgent, schema.Kind)
	assert.Equal(t, `{"name":"demo"}`, string(schema.Document))
}

func TestClientDiscover_UnsupportedKind(t *testing.T) {
	c := NewClient()

	_, err := c.Discover(context.Background(), identity.AppTypeUnspecified, "http://unused")
	require.Error(t, err)
	assert.True(t, errors.Is(err, identity.ErrUnsupportedKind))
}

func TestWellKnownURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://x", "http://x/.well-known/agent.json"},
		{"http://x/", "http://x/.well-known/agent.json"},
		{"http://x/.well-known/agent.json", "http://x/.well-known/agent.json"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, wellKnownURL(tc.in))
	}
}

func TestMCPURL(t *testing.T) {
	assert.Equal(t, "http://x/mcp", mcpURL("http://x"))
	assert.Equal(t, "http://x/mcp", mcpURL("http://x/"))
	assert.Equal(t, "http://x/mcp", mcpURL("http://x/mcp"))
}
