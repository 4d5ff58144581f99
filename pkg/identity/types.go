// Package identity defines the shared types and error taxonomy for the
// Agntcy Identity Service SDK: the registered agentic service (App), its
// declared kind, and the coded errors every component reports with.
package identity

// AppType enumerates the kinds of agentic services the authority knows about.
type AppType string

const (
	// AppTypeUnspecified is the zero value; issuance rejects it.
	AppTypeUnspecified AppType = "APP_TYPE_UNSPECIFIED"

	// AppTypeA2AAgent is an A2A agent exposing a well-known agent card.
	AppTypeA2AAgent AppType = "APP_TYPE_AGENT_A2A"

	// AppTypeMCPServer is an MCP server exposing a tool/resource listing.
	AppTypeMCPServer AppType = "APP_TYPE_MCP_SERVER"
)

// Supported reports whether badges can be issued for this kind of service.
func (t AppType) Supported() bool {
	return t == AppTypeA2AAgent || t == AppTypeMCPServer
}

// App is one agentic service registered with the badge authority.
// It is fetched from the authority and never mutated locally.
type App struct {
	// ID is the opaque, authority-assigned identifier.
	ID string `json:"id"`

	// Name is the human-readable service name.
	Name string `json:"name"`

	// Type is the declared service kind.
	Type AppType `json:"type"`

	// ResolverMetadataID identifies the service in authorization requests.
	// May equal ID when the authority does not distinguish the two.
	ResolverMetadataID string `json:"resolverMetadataId,omitempty"`
}
