// Package agentcard models the A2A agent card: the public descriptor an A2A
// agent serves at its well-known URL. The SDK uses it in two places: badge
// issuance embeds the raw card document into claims, and the request gate
// validates the card's declared security schemes before serving.
package agentcard

import "encoding/json"

// WellKnownPath is where an A2A agent serves its card.
const WellKnownPath = "/.well-known/agent.json"

// Card is the subset of the A2A agent card the SDK reads.
// Unknown fields are preserved only in the raw document, never here.
type Card struct {
	ProtocolVersion string                    `json:"protocolVersion,omitempty"`
	Name            string                    `json:"name"`
	Description     string                    `json:"description,omitempty"`
	URL             string                    `json:"url"`
	Version         string                    `json:"version,omitempty"`
	Capabilities    Capabilities              `json:"capabilities,omitempty"`
	SecuritySchemes map[string]SecurityScheme `json:"securitySchemes,omitempty"`
	Security        []map[string][]string     `json:"security,omitempty"`
	Skills          []Skill                   `json:"skills,omitempty"`
}

// Capabilities lists the optional A2A features the agent supports.
type Capabilities struct {
	Streaming         bool `json:"streaming,omitempty"`
	PushNotifications bool `json:"pushNotifications,omitempty"`
}

// SecurityScheme declares one accepted authentication mechanism.
// The request gate only accepts http/bearer schemes with JWT format.
type SecurityScheme struct {
	// Type is the scheme category, e.g. "http", "apiKey", "openIdConnect".
	Type string `json:"type"`

	// Scheme is the HTTP auth scheme name when Type is "http".
	Scheme string `json:"scheme,omitempty"`

	// BearerFormat hints the bearer token format, e.g. "JWT".
	BearerFormat string `json:"bearerFormat,omitempty"`

	// OpenIDConnectURL is set for openIdConnect schemes.
	OpenIDConnectURL string `json:"openIdConnectUrl,omitempty"`
}

// Skill describes one capability the agent advertises.
type Skill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Parse decodes a raw agent card document.
func Parse(document []byte) (*Card, error) {
	var card Card
	if err := json.Unmarshal(document, &card); err != nil {
		return nil, err
	}
	return &card, nil
}
