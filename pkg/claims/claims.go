// Package claims packages a discovered capability schema into the claim
// structure the badge authority expects. Building claims is pure: no network
// calls, no state.
package claims

import (
	"encoding/base64"

	"github.com/agntcy/identity-service/pkg/identity"
)

// Body holds one claim: the capability schema, base64-encoded.
type Body struct {
	SchemaBase64 string `json:"schema_base64"`
}

// DecodeSchema returns the original schema document bytes.
func (b *Body) DecodeSchema() ([]byte, error) {
	return base64.StdEncoding.DecodeString(b.SchemaBase64)
}

// Claims maps claim kinds to their bodies. Exactly one field is populated
// per issuance, determined by the service kind.
type Claims struct {
	MCP *Body `json:"mcp,omitempty"`
	A2A *Body `json:"a2a,omitempty"`
}

// Empty reports whether no claim is populated. Empty claims must never be
// sent to the authority.
func (c Claims) Empty() bool {
	return c.MCP == nil && c.A2A == nil
}

// Build wraps the schema under the claim key matching kind.
// An unrecognized kind yields empty claims and ErrUnsupportedKind; callers
// must treat that as a hard failure, not a no-op success.
func Build(kind identity.AppType, schema []byte) (Claims, error) {
	body := &Body{SchemaBase64: base64.StdEncoding.EncodeToString(schema)}

	switch kind {
	case identity.AppTypeMCPServer:
		return Claims{MCP: body}, nil
	case identity.AppTypeA2AAgent:
		return Claims{A2A: body}, nil
	default:
		return Claims{}, identity.NewError(
			identity.ErrCodeUnsupportedKind,
			"no claims can be built for service kind %q", kind,
		)
	}
}
