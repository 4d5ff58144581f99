package badge

import (
	"encoding/json"

	"github.com/agntcy/identity-service/pkg/identity"
	"github.com/go-jose/go-jose/v4"
)

// inspectAlgorithms are the envelope algorithms Inspect will parse. Parsing
// is structural only; no key is involved.
var inspectAlgorithms = []jose.SignatureAlgorithm{
	jose.EdDSA, jose.ES256, jose.ES384, jose.RS256,
}

// Inspect decodes the payload of a compact JWS badge WITHOUT verifying its
// signature. It exists for operator tooling only; the request path must
// always use the authority's VerifyBadge for a verdict.
func Inspect(badge string) (map[string]any, error) {
	jws, err := jose.ParseSigned(badge, inspectAlgorithms)
	if err != nil {
		return nil, identity.WrapError(identity.ErrCodeAuthority, err,
			"badge is not a compact JWS envelope")
	}

	payload := jws.UnsafePayloadWithoutVerification()

	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, identity.WrapError(identity.ErrCodeAuthority, err,
			"badge payload is not a JSON document")
	}

	return decoded, nil
}
