// Package badge orchestrates the badge lifecycle against the authority:
// one-time issuance for a service (discover capabilities, build claims,
// register the badge), access-token acquisition for callers, and a keeper
// that re-issues badges on a schedule. Badges themselves stay opaque; all
// verification is the authority's job.
package badge

import (
	"context"

	"github.com/agntcy/identity-service/pkg/authority"
	"github.com/agntcy/identity-service/pkg/claims"
	"github.com/agntcy/identity-service/pkg/discovery"
	"github.com/agntcy/identity-service/pkg/identity"
	"go.uber.org/zap"
)

// Issuer runs the badge issuance workflow. It is executed by the service
// owner out-of-band, not per-request.
type Issuer struct {
	apps       authority.AppService
	badges     authority.BadgeService
	discoverer discovery.Discoverer
	logger     *zap.Logger
}

// IssuerOption configures an Issuer.
type IssuerOption func(*Issuer)

// WithIssuerLogger sets the logger.
func WithIssuerLogger(logger *zap.Logger) IssuerOption {
	return func(i *Issuer) {
		i.logger = logger
	}
}

// WithDiscoverer replaces the capability discoverer.
func WithDiscoverer(d discovery.Discoverer) IssuerOption {
	return func(i *Issuer) {
		i.discoverer = d
	}
}

// NewIssuer creates an Issuer on top of the authority channel.
func NewIssuer(client *authority.Client, opts ...IssuerOption) *Issuer {
	i := &Issuer{
		apps:   client.Apps(),
		badges: client.Badges(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.discoverer == nil {
		i.discoverer = discovery.NewClient(discovery.WithLogger(i.logger))
	}
	return i
}

// IssueBadgeFor issues a badge for the calling service, whose capabilities
// are served at url. The workflow:
//
//  1. fetch the calling service's own identity from the authority
//  2. discover its capability schema at url, dispatched on the declared kind
//  3. build claims from the schema
//  4. register the badge at the authority
//
// An unsupported kind fails before any issuance call reaches the authority.
// Re-running issuance for the same service reissues; no local state is kept.
func (i *Issuer) IssueBadgeFor(ctx context.Context, url string) (string, error) {
	app, err := i.apps.AppInfo(ctx)
	if err != nil {
		return "", err
	}

	i.logger.Info("issuing badge",
		zap.String("service", app.Name),
		zap.String("id", app.ID),
		zap.String("kind", string(app.Type)),
		zap.String("url", url))

	if !app.Type.Supported() {
		return "", identity.NewError(identity.ErrCodeUnsupportedKind,
			"cannot issue badge for service %q of kind %q", app.Name, app.Type)
	}

	schema, err := i.discoverer.Discover(ctx, app.Type, url)
	if err != nil {
		return "", err
	}

	built, err := claims.Build(schema.Kind, schema.Document)
	if err != nil {
		return "", err
	}
	if built.Empty() {
		// Unreachable when Build succeeded, kept as a hard guard: empty
		// claims must never reach the authority.
		return "", identity.NewError(identity.ErrCodeUnsupportedKind,
			"no claims for service %q of kind %q", app.Name, app.Type)
	}

	resp, err := i.badges.IssueBadge(ctx, &authority.IssueBadgeRequest{
		AppID:  app.ID,
		Claims: built,
	})
	if err != nil {
		return "", err
	}

	i.logger.Info("badge issued", zap.String("id", app.ID))

	return resp.Badge, nil
}

// Verify asks the authority for a verdict on a presented badge.
func (i *Issuer) Verify(ctx context.Context, badge string) (*authority.VerificationResult, error) {
	return i.badges.VerifyBadge(ctx, &authority.VerifyBadgeRequest{Badge: badge})
}
