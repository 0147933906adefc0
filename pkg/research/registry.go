package research

import (
	"context"
	"errors"
	"fmt"

	"github.com/matzehuels/shed/pkg/deps"
	"github.com/matzehuels/shed/pkg/integrations"
	"github.com/matzehuels/shed/pkg/integrations/crates"
	"github.com/matzehuels/shed/pkg/integrations/maven"
	"github.com/matzehuels/shed/pkg/integrations/npm"
	"github.com/matzehuels/shed/pkg/integrations/pypi"
	"github.com/matzehuels/shed/pkg/integrations/rubygems"
)

// LicenseFetcher is implemented by the registry clients in
// pkg/integrations.
type LicenseFetcher interface {
	FetchLicense(ctx context.Context, name, version string) (*integrations.PackageLicense, error)
}

// Registry asks the package registry of each ecosystem for the license
// declared in package metadata.
type Registry struct {
	fetchers map[deps.Ecosystem]LicenseFetcher
}

// NewRegistry returns a Registry backed by the public registries.
func NewRegistry() *Registry {
	return NewRegistryWith(map[deps.Ecosystem]LicenseFetcher{
		deps.EcosystemNPM:   npm.NewClient(),
		deps.EcosystemPip:   pypi.NewClient(),
		deps.EcosystemCargo: crates.NewClient(),
		deps.EcosystemGem:   rubygems.NewClient(),
		deps.EcosystemMaven: maven.NewClient(),
	})
}

// NewRegistryWith returns a Registry using the given fetchers.
func NewRegistryWith(fetchers map[deps.Ecosystem]LicenseFetcher) *Registry {
	return &Registry{fetchers: fetchers}
}

// Research implements Backend. Unknown packages fail permanently with
// integrations.ErrNotFound in the chain.
func (r *Registry) Research(ctx context.Context, q Query) (*Findings, error) {
	f, ok := r.fetchers[q.Ecosystem]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSource, q.Ecosystem)
	}
	info, err := f.FetchLicense(ctx, q.Name, q.Version)
	if err != nil {
		return nil, err
	}

	text := ""
	if info.License != "" {
		text = fmt.Sprintf("%s %s declares license: %s", info.Name, info.Version, info.License)
	}
	return &Findings{
		Text:    text,
		URLs:    info.URLs,
		License: info.License,
		Source:  "registry",
	}, nil
}

// IsNotFound reports whether err means the package does not exist at the
// source, as opposed to a failed lookup.
func IsNotFound(err error) bool {
	return errors.Is(err, integrations.ErrNotFound) || errors.Is(err, ErrNoSource)
}
