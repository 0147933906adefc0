// Package integrations provides HTTP clients for package registry APIs.
//
// # Overview
//
// Each registry has its own subpackage exposing FetchLicense, which returns
// the license a package declares together with evidence URLs:
//
//   - [pypi]: Python Package Index
//   - [npm]: Node Package Manager
//   - [crates]: Rust crates.io
//   - [rubygems]: Ruby gems
//   - [maven]: Java Maven Central
//
// [github] is not a registry: its FetchLicense takes an owner and repository
// and returns the license GitHub detected for the source repository a
// registry links to.
//
// # Errors
//
// Clients return [ErrNotFound] for unknown packages and [ErrNetwork] for
// transport failures and unexpected statuses. Network failures, 5xx and 429
// responses are additionally wrapped in [httputil.RetryableError] so the
// license resolver can retry them with backoff. Caching happens above this
// layer, keyed by package identity.
//
// [pypi]: github.com/matzehuels/shed/pkg/integrations/pypi
// [npm]: github.com/matzehuels/shed/pkg/integrations/npm
// [crates]: github.com/matzehuels/shed/pkg/integrations/crates
// [rubygems]: github.com/matzehuels/shed/pkg/integrations/rubygems
// [maven]: github.com/matzehuels/shed/pkg/integrations/maven
// [github]: github.com/matzehuels/shed/pkg/integrations/github
// [httputil.RetryableError]: github.com/matzehuels/shed/pkg/httputil.RetryableError
package integrations
