package cache

import (
	"strings"
)

// Keyer builds cache keys.
type Keyer interface {
	// LicenseKey identifies a resolved license by ecosystem and normalized
	// package name. Versions are deliberately not part of the key.
	LicenseKey(ecosystem, name string) string
}

// DefaultKeyer produces readable keys such as "license:npm:lodash".
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LicenseKey implements Keyer.
func (DefaultKeyer) LicenseKey(ecosystem, name string) string {
	return "license:" + ecosystem + ":" + strings.ToLower(name)
}

// ScopedKeyer wraps a Keyer with a prefix so several deployments or
// research configurations can share one backend without mixing entries.
//
// Example usage:
//
//	// Licenses found by the web backend are cached apart from registry ones
//	webKeyer := NewScopedKeyer(NewDefaultKeyer(), "web:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// LicenseKey generates a prefixed license key.
func (k *ScopedKeyer) LicenseKey(ecosystem, name string) string {
	return k.prefix + k.inner.LicenseKey(ecosystem, name)
}
