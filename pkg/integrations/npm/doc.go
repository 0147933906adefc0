// Package npm reads license metadata from the npm registry.
//
// The registry document of a package lists every published version. The
// license is taken from the requested version when it exists, otherwise
// from the dist-tags latest version, and accepts the SPDX string form, the
// {"type": ...} object form and the deprecated "licenses" array.
package npm
