// Package crates reads license metadata from crates.io.
//
// crates.io stores the SPDX expression of the Cargo.toml "license" field for
// every published version, so the lookup is version-exact when the
// dependency was resolved from a lockfile.
package crates
