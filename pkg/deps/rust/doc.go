// Package rust registers the Cargo extraction strategies.
//
// cargo-tree asks Cargo for the resolved normal-dependency graph and so
// needs a toolchain in the sandbox image. cargo-lock reads Cargo.lock
// directly and works without one.
package rust
