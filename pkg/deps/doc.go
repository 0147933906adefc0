// Package deps defines the canonical dependency model and the registry of
// extraction strategies.
//
// # Records
//
// Every extractor, whatever tool produced its output, is reduced to a list
// of [Record] values. A record is identified by its [Key]: the package name
// normalized for its [Ecosystem]. Records with the same key but different
// versions are kept side by side as variants.
//
// [Merge] folds records from any number of extraction passes into one
// canonical, sorted list. The result does not depend on the order in which
// the inputs arrive:
//
//	merged := deps.Merge(fromPipdeptree, fromRequirements)
//
// # Strategies
//
// A [Strategy] names one way of listing a language's dependencies: the
// shell command that runs inside the isolated environment, the manifest
// files that must exist for it to apply, and the [ParseFunc] that turns its
// stdout into records. Strategies are grouped by [Language] and looked up
// through a [Registry], which is built once and never changes.
//
// Language-specific strategies live in subpackages (python, javascript,
// java, ruby, rust); the languages package assembles the default registry.
package deps
