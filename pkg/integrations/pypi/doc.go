// Package pypi reads license metadata from the Python Package Index.
//
// # License Fields
//
// PyPI exposes licensing in three places of varying quality: the PEP 639
// license_expression, trove classifiers, and the free-form license field
// which some projects fill with the whole license text. [Client.FetchLicense]
// prefers them in that order.
//
// Package names are normalized following PEP 503 before the lookup.
package pypi
