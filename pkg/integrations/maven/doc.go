// Package maven reads license metadata from Maven Central.
//
// Artifacts are identified by "groupId:artifactId" coordinates. Licenses
// come from the <licenses> block of the artifact's POM, falling back to its
// parent POMs.
package maven
