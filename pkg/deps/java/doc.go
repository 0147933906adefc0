// Package java registers the JVM extraction strategies.
//
// Maven projects are listed with `mvn dependency:tree` in TGF form, Gradle
// projects with the `dependencies` task. pom-xml reads direct dependencies
// from pom.xml without running Maven. All records use the maven ecosystem
// and "groupId:artifactId" names.
package java
