package java

import (
	"encoding/xml"
	"strings"

	"github.com/matzehuels/shed/pkg/deps"
)

type pomProject struct {
	GroupID      string          `xml:"groupId"`
	ArtifactID   string          `xml:"artifactId"`
	Version      string          `xml:"version"`
	Parent       *pomParent      `xml:"parent"`
	Properties   pomProperties   `xml:"properties"`
	Dependencies []pomDependency `xml:"dependencies>dependency"`
	Managed      []pomDependency `xml:"dependencyManagement>dependencies>dependency"`
}

type pomParent struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

type pomProperties struct {
	Entries []pomProperty `xml:",any"`
}

type pomProperty struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type pomDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	Scope      string `xml:"scope"`
	Optional   string `xml:"optional"`
}

// parsePOM reads direct dependencies from pom.xml. Versions are resolved
// from <properties> and <dependencyManagement> when possible; anything left
// unresolved is reported as unknown. Test-scoped dependencies are left out.
func parsePOM(out []byte) deps.ParseResult {
	var res deps.ParseResult

	var pom pomProject
	if err := xml.Unmarshal(out, &pom); err != nil {
		res.Skip("pom.xml is not valid XML: %v", err)
		return res
	}

	props := map[string]string{
		"project.version": pom.Version,
		"version":         pom.Version,
	}
	if pom.Parent != nil {
		props["project.parent.version"] = pom.Parent.Version
		if pom.Version == "" {
			props["project.version"] = pom.Parent.Version
		}
	}
	for _, p := range pom.Properties.Entries {
		props[p.XMLName.Local] = strings.TrimSpace(p.Value)
	}

	managed := make(map[string]string)
	for _, d := range pom.Managed {
		managed[coordinate(d.GroupID, d.ArtifactID)] = d.Version
	}

	for _, d := range pom.Dependencies {
		if d.Scope == "test" {
			continue
		}
		group, artifact := expand(d.GroupID, props), expand(d.ArtifactID, props)
		if group == "" || artifact == "" || unresolved(group) || unresolved(artifact) {
			res.Skip("dependency without resolvable coordinates %s:%s", d.GroupID, d.ArtifactID)
			continue
		}
		name := coordinate(group, artifact)
		version := d.Version
		if version == "" {
			version = managed[name]
		}
		version = expand(version, props)
		if unresolved(version) {
			version = ""
		}
		res.Add(name, version, deps.EcosystemMaven, false, pomXMLName)
	}
	return res
}

// expand substitutes ${name} references, following chains a few levels.
func expand(s string, props map[string]string) string {
	s = strings.TrimSpace(s)
	for range 5 {
		start := strings.Index(s, "${")
		if start < 0 {
			return s
		}
		end := strings.IndexByte(s[start:], '}')
		if end < 0 {
			return s
		}
		key := s[start+2 : start+end]
		val, ok := props[key]
		if !ok || val == "" {
			return s
		}
		s = s[:start] + val + s[start+end+1:]
	}
	return s
}

func unresolved(s string) bool {
	return strings.Contains(s, "${")
}
