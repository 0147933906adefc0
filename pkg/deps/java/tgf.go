package java

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/matzehuels/shed/pkg/deps"
)

// parseTGF reads Trivial Graph Format output of dependency:tree. Each
// module contributes a node section, a "#" separator and an edge section;
// with -DappendOutput several modules follow each other. The first node of
// a section is the module itself. Nodes reached by an edge from it are
// direct, all others transitive. Test-scoped artifacts are left out.
func parseTGF(out []byte) deps.ParseResult {
	var res deps.ParseResult

	type node struct {
		label string
		root  bool
	}
	var (
		order  []string
		nodes  = map[string]node{}
		direct = map[string]bool{}
		roots  = map[string]bool{}
		inEdge bool
		root   string
	)

	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "#" {
			inEdge = true
			continue
		}
		fields := strings.Fields(line)
		if inEdge && len(fields) == 2 && strings.Contains(fields[1], ":") {
			inEdge, root = false, ""
		}
		if inEdge {
			if len(fields) < 2 {
				res.Skip("malformed edge %q", line)
				continue
			}
			if roots[fields[0]] {
				direct[fields[1]] = true
			}
			continue
		}
		if len(fields) != 2 {
			res.Skip("malformed node %q", line)
			continue
		}
		id := fields[0]
		if root == "" {
			root = id
			roots[id] = true
			nodes[id] = node{label: fields[1], root: true}
			continue
		}
		if _, seen := nodes[id]; !seen {
			order = append(order, id)
		}
		nodes[id] = node{label: fields[1]}
	}

	for _, id := range order {
		n := nodes[id]
		if n.root || roots[id] {
			continue
		}
		name, version, scope, ok := parseArtifact(n.label)
		if !ok {
			res.Skip("malformed artifact %q", n.label)
			continue
		}
		if scope == "test" {
			continue
		}
		res.Add(name, version, deps.EcosystemMaven, !direct[id], mavenTGFName)
	}
	return res
}

// parseArtifact splits "group:artifact:type[:classifier]:version:scope".
func parseArtifact(label string) (name, version, scope string, ok bool) {
	parts := strings.Split(label, ":")
	switch len(parts) {
	case 5:
		return coordinate(parts[0], parts[1]), parts[3], parts[4], parts[0] != "" && parts[1] != ""
	case 6:
		return coordinate(parts[0], parts[1]), parts[4], parts[5], parts[0] != "" && parts[1] != ""
	default:
		return "", "", "", false
	}
}
