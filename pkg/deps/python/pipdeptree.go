package python

import (
	"encoding/json"

	"github.com/matzehuels/shed/pkg/deps"
)

// bootstrap packages are installed to run the extractor, not by the project.
var bootstrap = map[string]bool{
	"pipdeptree": true,
	"pip":        true,
	"setuptools": true,
	"wheel":      true,
}

type treeNode struct {
	Key              string     `json:"key"`
	PackageName      string     `json:"package_name"`
	InstalledVersion string     `json:"installed_version"`
	Dependencies     []treeNode `json:"dependencies"`
}

func (n treeNode) name() string {
	if n.PackageName != "" {
		return n.PackageName
	}
	return n.Key
}

// parsePipdeptree reads `pipdeptree --json-tree`. Top-level entries are
// direct dependencies; everything below them is transitive.
func parsePipdeptree(out []byte) deps.ParseResult {
	var res deps.ParseResult

	var roots []json.RawMessage
	if err := json.Unmarshal(out, &roots); err != nil {
		res.Skip("pipdeptree output is not a JSON array: %v", err)
		return res
	}

	for i, raw := range roots {
		var node treeNode
		if err := json.Unmarshal(raw, &node); err != nil {
			res.Skip("entry %d: %v", i, err)
			continue
		}
		if bootstrap[normalize(node.name())] {
			continue
		}
		walk(&res, node, false)
	}
	return res
}

func walk(res *deps.ParseResult, node treeNode, transitive bool) {
	if node.name() == "" {
		res.Skip("entry without package name")
		return
	}
	res.Add(node.name(), node.InstalledVersion, deps.EcosystemPip, transitive, pipdeptreeName)
	for _, child := range node.Dependencies {
		walk(res, child, true)
	}
}
