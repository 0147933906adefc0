package javascript

import (
	"bytes"
	"encoding/json"

	"github.com/matzehuels/shed/pkg/deps"
)

type lsNode struct {
	Version      string                     `json:"version"`
	Missing      bool                       `json:"missing"`
	Dependencies map[string]json.RawMessage `json:"dependencies"`
}

// parseNPMList reads `npm ls --json --all`. Children of the project root
// are direct; deeper entries are transitive. Missing packages (declared but
// not installed) are skipped.
func parseNPMList(out []byte) deps.ParseResult {
	var res deps.ParseResult

	// npm may print warnings before the JSON document.
	if i := bytes.IndexByte(out, '{'); i > 0 {
		out = out[i:]
	}
	var root lsNode
	if err := json.Unmarshal(out, &root); err != nil {
		res.Skip("npm ls output is not valid JSON: %v", err)
		return res
	}
	walkLS(&res, root.Dependencies, false)
	return res
}

func walkLS(res *deps.ParseResult, children map[string]json.RawMessage, transitive bool) {
	for _, name := range sortedKeys(children) {
		var node lsNode
		if err := json.Unmarshal(children[name], &node); err != nil {
			res.Skip("%s: %v", name, err)
			continue
		}
		if node.Missing {
			res.Skip("%s: declared but not installed", name)
			continue
		}
		res.Add(name, node.Version, deps.EcosystemNPM, transitive, npmListName)
		walkLS(res, node.Dependencies, true)
	}
}
