package javascript

import (
	"encoding/json"

	"github.com/matzehuels/shed/pkg/deps"
)

type packageFile struct {
	Name                 string                     `json:"name"`
	Version              string                     `json:"version"`
	Dependencies         map[string]json.RawMessage `json:"dependencies"`
	DevDependencies      map[string]json.RawMessage `json:"devDependencies"`
	OptionalDependencies map[string]json.RawMessage `json:"optionalDependencies"`
}

// parsePackageJSON reports dependencies, devDependencies and
// optionalDependencies as direct records carrying the declared range.
func parsePackageJSON(out []byte) deps.ParseResult {
	var res deps.ParseResult

	var pkg packageFile
	if err := json.Unmarshal(out, &pkg); err != nil {
		res.Skip("package.json is not valid JSON: %v", err)
		return res
	}

	for _, section := range []map[string]json.RawMessage{
		pkg.Dependencies,
		pkg.DevDependencies,
		pkg.OptionalDependencies,
	} {
		for _, name := range sortedKeys(section) {
			var spec string
			if err := json.Unmarshal(section[name], &spec); err != nil {
				res.Skip("%s: version is not a string", name)
				continue
			}
			res.Add(name, spec, deps.EcosystemNPM, false, packageJSONName)
		}
	}
	return res
}
