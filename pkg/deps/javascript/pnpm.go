package javascript

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/shed/pkg/deps"
)

type pnpmLock struct {
	Importers       map[string]pnpmImporter `yaml:"importers"`
	Dependencies    map[string]yaml.Node    `yaml:"dependencies"`
	DevDependencies map[string]yaml.Node    `yaml:"devDependencies"`
	Packages        map[string]yaml.Node    `yaml:"packages"`
}

type pnpmImporter struct {
	Dependencies         map[string]yaml.Node `yaml:"dependencies"`
	DevDependencies      map[string]yaml.Node `yaml:"devDependencies"`
	OptionalDependencies map[string]yaml.Node `yaml:"optionalDependencies"`
}

// parsePNPMLock reads pnpm-lock.yaml (lockfile v5 through v9). Packages
// referenced by an importer, or by the top-level maps of older lockfiles,
// are direct; all other entries under packages are transitive.
func parsePNPMLock(out []byte) deps.ParseResult {
	var res deps.ParseResult

	var lock pnpmLock
	if err := yaml.Unmarshal(out, &lock); err != nil {
		res.Skip("pnpm-lock.yaml is not valid YAML: %v", err)
		return res
	}

	direct := make(map[string]bool)
	collect := func(m map[string]yaml.Node) {
		for name, node := range m {
			if v := importerVersion(node); v != "" {
				direct[name+"@"+v] = true
			}
		}
	}
	collect(lock.Dependencies)
	collect(lock.DevDependencies)
	for _, imp := range lock.Importers {
		collect(imp.Dependencies)
		collect(imp.DevDependencies)
		collect(imp.OptionalDependencies)
	}

	for _, key := range sortedKeys(lock.Packages) {
		name, version, ok := splitPackageKey(key)
		if !ok {
			res.Skip("unrecognized package key %q", key)
			continue
		}
		res.Add(name, version, deps.EcosystemNPM, !direct[name+"@"+version], pnpmLockName)
	}
	return res
}

// importerVersion reads either the v5 scalar form ("4.17.21") or the v6+
// mapping form ({specifier: ^4.17.21, version: 4.17.21}).
func importerVersion(node yaml.Node) string {
	var v string
	switch node.Kind {
	case yaml.ScalarNode:
		v = node.Value
	case yaml.MappingNode:
		var m struct {
			Version string `yaml:"version"`
		}
		if err := node.Decode(&m); err != nil {
			return ""
		}
		v = m.Version
	}
	if strings.HasPrefix(v, "link:") || strings.HasPrefix(v, "file:") {
		return ""
	}
	return stripPeerSuffix(v)
}

// splitPackageKey parses "/lodash@4.17.21", "lodash@4.17.21",
// "/@babel/core@7.23.0(supports-color@8.1.1)" and the v5 form
// "/@babel/core/7.23.0_supports-color@8.1.1".
func splitPackageKey(key string) (name, version string, ok bool) {
	s := strings.TrimPrefix(key, "/")
	if i := strings.IndexByte(s, '('); i >= 0 {
		s = s[:i]
	}

	parts := strings.Split(s, "/")
	nameParts := 1
	if strings.HasPrefix(s, "@") {
		nameParts = 2
	}
	if len(parts) == nameParts+1 && startsWithDigit(parts[nameParts]) {
		name = strings.Join(parts[:nameParts], "/")
		version = stripPeerSuffix(parts[nameParts])
	} else if i := strings.LastIndex(s, "@"); i > 0 {
		name, version = s[:i], stripPeerSuffix(s[i+1:])
	}
	if name == "" || version == "" {
		return "", "", false
	}
	return name, version, true
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

func stripPeerSuffix(v string) string {
	if i := strings.IndexByte(v, '('); i >= 0 {
		v = v[:i]
	}
	if i := strings.IndexByte(v, '_'); i >= 0 {
		v = v[:i]
	}
	return v
}
