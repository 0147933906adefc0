package python

import (
	"github.com/BurntSushi/toml"

	"github.com/matzehuels/shed/pkg/deps"
)

type lockFile struct {
	Packages []lockPackage `toml:"package"`
}

type lockPackage struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

type pyproject struct {
	Tool struct {
		Poetry struct {
			Dependencies    map[string]any `toml:"dependencies"`
			DevDependencies map[string]any `toml:"dev-dependencies"`
			Group           map[string]struct {
				Dependencies map[string]any `toml:"dependencies"`
			} `toml:"group"`
		} `toml:"poetry"`
	} `toml:"tool"`
	Project struct {
		Dependencies []string `toml:"dependencies"`
	} `toml:"project"`
}

// parsePoetry reads poetry.lock. Packages named in pyproject.toml are
// direct; every other locked package is transitive. Without a readable
// pyproject.toml all packages are reported as direct.
func parsePoetry(out []byte) deps.ParseResult {
	var res deps.ParseResult
	files := deps.SplitFiles(out)

	lockData, ok := files["poetry.lock"]
	if !ok {
		lockData = files[""]
	}
	var lock lockFile
	if err := toml.Unmarshal(lockData, &lock); err != nil {
		res.Skip("poetry.lock is not valid TOML: %v", err)
		return res
	}

	direct, known := directNames(files["pyproject.toml"])
	for i, pkg := range lock.Packages {
		if pkg.Name == "" {
			res.Skip("package %d has no name", i)
			continue
		}
		transitive := known && !direct[normalize(pkg.Name)]
		res.Add(pkg.Name, pkg.Version, deps.EcosystemPip, transitive, poetryLockName)
	}
	return res
}

func directNames(data []byte) (map[string]bool, bool) {
	if len(data) == 0 {
		return nil, false
	}
	var p pyproject
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, false
	}

	direct := make(map[string]bool)
	add := func(m map[string]any) {
		for name := range m {
			if name != "python" {
				direct[normalize(name)] = true
			}
		}
	}
	add(p.Tool.Poetry.Dependencies)
	add(p.Tool.Poetry.DevDependencies)
	for _, g := range p.Tool.Poetry.Group {
		add(g.Dependencies)
	}
	for _, req := range p.Project.Dependencies {
		if name, _, ok := parseRequirement(req); ok {
			direct[normalize(name)] = true
		}
	}
	return direct, true
}
