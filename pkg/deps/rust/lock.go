package rust

import (
	"github.com/BurntSushi/toml"

	"github.com/matzehuels/shed/pkg/deps"
)

type cargoLock struct {
	Packages []struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
		Source  string `toml:"source"`
	} `toml:"package"`
}

type cargoManifest struct {
	Dependencies map[string]any `toml:"dependencies"`
	Workspace    struct {
		Dependencies map[string]any `toml:"dependencies"`
	} `toml:"workspace"`
	Target map[string]struct {
		Dependencies map[string]any `toml:"dependencies"`
	} `toml:"target"`
}

// parseCargoLock reads Cargo.lock. Packages without a source are
// workspace members and are not reported. Crates declared in Cargo.toml
// are direct; when Cargo.toml is missing every crate is reported direct.
func parseCargoLock(out []byte) deps.ParseResult {
	var res deps.ParseResult
	files := deps.SplitFiles(out)

	data, ok := files["Cargo.lock"]
	if !ok {
		data = files[""]
	}
	var lock cargoLock
	if err := toml.Unmarshal(data, &lock); err != nil {
		res.Skip("Cargo.lock is not valid TOML: %v", err)
		return res
	}

	direct, known := declaredCrates(files["Cargo.toml"])
	for i, pkg := range lock.Packages {
		if pkg.Name == "" {
			res.Skip("package %d has no name", i)
			continue
		}
		if pkg.Source == "" {
			continue
		}
		res.Add(pkg.Name, pkg.Version, deps.EcosystemCargo, known && !direct[pkg.Name], cargoLockName)
	}
	return res
}

// declaredCrates returns the crate names declared in a manifest, resolving
// `alias = { package = "real" }` renames to the real crate name.
func declaredCrates(data []byte) (map[string]bool, bool) {
	if len(data) == 0 {
		return nil, false
	}
	var m cargoManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, false
	}

	names := make(map[string]bool)
	add := func(table map[string]any) {
		for key, spec := range table {
			name := key
			if t, ok := spec.(map[string]any); ok {
				if pkg, ok := t["package"].(string); ok && pkg != "" {
					name = pkg
				}
			}
			names[name] = true
		}
	}
	add(m.Dependencies)
	add(m.Workspace.Dependencies)
	for _, t := range m.Target {
		add(t.Dependencies)
	}
	return names, true
}
