// Package python registers the Python extraction strategies.
//
// Three strategies cover the common layouts:
//   - pipdeptree installs the project and dumps the resolved tree
//   - requirements reads requirements*.txt pins without installing
//   - poetry-lock reads poetry.lock, using pyproject.toml to mark direct deps
package python

import (
	"time"

	"github.com/matzehuels/shed/pkg/deps"
)

// Strategy names.
const (
	pipdeptreeName   = "pipdeptree"
	requirementsName = "requirements"
	poetryLockName   = "poetry-lock"
)

// Language provides the Python strategies, all reporting pip records.
var Language = &deps.Language{
	Name:      "python",
	Ecosystem: deps.EcosystemPip,
	Strategies: []*deps.Strategy{
		Pipdeptree,
		Requirements,
		PoetryLock,
	},
}

// Pipdeptree installs the declared requirements into the environment and
// prints the installed dependency tree as JSON.
var Pipdeptree = &deps.Strategy{
	Name:      pipdeptreeName,
	Ecosystem: deps.EcosystemPip,
	Command: `pip install --quiet --disable-pip-version-check pipdeptree >/dev/null 2>&1
for f in requirements*.txt; do
  [ -f "$f" ] && pip install --quiet --disable-pip-version-check -r "$f" >/dev/null 2>&1
done
if [ -f pyproject.toml ] || [ -f setup.py ]; then
  pip install --quiet --disable-pip-version-check . >/dev/null 2>&1
fi
pipdeptree --json-tree`,
	Manifests: []string{"requirements*.txt", "pyproject.toml", "setup.py"},
	Timeout:   15 * time.Minute,
	Parse:     parsePipdeptree,
}

// Requirements reads pinned and ranged requirements without installing.
var Requirements = &deps.Strategy{
	Name:      requirementsName,
	Ecosystem: deps.EcosystemPip,
	Command:   deps.ShowFiles("requirements*.txt"),
	Manifests: []string{"requirements*.txt"},
	Timeout:   time.Minute,
	Parse:     parseRequirements,
}

// PoetryLock reads the full locked closure from poetry.lock.
var PoetryLock = &deps.Strategy{
	Name:      poetryLockName,
	Ecosystem: deps.EcosystemPip,
	Command:   deps.ShowFiles("pyproject.toml", "poetry.lock"),
	Manifests: []string{"poetry.lock"},
	Timeout:   time.Minute,
	Parse:     parsePoetry,
}

func normalize(name string) string {
	return deps.NormalizeName(name, deps.EcosystemPip)
}
