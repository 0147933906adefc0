package javascript

import (
	"slices"
	"time"

	"github.com/matzehuels/shed/pkg/deps"
)

// Strategy names.
const (
	npmListName     = "npm-list"
	packageJSONName = "package-json"
	pnpmLockName    = "pnpm-lock"
)

// Language provides the JavaScript strategies, all reporting npm records.
var Language = &deps.Language{
	Name:      "javascript",
	Ecosystem: deps.EcosystemNPM,
	Strategies: []*deps.Strategy{
		NPMList,
		PackageJSON,
		PNPMLock,
	},
}

// NPMList installs the locked tree and prints it with `npm ls`.
var NPMList = &deps.Strategy{
	Name:      npmListName,
	Ecosystem: deps.EcosystemNPM,
	Command: `npm ci --ignore-scripts --no-audit --no-fund >/dev/null 2>&1 ||
  npm install --ignore-scripts --no-audit --no-fund >/dev/null 2>&1
npm ls --json --all`,
	Manifests: []string{"package-lock.json", "npm-shrinkwrap.json"},
	Timeout:   15 * time.Minute,
	Parse:     parseNPMList,
}

// PackageJSON reads the ranges declared in package.json.
var PackageJSON = &deps.Strategy{
	Name:      packageJSONName,
	Ecosystem: deps.EcosystemNPM,
	Command:   "cat package.json",
	Manifests: []string{"package.json"},
	Unless:    []string{"package-lock.json", "npm-shrinkwrap.json", "pnpm-lock.yaml"},
	Timeout:   time.Minute,
	Parse:     parsePackageJSON,
}

// PNPMLock reads the resolved packages from pnpm-lock.yaml.
var PNPMLock = &deps.Strategy{
	Name:      pnpmLockName,
	Ecosystem: deps.EcosystemNPM,
	Command:   "cat pnpm-lock.yaml",
	Manifests: []string{"pnpm-lock.yaml"},
	Timeout:   time.Minute,
	Parse:     parsePNPMLock,
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
