package ruby

import (
	"time"

	"github.com/matzehuels/shed/pkg/deps"
)

const gemfileLockName = "gemfile-lock"

// Language provides the Ruby strategies, all reporting gem records.
var Language = &deps.Language{
	Name:      "ruby",
	Ecosystem: deps.EcosystemGem,
	Strategies: []*deps.Strategy{
		GemfileLock,
	},
}

// GemfileLock prints Gemfile.lock, asking Bundler to resolve one first when
// only a Gemfile is committed.
var GemfileLock = &deps.Strategy{
	Name:      gemfileLockName,
	Ecosystem: deps.EcosystemGem,
	Command: `[ -f Gemfile.lock ] || bundle lock >/dev/null 2>&1
cat Gemfile.lock`,
	Manifests: []string{"Gemfile", "Gemfile.lock", "gems.rb"},
	Timeout:   10 * time.Minute,
	Parse:     parseGemfileLock,
}
