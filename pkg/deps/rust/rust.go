package rust

import (
	"time"

	"github.com/matzehuels/shed/pkg/deps"
)

// Strategy names.
const (
	cargoTreeName = "cargo-tree"
	cargoLockName = "cargo-lock"
)

// Language provides the Rust strategies, all reporting cargo records.
var Language = &deps.Language{
	Name:      "rust",
	Ecosystem: deps.EcosystemCargo,
	Strategies: []*deps.Strategy{
		CargoTree,
		CargoLock,
	},
}

// CargoTree prints every normal dependency with its depth prefix.
var CargoTree = &deps.Strategy{
	Name:      cargoTreeName,
	Ecosystem: deps.EcosystemCargo,
	Command:   `cargo tree --quiet --prefix depth -e normal --workspace`,
	Manifests: []string{"Cargo.toml"},
	Timeout:   15 * time.Minute,
	Parse:     parseCargoTree,
}

// CargoLock reads the locked package set from Cargo.lock.
var CargoLock = &deps.Strategy{
	Name:      cargoLockName,
	Ecosystem: deps.EcosystemCargo,
	Command:   deps.ShowFiles("Cargo.toml", "Cargo.lock"),
	Manifests: []string{"Cargo.lock"},
	Timeout:   time.Minute,
	Parse:     parseCargoLock,
}
