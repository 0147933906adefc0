package rust

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/shed/pkg/deps"
)

type entry struct {
	Name       string
	Version    string
	Transitive bool
}

func entries(records []deps.Record) []entry {
	var out []entry
	for _, r := range deps.Merge(records) {
		out = append(out, entry{r.Name, r.Version, r.Transitive})
	}
	return out
}

func TestParseCargoTree(t *testing.T) {
	out := []byte(`0app v0.1.0 (/work)
1serde v1.0.193
2serde_derive v1.0.193 (proc-macro)
1tokio v1.35.0
2bytes v1.5.0
2mio v0.8.10
1local-util v0.1.0 (/work/crates/local-util)
2bytes v1.5.0
1git-dep v0.2.0 (https://github.com/example/git-dep#abcdef)
1broken
warning: unused manifest key
`)
	res := parseCargoTree(out)

	want := []entry{
		{"bytes", "1.5.0", true},
		{"git-dep", "0.2.0", false},
		{"mio", "0.8.10", true},
		{"serde", "1.0.193", false},
		{"serde_derive", "1.0.193", true},
		{"tokio", "1.35.0", false},
	}
	if diff := cmp.Diff(want, entries(res.Records)); diff != "" {
		t.Errorf("records (-want +got):\n%s", diff)
	}
	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1 (%v)", res.Skipped, res.Problems)
	}
}

func TestParseCargoLock(t *testing.T) {
	out := []byte(`==> Cargo.toml <==
[package]
name = "app"
version = "0.1.0"

[dependencies]
serde = { version = "1", features = ["derive"] }
json = { package = "serde_json", version = "1" }

[target.'cfg(unix)'.dependencies]
libc = "0.2"

==> Cargo.lock <==
version = 3

[[package]]
name = "app"
version = "0.1.0"

[[package]]
name = "libc"
version = "0.2.151"
source = "registry+https://github.com/rust-lang/crates.io-index"

[[package]]
name = "serde"
version = "1.0.193"
source = "registry+https://github.com/rust-lang/crates.io-index"

[[package]]
name = "serde_derive"
version = "1.0.193"
source = "registry+https://github.com/rust-lang/crates.io-index"

[[package]]
name = "serde_json"
version = "1.0.108"
source = "registry+https://github.com/rust-lang/crates.io-index"
`)
	res := parseCargoLock(out)

	want := []entry{
		{"libc", "0.2.151", false},
		{"serde", "1.0.193", false},
		{"serde_derive", "1.0.193", true},
		{"serde_json", "1.0.108", false},
	}
	if diff := cmp.Diff(want, entries(res.Records)); diff != "" {
		t.Errorf("records (-want +got):\n%s", diff)
	}
}

func TestParseCargoLock_WithoutManifest(t *testing.T) {
	out := []byte(`[[package]]
name = "rand"
version = "0.8.5"
source = "registry+https://github.com/rust-lang/crates.io-index"
`)
	got := entries(parseCargoLock(out).Records)
	want := []entry{{"rand", "0.8.5", false}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records (-want +got):\n%s", diff)
	}
}

func TestParseCargoLock_Invalid(t *testing.T) {
	res := parseCargoLock([]byte("[[package]\nname ="))
	if res.Skipped != 1 || len(res.Records) != 0 {
		t.Errorf("got %+v", res)
	}
}
