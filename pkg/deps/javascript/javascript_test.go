package javascript

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/shed/pkg/deps"
)

type entry struct {
	Name       string
	Version    string
	Transitive bool
}

func entries(rs []deps.Record) []entry {
	out := make([]entry, len(rs))
	for i, r := range rs {
		out[i] = entry{r.Name, r.Version, r.Transitive}
	}
	return out
}

func TestParsePackageJSON_Lodash(t *testing.T) {
	res := parsePackageJSON([]byte(`{"name": "app", "dependencies": {"lodash": "^4.17.21"}}`))

	if res.Skipped != 0 {
		t.Errorf("Skipped = %d", res.Skipped)
	}
	merged := deps.Merge(res.Records)
	want := []deps.Record{{
		Name:           "lodash",
		Version:        "^4.17.21",
		Ecosystem:      deps.EcosystemNPM,
		Transitive:     false,
		SourceStrategy: "package-json",
		Status:         deps.StatusUnknown,
		EvidenceURLs:   []string{},
	}}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Errorf("records (-want +got):\n%s", diff)
	}
}

func TestParsePackageJSON_Sections(t *testing.T) {
	res := parsePackageJSON([]byte(`{
  "dependencies": {"react": "^18.2.0", "broken": 42},
  "devDependencies": {"typescript": "~5.2.0"},
  "optionalDependencies": {"fsevents": "2.3.3"}
}`))
	want := []entry{
		{"react", "^18.2.0", false},
		{"typescript", "~5.2.0", false},
		{"fsevents", "2.3.3", false},
	}
	if diff := cmp.Diff(want, entries(res.Records)); diff != "" {
		t.Errorf("records (-want +got):\n%s", diff)
	}
	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Skipped)
	}
}

func TestParsePackageJSON_Invalid(t *testing.T) {
	res := parsePackageJSON([]byte(`{"dependencies": `))
	if res.Skipped != 1 || len(res.Records) != 0 {
		t.Errorf("got %+v", res)
	}
}

func TestParseNPMList(t *testing.T) {
	out := []byte(`npm WARN config production Use --omit=dev instead.
{
  "name": "app",
  "version": "1.0.0",
  "dependencies": {
    "express": {
      "version": "4.18.2",
      "dependencies": {
        "accepts": {"version": "1.3.8", "dependencies": {"mime-types": {"version": "2.1.35"}}},
        "debug": {"version": "2.6.9"}
      }
    },
    "left-pad": {"required": "^1.3.0", "missing": true},
    "lodash": {"version": "4.17.21"}
  }
}`)
	res := parseNPMList(out)

	want := []entry{
		{"express", "4.18.2", false},
		{"accepts", "1.3.8", true},
		{"mime-types", "2.1.35", true},
		{"debug", "2.6.9", true},
		{"lodash", "4.17.21", false},
	}
	if diff := cmp.Diff(want, entries(res.Records)); diff != "" {
		t.Errorf("records (-want +got):\n%s", diff)
	}
	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Skipped)
	}
}

func TestParsePNPMLock_V6(t *testing.T) {
	out := []byte(`lockfileVersion: '6.0'
importers:
  .:
    dependencies:
      lodash:
        specifier: ^4.17.21
        version: 4.17.21
      '@babel/core':
        specifier: ^7.23.0
        version: 7.23.0(supports-color@8.1.1)
      local:
        specifier: link:../local
        version: link:../local
packages:
  /lodash@4.17.21:
    resolution: {integrity: sha512-x}
  /@babel/core@7.23.0(supports-color@8.1.1):
    resolution: {integrity: sha512-y}
  /supports-color@8.1.1:
    resolution: {integrity: sha512-z}
  /???:
    resolution: {integrity: sha512-w}
`)
	res := parsePNPMLock(out)

	want := []entry{
		{"@babel/core", "7.23.0", false},
		{"lodash", "4.17.21", false},
		{"supports-color", "8.1.1", true},
	}
	if diff := cmp.Diff(want, entries(res.Records)); diff != "" {
		t.Errorf("records (-want +got):\n%s", diff)
	}
	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1 (%v)", res.Skipped, res.Problems)
	}
}

func TestSplitPackageKey(t *testing.T) {
	tests := []struct {
		key, name, version string
	}{
		{"/lodash@4.17.21", "lodash", "4.17.21"},
		{"lodash@4.17.21", "lodash", "4.17.21"},
		{"/@babel/core@7.23.0(supports-color@8.1.1)", "@babel/core", "7.23.0"},
		{"/@babel/core/7.23.0_supports-color@8.1.1", "@babel/core", "7.23.0"},
		{"/string_decoder/1.3.0", "string_decoder", "1.3.0"},
	}
	for _, tt := range tests {
		name, version, ok := splitPackageKey(tt.key)
		if !ok || name != tt.name || version != tt.version {
			t.Errorf("splitPackageKey(%q) = %q, %q, %v", tt.key, name, version, ok)
		}
	}
}

func TestPackageJSON_SkippedWhenLockfileExists(t *testing.T) {
	dir := t.TempDir()
	write := func(name string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write("package.json")
	if got := Language.Applicable(dir); len(got) != 1 || got[0] != PackageJSON {
		t.Fatalf("without lockfile got %d strategies", len(got))
	}
	write("package-lock.json")
	if got := Language.Applicable(dir); len(got) != 1 || got[0] != NPMList {
		t.Fatalf("with lockfile got %d strategies", len(got))
	}
}
