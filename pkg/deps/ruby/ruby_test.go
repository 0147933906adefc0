package ruby

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/shed/pkg/deps"
)

func TestParseGemfileLock(t *testing.T) {
	out := []byte(`GIT
  remote: https://github.com/example/private_gem.git
  revision: abc123
  specs:
    private_gem (0.3.0)

GEM
  remote: https://rubygems.org/
  specs:
    actionpack (7.1.2)
      rack (>= 2.2.4)
    nokogiri (1.15.4-x86_64-linux)
      racc (~> 1.4)
    nokogiri (1.15.4-arm64-darwin)
      racc (~> 1.4)
    rack (3.0.8)
    racc (1.7.3)
    broken entry here

PLATFORMS
  x86_64-linux

DEPENDENCIES
  actionpack (~> 7.1)
  nokogiri
  private_gem!

BUNDLED WITH
   2.4.21
`)
	res := parseGemfileLock(out)

	type entry struct {
		Name       string
		Version    string
		Transitive bool
	}
	var got []entry
	for _, r := range deps.Merge(res.Records) {
		got = append(got, entry{r.Name, r.Version, r.Transitive})
		if r.Ecosystem != deps.EcosystemGem {
			t.Errorf("%s ecosystem = %s", r.Name, r.Ecosystem)
		}
	}
	want := []entry{
		{"actionpack", "7.1.2", false},
		{"nokogiri", "1.15.4", false},
		{"private_gem", "0.3.0", false},
		{"racc", "1.7.3", true},
		{"rack", "3.0.8", true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records (-want +got):\n%s", diff)
	}
	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1 (%v)", res.Skipped, res.Problems)
	}
}

func TestParseGemfileLock_Empty(t *testing.T) {
	res := parseGemfileLock([]byte("cat: Gemfile.lock: No such file or directory\n"))
	if len(res.Records) != 0 || res.Skipped != 0 {
		t.Errorf("got %+v", res)
	}
}
