package ruby

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	"github.com/matzehuels/shed/pkg/deps"
)

var (
	specPattern = regexp.MustCompile(`^    ([A-Za-z0-9_.-]+) \(([^)]+)\)$`)
	depPattern  = regexp.MustCompile(`^  ([A-Za-z0-9_.-]+)(!)?(?: \(.*\))?$`)
)

// parseGemfileLock reads the specs of the GEM, GIT and PATH sections.
// Gems listed under DEPENDENCIES are direct; all other specs are
// transitive. Platform suffixes ("1.15.4-x86_64-linux") are dropped so
// platform builds of one version merge into a single record.
func parseGemfileLock(out []byte) deps.ParseResult {
	var res deps.ParseResult

	type spec struct{ name, version string }
	var (
		specs   []spec
		direct  = map[string]bool{}
		section string
		inSpecs bool
	)

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \r")
		if line == "" {
			inSpecs = false
			continue
		}
		if !strings.HasPrefix(line, " ") {
			section, inSpecs = line, false
			continue
		}

		switch section {
		case "GEM", "GIT", "PATH":
			if line == "  specs:" {
				inSpecs = true
				continue
			}
			if !inSpecs || strings.HasPrefix(line, "      ") {
				continue
			}
			m := specPattern.FindStringSubmatch(line)
			if m == nil {
				res.Skip("malformed spec %q", strings.TrimSpace(line))
				continue
			}
			specs = append(specs, spec{m[1], stripPlatform(m[2])})
		case "DEPENDENCIES":
			if m := depPattern.FindStringSubmatch(line); m != nil {
				direct[strings.ToLower(m[1])] = true
			}
		}
	}

	for _, s := range specs {
		res.Add(s.name, s.version, deps.EcosystemGem, !direct[strings.ToLower(s.name)], gemfileLockName)
	}
	return res
}

func stripPlatform(version string) string {
	if i := strings.IndexByte(version, '-'); i > 0 {
		return version[:i]
	}
	return version
}
