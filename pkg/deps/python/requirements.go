package python

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	"github.com/matzehuels/shed/pkg/deps"
)

var (
	reqNameRE = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)\s*(\[[^\]]*\])?\s*(.*)$`)
	specRE    = regexp.MustCompile(`^(===|==|~=|!=|<=|>=|<|>)\s*\S`)
)

// parseRequirements reads requirements files. An exact pin (==) yields the
// bare version, any other specifier is kept verbatim, and a bare name has
// an unknown version. Options, includes and URL requirements are ignored.
func parseRequirements(out []byte) deps.ParseResult {
	var res deps.ParseResult

	for _, content := range deps.SplitFiles(out) {
		scanner := bufio.NewScanner(bytes.NewReader(content))
		for scanner.Scan() {
			line := stripComment(scanner.Text())
			if line == "" || line[0] == '-' {
				continue
			}
			if strings.HasPrefix(line, "git+") || (strings.Contains(line, "://") && !strings.Contains(line, " @ ")) {
				continue
			}
			name, version, ok := parseRequirement(line)
			if !ok {
				res.Skip("unparseable requirement %q", line)
				continue
			}
			res.Add(name, version, deps.EcosystemPip, false, requirementsName)
		}
	}
	return res
}

// parseRequirement splits "name[extras] spec ; marker" into name and version.
func parseRequirement(line string) (name, version string, ok bool) {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	if i := strings.Index(line, " @ "); i >= 0 {
		// direct reference: name @ url
		return strings.TrimSpace(line[:i]), "", true
	}
	m := reqNameRE.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	name, spec := m[1], strings.TrimSpace(m[3])
	if spec == "" {
		return name, "", true
	}
	spec = strings.ReplaceAll(spec, " ", "")
	if !specRE.MatchString(spec) {
		return "", "", false
	}
	if strings.HasPrefix(spec, "==") && !strings.HasPrefix(spec, "===") && !strings.ContainsAny(spec[2:], ",*") {
		return name, spec[2:], true
	}
	return name, spec, true
}

func stripComment(line string) string {
	if i := strings.Index(line, " #"); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "#") {
		return ""
	}
	return line
}
