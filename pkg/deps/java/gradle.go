package java

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/matzehuels/shed/pkg/deps"
)

// treeMarkers precede every dependency line of `gradle dependencies`.
var treeMarkers = []string{"+--- ", "\\--- "}

// parseGradle reads the ASCII tree printed by the Gradle dependencies task.
// Depth is derived from the column of the branch marker; depth zero is a
// direct dependency. Conflict resolution arrows ("1.0 -> 1.2") report the
// selected version. Project dependencies are internal and left out.
func parseGradle(out []byte) deps.ParseResult {
	var res deps.ParseResult

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		col, marker := -1, ""
		for _, m := range treeMarkers {
			if i := strings.Index(line, m); i >= 0 && (col < 0 || i < col) {
				col, marker = i, m
			}
		}
		if col < 0 {
			continue
		}
		spec := strings.TrimSpace(line[col+len(marker):])
		if strings.HasPrefix(spec, "project ") {
			continue
		}
		name, version, ok := parseGradleSpec(spec)
		if !ok {
			res.Skip("malformed dependency %q", spec)
			continue
		}
		res.Add(name, version, deps.EcosystemMaven, col > 0, gradleDepsName)
	}
	return res
}

// parseGradleSpec handles "g:a:v", "g:a:v -> v2", "g:a -> v" and
// "g:a:{strictly 1.0} -> 1.0", with optional (*), (c), (n) suffixes.
func parseGradleSpec(spec string) (name, version string, ok bool) {
	for _, suffix := range []string{" (*)", " (c)", " (n)"} {
		spec = strings.TrimSuffix(spec, suffix)
	}
	var selected string
	if i := strings.Index(spec, " -> "); i >= 0 {
		selected = strings.TrimSpace(spec[i+4:])
		spec = spec[:i]
	}

	parts := strings.SplitN(spec, ":", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" || strings.ContainsAny(parts[0]+parts[1], " {}") {
		return "", "", false
	}
	if len(parts) == 3 && !strings.HasPrefix(parts[2], "{") {
		version = parts[2]
	}
	if selected != "" {
		version = selected
	}
	return coordinate(parts[0], parts[1]), version, true
}
