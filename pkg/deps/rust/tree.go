package rust

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"

	"github.com/matzehuels/shed/pkg/deps"
)

// parseCargoTree reads `cargo tree --prefix depth` output. Lines at depth 0
// are workspace members and are not reported; depth 1 is direct. Path and
// git dependencies print their source in parentheses and are skipped when
// the source is a local path.
func parseCargoTree(out []byte) deps.ParseResult {
	var res deps.ParseResult

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		i := 0
		for i < len(line) && line[i] >= '0' && line[i] <= '9' {
			i++
		}
		if i == 0 {
			continue // warnings and other chatter
		}
		depth, _ := strconv.Atoi(line[:i])
		if depth == 0 {
			continue
		}

		fields := strings.Fields(line[i:])
		if len(fields) < 2 || !strings.HasPrefix(fields[1], "v") {
			res.Skip("malformed cargo tree line %q", line)
			continue
		}
		if source := sourceOf(line); strings.Contains(source, "/") && !strings.Contains(source, "://") {
			continue
		}
		res.Add(fields[0], strings.TrimPrefix(fields[1], "v"), deps.EcosystemCargo, depth > 1, cargoTreeName)
	}
	return res
}

func sourceOf(line string) string {
	open := strings.IndexByte(line, '(')
	if open < 0 {
		return ""
	}
	end := strings.IndexByte(line[open:], ')')
	if end < 0 {
		return ""
	}
	return line[open+1 : open+end]
}
