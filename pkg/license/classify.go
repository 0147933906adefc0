package license

import (
	"regexp"
	"strings"

	"github.com/matzehuels/shed/pkg/deps"
)

type rule struct {
	id string // canonical name; empty means use the matched text
	re *regexp.Regexp
}

// Order matters only for ties at the same text offset.
var openRules = []rule{
	{"AGPL-3.0", regexp.MustCompile(`\bAGPL(?:-?v?3(?:\.0)?)?\b|(?i:GNU Affero General Public License)`)},
	{"LGPL", regexp.MustCompile(`\bLGPL(?:-?v?[23](?:\.[01])?)?\b|(?i:GNU (?:Lesser|Library) General Public License)`)},
	{"GPL", regexp.MustCompile(`\bGPL(?:-?v?[23](?:\.0)?)?\b|(?i:GNU General Public License)`)},
	{"Apache-2.0", regexp.MustCompile(`(?i)\bApache(?:[- ]2(?:\.0)?\b|\s+(?:Software\s+)?License)`)},
	{"MPL-2.0", regexp.MustCompile(`\bMPL(?:-?[12]\.[01])?\b|(?i:Mozilla Public License)`)},
	{"EPL-2.0", regexp.MustCompile(`\bEPL(?:-?[12]\.0)?\b|(?i:Eclipse Public License)`)},
	{"", regexp.MustCompile(`\b(?:0BSD|BSD-[234]-Clause)\b`)},
	{"BSD", regexp.MustCompile(`\bBSD\b|(?i:BSD License)`)},
	{"MIT", regexp.MustCompile(`\bMIT\b|(?i:\bExpat License\b)`)},
	{"ISC", regexp.MustCompile(`\bISC\b`)},
	{"Unlicense", regexp.MustCompile(`(?i)\bUnlicense\b`)},
	{"CC0-1.0", regexp.MustCompile(`\bCC0(?:-1\.0)?\b|(?i:Creative Commons Zero)`)},
	{"Zlib", regexp.MustCompile(`\bZlib\b|(?i:zlib/libpng|zlib License)`)},
	{"Python-2.0", regexp.MustCompile(`\bPython-2\.0\b|\bPSF(?:-2\.0)?\b|(?i:Python Software Foundation License)`)},
	{"Artistic-2.0", regexp.MustCompile(`(?i)\bArtistic(?:-2\.0\b|\s+License)`)},
	{"BSL-1.0", regexp.MustCompile(`\bBSL-1\.0\b|(?i:Boost Software License)`)},
	{"WTFPL", regexp.MustCompile(`\bWTFPL\b`)},
	{"PostgreSQL", regexp.MustCompile(`(?i)\bPostgreSQL License\b`)},
	{"Public Domain", regexp.MustCompile(`(?i)\bpublic domain\b`)},
}

var restrictiveRules = []rule{
	{"BUSL-1.1", regexp.MustCompile(`\bBUSL(?:-1\.1)?\b|(?i:Business Source License)`)},
	{"SSPL-1.0", regexp.MustCompile(`\bSSPL(?:-1\.0)?\b|(?i:Server Side Public License)`)},
	{"Elastic-2.0", regexp.MustCompile(`\bElastic-2\.0\b|(?i:Elastic License)`)},
	{"Commons-Clause", regexp.MustCompile(`(?i)\bCommons Clause\b`)},
	{"PolyForm", regexp.MustCompile(`(?i)\bPolyForm\b`)},
	{"EULA", regexp.MustCompile(`\bEULA\b|(?i:end[- ]user license agreement)`)},
	{"Proprietary", regexp.MustCompile(`(?i)\bproprietary\b|\bcommercial license\b|\bsource[- ]available\b`)},
}

// BSD and MIT texts carry this phrase, so it only counts without an open
// license match.
var allRightsReserved = regexp.MustCompile(`(?i)\ball rights reserved\b`)

type match struct {
	id  string
	pos int
}

func firstMatch(rules []rule, text string) (match, bool) {
	best := match{pos: -1}
	for _, r := range rules {
		loc := r.re.FindStringIndex(text)
		if loc == nil || (best.pos >= 0 && loc[0] >= best.pos) {
			continue
		}
		id := r.id
		if id == "" {
			id = text[loc[0]:loc[1]]
		}
		best = match{id: id, pos: loc[0]}
	}
	return best, best.pos >= 0
}

// Classify scans free text for license identifiers. It returns the
// earliest identifier found and the resulting status: open when only open
// source licenses are mentioned, proprietary when only restrictive
// markers are, and unknown on a conflict or when nothing matches.
func Classify(text string) (string, deps.Status) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", deps.StatusUnknown
	}
	open, hasOpen := firstMatch(openRules, text)
	closed, hasClosed := firstMatch(restrictiveRules, text)

	switch {
	case hasOpen && hasClosed:
		if open.pos <= closed.pos {
			return open.id, deps.StatusUnknown
		}
		return closed.id, deps.StatusUnknown
	case hasOpen:
		return open.id, deps.StatusOpen
	case hasClosed:
		return closed.id, deps.StatusProprietary
	case allRightsReserved.MatchString(text):
		return "Proprietary", deps.StatusProprietary
	}
	return "", deps.StatusUnknown
}

// ClassifyDeclared classifies a license string taken from package
// metadata. The declared string is kept as the name when it classifies;
// otherwise the name is whatever Classify finds in it.
func ClassifyDeclared(declared string) (string, deps.Status) {
	declared = strings.TrimSpace(declared)
	name, status := Classify(declared)
	if status != deps.StatusUnknown {
		return declared, status
	}
	if name == "" {
		name = declared
	}
	return name, status
}
