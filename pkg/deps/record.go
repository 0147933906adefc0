package deps

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// UnknownVersion is recorded when an extractor does not report a version.
const UnknownVersion = "unknown"

// Ecosystem identifies the package namespace a dependency belongs to.
type Ecosystem string

const (
	EcosystemNPM   Ecosystem = "npm"
	EcosystemPip   Ecosystem = "pip"
	EcosystemMaven Ecosystem = "maven" // maven and gradle
	EcosystemGem   Ecosystem = "gem"
	EcosystemCargo Ecosystem = "cargo"
	EcosystemOther Ecosystem = "other"
)

// Ecosystems lists every valid ecosystem in canonical order.
var Ecosystems = []Ecosystem{
	EcosystemNPM, EcosystemPip, EcosystemMaven, EcosystemGem, EcosystemCargo, EcosystemOther,
}

// Valid reports whether e is one of the known ecosystems.
func (e Ecosystem) Valid() bool {
	return slices.Contains(Ecosystems, e)
}

// ParseEcosystem maps user input and common aliases to an Ecosystem.
func ParseEcosystem(s string) (Ecosystem, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "npm", "node", "yarn", "pnpm":
		return EcosystemNPM, true
	case "pip", "pypi", "python":
		return EcosystemPip, true
	case "maven", "gradle", "java":
		return EcosystemMaven, true
	case "gem", "rubygems", "ruby":
		return EcosystemGem, true
	case "cargo", "crates", "rust":
		return EcosystemCargo, true
	case "other":
		return EcosystemOther, true
	}
	return "", false
}

// Status is the open-source classification of a dependency.
type Status string

const (
	StatusOpen        Status = "open"
	StatusProprietary Status = "proprietary"
	StatusUnknown     Status = "unknown"
)

// Valid reports whether s is one of the three classifications.
func (s Status) Valid() bool {
	return s == StatusOpen || s == StatusProprietary || s == StatusUnknown
}

// Record is one dependency in the canonical schema.
type Record struct {
	Name           string    `json:"name"`
	Version        string    `json:"version"`
	Ecosystem      Ecosystem `json:"ecosystem"`
	Transitive     bool      `json:"is_transitive"`
	SourceStrategy string    `json:"source_strategy"`
	License        *string   `json:"license"`
	Status         Status    `json:"open_source_status"`
	EvidenceURLs   []string  `json:"evidence_urls"`
	ResearchError  string    `json:"research_error,omitempty"`
}

// NewRecord returns a record with defaults applied: an empty version
// becomes UnknownVersion and the status starts as unknown.
func NewRecord(name, version string, eco Ecosystem, transitive bool, strategy string) Record {
	version = strings.TrimSpace(version)
	if version == "" {
		version = UnknownVersion
	}
	return Record{
		Name:           strings.TrimSpace(name),
		Version:        version,
		Ecosystem:      eco,
		Transitive:     transitive,
		SourceStrategy: strategy,
		Status:         StatusUnknown,
		EvidenceURLs:   []string{},
	}
}

// Key returns the identity of r.
func (r Record) Key() Key {
	return KeyOf(r.Name, r.Ecosystem)
}

// HasVersion reports whether the record carries a real version.
func (r Record) HasVersion() bool {
	return r.Version != "" && r.Version != UnknownVersion
}

// LicenseName returns the license or an empty string when unresolved.
func (r Record) LicenseName() string {
	if r.License == nil {
		return ""
	}
	return *r.License
}

// Validate checks the invariants every emitted record must satisfy.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("record has empty name")
	}
	if !r.Ecosystem.Valid() {
		return fmt.Errorf("record %s has invalid ecosystem %q", r.Name, r.Ecosystem)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("record %s has invalid status %q", r.Name, r.Status)
	}
	return nil
}

// MarshalJSON writes evidence_urls as an empty array rather than null and
// fills an unset status with unknown.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	p := plain(r)
	if p.EvidenceURLs == nil {
		p.EvidenceURLs = []string{}
	}
	if !p.Status.Valid() {
		p.Status = StatusUnknown
	}
	if p.Version == "" {
		p.Version = UnknownVersion
	}
	return json.Marshal(p)
}

// Key identifies a dependency independent of its version.
type Key struct {
	Name      string
	Ecosystem Ecosystem
}

// KeyOf builds the identity key for name in eco.
func KeyOf(name string, eco Ecosystem) Key {
	return Key{Name: NormalizeName(name, eco), Ecosystem: eco}
}

// String returns "ecosystem/name".
func (k Key) String() string {
	return string(k.Ecosystem) + "/" + k.Name
}

// NormalizeName applies the ecosystem's name comparison rules.
// pip follows PEP 503 (case-insensitive, runs of "-", "_" and "." are equal);
// npm and gem names are case-insensitive; maven and cargo names are compared
// as written.
func NormalizeName(name string, eco Ecosystem) string {
	name = strings.TrimSpace(name)
	switch eco {
	case EcosystemPip:
		return pep503(name)
	case EcosystemNPM, EcosystemGem:
		return strings.ToLower(name)
	default:
		return name
	}
}

func pep503(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	sep := false
	for _, r := range strings.ToLower(name) {
		if r == '-' || r == '_' || r == '.' {
			sep = true
			continue
		}
		if sep && b.Len() > 0 {
			b.WriteByte('-')
		}
		sep = false
		b.WriteRune(r)
	}
	return b.String()
}

// Less orders records by ecosystem, normalized name, version and then
// the remaining fields so sorting is total.
func Less(a, b Record) bool {
	return Compare(a, b) < 0
}

// Compare is the three-way form of Less.
func Compare(a, b Record) int {
	if c := strings.Compare(string(a.Ecosystem), string(b.Ecosystem)); c != 0 {
		return c
	}
	if c := strings.Compare(NormalizeName(a.Name, a.Ecosystem), NormalizeName(b.Name, b.Ecosystem)); c != 0 {
		return c
	}
	if c := strings.Compare(a.Version, b.Version); c != 0 {
		return c
	}
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return strings.Compare(a.SourceStrategy, b.SourceStrategy)
}

// Sort orders records in place using Compare.
func Sort(records []Record) {
	slices.SortFunc(records, Compare)
}
