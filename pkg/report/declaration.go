package report

import (
	"io"
	"slices"
	"strings"
	"text/template"

	"github.com/matzehuels/shed/pkg/deps"
)

// Default contact details used when none are configured.
const (
	DefaultCompanyName  = "Your Company"
	DefaultCompanyEmail = "contact@company.com"
)

// Component is one package in the declaration, with every version found.
type Component struct {
	Name         string
	Ecosystem    deps.Ecosystem
	License      string
	Status       deps.Status
	Versions     []string
	EvidenceURLs []string
}

// Declaration is the data behind open_source_declaration.md.
type Declaration struct {
	AppName      string
	CompanyName  string
	CompanyEmail string
	Components   []Component // open source only
	Review       []Component // proprietary or unknown
}

// NewDeclaration groups records by identity. Components with an open
// status are declared; the rest are listed for review.
func NewDeclaration(appName, company, email string, records []deps.Record) *Declaration {
	if company == "" {
		company = DefaultCompanyName
	}
	if email == "" {
		email = DefaultCompanyEmail
	}
	d := &Declaration{AppName: appName, CompanyName: company, CompanyEmail: email}

	sorted := slices.Clone(records)
	deps.Sort(sorted)

	var (
		all    []Component
		cur    *Component
		curKey deps.Key
	)
	flush := func() {
		if cur != nil {
			all = append(all, *cur)
		}
	}
	for _, rec := range sorted {
		k := rec.Key()
		if cur != nil && k == curKey {
			if !slices.Contains(cur.Versions, rec.Version) {
				cur.Versions = append(cur.Versions, rec.Version)
			}
			for _, u := range rec.EvidenceURLs {
				if !slices.Contains(cur.EvidenceURLs, u) {
					cur.EvidenceURLs = append(cur.EvidenceURLs, u)
				}
			}
			if cur.License == "" {
				cur.License = rec.LicenseName()
			}
			cur.Status = weaker(cur.Status, rec.Status)
			continue
		}
		flush()
		curKey = k
		cur = &Component{
			Name:         rec.Name,
			Ecosystem:    rec.Ecosystem,
			License:      rec.LicenseName(),
			Status:       rec.Status,
			Versions:     []string{rec.Version},
			EvidenceURLs: slices.Clone(rec.EvidenceURLs),
		}
	}
	flush()

	// Split after grouping so every variant's status is considered.
	for _, c := range all {
		if c.Status == deps.StatusOpen {
			d.Components = append(d.Components, c)
		} else {
			d.Review = append(d.Review, c)
		}
	}
	return d
}

// weaker returns the less certain of two statuses: unknown beats
// proprietary beats open.
func weaker(a, b deps.Status) deps.Status {
	rank := map[deps.Status]int{deps.StatusOpen: 0, deps.StatusProprietary: 1, deps.StatusUnknown: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

var declarationTmpl = template.Must(template.New("declaration").Funcs(template.FuncMap{
	"join":    strings.Join,
	"inc":     func(i int) int { return i + 1 },
	"orNA":    orNA,
	"firstOr": firstOr,
}).Parse(`# {{.CompanyName}} - {{.AppName}}

## Open Source Declaration

This document contains information about the open-source software components used in **{{.AppName}}**. It includes details of the applicable licenses and information on obtaining the source code where applicable. This list has been compiled by reference to third-party software incorporated into **{{.AppName}}** as of the date it was created and may be updated from time to time.

All information herein is provided "as is". **{{.AppName}}** and its suppliers make no warranties, express or implied, regarding this list and its accuracy and completeness or the results that may be obtained from the use or distribution of the list. By using or distributing this list, you agree that in no event shall **{{.AppName}}** be liable for any damages resulting from any use or distribution of this list, including special, consequential, incidental or any other direct or indirect damages.

## Open Source Components and Licenses
{{if not .Components}}
No open-source components were identified.
{{end}}
{{- range $i, $c := .Components}}
{{inc $i}}. **{{$c.Name}}** ({{$c.Ecosystem}}, License: {{orNA $c.License}})
   - License URL: {{firstOr $c.EvidenceURLs "N/A"}}
   - Versions: {{join $c.Versions ", "}}
{{- end}}
{{if .Review}}
## Components Requiring Review

The license of the following components could not be confirmed as open source.
{{range .Review}}
- **{{.Name}}** ({{.Ecosystem}}, {{join .Versions ", "}}): {{orNA .License}}, status {{.Status}}
{{- end}}
{{end}}
## How to Obtain Source Code

For components where the license requires providing source code, contact **{{.CompanyName}}** at **{{.CompanyEmail}}**.

## Acknowledgments

This product includes software developed by various open-source contributors.

## Additional Information

**{{.AppName}}** is committed to supporting the open-source community and complying with all applicable open-source licenses. For full source code and further information about the open-source components used in this product, please contact **{{.CompanyName}}** at **{{.CompanyEmail}}**.
`))

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func firstOr(ss []string, fallback string) string {
	if len(ss) == 0 {
		return fallback
	}
	return ss[0]
}

// Render writes the declaration as Markdown.
func (d *Declaration) Render(w io.Writer) error {
	return declarationTmpl.Execute(w, d)
}
