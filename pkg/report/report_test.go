package report

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/shed/pkg/deps"
	"github.com/matzehuels/shed/pkg/errors"
	"github.com/matzehuels/shed/pkg/pipeline"
)

func lic(s string) *string { return &s }

func sampleRecords() []deps.Record {
	lodash := deps.NewRecord("lodash", "4.17.21", deps.EcosystemNPM, false, "npm-list")
	lodash.License = lic("MIT")
	lodash.Status = deps.StatusOpen
	lodash.EvidenceURLs = []string{"https://www.npmjs.com/package/lodash"}

	lodashOld := deps.NewRecord("lodash", "3.10.1", deps.EcosystemNPM, true, "npm-list")
	lodashOld.License = lic("MIT")
	lodashOld.Status = deps.StatusOpen

	requests := deps.NewRecord("requests", "2.28.1", deps.EcosystemPip, false, "pipdeptree,requirements")
	requests.License = lic("Apache-2.0")
	requests.Status = deps.StatusOpen

	leftpad := deps.NewRecord("leftpad", "0.0.1", deps.EcosystemNPM, false, "package-json")
	leftpad.ResearchError = "research failed after 3 attempts"

	return []deps.Record{requests, lodash, leftpad, lodashOld}
}

func TestMarshalRecords_Deterministic(t *testing.T) {
	recs := sampleRecords()
	a, err := MarshalRecords(recs)
	if err != nil {
		t.Fatal(err)
	}
	reversed := []deps.Record{recs[3], recs[2], recs[1], recs[0]}
	b, _ := MarshalRecords(reversed)
	if !bytes.Equal(a, b) {
		t.Error("output depends on input order")
	}
	if recs[0].Name != "requests" {
		t.Error("input was reordered")
	}
	if !bytes.HasPrefix(a, []byte("[\n  {\n    \"name\": \"leftpad\"")) {
		t.Errorf("unexpected layout:\n%s", a)
	}
	if !bytes.Contains(a, []byte(`"license": null`)) || !bytes.Contains(a, []byte(`"evidence_urls": []`)) {
		t.Errorf("null license or empty evidence not encoded:\n%s", a)
	}
	if empty, _ := MarshalRecords(nil); string(empty) != "[]\n" {
		t.Errorf("empty = %q", empty)
	}
}

func TestReadJSON_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleRecords()); err != nil {
		t.Fatal(err)
	}
	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	want := sampleRecords()
	deps.Sort(want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
}

func TestReadJSON_Invalid(t *testing.T) {
	for _, in := range []string{
		`{"not": "a list"}`,
		`[{"name": "", "ecosystem": "npm", "open_source_status": "open"}]`,
		`[{"name": "x", "ecosystem": "cobol", "open_source_status": "open"}]`,
		`[{"name": "x", "ecosystem": "npm", "open_source_status": "maybe"}]`,
	} {
		if _, err := ReadJSON(strings.NewReader(in)); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("ReadJSON(%s) err = %v", in, err)
		}
	}
}

func TestDeclaration(t *testing.T) {
	d := NewDeclaration("billing", "Acme", "oss@acme.test", sampleRecords())

	if len(d.Components) != 2 || len(d.Review) != 1 {
		t.Fatalf("components=%d review=%d", len(d.Components), len(d.Review))
	}
	if diff := cmp.Diff([]string{"3.10.1", "4.17.21"}, d.Components[0].Versions); diff != "" {
		t.Errorf("lodash versions (-want +got):\n%s", diff)
	}

	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"# Acme - billing",
		"1. **lodash** (npm, License: MIT)",
		"   - License URL: https://www.npmjs.com/package/lodash",
		"   - Versions: 3.10.1, 4.17.21",
		"2. **requests** (pip, License: Apache-2.0)",
		"   - License URL: N/A",
		"- **leftpad** (npm, 0.0.1): N/A, status unknown",
		"contact **Acme** at **oss@acme.test**",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("declaration missing %q:\n%s", want, out)
		}
	}
}

func TestDeclaration_Defaults(t *testing.T) {
	d := NewDeclaration("app", "", "", nil)
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No open-source components were identified.") ||
		!strings.Contains(buf.String(), DefaultCompanyEmail) {
		t.Errorf("declaration:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "Requiring Review") {
		t.Error("review section rendered without components")
	}
}

func TestWriter(t *testing.T) {
	repo := t.TempDir()
	sum := &pipeline.Summary{
		RunID:   "run-1",
		AppName: "billing",
		Repo:    repo,
		State:   pipeline.StateDone,
		Records: sampleRecords(),
		Diagnostics: pipeline.Diagnostics{
			UnresolvedLicenses: 1,
		},
	}
	w := NewWriter("Acme", "oss@acme.test", nil)
	if err := w.Write(context.Background(), sum); err != nil {
		t.Fatalf("Write: %v", err)
	}

	recs, err := ReadFile(repo)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(recs) != 4 {
		t.Errorf("records = %d", len(recs))
	}

	got, err := ReadSummary(repo)
	if err != nil {
		t.Fatalf("ReadSummary: %v", err)
	}
	if got.RunID != "run-1" || got.Diagnostics.UnresolvedLicenses != 1 || len(got.Records) != 0 {
		t.Errorf("summary = %+v", got)
	}

	decl, err := os.ReadFile(PathsFor(repo).Declaration)
	if err != nil || !bytes.Contains(decl, []byte("# Acme - billing")) {
		t.Errorf("declaration: %v\n%s", err, decl)
	}

	// Second write of the same result is byte-identical.
	first, _ := os.ReadFile(PathsFor(repo).Dependencies)
	if err := w.Write(context.Background(), sum); err != nil {
		t.Fatal(err)
	}
	second, _ := os.ReadFile(PathsFor(repo).Dependencies)
	if !bytes.Equal(first, second) {
		t.Error("dependencies.json changed between identical writes")
	}
}

func TestReadFile_Missing(t *testing.T) {
	if _, err := ReadFile(t.TempDir()); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("err = %v", err)
	}
	if _, err := ReadSummary(t.TempDir()); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("err = %v", err)
	}
}
