package maven

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/shed/pkg/integrations"
)

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		coord        string
		wantGroup    string
		wantArtifact string
		wantErr      bool
	}{
		{"org.springframework:spring-core", "org.springframework", "spring-core", false},
		{"com.google.guava:guava", "com.google.guava", "guava", false},
		{"invalid", "", "", true},
		{":missing-group", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.coord, func(t *testing.T) {
			g, a, err := parseCoordinate(tt.coord)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseCoordinate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if g != tt.wantGroup {
				t.Errorf("groupID = %v, want %v", g, tt.wantGroup)
			}
			if a != tt.wantArtifact {
				t.Errorf("artifactID = %v, want %v", a, tt.wantArtifact)
			}
		})
	}
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/solrsearch/select":
			w.Write([]byte(`{"response": {"numFound": 1, "docs": [{"g": "org.example", "a": "mylib", "latestVersion": "1.0.0"}]}}`))
		case "/maven2/org/example/mylib/1.0.0/mylib-1.0.0.pom":
			w.Write([]byte(`<?xml version="1.0"?>
<project>
  <parent>
    <groupId>org.example</groupId>
    <artifactId>parent</artifactId>
    <version>7</version>
  </parent>
  <artifactId>mylib</artifactId>
  <url>https://example.org/mylib</url>
  <scm><url>https://github.com/example/mylib</url></scm>
</project>`))
		case "/maven2/org/example/parent/7/parent-7.pom":
			w.Write([]byte(`<project>
  <licenses>
    <license>
      <name>Apache License, Version 2.0</name>
      <url>https://www.apache.org/licenses/LICENSE-2.0.txt</url>
    </license>
  </licenses>
</project>`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestClient_FetchLicense_FromParent(t *testing.T) {
	server := testServer(t)
	defer server.Close()

	c := NewClient()
	c.searchURL = server.URL + "/solrsearch/select"
	c.repoURL = server.URL + "/maven2"

	got, err := c.FetchLicense(context.Background(), "org.example:mylib", "unknown")
	if err != nil {
		t.Fatalf("FetchLicense: %v", err)
	}
	want := &integrations.PackageLicense{
		Name:    "org.example:mylib",
		Version: "1.0.0",
		License: "Apache License, Version 2.0",
		URLs: []string{
			"https://central.sonatype.com/artifact/org.example/mylib/1.0.0",
			"https://github.com/example/mylib",
			"https://example.org/mylib",
			"https://www.apache.org/licenses/LICENSE-2.0.txt",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FetchLicense (-want +got):\n%s", diff)
	}
}

func TestClient_FetchLicense_MissingVersion(t *testing.T) {
	server := testServer(t)
	defer server.Close()

	c := NewClient()
	c.repoURL = server.URL + "/maven2"

	if _, err := c.FetchLicense(context.Background(), "org.example:mylib", "9.9.9"); err == nil {
		t.Error("expected error for unpublished version")
	}
}
