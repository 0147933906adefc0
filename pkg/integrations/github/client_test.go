package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/shed/pkg/integrations"
)

func testClient(t *testing.T, url, token string) *Client {
	t.Helper()
	c := NewClient(token)
	c.baseURL = url
	return c
}

func TestClient_FetchLicense(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/repos/pallets/flask":
			w.Write([]byte(`{"full_name": "pallets/flask", "html_url": "https://github.com/pallets/flask",
				"license": {"key": "bsd-3-clause", "name": "BSD 3-Clause \"New\" or \"Revised\" License", "spdx_id": "BSD-3-Clause"}}`))
		case "/repos/acme/custom":
			w.Write([]byte(`{"full_name": "acme/custom", "html_url": "https://github.com/acme/custom",
				"license": {"key": "other", "name": "Other", "spdx_id": "NOASSERTION"}}`))
		case "/repos/acme/bare":
			w.Write([]byte(`{"full_name": "acme/bare", "html_url": "https://github.com/acme/bare", "license": null}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()
	c := testClient(t, server.URL, "ghp_test")

	tests := []struct {
		owner, repo string
		want        integrations.PackageLicense
	}{
		{"pallets", "flask", integrations.PackageLicense{
			Name: "pallets/flask", License: "BSD-3-Clause", URLs: []string{"https://github.com/pallets/flask"},
		}},
		{"acme", "custom", integrations.PackageLicense{
			Name: "acme/custom", URLs: []string{"https://github.com/acme/custom"},
		}},
		{"acme", "bare", integrations.PackageLicense{
			Name: "acme/bare", URLs: []string{"https://github.com/acme/bare"},
		}},
	}
	for _, tt := range tests {
		got, err := c.FetchLicense(context.Background(), tt.owner, tt.repo)
		if err != nil {
			t.Fatalf("FetchLicense(%s/%s): %v", tt.owner, tt.repo, err)
		}
		if diff := cmp.Diff(tt.want, *got); diff != "" {
			t.Errorf("FetchLicense(%s/%s) (-want +got):\n%s", tt.owner, tt.repo, diff)
		}
	}
	if auth != "Bearer ghp_test" {
		t.Errorf("Authorization = %q", auth)
	}

	if _, err := c.FetchLicense(context.Background(), "acme", "gone"); !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("missing repo err = %v, want ErrNotFound", err)
	}
}

func TestExtractURL(t *testing.T) {
	tests := []struct {
		urls        []string
		owner, repo string
		ok          bool
	}{
		{[]string{"https://www.npmjs.com/package/lodash", "https://github.com/lodash/lodash"}, "lodash", "lodash", true},
		{[]string{"git+https://github.com/psf/requests.git"}, "psf", "requests", true},
		{[]string{"git@github.com:rust-lang/regex.git"}, "rust-lang", "regex", true},
		{[]string{"https://github.com/pallets/flask/tree/main/src"}, "pallets", "flask", true},
		{[]string{"https://gitlab.com/foo/bar", "https://example.com/github.com/x/y"}, "", "", false},
		{nil, "", "", false},
	}
	for _, tt := range tests {
		owner, repo, ok := ExtractURL(tt.urls...)
		if owner != tt.owner || repo != tt.repo || ok != tt.ok {
			t.Errorf("ExtractURL(%v) = %q, %q, %v; want %q, %q, %v", tt.urls, owner, repo, ok, tt.owner, tt.repo, tt.ok)
		}
	}
}
