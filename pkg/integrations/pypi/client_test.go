package pypi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matzehuels/shed/pkg/httputil"
	"github.com/matzehuels/shed/pkg/integrations"
)

func testClient(t *testing.T, url string) *Client {
	t.Helper()
	c := NewClient()
	c.baseURL = url
	return c
}

func TestClient_FetchLicense(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(`{"info": {
			"name": "requests",
			"version": "2.28.1",
			"license": "Apache 2.0",
			"classifiers": ["License :: OSI Approved :: Apache Software License", "Programming Language :: Python"],
			"project_urls": {"Source": "https://github.com/psf/requests", "Documentation": "https://requests.readthedocs.io"},
			"home_page": "https://requests.readthedocs.io"
		}}`))
	}))
	defer server.Close()
	c := testClient(t, server.URL)

	info, err := c.FetchLicense(context.Background(), "Requests", "2.28.1")
	if err != nil {
		t.Fatalf("FetchLicense: %v", err)
	}
	if info.License != "Apache Software License" {
		t.Errorf("License = %q", info.License)
	}
	wantURLs := []string{"https://pypi.org/project/requests/", "https://github.com/psf/requests", "https://requests.readthedocs.io"}
	if strings.Join(info.URLs, " ") != strings.Join(wantURLs, " ") {
		t.Errorf("URLs = %v, want %v", info.URLs, wantURLs)
	}

	if _, err := c.FetchLicense(context.Background(), "requests", ">=2.0"); err != nil {
		t.Fatalf("FetchLicense range: %v", err)
	}
	if len(paths) != 2 || paths[0] != "/requests/2.28.1/json" || paths[1] != "/requests/json" {
		t.Errorf("paths = %v", paths)
	}
}

func TestClient_FetchLicense_Errors(t *testing.T) {
	status := http.StatusNotFound
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer server.Close()
	c := testClient(t, server.URL)

	_, err := c.FetchLicense(context.Background(), "leftpad", "1.0.0")
	if !errors.Is(err, integrations.ErrNotFound) || httputil.IsRetryable(err) {
		t.Errorf("404: err = %v, want permanent ErrNotFound", err)
	}

	status = http.StatusBadGateway
	_, err = c.FetchLicense(context.Background(), "leftpad", "1.0.0")
	if !errors.Is(err, integrations.ErrNetwork) || !httputil.IsRetryable(err) {
		t.Errorf("502: err = %v, want retryable ErrNetwork", err)
	}
}

func TestExtractLicenseType(t *testing.T) {
	tests := []struct {
		name        string
		expression  string
		license     string
		classifiers []string
		want        string
	}{
		{"expression wins", "MIT OR Apache-2.0", "BSD", []string{"License :: OSI Approved :: BSD License"}, "MIT OR Apache-2.0"},
		{"classifier", "", "", []string{"License :: OSI Approved :: MIT License"}, "MIT License"},
		{"two classifiers", "", "", []string{"License :: OSI Approved :: MIT License", "License :: OSI Approved :: Apache Software License"}, "MIT License OR Apache Software License"},
		{"short field", "", "BSD-3-Clause", nil, "BSD-3-Clause"},
		{"license text", "", "MIT License\n\nPermission is hereby granted, free of charge, to any person obtaining a copy of this software" + strings.Repeat(".", 100), nil, "MIT License"},
		{"nothing", "", "", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractLicenseType(tt.expression, tt.license, tt.classifiers); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
