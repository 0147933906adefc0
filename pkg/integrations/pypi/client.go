package pypi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/matzehuels/shed/pkg/integrations"
)

const defaultBaseURL = "https://pypi.org/pypi"

// Client provides access to the PyPI JSON API.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a PyPI client.
func NewClient() *Client {
	return &Client{
		Client:  integrations.NewClient(nil),
		baseURL: defaultBaseURL,
	}
}

// FetchLicense returns the license metadata of pkg. Exact versions are
// looked up directly; anything else resolves to the latest release.
//
// Returns:
//   - [integrations.ErrNotFound] if the package doesn't exist
//   - [integrations.ErrNetwork] for HTTP failures (timeout, 5xx, etc.)
func (c *Client) FetchLicense(ctx context.Context, pkg, version string) (*integrations.PackageLicense, error) {
	pkg = integrations.NormalizePkgName(pkg)

	url := fmt.Sprintf("%s/%s/json", c.baseURL, pkg)
	if integrations.ExactVersion(version) {
		url = fmt.Sprintf("%s/%s/%s/json", c.baseURL, pkg, version)
	}

	var data apiResponse
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: pypi package %s", err, pkg)
		}
		return nil, err
	}

	info := &integrations.PackageLicense{
		Name:    data.Info.Name,
		Version: data.Info.Version,
		License: extractLicenseType(data.Info.LicenseExpression, data.Info.License, data.Info.Classifiers),
	}
	info.AddURL(fmt.Sprintf("https://pypi.org/project/%s/", pkg))
	for _, key := range projectURLKeys(data.Info.ProjectURLs) {
		info.AddURL(data.Info.ProjectURLs[key])
	}
	info.AddURL(data.Info.HomePage)
	return info, nil
}

var preferredURLKeys = []string{"Source", "Source Code", "Repository", "Code", "Homepage"}

// projectURLKeys returns the repository-like keys first, then the rest in
// sorted order.
func projectURLKeys(urls map[string]string) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, k := range preferredURLKeys {
		if _, ok := urls[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range urls {
		if !seen[k] && strings.Contains(strings.ToLower(k), "license") {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

type apiResponse struct {
	Info apiInfo `json:"info"`
}

type apiInfo struct {
	Name              string            `json:"name"`
	Version           string            `json:"version"`
	License           string            `json:"license"`
	LicenseExpression string            `json:"license_expression"`
	Classifiers       []string          `json:"classifiers"`
	ProjectURLs       map[string]string `json:"project_urls"`
	HomePage          string            `json:"home_page"`
}

// extractLicenseType extracts a short license identifier from PyPI data.
// A PEP 639 license expression wins, then the trove classifier
// ("License :: OSI Approved :: MIT License" -> "MIT License"), then the
// license field when it is short enough to be a name rather than a text.
func extractLicenseType(expression, license string, classifiers []string) string {
	if expression = strings.TrimSpace(expression); expression != "" {
		return expression
	}

	var fromClassifiers []string
	for _, c := range classifiers {
		if strings.HasPrefix(c, "License :: ") {
			parts := strings.Split(c, " :: ")
			if len(parts) >= 3 {
				fromClassifiers = append(fromClassifiers, parts[len(parts)-1])
			}
		}
	}
	if len(fromClassifiers) > 0 {
		return strings.Join(fromClassifiers, " OR ")
	}

	if license != "" && len(license) < 100 && !strings.Contains(license, "\n") {
		return strings.TrimSpace(license)
	}

	if license != "" {
		firstLine := strings.TrimSpace(strings.Split(license, "\n")[0])
		if len(firstLine) < 50 {
			return firstLine
		}
	}

	return ""
}
