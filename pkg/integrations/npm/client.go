package npm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/matzehuels/shed/pkg/integrations"
)

const defaultBaseURL = "https://registry.npmjs.org"

// Client provides access to the npm registry.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates an npm registry client.
func NewClient() *Client {
	return &Client{
		Client:  integrations.NewClient(nil),
		baseURL: defaultBaseURL,
	}
}

// FetchLicense returns the license declared by pkg at version, or by the
// latest release when version is not an exact version known to the
// registry.
func (c *Client) FetchLicense(ctx context.Context, pkg, version string) (*integrations.PackageLicense, error) {
	pkg = strings.ToLower(strings.TrimSpace(pkg))

	var data registryResponse
	if err := c.Get(ctx, c.baseURL+"/"+escapeName(pkg), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: npm package %s", err, pkg)
		}
		return nil, err
	}

	v, ok := data.Versions[version]
	if !ok || !integrations.ExactVersion(version) {
		version = data.DistTags.Latest
		v = data.Versions[version]
	}

	license := extractLicense(v.License, v.Licenses)
	if license == "" {
		license = extractLicense(data.License, nil)
	}

	info := &integrations.PackageLicense{
		Name:    data.Name,
		Version: version,
		License: license,
	}
	info.AddURL("https://www.npmjs.com/package/" + pkg)
	info.AddURL(integrations.NormalizeRepoURL(extractField(v.Repository, "url")))
	info.AddURL(v.HomePage)
	return info, nil
}

// escapeName keeps the scope separator readable: @types/node -> @types%2Fnode.
func escapeName(pkg string) string {
	return strings.Replace(pkg, "/", "%2F", 1)
}

// extractLicense handles the string, {type} and legacy [{type}] forms.
func extractLicense(license any, legacy []any) string {
	if s := extractField(license, "type"); s != "" {
		return s
	}
	var names []string
	for _, l := range legacy {
		if s := extractField(l, "type"); s != "" {
			names = append(names, s)
		}
	}
	return strings.Join(names, " OR ")
}

func extractField(v any, field string) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		if s, ok := val[field].(string); ok {
			return s
		}
	}
	return ""
}

type registryResponse struct {
	Name     string                    `json:"name"`
	License  any                       `json:"license"`
	DistTags distTags                  `json:"dist-tags"`
	Versions map[string]versionDetails `json:"versions"`
}

type distTags struct {
	Latest string `json:"latest"`
}

type versionDetails struct {
	License    any    `json:"license"`
	Licenses   []any  `json:"licenses"`
	Repository any    `json:"repository"`
	HomePage   string `json:"homepage"`
}
