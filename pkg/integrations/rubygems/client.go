package rubygems

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/matzehuels/shed/pkg/integrations"
)

const defaultBaseURL = "https://rubygems.org/api/v1"

// Client provides access to the RubyGems API.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a RubyGems client.
func NewClient() *Client {
	return &Client{
		Client:  integrations.NewClient(nil),
		baseURL: defaultBaseURL,
	}
}

// FetchLicense returns the licenses declared by gem. Exact versions use the
// versions endpoint, which records licenses per release; otherwise the
// current release is used.
func (c *Client) FetchLicense(ctx context.Context, gem, version string) (*integrations.PackageLicense, error) {
	gem = strings.ToLower(strings.TrimSpace(gem))

	var data gemResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/gems/%s.json", c.baseURL, integrations.PathEscape(gem)), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: gem %s", err, gem)
		}
		return nil, err
	}

	info := &integrations.PackageLicense{
		Name:    data.Name,
		Version: data.Version,
		License: strings.Join(data.Licenses, " OR "),
	}

	if integrations.ExactVersion(version) && version != data.Version {
		var versions []versionResponse
		if err := c.Get(ctx, fmt.Sprintf("%s/versions/%s.json", c.baseURL, integrations.PathEscape(gem)), &versions); err == nil {
			for _, v := range versions {
				if v.Number == version && (v.Platform == "ruby" || v.Platform == "") {
					info.Version = v.Number
					info.License = strings.Join(v.Licenses, " OR ")
					break
				}
			}
		}
	}

	info.AddURL(data.ProjectURI)
	info.AddURL(integrations.NormalizeRepoURL(data.SourceCodeURI))
	info.AddURL(data.HomepageURI)
	return info, nil
}

type gemResponse struct {
	Name          string   `json:"name"`
	Version       string   `json:"version"`
	Licenses      []string `json:"licenses"`
	ProjectURI    string   `json:"project_uri"`
	SourceCodeURI string   `json:"source_code_uri"`
	HomepageURI   string   `json:"homepage_uri"`
}

type versionResponse struct {
	Number   string   `json:"number"`
	Platform string   `json:"platform"`
	Licenses []string `json:"licenses"`
}
