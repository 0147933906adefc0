package crates

import (
	"context"
	"errors"
	"fmt"

	"github.com/matzehuels/shed/pkg/integrations"
)

const defaultBaseURL = "https://crates.io/api/v1"

// Client provides access to the crates.io API. crates.io rejects requests
// without a User-Agent; [integrations.NewClient] always sets one.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a crates.io client.
func NewClient() *Client {
	return &Client{
		Client:  integrations.NewClient(nil),
		baseURL: defaultBaseURL,
	}
}

// FetchLicense returns the license of crate at version. The license is
// recorded per published version; when version is not published the
// newest stable version is used.
func (c *Client) FetchLicense(ctx context.Context, crate, version string) (*integrations.PackageLicense, error) {
	var data crateResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/crates/%s", c.baseURL, integrations.PathEscape(crate)), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: crate %s", err, crate)
		}
		return nil, err
	}

	chosen := data.Crate.MaxStableVersion
	if chosen == "" {
		chosen = data.Crate.MaxVersion
	}
	license := ""
	for _, v := range data.Versions {
		if v.Num == version {
			chosen, license = v.Num, v.License
			break
		}
		if v.Num == chosen && license == "" {
			license = v.License
		}
	}

	info := &integrations.PackageLicense{
		Name:    data.Crate.Name,
		Version: chosen,
		License: license,
	}
	info.AddURL("https://crates.io/crates/" + data.Crate.Name)
	info.AddURL(integrations.NormalizeRepoURL(data.Crate.Repository))
	info.AddURL(data.Crate.HomePage)
	return info, nil
}

type crateResponse struct {
	Crate struct {
		Name             string `json:"name"`
		MaxVersion       string `json:"max_version"`
		MaxStableVersion string `json:"max_stable_version"`
		Repository       string `json:"repository"`
		HomePage         string `json:"homepage"`
	} `json:"crate"`
	Versions []struct {
		Num     string `json:"num"`
		License string `json:"license"`
	} `json:"versions"`
}
