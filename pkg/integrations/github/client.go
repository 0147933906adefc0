package github

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/matzehuels/shed/pkg/integrations"
)

const defaultBaseURL = "https://api.github.com"

var repoURLPattern = regexp.MustCompile(`^https?://(?:www\.)?github\.com/([^/]+)/([^/]+?)(?:\.git)?(?:[/?#]|$)`)

// noAssertion is the SPDX id GitHub reports when it found a license file
// it could not identify.
const noAssertion = "NOASSERTION"

// Client provides access to the GitHub API.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a GitHub API client. An empty token makes
// unauthenticated requests.
func NewClient(token string) *Client {
	headers := map[string]string{"Accept": "application/vnd.github+json"}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return &Client{
		Client:  integrations.NewClient(headers),
		baseURL: defaultBaseURL,
	}
}

// FetchLicense returns the license GitHub detected for owner/repo. License
// is empty when the repository has no recognizable license file.
func (c *Client) FetchLicense(ctx context.Context, owner, repo string) (*integrations.PackageLicense, error) {
	var data repoResponse
	url := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, integrations.PathEscape(owner), integrations.PathEscape(repo))
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: github repo %s/%s", err, owner, repo)
		}
		return nil, err
	}

	info := &integrations.PackageLicense{Name: data.FullName}
	if data.License != nil {
		switch id := data.License.SPDXID; {
		case id != "" && id != noAssertion:
			info.License = id
		case data.License.Name != "" && data.License.Name != "Other":
			info.License = data.License.Name
		}
	}
	info.AddURL(data.HTMLURL)
	return info, nil
}

// ExtractURL returns the owner and repository of the first GitHub URL in
// urls.
func ExtractURL(urls ...string) (owner, repo string, ok bool) {
	for _, u := range urls {
		if m := repoURLPattern.FindStringSubmatch(integrations.NormalizeRepoURL(u)); m != nil {
			return m[1], m[2], true
		}
	}
	return "", "", false
}

type repoResponse struct {
	FullName string       `json:"full_name"`
	HTMLURL  string       `json:"html_url"`
	License  *licenseInfo `json:"license"`
}

type licenseInfo struct {
	SPDXID string `json:"spdx_id"`
	Name   string `json:"name"`
}
