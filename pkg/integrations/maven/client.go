package maven

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/matzehuels/shed/pkg/integrations"
)

const (
	defaultSearchURL = "https://search.maven.org/solrsearch/select"
	defaultRepoURL   = "https://repo1.maven.org/maven2"

	// maxParentDepth bounds the walk up <parent> POMs looking for licenses.
	maxParentDepth = 3
)

// Client provides access to Maven Central.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	searchURL string
	repoURL   string
}

// NewClient creates a Maven Central client.
func NewClient() *Client {
	return &Client{
		Client:    integrations.NewClient(nil),
		searchURL: defaultSearchURL,
		repoURL:   defaultRepoURL,
	}
}

// FetchLicense returns the licenses declared in the POM of coordinate
// ("groupId:artifactId") at version. Non-exact versions resolve to the
// latest release through the search API. Licenses missing from the POM
// are looked up in its parent POMs, which is where most multi-module
// projects declare them.
func (c *Client) FetchLicense(ctx context.Context, coordinate, version string) (*integrations.PackageLicense, error) {
	groupID, artifactID, err := parseCoordinate(coordinate)
	if err != nil {
		return nil, err
	}

	if !integrations.ExactVersion(version) {
		version, err = c.latestVersion(ctx, groupID, artifactID)
		if err != nil {
			return nil, err
		}
	}

	info := &integrations.PackageLicense{
		Name:    groupID + ":" + artifactID,
		Version: version,
	}
	info.AddURL(fmt.Sprintf("https://central.sonatype.com/artifact/%s/%s/%s", groupID, artifactID, version))

	g, a, v := groupID, artifactID, version
	for depth := 0; depth <= maxParentDepth; depth++ {
		pom, err := c.fetchPOM(ctx, g, a, v)
		if err != nil {
			if depth == 0 {
				if errors.Is(err, integrations.ErrNotFound) {
					return nil, fmt.Errorf("%w: maven artifact %s:%s:%s", err, groupID, artifactID, version)
				}
				return nil, err
			}
			break
		}
		if depth == 0 {
			info.AddURL(integrations.NormalizeRepoURL(pom.SCM.URL))
			info.AddURL(pom.URL)
		}
		if names, urls := pom.licenses(); len(names) > 0 {
			info.License = strings.Join(names, " OR ")
			for _, u := range urls {
				info.AddURL(u)
			}
			break
		}
		if pom.Parent.ArtifactID == "" {
			break
		}
		g, a, v = pom.Parent.GroupID, pom.Parent.ArtifactID, pom.Parent.Version
	}
	return info, nil
}

func (c *Client) latestVersion(ctx context.Context, groupID, artifactID string) (string, error) {
	query := fmt.Sprintf("g:%q AND a:%q", groupID, artifactID)
	url := fmt.Sprintf("%s?q=%s&rows=1&wt=json", c.searchURL, integrations.URLEncode(query))

	var resp searchResponse
	if err := c.Get(ctx, url, &resp); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return "", fmt.Errorf("%w: maven artifact %s:%s", err, groupID, artifactID)
		}
		return "", err
	}
	if resp.Response.NumFound == 0 || len(resp.Response.Docs) == 0 {
		return "", fmt.Errorf("%w: maven artifact %s:%s", integrations.ErrNotFound, groupID, artifactID)
	}
	doc := resp.Response.Docs[0]
	if doc.LatestVersion != "" {
		return doc.LatestVersion, nil
	}
	return doc.Version, nil
}

func (c *Client) fetchPOM(ctx context.Context, groupID, artifactID, version string) (*pomProject, error) {
	url := fmt.Sprintf("%s/%s/%s/%s/%s-%s.pom",
		c.repoURL, strings.ReplaceAll(groupID, ".", "/"), artifactID, version, artifactID, version)

	text, err := c.GetText(ctx, url)
	if err != nil {
		return nil, err
	}
	var pom pomProject
	if err := xml.Unmarshal([]byte(text), &pom); err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return &pom, nil
}

func parseCoordinate(coord string) (groupID, artifactID string, err error) {
	parts := strings.Split(coord, ":")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid maven coordinate %q (expected groupId:artifactId)", coord)
	}
	return parts[0], parts[1], nil
}

type searchResponse struct {
	Response struct {
		NumFound int         `json:"numFound"`
		Docs     []searchDoc `json:"docs"`
	} `json:"response"`
}

type searchDoc struct {
	GroupID       string `json:"g"`
	ArtifactID    string `json:"a"`
	Version       string `json:"v"`
	LatestVersion string `json:"latestVersion"`
}

type pomProject struct {
	URL    string `xml:"url"`
	Parent struct {
		GroupID    string `xml:"groupId"`
		ArtifactID string `xml:"artifactId"`
		Version    string `xml:"version"`
	} `xml:"parent"`
	SCM struct {
		URL string `xml:"url"`
	} `xml:"scm"`
	Licenses []pomLicense `xml:"licenses>license"`
}

type pomLicense struct {
	Name string `xml:"name"`
	URL  string `xml:"url"`
}

func (p *pomProject) licenses() (names, urls []string) {
	for _, l := range p.Licenses {
		if name := strings.TrimSpace(l.Name); name != "" {
			names = append(names, name)
		}
		if u := strings.TrimSpace(l.URL); u != "" {
			urls = append(urls, u)
		}
	}
	return names, urls
}
