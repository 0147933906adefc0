package research

import (
	"context"
	"fmt"

	"github.com/matzehuels/shed/pkg/integrations"
	"github.com/matzehuels/shed/pkg/integrations/github"
)

// RepoLicenseFetcher returns the license of a source repository.
// *github.Client implements it.
type RepoLicenseFetcher interface {
	FetchLicense(ctx context.Context, owner, repo string) (*integrations.PackageLicense, error)
}

// Repository wraps a metadata backend. When the inner findings link a
// GitHub repository but declare no license, it asks the repository host
// for the license the repository itself carries.
//
// Repository lookups only add evidence: when they fail the inner findings
// are returned unchanged, unless ctx is done.
type Repository struct {
	Inner  Backend
	GitHub RepoLicenseFetcher
}

// NewRepository returns a Repository over inner using the GitHub API.
func NewRepository(inner Backend, token string) *Repository {
	return &Repository{Inner: inner, GitHub: github.NewClient(token)}
}

// Research implements Backend.
func (r *Repository) Research(ctx context.Context, q Query) (*Findings, error) {
	f, err := r.Inner.Research(ctx, q)
	if err != nil || f == nil || f.License != "" {
		return f, err
	}
	owner, repo, ok := github.ExtractURL(f.URLs...)
	if !ok {
		return f, nil
	}

	info, err := r.GitHub.FetchLicense(ctx, owner, repo)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return f, nil
	}
	text := ""
	if info.License != "" {
		text = fmt.Sprintf("repository %s carries license: %s", info.Name, info.License)
	}
	return merge(f, &Findings{
		Text:    text,
		URLs:    info.URLs,
		License: info.License,
		Source:  "github",
	}), nil
}
