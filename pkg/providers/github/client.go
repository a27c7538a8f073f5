package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"curator/pkg/curation"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

const (
	defaultBaseURL = "https://api.github.com"
	pageSize       = 100
)

// Config contains GitHub API settings.
type Config struct {
	Token   string
	BaseURL string
	// Transport is the base round tripper under the token transport.
	Transport http.RoundTripper
	Timeout   time.Duration
}

// Client answers repository metadata questions through the GitHub REST API.
type Client struct {
	api *gh.Client
}

// NewTokenClient creates a GitHub SDK client authenticated with a token.
// An empty token yields an anonymous client.
func NewTokenClient(ctx context.Context, cfg Config) (*Client, error) {
	base := &http.Client{Transport: cfg.Transport, Timeout: cfg.Timeout}
	httpClient := base
	if cfg.Token != "" {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
		httpClient.Timeout = cfg.Timeout
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL != "" && baseURL != defaultBaseURL {
		api, err := gh.NewClient(httpClient).WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, err
		}
		return &Client{api: api}, nil
	}
	return &Client{api: gh.NewClient(httpClient)}, nil
}

// NewFromSDK wraps an existing SDK client.
func NewFromSDK(api *gh.Client) *Client {
	return &Client{api: api}
}

// Repository fetches push time, owner and open work counts for repo.
func (c *Client) Repository(ctx context.Context, repo curation.RepositoryID) (curation.RepositoryMetadata, error) {
	owner, name, err := split(repo)
	if err != nil {
		return curation.RepositoryMetadata{}, err
	}
	r, _, err := c.api.Repositories.Get(ctx, owner, name)
	if err != nil {
		return curation.RepositoryMetadata{}, err
	}
	pulls, err := c.openPullCount(ctx, owner, name)
	if err != nil {
		return curation.RepositoryMetadata{}, err
	}
	return curation.RepositoryMetadata{
		Repository:     repo,
		OpenIssueCount: r.GetOpenIssuesCount(),
		OpenPullCount:  pulls,
		LastPushedAt:   r.GetPushedAt().Time,
		OwnerType:      curation.OwnerType(r.GetOwner().GetType()),
		OwnerLogin:     r.GetOwner().GetLogin(),
		Archived:       r.GetArchived(),
		Fork:           r.GetFork(),
	}, nil
}

// openPullCount asks for one pull request per page so the last page number
// is the total count.
func (c *Client) openPullCount(ctx context.Context, owner, name string) (int, error) {
	pulls, resp, err := c.api.PullRequests.List(ctx, owner, name, &gh.PullRequestListOptions{
		State:       "open",
		ListOptions: gh.ListOptions{PerPage: 1},
	})
	if err != nil {
		return 0, err
	}
	if resp != nil && resp.LastPage > 0 {
		return resp.LastPage, nil
	}
	return len(pulls), nil
}

// OrganizationRepositories lists every repository of org.
func (c *Client) OrganizationRepositories(ctx context.Context, org string) ([]curation.RepositoryID, error) {
	if org == "" {
		return nil, errors.New("github organization is required")
	}
	opts := &gh.RepositoryListByOrgOptions{ListOptions: gh.ListOptions{PerPage: pageSize}}
	var out []curation.RepositoryID
	for {
		repos, resp, err := c.api.Repositories.ListByOrg(ctx, org, opts)
		if err != nil {
			return nil, err
		}
		for _, r := range repos {
			if name := r.GetFullName(); name != "" {
				out = append(out, curation.RepositoryID(name))
			}
		}
		if resp == nil || resp.NextPage == 0 {
			return out, nil
		}
		opts.Page = resp.NextPage
	}
}

// Contributors lists contributors in the order GitHub returns them.
func (c *Client) Contributors(ctx context.Context, repo curation.RepositoryID) ([]curation.Contributor, error) {
	owner, name, err := split(repo)
	if err != nil {
		return nil, err
	}
	opts := &gh.ListContributorsOptions{ListOptions: gh.ListOptions{PerPage: pageSize}}
	var out []curation.Contributor
	for {
		contributors, resp, err := c.api.Repositories.ListContributors(ctx, owner, name, opts)
		if err != nil {
			return nil, err
		}
		for _, contributor := range contributors {
			out = append(out, curation.Contributor{
				Login:         contributor.GetLogin(),
				Contributions: contributor.GetContributions(),
			})
		}
		if resp == nil || resp.NextPage == 0 {
			return out, nil
		}
		opts.Page = resp.NextPage
	}
}

// HasReleases reports whether repo published at least one release.
func (c *Client) HasReleases(ctx context.Context, repo curation.RepositoryID) (bool, error) {
	owner, name, err := split(repo)
	if err != nil {
		return false, err
	}
	releases, _, err := c.api.Repositories.ListReleases(ctx, owner, name, &gh.ListOptions{PerPage: 1})
	if err != nil {
		return false, err
	}
	return len(releases) > 0, nil
}

func split(repo curation.RepositoryID) (string, string, error) {
	owner, name := repo.Owner(), repo.Name()
	if owner == "" || name == "" {
		return "", "", fmt.Errorf("github repository %q is not owner/name", repo)
	}
	return owner, name, nil
}
