// Package checks implements the one-shot gates run against a repository
// proposed for the index.
package checks

import (
	"context"
	"fmt"

	"curator/pkg/curation"
)

// ExitNeutral tells the workflow runner to stop without marking the job failed.
const ExitNeutral = 78

// Provider answers the remote questions the gates need.
type Provider interface {
	Repository(ctx context.Context, repo curation.RepositoryID) (curation.RepositoryMetadata, error)
	HasReleases(ctx context.Context, repo curation.RepositoryID) (bool, error)
}

// Failure is returned when a gate rejects a repository.
type Failure struct {
	Check      string
	Repository curation.RepositoryID
	Message    string
	// Neutral failures stop the pipeline without failing it.
	Neutral bool
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Check, f.Message)
}

// ExitCode maps the failure to a process exit status.
func (f *Failure) ExitCode() int {
	if f.Neutral {
		return ExitNeutral
	}
	return 1
}

// Names lists the available gates in the order they are usually run.
func Names() []string {
	return []string{"existing", "removed", "archived", "fork", "releases"}
}

// Run dispatches a gate by name.
func Run(ctx context.Context, name string, stores *curation.Stores, provider Provider, repo curation.RepositoryID) (string, error) {
	switch name {
	case "existing":
		return Existing(stores, repo)
	case "removed":
		return Removed(stores, repo)
	case "archived":
		return Archived(ctx, provider, repo)
	case "fork":
		return Fork(ctx, provider, repo)
	case "releases":
		return Releases(ctx, provider, repo)
	default:
		return "", fmt.Errorf("unknown check %q", name)
	}
}

// Existing rejects a repository already listed in any category.
func Existing(stores *curation.Stores, repo curation.RepositoryID) (string, error) {
	if category, ok := stores.Categories.Find(repo); ok {
		return "", &Failure{
			Check:      "existing",
			Repository: repo,
			Message:    fmt.Sprintf("'%s' already exists as a %s", repo, category),
		}
	}
	return "Repository is not in the index", nil
}

// Removed rejects a blacklisted repository.
func Removed(stores *curation.Stores, repo curation.RepositoryID) (string, error) {
	if stores.Ledger.Blacklisted(repo) {
		return "", &Failure{
			Check:      "removed",
			Repository: repo,
			Message:    fmt.Sprintf("'%s' has been removed", repo),
		}
	}
	return "Repository has not been removed", nil
}

// Archived rejects archived repositories.
func Archived(ctx context.Context, provider Provider, repo curation.RepositoryID) (string, error) {
	meta, err := provider.Repository(ctx, repo)
	if err != nil {
		return "", err
	}
	if meta.Archived {
		return "", &Failure{Check: "archived", Repository: repo, Message: "Repository is archived"}
	}
	return "Repository is not archived", nil
}

// Fork stops the pipeline neutrally for forks.
func Fork(ctx context.Context, provider Provider, repo curation.RepositoryID) (string, error) {
	meta, err := provider.Repository(ctx, repo)
	if err != nil {
		return "", err
	}
	if meta.Fork {
		return "", &Failure{Check: "fork", Repository: repo, Message: "Repository is a fork", Neutral: true}
	}
	return "Repository is not a fork", nil
}

// Releases requires at least one published release.
func Releases(ctx context.Context, provider Provider, repo curation.RepositoryID) (string, error) {
	ok, err := provider.HasReleases(ctx, repo)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &Failure{Check: "releases", Repository: repo, Message: fmt.Sprintf("'%s' has no releases", repo)}
	}
	return fmt.Sprintf("'%s' has releases", repo), nil
}
