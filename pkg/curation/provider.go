package curation

import "context"

// MetadataProvider answers questions about remote repositories.
// Implementations own retries and pagination; every error is fatal to a pass.
type MetadataProvider interface {
	Repository(ctx context.Context, repo RepositoryID) (RepositoryMetadata, error)
	OrganizationRepositories(ctx context.Context, org string) ([]RepositoryID, error)
	Contributors(ctx context.Context, repo RepositoryID) ([]Contributor, error)
}

// Stores is the in-memory copy of the persisted index state.
type Stores struct {
	Grace      *GraceRegistry
	Categories *CategoryStore
	Ledger     *Ledger
}

// Store loads and persists the index state.
type Store interface {
	Load() (*Stores, error)
	// Save writes categories, blacklist and ledger, then the author list.
	Save(stores *Stores, authors []string) error
}

// Observer is told about a pass once its results are persisted.
type Observer interface {
	Observe(ctx context.Context, report *Report) error
}
