package curation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"
)

var testNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func daysAgo(days int) time.Time {
	return testNow.Add(-time.Duration(days) * 24 * time.Hour)
}

var quietLogger = log.New(io.Discard, "", 0)

type fakeProvider struct {
	repos        map[RepositoryID]RepositoryMetadata
	orgs         map[string][]RepositoryID
	contributors map[RepositoryID][]Contributor
	failOn       RepositoryID
	fetched      []RepositoryID
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		repos:        make(map[RepositoryID]RepositoryMetadata),
		orgs:         make(map[string][]RepositoryID),
		contributors: make(map[RepositoryID][]Contributor),
	}
}

func (f *fakeProvider) add(repo RepositoryID, ownerType OwnerType, pushedDaysAgo, issues int) {
	f.repos[repo] = RepositoryMetadata{
		Repository:     repo,
		OpenIssueCount: issues,
		LastPushedAt:   daysAgo(pushedDaysAgo),
		OwnerType:      ownerType,
		OwnerLogin:     repo.Owner(),
	}
}

func (f *fakeProvider) Repository(_ context.Context, repo RepositoryID) (RepositoryMetadata, error) {
	f.fetched = append(f.fetched, repo)
	if repo == f.failOn {
		return RepositoryMetadata{}, errors.New("boom")
	}
	meta, ok := f.repos[repo]
	if !ok {
		return RepositoryMetadata{}, fmt.Errorf("unknown repository %s", repo)
	}
	return meta, nil
}

func (f *fakeProvider) OrganizationRepositories(_ context.Context, org string) ([]RepositoryID, error) {
	return f.orgs[org], nil
}

func (f *fakeProvider) Contributors(_ context.Context, repo RepositoryID) ([]Contributor, error) {
	return f.contributors[repo], nil
}

type memoryStore struct {
	stores  *Stores
	saved   *Stores
	authors []string
	saves   int
	loadErr error
}

func (m *memoryStore) Load() (*Stores, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.stores, nil
}

func (m *memoryStore) Save(stores *Stores, authors []string) error {
	m.saves++
	m.saved = stores
	m.authors = authors
	return nil
}

func newStores(categories map[Category][]RepositoryID, blacklist []RepositoryID) *Stores {
	cats := NewCategoryStore()
	for c, ids := range categories {
		cats.Set(c, ids)
	}
	return &Stores{
		Grace:      NewGraceRegistry(nil),
		Categories: cats,
		Ledger:     NewLedger(blacklist, nil),
	}
}

func newTestCleaner(store Store, provider MetadataProvider, opts ...Option) *Cleaner {
	base := []Option{
		WithClock(func() time.Time { return testNow }),
		WithLogger(quietLogger),
		WithOrganizations(),
	}
	return NewCleaner(store, provider, append(base, opts...)...)
}
