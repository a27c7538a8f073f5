package curation

import (
	"fmt"
	"strings"
)

// RemovalRequest describes a manual removal.
type RemovalRequest struct {
	Repository RepositoryID
	Type       RemovalType
	Reason     string
	Link       string
}

// RemovalOutcome reports what a manual removal changed.
type RemovalOutcome struct {
	Category Category
	// AlreadyRemoved is set when the repository was blacklisted before.
	// Any lingering category entry is still dropped.
	AlreadyRemoved bool
	Record         *RemovalRecord
}

// RemoveRepository drops a repository from its category, blacklists it and
// appends a ledger record. Repositories of tracked organizations may be
// removed without being listed in a category.
func RemoveRepository(stores *Stores, req RemovalRequest, organizations []string) (RemovalOutcome, error) {
	var out RemovalOutcome
	if category, ok := stores.Categories.Find(req.Repository); ok {
		stores.Categories.Remove(category, req.Repository)
		out.Category = category
	} else if !isTrackedOrganization(req.Repository.Owner(), organizations) {
		return out, fmt.Errorf("%s: %w", req.Repository, ErrNotFound)
	}

	if !stores.Ledger.AddToBlacklist(req.Repository) {
		out.AlreadyRemoved = true
		return out, nil
	}
	record := NewRemovalRecord(req.Repository, req.Type, req.Reason, req.Link)
	stores.Ledger.RecordRemoval(record)
	out.Record = &record
	return out, nil
}

func isTrackedOrganization(owner string, organizations []string) bool {
	for _, org := range organizations {
		if strings.EqualFold(owner, org) {
			return true
		}
	}
	return false
}

// PublisherRemovedReason is the reason recorded for banned publishers.
const PublisherRemovedReason = "Author removed"

// BannedPublisher is a publisher whose repositories are removed wholesale.
type BannedPublisher struct {
	Publisher string `yaml:"publisher" json:"publisher"`
	Link      string `yaml:"link" json:"link"`
}

// RemovePublishers removes every listed repository whose id contains a
// banned publisher name, case-insensitively.
func RemovePublishers(stores *Stores, publishers []BannedPublisher) []RemovalRecord {
	var records []RemovalRecord
	for _, banned := range publishers {
		needle := strings.ToLower(strings.TrimSpace(banned.Publisher))
		if needle == "" {
			continue
		}
		for _, category := range stores.Categories.Categories() {
			for _, repo := range stores.Categories.Members(category) {
				if !strings.Contains(strings.ToLower(string(repo)), needle) {
					continue
				}
				stores.Categories.Remove(category, repo)
				stores.Ledger.AddToBlacklist(repo)
				record := NewRemovalRecord(repo, RemovalRemoval, PublisherRemovedReason, banned.Link)
				stores.Ledger.RecordRemoval(record)
				records = append(records, record)
			}
		}
	}
	return records
}
