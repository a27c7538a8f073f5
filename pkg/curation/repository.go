package curation

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// RepositoryID identifies a repository as "owner/name". Comparison is
// case-insensitive, storage keeps the original case.
type RepositoryID string

// ParseRepositoryID validates the "owner/name" shape.
func ParseRepositoryID(raw string) (RepositoryID, error) {
	raw = strings.TrimSpace(raw)
	owner, name, ok := strings.Cut(raw, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("invalid repository %q: expected owner/name", raw)
	}
	return RepositoryID(raw), nil
}

func (r RepositoryID) String() string {
	return string(r)
}

// Owner returns the part before the slash.
func (r RepositoryID) Owner() string {
	owner, _, _ := strings.Cut(string(r), "/")
	return owner
}

// Name returns the part after the slash.
func (r RepositoryID) Name() string {
	_, name, _ := strings.Cut(string(r), "/")
	return name
}

// Equal reports whether both ids name the same repository.
func (r RepositoryID) Equal(other RepositoryID) bool {
	return strings.EqualFold(string(r), string(other))
}

func (r RepositoryID) key() string {
	return strings.ToLower(string(r))
}

// SortIDs sorts ids case-insensitively in place. Equal keys keep their order.
func SortIDs(ids []RepositoryID) {
	sort.SliceStable(ids, func(i, j int) bool {
		return ids[i].key() < ids[j].key()
	})
}

// SortedIDs returns a sorted copy of ids. The result is never nil.
func SortedIDs(ids []RepositoryID) []RepositoryID {
	out := make([]RepositoryID, len(ids))
	copy(out, ids)
	SortIDs(out)
	return out
}

// IsSortedIDs reports whether ids are in case-insensitive order.
func IsSortedIDs(ids []RepositoryID) bool {
	return sort.SliceIsSorted(ids, func(i, j int) bool {
		return ids[i].key() < ids[j].key()
	})
}

func indexOf(ids []RepositoryID, repo RepositoryID) int {
	for i, id := range ids {
		if id == repo {
			return i
		}
	}
	for i, id := range ids {
		if id.Equal(repo) {
			return i
		}
	}
	return -1
}

// OwnerType is the GitHub account kind owning a repository.
type OwnerType string

const (
	OwnerUser         OwnerType = "User"
	OwnerOrganization OwnerType = "Organization"
)

// Contributor is one entry of a repository's contributor list.
type Contributor struct {
	Login         string `json:"login"`
	Contributions int    `json:"contributions"`
}

// RepositoryMetadata is the provider's view of a repository.
type RepositoryMetadata struct {
	Repository     RepositoryID
	OpenIssueCount int
	OpenPullCount  int
	LastPushedAt   time.Time
	OwnerType      OwnerType
	OwnerLogin     string
	Archived       bool
	Fork           bool
	// Contributors is only set by providers that return it inline.
	// Attribution fetches the list when it is empty.
	Contributors []Contributor
}

// TopContributor returns the contributor with the strictly highest count.
// Ties go to the first one in list order.
func TopContributor(contributors []Contributor) (Contributor, bool) {
	if len(contributors) == 0 {
		return Contributor{}, false
	}
	best := contributors[0]
	for _, c := range contributors[1:] {
		if c.Contributions > best.Contributions {
			best = c
		}
	}
	return best, true
}
