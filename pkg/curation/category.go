package curation

import (
	"fmt"
	"strings"
)

// Category is a content-type partition of the index.
type Category string

const (
	AppDaemon    Category = "appdaemon"
	Integration  Category = "integration"
	NetDaemon    Category = "netdaemon"
	Plugin       Category = "plugin"
	PythonScript Category = "python_script"
	Template     Category = "template"
	Theme        Category = "theme"
)

var allCategories = []Category{AppDaemon, Integration, NetDaemon, Plugin, PythonScript, Template, Theme}

// Categories returns every category in file order.
func Categories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// ParseCategory maps a name to a known category.
func ParseCategory(name string) (Category, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range allCategories {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", name)
}

// CategoryStore holds the membership list of every category.
type CategoryStore struct {
	members map[Category][]RepositoryID
}

func NewCategoryStore() *CategoryStore {
	members := make(map[Category][]RepositoryID, len(allCategories))
	for _, c := range allCategories {
		members[c] = []RepositoryID{}
	}
	return &CategoryStore{members: members}
}

// Set replaces the members of a category, keeping the given order.
func (s *CategoryStore) Set(c Category, ids []RepositoryID) {
	cp := make([]RepositoryID, len(ids))
	copy(cp, ids)
	s.members[c] = cp
}

// Categories returns all categories, including empty ones.
func (s *CategoryStore) Categories() []Category {
	return Categories()
}

// Members returns a snapshot of a category's members.
func (s *CategoryStore) Members(c Category) []RepositoryID {
	ids := s.members[c]
	out := make([]RepositoryID, len(ids))
	copy(out, ids)
	return out
}

// Sorted returns the members of c in persistence order.
func (s *CategoryStore) Sorted(c Category) []RepositoryID {
	return SortedIDs(s.members[c])
}

func (s *CategoryStore) Contains(c Category, repo RepositoryID) bool {
	return indexOf(s.members[c], repo) >= 0
}

// Remove drops repo from c. Removing an absent repository is a no-op.
func (s *CategoryStore) Remove(c Category, repo RepositoryID) bool {
	ids := s.members[c]
	removed := false
	for {
		i := indexOf(ids, repo)
		if i < 0 {
			break
		}
		ids = append(ids[:i:i], ids[i+1:]...)
		removed = true
	}
	s.members[c] = ids
	return removed
}

// Find returns the first category listing repo.
func (s *CategoryStore) Find(repo RepositoryID) (Category, bool) {
	for _, c := range allCategories {
		if s.Contains(c, repo) {
			return c, true
		}
	}
	return "", false
}

// Len returns the total member count across categories.
func (s *CategoryStore) Len() int {
	n := 0
	for _, ids := range s.members {
		n += len(ids)
	}
	return n
}
