package curation

import "fmt"

// ChangedRepository finds the single repository added in head relative to
// base. Exactly one category may gain entries and it must gain exactly one.
func ChangedRepository(base, head *CategoryStore) (Category, RepositoryID, error) {
	var (
		changed []Category
		added   = make(map[Category][]RepositoryID)
	)
	for _, c := range Categories() {
		previous := make(map[RepositoryID]struct{})
		for _, repo := range base.Members(c) {
			previous[repo] = struct{}{}
		}
		for _, repo := range head.Members(c) {
			if _, ok := previous[repo]; !ok {
				added[c] = append(added[c], repo)
			}
		}
		if len(added[c]) > 0 {
			changed = append(changed, c)
		}
	}
	if len(changed) != 1 {
		return "", "", fmt.Errorf("bad data: expected one changed category, got %v", changed)
	}
	category := changed[0]
	if len(added[category]) != 1 {
		return "", "", fmt.Errorf("bad data: expected one new repository in %s, got %v", category, added[category])
	}
	return category, added[category][0], nil
}
