package curation

// BlacklistName is the store name of the blacklist file.
const BlacklistName = "blacklist"

// UnsortedList is a persisted list found out of order.
type UnsortedList struct {
	Name     string
	Actual   []RepositoryID
	Expected []RepositoryID
}

// Unsorted checks the blacklist and every category, in that order, against
// case-insensitive ordering. Lists are checked as loaded, not as they would
// be saved.
func Unsorted(stores *Stores) []UnsortedList {
	var out []UnsortedList
	check := func(name string, ids []RepositoryID) {
		if !IsSortedIDs(ids) {
			out = append(out, UnsortedList{Name: name, Actual: ids, Expected: SortedIDs(ids)})
		}
	}
	check(BlacklistName, stores.Ledger.RawBlacklist())
	for _, c := range stores.Categories.Categories() {
		check(string(c), stores.Categories.Members(c))
	}
	return out
}
