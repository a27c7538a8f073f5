package curation

import (
	"encoding/json"
	"math"
	"sort"
	"time"
)

// DefaultGracePeriod is how long a granted grace lasts.
const DefaultGracePeriod = 60 * 24 * time.Hour

// GraceEntry is a temporary exemption from staleness removal.
type GraceEntry struct {
	// Until is epoch seconds.
	Until float64 `json:"until"`
	Count int     `json:"count"`
}

// UntilTime converts Until to a time.Time.
func (e GraceEntry) UntilTime() time.Time {
	sec, frac := math.Modf(e.Until)
	return time.Unix(int64(sec), int64(frac*1e9))
}

// GraceRegistry holds grace entries keyed by repository.
// Expired entries stay as history and are never pruned here.
type GraceRegistry struct {
	entries map[RepositoryID]GraceEntry
}

// NewGraceRegistry wraps entries. A nil map is allowed.
func NewGraceRegistry(entries map[RepositoryID]GraceEntry) *GraceRegistry {
	if entries == nil {
		entries = make(map[RepositoryID]GraceEntry)
	}
	return &GraceRegistry{entries: entries}
}

// Lookup finds the entry for repo, exact key first.
func (g *GraceRegistry) Lookup(repo RepositoryID) (GraceEntry, bool) {
	key, ok := g.key(repo)
	if !ok {
		return GraceEntry{}, false
	}
	return g.entries[key], true
}

// key resolves repo to its stored key. Among several case variants the
// lowest in byte order wins.
func (g *GraceRegistry) key(repo RepositoryID) (RepositoryID, bool) {
	if _, ok := g.entries[repo]; ok {
		return repo, true
	}
	var matches []RepositoryID
	for id := range g.entries {
		if id.Equal(repo) {
			matches = append(matches, id)
		}
	}
	if len(matches) == 0 {
		return repo, false
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i] < matches[j] })
	return matches[0], true
}

// IsGraced reports whether repo holds a grace entry that has not expired at now.
func (g *GraceRegistry) IsGraced(repo RepositoryID, now time.Time) bool {
	entry, ok := g.Lookup(repo)
	if !ok {
		return false
	}
	return entry.Until > epochSeconds(now)
}

// Grant resets the expiry to now+period and bumps the strike counter.
func (g *GraceRegistry) Grant(repo RepositoryID, now time.Time, period time.Duration) GraceEntry {
	if period <= 0 {
		period = DefaultGracePeriod
	}
	key, _ := g.key(repo)
	entry := g.entries[key]
	entry.Until = epochSeconds(now.Add(period))
	entry.Count++
	g.entries[key] = entry
	return entry
}

// Len returns the number of entries, expired ones included.
func (g *GraceRegistry) Len() int {
	return len(g.entries)
}

func (g *GraceRegistry) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.entries)
}

func (g *GraceRegistry) UnmarshalJSON(data []byte) error {
	entries := make(map[RepositoryID]GraceEntry)
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	if entries == nil {
		entries = make(map[RepositoryID]GraceEntry)
	}
	g.entries = entries
	return nil
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
