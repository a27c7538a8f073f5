package curation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RemovalType classifies a removal event.
type RemovalType string

const (
	RemovalStale     RemovalType = "stale"
	RemovalBlacklist RemovalType = "blacklist"
	RemovalRemoval   RemovalType = "removal"
)

// ParseRemovalType accepts the three known removal types.
func ParseRemovalType(raw string) (RemovalType, error) {
	switch t := RemovalType(strings.ToLower(strings.TrimSpace(raw))); t {
	case RemovalStale, RemovalBlacklist, RemovalRemoval:
		return t, nil
	default:
		return "", fmt.Errorf("unknown removal type %q", raw)
	}
}

// BackfillReason marks records added by reconciliation.
const BackfillReason = "backfilled"

// RemovalRecord is one entry of the removed ledger.
type RemovalRecord struct {
	Repository  RepositoryID `json:"repository"`
	RemovalType RemovalType  `json:"removal_type,omitempty"`
	Reason      *string      `json:"reason,omitempty"`
	Link        *string      `json:"link,omitempty"`
}

// NewRemovalRecord builds a record, leaving empty reason and link unset.
func NewRemovalRecord(repo RepositoryID, kind RemovalType, reason, link string) RemovalRecord {
	record := RemovalRecord{Repository: repo, RemovalType: kind}
	if reason != "" {
		record.Reason = &reason
	}
	if link != "" {
		record.Link = &link
	}
	return record
}

// Ledger couples the blacklist with the removal audit log.
type Ledger struct {
	blacklist  []RepositoryID
	records    []RemovalRecord
	duplicates []RepositoryID
}

// NewLedger copies both stores. Case-insensitive duplicates in the blacklist
// are dropped and reported by Duplicates.
func NewLedger(blacklist []RepositoryID, records []RemovalRecord) *Ledger {
	l := &Ledger{
		blacklist: make([]RepositoryID, 0, len(blacklist)),
		records:   make([]RemovalRecord, len(records)),
	}
	copy(l.records, records)
	for _, repo := range blacklist {
		if !l.AddToBlacklist(repo) {
			l.duplicates = append(l.duplicates, repo)
		}
	}
	return l
}

// Duplicates lists blacklist entries dropped while loading.
func (l *Ledger) Duplicates() []RepositoryID {
	return l.duplicates
}

// Blacklisted reports membership, case-insensitively.
func (l *Ledger) Blacklisted(repo RepositoryID) bool {
	return indexOf(l.blacklist, repo) >= 0
}

// AddToBlacklist appends repo unless already present.
func (l *Ledger) AddToBlacklist(repo RepositoryID) bool {
	if l.Blacklisted(repo) {
		return false
	}
	l.blacklist = append(l.blacklist, repo)
	return true
}

// RecordRemoval always appends; the ledger keeps every removal event.
func (l *Ledger) RecordRemoval(record RemovalRecord) {
	l.records = append(l.records, record)
}

// Blacklist returns the blacklist in persistence order.
func (l *Ledger) Blacklist() []RepositoryID {
	return SortedIDs(l.blacklist)
}

// RawBlacklist returns the blacklist in insertion order.
func (l *Ledger) RawBlacklist() []RepositoryID {
	out := make([]RepositoryID, len(l.blacklist))
	copy(out, l.blacklist)
	return out
}

// Records returns the ledger in append order.
func (l *Ledger) Records() []RemovalRecord {
	out := make([]RemovalRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Reconcile backfills a stale record for every blacklisted repository whose
// id does not appear anywhere in the serialized ledger.
func (l *Ledger) Reconcile() ([]RemovalRecord, error) {
	serialized, err := json.Marshal(l.records)
	if err != nil {
		return nil, fmt.Errorf("serialize ledger: %w", err)
	}
	text := string(serialized)
	var added []RemovalRecord
	for _, repo := range l.blacklist {
		if strings.Contains(text, string(repo)) {
			continue
		}
		record := NewRemovalRecord(repo, RemovalStale, BackfillReason, "")
		l.RecordRemoval(record)
		added = append(added, record)
	}
	return added, nil
}
