package notify

import (
	"time"

	"curator/pkg/curation"
)

const (
	KindRemoval = "removal"
	KindSummary = "summary"
)

// Event is the payload published for a cleanup pass.
type Event struct {
	RunID      string                  `json:"run_id"`
	Kind       string                  `json:"kind"`
	Removal    *curation.RemovalRecord `json:"removal,omitempty"`
	Authors    []string                `json:"authors,omitempty"`
	Removed    int                     `json:"removed"`
	Backfilled int                     `json:"backfilled"`
	OccurredAt time.Time               `json:"occurred_at"`
}
