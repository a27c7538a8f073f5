package internal

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"curator/pkg/curation"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testReport() *curation.Report {
	started := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	return &curation.Report{
		RunID:      "run-1",
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
		Removed: []curation.RemovalRecord{
			curation.NewRemovalRecord("a/one", curation.RemovalStale, "", ""),
			curation.NewRemovalRecord("b/two", curation.RemovalStale, "", ""),
		},
		Backfilled: []curation.RemovalRecord{
			curation.NewRemovalRecord("c/three", curation.RemovalStale, curation.BackfillReason, ""),
		},
		Authors:   []string{"a", "b"},
		Evaluated: 7,
		Graced:    1,
	}
}

func TestPassMetricsObserve(t *testing.T) {
	m := NewPassMetrics(MetricsConfig{Job: "curator"})
	if err := m.Observe(context.Background(), testReport()); err != nil {
		t.Fatalf("observe: %v", err)
	}

	if got := testutil.ToFloat64(m.removed.WithLabelValues("stale")); got != 2 {
		t.Fatalf("expected 2 stale removals, got %v", got)
	}
	if got := testutil.ToFloat64(m.backfilled); got != 1 {
		t.Fatalf("expected 1 backfilled record, got %v", got)
	}
	if got := testutil.ToFloat64(m.evaluated); got != 7 {
		t.Fatalf("expected 7 evaluated, got %v", got)
	}
	if got := testutil.ToFloat64(m.duration); got != 90 {
		t.Fatalf("expected 90s duration, got %v", got)
	}
	if got := testutil.ToFloat64(m.authors); got != 2 {
		t.Fatalf("expected 2 authors, got %v", got)
	}
}

func TestPassMetricsPush(t *testing.T) {
	var (
		path string
		body string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m := NewPassMetrics(MetricsConfig{PushgatewayURL: server.URL, Job: "curator"})
	if err := m.Observe(context.Background(), testReport()); err != nil {
		t.Fatalf("observe: %v", err)
	}
	if path != "/metrics/job/curator" {
		t.Fatalf("unexpected push path %q", path)
	}
	if body == "" {
		t.Fatalf("expected a metrics payload")
	}
	if strings.Contains(path, "run-1") {
		t.Fatalf("run id must not be a grouping label")
	}
}
