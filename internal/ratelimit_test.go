package internal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimitedTransportPaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := &http.Client{Transport: NewRateLimitedTransport(nil, 5, 1)}
	start := time.Now()
	for i := 0; i < 3; i++ {
		resp, err := client.Get(server.URL)
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		resp.Body.Close()
	}
	if elapsed := time.Since(start); elapsed < 350*time.Millisecond {
		t.Fatalf("expected pacing of about 400ms, got %s", elapsed)
	}
}

func TestRateLimitedTransportHonorsContext(t *testing.T) {
	transport := NewRateLimitedTransport(http.DefaultTransport, 0.001, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://127.0.0.1:1", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	// First token is available immediately; the request itself fails to connect.
	_, _ = transport.RoundTrip(req)
	if _, err := transport.RoundTrip(req); err == nil {
		t.Fatalf("expected wait to fail once the context expires")
	}
}

func TestRateLimitedTransportDisabled(t *testing.T) {
	if got := NewRateLimitedTransport(http.DefaultTransport, 0, 0); got != http.DefaultTransport {
		t.Fatalf("expected passthrough transport when rps is zero")
	}
}
