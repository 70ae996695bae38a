package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ent0n29/ayanamist/internal/ledger"
)

func newTestServer(t *testing.T, store ledger.Store, ready func() bool) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(New(store, ready).Router())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	res, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
}

func TestReadiness(t *testing.T) {
	ready := false
	ts := newTestServer(t, nil, func() bool { return ready })

	res, err := http.Get(ts.URL + "/readyz")
	if err != nil {
		t.Fatalf("GET /readyz error = %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status before ready = %d, want 503", res.StatusCode)
	}

	ready = true
	res, err = http.Get(ts.URL + "/readyz")
	if err != nil {
		t.Fatalf("GET /readyz error = %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status after ready = %d, want 200", res.StatusCode)
	}
}

func TestListRecords(t *testing.T) {
	store := ledger.NewInMemoryStore()
	for _, outcome := range []string{"correct", "wrong", "expired"} {
		if err := store.Append(context.Background(), ledger.Record{
			Kind:    ledger.KindVerification,
			UserID:  "user-1",
			Outcome: outcome,
		}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	ts := newTestServer(t, store, nil)

	res, err := http.Get(ts.URL + "/v1/records?limit=2")
	if err != nil {
		t.Fatalf("GET /v1/records error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}

	var out struct {
		Records []ledger.Record `json:"records"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(out.Records))
	}
	if out.Records[0].Outcome != "expired" {
		t.Fatalf("records not newest-first: %+v", out.Records)
	}
}

func TestListRecordsBadLimit(t *testing.T) {
	ts := newTestServer(t, ledger.NewInMemoryStore(), nil)

	res, err := http.Get(ts.URL + "/v1/records?limit=zero")
	if err != nil {
		t.Fatalf("GET /v1/records error = %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", res.StatusCode)
	}
}
