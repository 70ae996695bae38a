package pokeapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTestServer(t *testing.T, spriteHits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/pokemon-species", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count": 151}`)
	})
	mux.HandleFunc("/pokemon-species/1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"id": 1,
			"names": [
				{"name": "Bulbasaur", "language": {"name": "en"}},
				{"name": "フシギダネ", "language": {"name": "ja-hrkt"}}
			],
			"flavor_text_entries": [
				{"flavor_text": "A strange seed.", "language": {"name": "en"}},
				{"flavor_text": "うまれたときから　せなかに", "language": {"name": "ja-hrkt"}}
			]
		}`)
	})
	mux.HandleFunc("/pokemon-species/2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": 2, "names": [{"name": "Ivysaur", "language": {"name": "en"}}]}`)
	})
	mux.HandleFunc("/pokemon/1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"id": 1, "sprites": {"front_default": "%s/sprite/1.png"}}`, srv.URL)
	})
	mux.HandleFunc("/sprite/1.png", func(w http.ResponseWriter, r *http.Request) {
		if spriteHits != nil {
			spriteHits.Add(1)
		}
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRandomSubjectIDStaysInRange(t *testing.T) {
	srv := newTestServer(t, nil)
	c := NewClient(srv.URL)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		id, err := c.RandomSubjectID(ctx)
		if err != nil {
			t.Fatalf("RandomSubjectID() error = %v", err)
		}
		if id < 1 || id > 151 {
			t.Fatalf("id %d out of range [1,151]", id)
		}
	}
}

func TestRandomSubjectIDRecoversAfterFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"count": 151}`)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL)
	ctx := context.Background()

	if _, err := c.RandomSubjectID(ctx); err == nil {
		t.Fatalf("RandomSubjectID() should fail while the count fetch fails")
	}
	id, err := c.RandomSubjectID(ctx)
	if err != nil {
		t.Fatalf("RandomSubjectID() after recovery error = %v", err)
	}
	if id < 1 || id > 151 {
		t.Fatalf("id %d out of range [1,151]", id)
	}
	// The count is memoized once fetched.
	c.RandomSubjectID(ctx)
	if got := calls.Load(); got != 2 {
		t.Fatalf("count fetched %d times, want 2", got)
	}
}

func TestDisplayNamePrefersJapanese(t *testing.T) {
	srv := newTestServer(t, nil)
	c := NewClient(srv.URL)

	name, err := c.DisplayName(context.Background(), 1)
	if err != nil {
		t.Fatalf("DisplayName() error = %v", err)
	}
	if name != "フシギダネ" {
		t.Fatalf("name = %q", name)
	}
}

func TestDisplayNameMissingLocalization(t *testing.T) {
	srv := newTestServer(t, nil)
	c := NewClient(srv.URL)

	if _, err := c.DisplayName(context.Background(), 2); err == nil {
		t.Fatalf("DisplayName() should fail without a ja-hrkt name")
	}
}

func TestDescriptionFallsBackToEmpty(t *testing.T) {
	srv := newTestServer(t, nil)
	c := NewClient(srv.URL)

	desc, err := c.Description(context.Background(), 1)
	if err != nil {
		t.Fatalf("Description() error = %v", err)
	}
	if desc == "" {
		t.Fatalf("expected japanese flavor text")
	}

	desc, err = c.Description(context.Background(), 2)
	if err != nil || desc != "" {
		t.Fatalf("missing localization: desc = %q, err = %v", desc, err)
	}
}

func TestSpriteImageIsCached(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits)
	c := NewClient(srv.URL)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		data, err := c.SpriteImage(ctx, 1)
		if err != nil {
			t.Fatalf("SpriteImage() error = %v", err)
		}
		if len(data) != 4 {
			t.Fatalf("sprite bytes = %v", data)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("sprite fetched %d times, want 1", got)
	}
}
