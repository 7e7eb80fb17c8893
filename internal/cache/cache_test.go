package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/dnurhadi/skyfare/internal/models"
)

type memoryCache struct {
	entries map[string][]models.Offer
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]models.Offer)}
}

func (m *memoryCache) Get(ctx context.Context, q Query) ([]models.Offer, bool) {
	offers, ok := m.entries[Key(q)]
	return offers, ok
}

func (m *memoryCache) Set(ctx context.Context, q Query, offers []models.Offer) error {
	m.entries[Key(q)] = offers
	m.sets++
	return nil
}

func (m *memoryCache) Close() error { return nil }

type countingSearcher struct {
	calls  int
	offers []models.Offer
	err    error
}

func (s *countingSearcher) SearchFlights(ctx context.Context, origin, destination, date string) ([]models.Offer, error) {
	s.calls++
	return s.offers, s.err
}

func TestKeyIsStablePerQuery(t *testing.T) {
	q := Query{Origin: "JFK", Destination: "LHR", DepartureDate: "2025-06-01"}

	if Key(q) != Key(q) {
		t.Error("same query must derive the same key")
	}

	other := q
	other.DepartureDate = "2025-06-02"
	if Key(q) == Key(other) {
		t.Error("different dates must derive different keys")
	}
}

func TestCachedSearcherMissThenHit(t *testing.T) {
	mem := newMemoryCache()
	next := &countingSearcher{offers: []models.Offer{{ID: "1", Price: models.Price{Total: "100.00"}}}}
	s := NewCachedSearcher(next, mem)

	first, err := s.SearchFlights(context.Background(), "JFK", "LHR", "2025-06-01")
	if err != nil || len(first) != 1 {
		t.Fatalf("miss path failed: %v, %d offers", err, len(first))
	}

	second, err := s.SearchFlights(context.Background(), "JFK", "LHR", "2025-06-01")
	if err != nil || len(second) != 1 {
		t.Fatalf("hit path failed: %v, %d offers", err, len(second))
	}

	if next.calls != 1 {
		t.Errorf("transport called %d times, want 1 (second search served from cache)", next.calls)
	}
}

func TestCachedSearcherCachesEmptyLists(t *testing.T) {
	mem := newMemoryCache()
	next := &countingSearcher{offers: nil}
	s := NewCachedSearcher(next, mem)

	s.SearchFlights(context.Background(), "JFK", "LHR", "2025-06-01")
	offers, err := s.SearchFlights(context.Background(), "JFK", "LHR", "2025-06-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if offers == nil || len(offers) != 0 {
		t.Errorf("cached empty result should stay an empty list, got %v", offers)
	}
	if next.calls != 1 {
		t.Errorf("empty result was not cached: %d transport calls", next.calls)
	}
}

func TestCachedSearcherNeverCachesFailures(t *testing.T) {
	mem := newMemoryCache()
	next := &countingSearcher{err: errors.New("rate limited")}
	s := NewCachedSearcher(next, mem)

	if _, err := s.SearchFlights(context.Background(), "JFK", "LHR", "2025-06-01"); err == nil {
		t.Fatal("expected the transport error through")
	}
	s.SearchFlights(context.Background(), "JFK", "LHR", "2025-06-01")

	if next.calls != 2 {
		t.Errorf("failures must not be cached: %d transport calls, want 2", next.calls)
	}
	if mem.sets != 0 {
		t.Errorf("failure wrote %d cache entries, want 0", mem.sets)
	}
}

func TestNoOpCacheAlwaysMisses(t *testing.T) {
	c := NewNoOpCache()
	q := Query{Origin: "JFK", Destination: "LHR", DepartureDate: "2025-06-01"}

	if err := c.Set(context.Background(), q, []models.Offer{{ID: "1"}}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok := c.Get(context.Background(), q); ok {
		t.Error("NoOpCache should never report a hit")
	}
}
