// Package pricecache tracks the cheapest known price per calendar date
// for one route, backing the date-scroller view. Each date moves through
// Absent -> Loading -> Ready|Failed, with at most one fetch in flight
// per date and a freshness window during which completed entries are
// served without touching the network.
package pricecache

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/dnurhadi/skyfare/internal/models"
	"github.com/dnurhadi/skyfare/internal/offer"
)

// DefaultFreshness is how long a completed fetch, successful or failed,
// is reused before a new request may go out for the same date.
const DefaultFreshness = 5 * time.Minute

// Searcher is the external flight-offer transport the cache polls with
// a fixed one-adult, one-way query.
type Searcher interface {
	SearchFlights(ctx context.Context, origin, destination, date string) ([]models.Offer, error)
}

// Entry is the cached outcome for one date. A nil MinPrice on a
// non-loading, non-failed entry means the fetch succeeded but returned
// zero offers.
type Entry struct {
	MinPrice    *float64
	FlightCount int
	Loading     bool
	Error       string
	FetchedAt   time.Time
}

type record struct {
	Entry
	done chan struct{}
}

// Cache owns the per-date entries for one origin/destination pair. All
// mutation happens under its lock; entries handed out are copies.
type Cache struct {
	origin      string
	destination string
	searcher    Searcher
	freshness   time.Duration
	now         func() time.Time

	mu      sync.Mutex
	records map[string]*record
}

type Option func(*Cache)

// WithFreshness overrides the reuse window.
func WithFreshness(d time.Duration) Option {
	return func(c *Cache) { c.freshness = d }
}

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func New(origin, destination string, searcher Searcher, opts ...Option) *Cache {
	c := &Cache{
		origin:      origin,
		destination: destination,
		searcher:    searcher,
		freshness:   DefaultFreshness,
		now:         time.Now,
		records:     make(map[string]*record),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Request starts a fetch for the date unless one is already in flight
// or a completed entry is still fresh. It returns immediately; the
// outcome lands in the cache and is visible through Get.
func (c *Cache) Request(ctx context.Context, date string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestLocked(ctx, date)
}

// Fetch is the blocking variant: it joins the in-flight request for the
// date if there is one, starts one otherwise, and returns the resolved
// entry (or the current snapshot if ctx expires first).
func (c *Cache) Fetch(ctx context.Context, date string) Entry {
	c.mu.Lock()
	rec := c.requestLocked(ctx, date)
	done := rec.done
	c.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
	}

	entry, _ := c.Get(date)
	return entry
}

// Get is a pure lookup; it never triggers a fetch. The second return is
// false while the date is absent.
func (c *Cache) Get(date string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.records[date]
	if !ok {
		return Entry{}, false
	}
	return rec.Entry, true
}

func (c *Cache) requestLocked(ctx context.Context, date string) *record {
	if rec, ok := c.records[date]; ok {
		if rec.Loading {
			return rec
		}
		if c.now().Sub(rec.FetchedAt) < c.freshness {
			return rec
		}
	}

	rec := &record{
		Entry: Entry{Loading: true},
		done:  make(chan struct{}),
	}
	c.records[date] = rec

	go c.fetch(ctx, date, rec)
	return rec
}

func (c *Cache) fetch(ctx context.Context, date string, rec *record) {
	offers, err := c.searcher.SearchFlights(ctx, c.origin, c.destination, date)

	result := Entry{FetchedAt: c.now()}
	if err != nil {
		result.Error = err.Error()
		log.Printf("price fetch for %s-%s on %s failed: %v", c.origin, c.destination, date, err)
	} else {
		result.FlightCount = len(offers)
		if min, ok := minPrice(offers); ok {
			result.MinPrice = &min
		}
	}

	c.mu.Lock()
	rec.Entry = result
	c.mu.Unlock()
	close(rec.done)
}

func minPrice(offers []models.Offer) (float64, bool) {
	if len(offers) == 0 {
		return 0, false
	}
	min := offer.PriceValue(offers[0])
	for _, o := range offers[1:] {
		if p := offer.PriceValue(o); p < min {
			min = p
		}
	}
	return min, true
}
