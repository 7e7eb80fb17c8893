// Package session orchestrates one user's search lifecycle: it drives
// the external transport, keeps the current result set with its loading
// and error flags, and guarantees that a superseded search can never
// overwrite the state of a newer one.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/dnurhadi/skyfare/internal/models"
)

// ErrNoResults marks a successful search that matched nothing. It is a
// distinct condition, not a transport failure, so the caller can suggest
// adjusting criteria instead of reporting a fault.
var ErrNoResults = errors.New("no flights found for this route, try different dates or airports")

// Searcher is the external flight-offer transport.
type Searcher interface {
	SearchFlights(ctx context.Context, origin, destination, date string) ([]models.Offer, error)
}

// Snapshot is the session state at one instant.
type Snapshot struct {
	Offers    []models.Offer
	Loading   bool
	Error     string
	NoResults bool
}

// Session owns the current offer list. Only one search matters at a
// time: a new call supersedes the previous one immediately, and a late
// resolution of a superseded call is dropped via the generation counter.
type Session struct {
	searcher Searcher

	mu        sync.Mutex
	gen       uint64
	offers    []models.Offer
	loading   bool
	errMsg    string
	noResults bool
}

func New(searcher Searcher) *Session {
	return &Session{searcher: searcher}
}

// Search validates the parameters, runs the transport, and settles the
// session in exactly one of three terminal states: results, no-results,
// or failure with the transport's message. Validation failures make no
// network call. The returned error mirrors what was stored.
func (s *Session) Search(ctx context.Context, origin, destination, date string) ([]models.Offer, error) {
	if err := validate(origin, destination, date); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.offers = nil
	s.errMsg = ""
	s.noResults = false
	s.loading = true
	s.mu.Unlock()

	offers, err := s.searcher.SearchFlights(ctx, origin, destination, date)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		// A newer search took over while this one was in flight.
		if err != nil {
			return nil, err
		}
		return offers, nil
	}

	s.loading = false
	switch {
	case err != nil:
		s.offers = nil
		s.errMsg = err.Error()
		return nil, err
	case len(offers) == 0:
		s.offers = nil
		s.noResults = true
		s.errMsg = ErrNoResults.Error()
		return nil, ErrNoResults
	default:
		s.offers = offers
		return offers, nil
	}
}

// Reset returns the session to idle synchronously, dropping results,
// error, and loading flags. An in-flight search that resolves later is
// superseded and discarded.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.offers = nil
	s.errMsg = ""
	s.noResults = false
	s.loading = false
}

// State reports the current snapshot. The offer slice is shared but
// never mutated after it is stored.
func (s *Session) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Offers:    s.offers,
		Loading:   s.loading,
		Error:     s.errMsg,
		NoResults: s.noResults,
	}
}

func validate(origin, destination, date string) error {
	if origin == "" {
		return models.ErrMissingOrigin
	}
	if destination == "" {
		return models.ErrMissingDestination
	}
	if date == "" {
		return models.ErrMissingDepartureDate
	}
	return nil
}
