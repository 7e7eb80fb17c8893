// Package urlstate serializes the search and filter selection to and
// from URL query parameters so any view of the result set is shareable
// and bookmarkable. Defaults are omitted on encode and restored on
// decode, so a default state round-trips to the empty query string.
package urlstate

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/dnurhadi/skyfare/internal/models"
)

// Query parameter names, fixed by the sharing format.
const (
	paramFrom     = "from"
	paramTo       = "to"
	paramDate     = "date"
	paramAirlines = "airlines"
	paramStops    = "stops"
	paramMaxPrice = "maxPrice"
	paramSort     = "sort"
)

// State is everything a link needs to reproduce a view: the search
// itself plus the filter and sort selection.
type State struct {
	Origin        string
	Destination   string
	DepartureDate string
	Filters       models.FilterState
	SortBy        models.SortKey
}

// Default returns the state an empty query decodes to.
func Default() State {
	return State{
		Filters: models.FilterState{MaxPrice: math.Inf(1)},
		SortBy:  models.SortByPrice,
	}
}

// Encode renders the state as a query string, omitting every key whose
// value equals its default. The price ceiling is emitted only when it
// is finite, so an unset ceiling never shows up in the address.
func Encode(s State) string {
	params := url.Values{}

	if s.Origin != "" {
		params.Set(paramFrom, s.Origin)
	}
	if s.Destination != "" {
		params.Set(paramTo, s.Destination)
	}
	if s.DepartureDate != "" {
		params.Set(paramDate, s.DepartureDate)
	}
	if len(s.Filters.SelectedAirlines) > 0 {
		params.Set(paramAirlines, strings.Join(s.Filters.SelectedAirlines, ","))
	}
	if len(s.Filters.SelectedStops) > 0 {
		params.Set(paramStops, strings.Join(s.Filters.SelectedStops, ","))
	}
	if !math.IsInf(s.Filters.MaxPrice, 1) && s.Filters.MaxPrice > 0 {
		params.Set(paramMaxPrice, strconv.Itoa(int(s.Filters.MaxPrice)))
	}
	if s.SortBy != "" && s.SortBy != models.SortByPrice {
		params.Set(paramSort, string(s.SortBy))
	}

	return params.Encode()
}

// Decode is the inverse of Encode. Missing keys restore their defaults;
// a malformed maxPrice reads as unset (+Inf); an unknown sort key falls
// back to price.
func Decode(query string) State {
	s := Default()

	params, err := url.ParseQuery(query)
	if err != nil {
		return s
	}

	s.Origin = params.Get(paramFrom)
	s.Destination = params.Get(paramTo)
	s.DepartureDate = params.Get(paramDate)
	s.Filters.SelectedAirlines = splitList(params.Get(paramAirlines))
	s.Filters.SelectedStops = splitList(params.Get(paramStops))

	if raw := params.Get(paramMaxPrice); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			s.Filters.MaxPrice = v
		}
	}

	if key := models.SortKey(params.Get(paramSort)); key.Valid() {
		s.SortBy = key
	}

	return s
}

// Clear strips the query from an address, leaving the bare path.
func Clear(address string) string {
	u, err := url.Parse(address)
	if err != nil {
		return address
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
