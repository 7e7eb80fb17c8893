// Package engine applies filter, sort, and aggregate operations to one
// immutable offer set. The package-level functions are pure; the Engine
// type adds per-offer projection caching and memoization of the last
// requested view so callers can re-derive on every interaction without
// re-walking the raw payloads.
package engine

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dnurhadi/skyfare/internal/models"
	"github.com/dnurhadi/skyfare/internal/offer"
)

const bucketWidth = 100

// projection holds the derived fields of one offer, computed once.
type projection struct {
	price      float64
	stops      int
	bucket     string
	airline    string
	durationMi int
	departure  time.Time
}

func project(o models.Offer) projection {
	stops := offer.StopCount(o)
	return projection{
		price:      offer.PriceValue(o),
		stops:      stops,
		bucket:     offer.StopBucket(stops),
		airline:    offer.PrimaryAirline(o),
		durationMi: offer.DurationMinutes(o),
		departure:  offer.DepartureInstant(o),
	}
}

func (p projection) matches(state models.FilterState) bool {
	if p.price > effectiveCeiling(state.MaxPrice) {
		return false
	}
	if len(state.SelectedStops) > 0 {
		found := false
		for _, b := range state.SelectedStops {
			if b == p.bucket {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(state.SelectedAirlines) > 0 {
		found := false
		for _, code := range state.SelectedAirlines {
			if strings.EqualFold(code, p.airline) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// A zero or NaN ceiling means the user never set one.
func effectiveCeiling(maxPrice float64) float64 {
	if maxPrice <= 0 || math.IsNaN(maxPrice) {
		return math.Inf(1)
	}
	return maxPrice
}

// Filter keeps the offers whose price, stop bucket, and primary airline
// all pass the state. The three categories are AND-combined; within a
// category the selections are OR-combined. Input order is preserved.
func Filter(offers []models.Offer, state models.FilterState) []models.Offer {
	result := make([]models.Offer, 0, len(offers))
	for _, o := range offers {
		if project(o).matches(state) {
			result = append(result, o)
		}
	}
	return result
}

// Sort returns a new slice ordered ascending by the key. The sort is
// stable: equal keys keep their original relative order. The input is
// not mutated.
func Sort(offers []models.Offer, key models.SortKey) []models.Offer {
	sorted := make([]models.Offer, len(offers))
	copy(sorted, offers)

	switch key {
	case models.SortByDuration:
		sort.SliceStable(sorted, func(i, j int) bool {
			return offer.DurationMinutes(sorted[i]) < offer.DurationMinutes(sorted[j])
		})
	case models.SortByDeparture:
		sort.SliceStable(sorted, func(i, j int) bool {
			return offer.DepartureInstant(sorted[i]).Before(offer.DepartureInstant(sorted[j]))
		})
	default:
		sort.SliceStable(sorted, func(i, j int) bool {
			return offer.PriceValue(sorted[i]) < offer.PriceValue(sorted[j])
		})
	}

	return sorted
}

// PriceHistogram buckets prices into width-100 bins keyed by the bin's
// lower bound. Empty bins are omitted; output is ascending by bound.
func PriceHistogram(offers []models.Offer) []models.PriceBucket {
	counts := make(map[int]int)
	for _, o := range offers {
		start := int(math.Floor(offer.PriceValue(o)/bucketWidth)) * bucketWidth
		counts[start]++
	}

	buckets := make([]models.PriceBucket, 0, len(counts))
	for start, n := range counts {
		buckets = append(buckets, models.PriceBucket{BucketStart: start, Count: n})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].BucketStart < buckets[j].BucketStart
	})
	return buckets
}

// UniqueAirlines counts every validating code across the set; one offer
// contributes to each code it lists. Sorted by count descending, then
// code ascending for determinism. Name is a passthrough of the code
// until a lookup layer fills it in.
func UniqueAirlines(offers []models.Offer) []models.AirlineCount {
	counts := make(map[string]int)
	for _, o := range offers {
		for _, code := range o.ValidatingAirlineCodes {
			counts[code]++
		}
	}

	airlines := make([]models.AirlineCount, 0, len(counts))
	for code, n := range counts {
		airlines = append(airlines, models.AirlineCount{Code: code, Name: code, Count: n})
	}
	sort.Slice(airlines, func(i, j int) bool {
		if airlines[i].Count != airlines[j].Count {
			return airlines[i].Count > airlines[j].Count
		}
		return airlines[i].Code < airlines[j].Code
	})
	return airlines
}

// PriceRange is the floor of the minimum and ceiling of the maximum
// price over the whole (unfiltered) set, {0,0} when empty.
func PriceRange(offers []models.Offer) models.PriceRange {
	if len(offers) == 0 {
		return models.PriceRange{}
	}

	min, max := math.Inf(1), math.Inf(-1)
	for _, o := range offers {
		p := offer.PriceValue(o)
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	return models.PriceRange{
		Min: int(math.Floor(min)),
		Max: int(math.Ceil(max)),
	}
}

// Engine owns one immutable offer set with its projections, and
// memoizes the last filtered/sorted view so repeated identical requests
// cost a map-key comparison.
type Engine struct {
	offers []models.Offer
	proj   []projection

	aggs *models.Aggregates

	lastKey  string
	lastView []models.Offer
}

func New(offers []models.Offer) *Engine {
	proj := make([]projection, len(offers))
	for i, o := range offers {
		proj[i] = project(o)
	}
	return &Engine{offers: offers, proj: proj}
}

func (e *Engine) Len() int { return len(e.offers) }

// View filters then stably sorts the set, reusing the previous result
// when neither the filter state nor the sort key changed.
func (e *Engine) View(state models.FilterState, key models.SortKey) []models.Offer {
	fp := fingerprint(state, key)
	if e.lastView != nil && fp == e.lastKey {
		return e.lastView
	}

	filtered := make([]models.Offer, 0, len(e.offers))
	for i, p := range e.proj {
		if p.matches(state) {
			filtered = append(filtered, e.offers[i])
		}
	}

	view := Sort(filtered, key)
	e.lastKey = fp
	e.lastView = view
	return view
}

// Aggregates computes the unfiltered-set summaries once per offer set.
func (e *Engine) Aggregates() models.Aggregates {
	if e.aggs == nil {
		e.aggs = &models.Aggregates{
			PriceRange: PriceRange(e.offers),
			Histogram:  PriceHistogram(e.offers),
			Airlines:   UniqueAirlines(e.offers),
		}
	}
	return *e.aggs
}

// Clamp pins the filter ceiling into the [min, max] envelope of the
// unfiltered set, leaving the unset (+Inf) ceiling alone so the URL
// codec can still tell "never set" from "set to the maximum".
func (e *Engine) Clamp(state models.FilterState) models.FilterState {
	if math.IsInf(state.MaxPrice, 1) || len(e.offers) == 0 {
		return state
	}
	r := e.Aggregates().PriceRange
	if state.MaxPrice > float64(r.Max) {
		state.MaxPrice = float64(r.Max)
	}
	if state.MaxPrice < float64(r.Min) {
		state.MaxPrice = float64(r.Min)
	}
	return state
}

func fingerprint(state models.FilterState, key models.SortKey) string {
	var b strings.Builder
	b.WriteString(strings.Join(state.SelectedAirlines, ","))
	b.WriteByte('|')
	b.WriteString(strings.Join(state.SelectedStops, ","))
	b.WriteByte('|')
	b.WriteString(strconv.FormatFloat(state.MaxPrice, 'g', -1, 64))
	b.WriteByte('|')
	b.WriteString(string(key))
	return b.String()
}
