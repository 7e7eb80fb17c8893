package models

import (
	"encoding/json"
	"math"
)

// Endpoint is one side of a flown leg as the upstream API reports it.
type Endpoint struct {
	IATACode string `json:"iataCode"`
	Terminal string `json:"terminal,omitempty"`
	At       string `json:"at"`
}

// Segment is one non-stop flown leg. NumberOfStops counts on-board
// technical stops within the leg, not connections between legs.
type Segment struct {
	ID            string   `json:"id"`
	Departure     Endpoint `json:"departure"`
	Arrival       Endpoint `json:"arrival"`
	CarrierCode   string   `json:"carrierCode,omitempty"`
	Number        string   `json:"number,omitempty"`
	Duration      string   `json:"duration"`
	NumberOfStops int      `json:"numberOfStops"`
}

// Itinerary is an ordered sequence of segments forming one directional trip.
type Itinerary struct {
	Duration string    `json:"duration"`
	Segments []Segment `json:"segments"`
}

// Price carries the upstream fixed-point decimal strings untouched;
// numeric access goes through the offer package.
type Price struct {
	Currency   string `json:"currency"`
	Total      string `json:"total"`
	Base       string `json:"base,omitempty"`
	GrandTotal string `json:"grandTotal,omitempty"`
}

// Offer is one priced itinerary option returned by a flight search.
// It is immutable once built: a new search replaces the whole set.
type Offer struct {
	ID                     string      `json:"id"`
	Source                 string      `json:"source,omitempty"`
	OneWay                 bool        `json:"oneWay,omitempty"`
	LastTicketingDate      string      `json:"lastTicketingDate,omitempty"`
	NumberOfBookableSeats  int         `json:"numberOfBookableSeats,omitempty"`
	Itineraries            []Itinerary `json:"itineraries"`
	Price                  Price       `json:"price"`
	ValidatingAirlineCodes []string    `json:"validatingAirlineCodes"`
}

// Stop-count buckets offered by the stops filter. Every offer falls in
// exactly one of them.
const (
	StopsNone = "0"
	StopsOne  = "1"
	StopsMany = "2+"
)

// FilterState holds the user-chosen constraints. Empty selections mean
// no restriction; MaxPrice defaults to +Inf until a result set pins it
// to the observed maximum.
type FilterState struct {
	SelectedAirlines []string
	SelectedStops    []string
	MaxPrice         float64
}

// filterStateWire keeps +Inf off the wire: an unset ceiling is an
// absent key, both directions.
type filterStateWire struct {
	Airlines []string `json:"airlines,omitempty"`
	Stops    []string `json:"stops,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
}

func (f FilterState) MarshalJSON() ([]byte, error) {
	w := filterStateWire{Airlines: f.SelectedAirlines, Stops: f.SelectedStops}
	if f.MaxPrice > 0 && !math.IsInf(f.MaxPrice, 1) {
		w.MaxPrice = &f.MaxPrice
	}
	return json.Marshal(w)
}

func (f *FilterState) UnmarshalJSON(data []byte) error {
	var w filterStateWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	f.SelectedAirlines = w.Airlines
	f.SelectedStops = w.Stops
	if w.MaxPrice != nil && *w.MaxPrice > 0 {
		f.MaxPrice = *w.MaxPrice
	} else {
		f.MaxPrice = math.Inf(1)
	}
	return nil
}

type SortKey string

const (
	SortByPrice     SortKey = "price"
	SortByDuration  SortKey = "duration"
	SortByDeparture SortKey = "departure"
)

// Valid reports whether k names a supported sort order.
func (k SortKey) Valid() bool {
	switch k {
	case SortByPrice, SortByDuration, SortByDeparture:
		return true
	}
	return false
}

// AirlineCount is one distinct validating-airline code with the number
// of offers listing it.
type AirlineCount struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// PriceBucket is one non-empty histogram bucket of width 100.
type PriceBucket struct {
	BucketStart int `json:"price"`
	Count       int `json:"count"`
}

// PriceRange is the floor/ceil envelope of the unfiltered result set.
type PriceRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}
