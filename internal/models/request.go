package models

import "math"

type SearchRequest struct {
	Origin        string       `json:"origin"`
	Destination   string       `json:"destination"`
	DepartureDate string       `json:"departure_date"`
	Filters       *FilterState `json:"filters,omitempty"`
	SortBy        SortKey      `json:"sort_by,omitempty"`
}

func (r *SearchRequest) Validate() error {
	if r.Origin == "" {
		return ErrMissingOrigin
	}
	if r.Destination == "" {
		return ErrMissingDestination
	}
	if r.DepartureDate == "" {
		return ErrMissingDepartureDate
	}
	if r.SortBy == "" {
		r.SortBy = SortByPrice
	}
	if !r.SortBy.Valid() {
		return ErrInvalidSortKey
	}
	if r.Filters == nil {
		r.Filters = &FilterState{MaxPrice: math.Inf(1)}
	} else if r.Filters.MaxPrice == 0 {
		r.Filters.MaxPrice = math.Inf(1)
	}
	return nil
}

type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrMissingOrigin        ValidationError = "origin is required"
	ErrMissingDestination   ValidationError = "destination is required"
	ErrMissingDepartureDate ValidationError = "departure_date is required"
	ErrInvalidSortKey       ValidationError = "sort_by must be one of price, duration, departure"
)
