package urlstate

import (
	"math"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/dnurhadi/skyfare/internal/models"
)

func TestDefaultStateEncodesToEmptyQuery(t *testing.T) {
	if got := Encode(Default()); got != "" {
		t.Errorf("default state should encode to the empty query, got %q", got)
	}
}

func TestDefaultRoundTrip(t *testing.T) {
	if got := Decode(Encode(Default())); !reflect.DeepEqual(got, Default()) {
		t.Errorf("decode(encode(default)) = %+v, want the default state", got)
	}
}

func TestEncodeOmitsDefaults(t *testing.T) {
	s := Default()
	s.Filters.SelectedAirlines = []string{"AA", "BA"}

	query := Encode(s)

	if query != "airlines="+url.QueryEscape("AA,BA") {
		t.Errorf("query = %q, want only the airlines key", query)
	}
	for _, forbidden := range []string{"maxPrice", "sort", "stops", "from", "to", "date"} {
		if strings.Contains(query, forbidden) {
			t.Errorf("query %q leaks default key %q", query, forbidden)
		}
	}
}

func TestEncodeFullState(t *testing.T) {
	s := State{
		Origin:        "JFK",
		Destination:   "LHR",
		DepartureDate: "2025-06-01",
		Filters: models.FilterState{
			SelectedAirlines: []string{"AA"},
			SelectedStops:    []string{"0", "2+"},
			MaxPrice:         450,
		},
		SortBy: models.SortByDuration,
	}

	params, err := url.ParseQuery(Encode(s))
	if err != nil {
		t.Fatalf("encoded query does not parse: %v", err)
	}

	want := map[string]string{
		"from":     "JFK",
		"to":       "LHR",
		"date":     "2025-06-01",
		"airlines": "AA",
		"stops":    "0,2+",
		"maxPrice": "450",
		"sort":     "duration",
	}
	for key, value := range want {
		if got := params.Get(key); got != value {
			t.Errorf("param %s = %q, want %q", key, got, value)
		}
	}
}

func TestNonDefaultRoundTrip(t *testing.T) {
	s := State{
		Origin:        "JFK",
		Destination:   "LHR",
		DepartureDate: "2025-06-01",
		Filters: models.FilterState{
			SelectedAirlines: []string{"AA", "BA"},
			SelectedStops:    []string{"1"},
			MaxPrice:         300,
		},
		SortBy: models.SortByDeparture,
	}

	if got := Decode(Encode(s)); !reflect.DeepEqual(got, s) {
		t.Errorf("round trip changed the state:\ngot  %+v\nwant %+v", got, s)
	}
}

func TestDecodeDefaults(t *testing.T) {
	got := Decode("")

	if got.Origin != "" || got.Destination != "" || got.DepartureDate != "" {
		t.Errorf("empty query should decode empty route fields, got %+v", got)
	}
	if len(got.Filters.SelectedAirlines) != 0 || len(got.Filters.SelectedStops) != 0 {
		t.Errorf("empty query should decode empty selections, got %+v", got.Filters)
	}
	if !math.IsInf(got.Filters.MaxPrice, 1) {
		t.Errorf("missing maxPrice should decode to +Inf, got %v", got.Filters.MaxPrice)
	}
	if got.SortBy != models.SortByPrice {
		t.Errorf("missing sort should decode to price, got %q", got.SortBy)
	}
}

func TestDecodeMalformedValues(t *testing.T) {
	got := Decode("maxPrice=cheap&sort=fastest")

	if !math.IsInf(got.Filters.MaxPrice, 1) {
		t.Errorf("non-numeric maxPrice should decode to +Inf, got %v", got.Filters.MaxPrice)
	}
	if got.SortBy != models.SortByPrice {
		t.Errorf("unknown sort key should fall back to price, got %q", got.SortBy)
	}

	got = Decode("airlines=,,&stops=")
	if got.Filters.SelectedAirlines != nil || got.Filters.SelectedStops != nil {
		t.Errorf("empty list items should decode to no selection, got %+v", got.Filters)
	}
}

func TestClear(t *testing.T) {
	tests := []struct {
		address string
		want    string
	}{
		{"/flights?from=JFK&to=LHR", "/flights"},
		{"/flights", "/flights"},
		{"https://example.com/flights?sort=duration#top", "https://example.com/flights"},
	}
	for _, tt := range tests {
		if got := Clear(tt.address); got != tt.want {
			t.Errorf("Clear(%q) = %q, want %q", tt.address, got, tt.want)
		}
	}
}
