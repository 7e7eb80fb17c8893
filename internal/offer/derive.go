// Package offer derives the filterable and sortable projections of a raw
// flight offer. All functions are total: malformed or partial offers
// degrade to documented defaults so display layers never crash on them.
package offer

import (
	"regexp"
	"strconv"
	"time"

	"github.com/dnurhadi/skyfare/internal/models"
)

// ISO-8601 duration token as the upstream emits it, e.g. "PT2H30M",
// "PT45M", "PT3H". Anything else parses to 0.
var durationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?$`)

// StopCount is the number of intermediate landings: on-board stops
// declared per segment plus one connection per segment boundary.
// An offer without segments counts as 0.
func StopCount(o models.Offer) int {
	segments := firstItinerarySegments(o)
	if len(segments) == 0 {
		return 0
	}
	stops := len(segments) - 1
	for _, s := range segments {
		stops += s.NumberOfStops
	}
	return stops
}

// StopBucket maps a stop count onto the filter buckets "0", "1", "2+".
func StopBucket(stops int) string {
	switch {
	case stops <= 0:
		return models.StopsNone
	case stops == 1:
		return models.StopsOne
	default:
		return models.StopsMany
	}
}

// PrimaryAirline is the first validating airline code, or "" when the
// offer lists none.
func PrimaryAirline(o models.Offer) string {
	if len(o.ValidatingAirlineCodes) == 0 {
		return ""
	}
	return o.ValidatingAirlineCodes[0]
}

// PriceValue is the numeric total price. The grand total wins when
// present, the plain total otherwise; a malformed amount reads as 0.
func PriceValue(o models.Offer) float64 {
	raw := o.Price.GrandTotal
	if raw == "" {
		raw = o.Price.Total
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}

// DurationMinutes parses the first itinerary's duration token into total
// minutes. An absent itinerary or unparsable token yields 0.
func DurationMinutes(o models.Offer) int {
	if len(o.Itineraries) == 0 {
		return 0
	}
	return ParseDuration(o.Itineraries[0].Duration)
}

// ParseDuration converts a "PT[n]H[m]M" token to total minutes, 0 when
// the token does not match.
func ParseDuration(token string) int {
	m := durationPattern.FindStringSubmatch(token)
	if m == nil {
		return 0
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	return hours*60 + minutes
}

// DepartureInstant is the departure time of the first segment. Offers
// without segments, or with an unparsable timestamp, report the zero
// time so they sort ahead of everything rather than failing.
func DepartureInstant(o models.Offer) time.Time {
	segments := firstItinerarySegments(o)
	if len(segments) == 0 {
		return time.Time{}
	}
	return parseInstant(segments[0].Departure.At)
}

func parseInstant(at string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, at); err == nil {
			return t
		}
	}
	return time.Time{}
}

func firstItinerarySegments(o models.Offer) []models.Segment {
	if len(o.Itineraries) == 0 {
		return nil
	}
	return o.Itineraries[0].Segments
}
