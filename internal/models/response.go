package models

type SearchMetadata struct {
	SearchID     string `json:"search_id"`
	TotalOffers  int    `json:"total_offers"`
	ShownOffers  int    `json:"shown_offers"`
	SearchTimeMs int64  `json:"search_time_ms"`
	CacheHit     bool   `json:"cache_hit"`
	NoResults    bool   `json:"no_results,omitempty"`
	Message      string `json:"message,omitempty"`
}

// Aggregates are the unfiltered-set summaries driving the filter panel
// and the price chart.
type Aggregates struct {
	PriceRange PriceRange     `json:"price_range"`
	Histogram  []PriceBucket  `json:"price_histogram"`
	Airlines   []AirlineCount `json:"airlines"`
}

type SearchResponse struct {
	SearchCriteria SearchRequest  `json:"search_criteria"`
	Metadata       SearchMetadata `json:"metadata"`
	Aggregates     Aggregates     `json:"aggregates"`
	ShareURL       string         `json:"share_url"`
	Offers         []Offer        `json:"offers"`
}

// DatePriceEntry mirrors one price-cache entry for one calendar date.
type DatePriceEntry struct {
	Date        string   `json:"date"`
	MinPrice    *float64 `json:"min_price"`
	FlightCount int      `json:"flight_count"`
	Loading     bool     `json:"loading"`
	Error       string   `json:"error,omitempty"`
}

type DatePricesResponse struct {
	Origin      string           `json:"origin"`
	Destination string           `json:"destination"`
	Dates       []string         `json:"dates"`
	Selected    DatePriceEntry   `json:"selected"`
	Window      []DatePriceEntry `json:"window,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
