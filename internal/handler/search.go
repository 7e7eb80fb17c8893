package handler

import (
	"context"
	"errors"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dnurhadi/skyfare/internal/cache"
	"github.com/dnurhadi/skyfare/internal/datewindow"
	"github.com/dnurhadi/skyfare/internal/engine"
	"github.com/dnurhadi/skyfare/internal/models"
	"github.com/dnurhadi/skyfare/internal/pricecache"
	"github.com/dnurhadi/skyfare/internal/session"
	"github.com/dnurhadi/skyfare/internal/urlstate"
)

// SearchHandler wires the session controller, the engine, the price
// cache, and the URL codec behind the HTTP surface.
type SearchHandler struct {
	searcher  session.Searcher
	offers    cache.Cache
	session   *session.Session
	window    datewindow.Config
	sharePath string

	mu          sync.Mutex
	priceCaches map[string]*pricecache.Cache
}

func NewSearchHandler(searcher session.Searcher, offerCache cache.Cache, window datewindow.Config, sharePath string) *SearchHandler {
	return &SearchHandler{
		searcher:    searcher,
		offers:      offerCache,
		session:     session.New(searcher),
		window:      window,
		sharePath:   sharePath,
		priceCaches: make(map[string]*pricecache.Cache),
	}
}

func (h *SearchHandler) Search(c echo.Context) error {
	startTime := time.Now()
	ctx := c.Request().Context()

	var req models.SearchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	cacheHit := false
	if _, ok := h.offers.Get(ctx, cache.Query{
		Origin:        req.Origin,
		Destination:   req.Destination,
		DepartureDate: req.DepartureDate,
	}); ok {
		cacheHit = true
	}

	offers, err := h.session.Search(ctx, req.Origin, req.Destination, req.DepartureDate)

	switch {
	case errors.Is(err, session.ErrNoResults):
		return c.JSON(http.StatusOK, models.SearchResponse{
			SearchCriteria: req,
			Metadata: models.SearchMetadata{
				SearchID:     uuid.NewString(),
				SearchTimeMs: time.Since(startTime).Milliseconds(),
				CacheHit:     cacheHit,
				NoResults:    true,
				Message:      err.Error(),
			},
			ShareURL: h.shareURL(req),
			Offers:   []models.Offer{},
		})
	case err != nil:
		var verr models.ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "validation_error",
				Message: err.Error(),
				Code:    http.StatusBadRequest,
			})
		}
		return c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "search_error",
			Message: err.Error(),
			Code:    http.StatusBadGateway,
		})
	}

	eng := engine.New(offers)
	state := eng.Clamp(*req.Filters)
	view := eng.View(state, req.SortBy)

	// A ceiling at the unfiltered maximum filters nothing, so the share
	// link drops it.
	shareState := state
	if r := eng.Aggregates().PriceRange; shareState.MaxPrice >= float64(r.Max) {
		shareState.MaxPrice = math.Inf(1)
	}
	shared := req
	shared.Filters = &shareState

	return c.JSON(http.StatusOK, models.SearchResponse{
		SearchCriteria: req,
		Metadata: models.SearchMetadata{
			SearchID:     uuid.NewString(),
			TotalOffers:  eng.Len(),
			ShownOffers:  len(view),
			SearchTimeMs: time.Since(startTime).Milliseconds(),
			CacheHit:     cacheHit,
		},
		Aggregates: eng.Aggregates(),
		ShareURL:   h.shareURL(shared),
		Offers:     view,
	})
}

// DatePrices serves the date-scroller strip: the cheapest known price
// per date in the window around the selected departure date. The
// selected date is resolved synchronously; the rest of the window is
// requested in the background and reported as-is.
func (h *SearchHandler) DatePrices(c echo.Context) error {
	origin := c.QueryParam("from")
	destination := c.QueryParam("to")
	date := c.QueryParam("date")

	if origin == "" || destination == "" || date == "" {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "from, to and date query parameters are required",
			Code:    http.StatusBadRequest,
		})
	}

	dates := h.window.Dates(date, time.Now())
	if dates == nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "date must be formatted YYYY-MM-DD",
			Code:    http.StatusBadRequest,
		})
	}

	pc := h.priceCache(origin, destination)

	// Window fetches outlive this request on purpose; later polls of
	// the same window find them resolved.
	background := context.WithoutCancel(c.Request().Context())
	for _, d := range dates {
		if d != date {
			pc.Request(background, d)
		}
	}

	selected := pc.Fetch(c.Request().Context(), date)

	window := make([]models.DatePriceEntry, 0, len(dates))
	for _, d := range dates {
		if entry, ok := pc.Get(d); ok {
			window = append(window, toDateEntry(d, entry))
		}
	}

	return c.JSON(http.StatusOK, models.DatePricesResponse{
		Origin:      origin,
		Destination: destination,
		Dates:       dates,
		Selected:    toDateEntry(date, selected),
		Window:      window,
	})
}

// Reset clears the session and hands back the query-free address.
func (h *SearchHandler) Reset(c echo.Context) error {
	h.session.Reset()
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "reset",
		"share_url": urlstate.Clear(h.sharePath),
	})
}

func (h *SearchHandler) shareURL(req models.SearchRequest) string {
	query := urlstate.Encode(urlstate.State{
		Origin:        req.Origin,
		Destination:   req.Destination,
		DepartureDate: req.DepartureDate,
		Filters:       *req.Filters,
		SortBy:        req.SortBy,
	})
	if query == "" {
		return h.sharePath
	}
	return h.sharePath + "?" + query
}

func (h *SearchHandler) priceCache(origin, destination string) *pricecache.Cache {
	key := origin + "-" + destination

	h.mu.Lock()
	defer h.mu.Unlock()

	pc, ok := h.priceCaches[key]
	if !ok {
		pc = pricecache.New(origin, destination, h.searcher)
		h.priceCaches[key] = pc
	}
	return pc
}

func toDateEntry(date string, e pricecache.Entry) models.DatePriceEntry {
	return models.DatePriceEntry{
		Date:        date,
		MinPrice:    e.MinPrice,
		FlightCount: e.FlightCount,
		Loading:     e.Loading,
		Error:       e.Error,
	}
}

func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
