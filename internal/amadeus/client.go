// Package amadeus is the client for the Amadeus self-service flight
// APIs: OAuth2 token handling, one-way flight-offer search, and the
// airline-name lookup. Upstream errors come back as human-readable
// messages because the layers above surface them verbatim.
package amadeus

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dnurhadi/skyfare/internal/models"
	"github.com/dnurhadi/skyfare/internal/ratelimit"
)

const (
	DefaultBaseURL = "https://test.api.amadeus.com"
	DefaultAuthURL = "https://test.api.amadeus.com/v1/security/oauth2/token"

	endpointSearch   = "flight-offers"
	endpointAirlines = "airlines"
)

type Client struct {
	baseURL string
	auth    *Authenticator
	hc      *http.Client
	limiter *ratelimit.EndpointLimiter
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithLimiter paces outbound calls per endpoint.
func WithLimiter(l *ratelimit.EndpointLimiter) Option {
	return func(c *Client) { c.limiter = l }
}

func NewClient(baseURL string, auth *Authenticator, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		auth:    auth,
		hc:      &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type offersResponse struct {
	Data []models.Offer `json:"data"`
}

type apiError struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

type apiErrorResponse struct {
	Errors []apiError `json:"errors"`
}

// SearchFlights runs a one-way, one-adult offer search. Offers missing
// the fields nothing downstream can work without (id, a price amount)
// are dropped at this boundary rather than trusted through.
func (c *Client) SearchFlights(ctx context.Context, origin, destination, date string) ([]models.Offer, error) {
	if err := c.wait(ctx, endpointSearch); err != nil {
		return nil, err
	}

	token, err := c.auth.Token(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("originLocationCode", strings.ToUpper(origin))
	q.Set("destinationLocationCode", strings.ToUpper(destination))
	q.Set("departureDate", date)
	q.Set("adults", "1")

	var body offersResponse
	if err := c.get(ctx, "/v2/shopping/flight-offers", q, token, &body); err != nil {
		return nil, fmt.Errorf("flight search failed: %w", err)
	}

	offers := make([]models.Offer, 0, len(body.Data))
	dropped := 0
	for _, o := range body.Data {
		if !wellFormed(o) {
			dropped++
			continue
		}
		offers = append(offers, o)
	}
	if dropped > 0 {
		log.Printf("dropped %d malformed offers from %s-%s %s", dropped, origin, destination, date)
	}
	return offers, nil
}

// AirlineName resolves a carrier code to its business name. Lookup
// failures degrade to the code itself; the label is cosmetic.
func (c *Client) AirlineName(ctx context.Context, code string) string {
	if err := c.wait(ctx, endpointAirlines); err != nil {
		return code
	}

	token, err := c.auth.Token(ctx)
	if err != nil {
		return code
	}

	q := url.Values{}
	q.Set("airlineCodes", strings.ToUpper(code))

	var body struct {
		Data []struct {
			BusinessName string `json:"businessName"`
			CommonName   string `json:"commonName"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/v1/reference-data/airlines", q, token, &body); err != nil {
		log.Printf("airline lookup for %s failed: %v", code, err)
		return code
	}
	if len(body.Data) == 0 || body.Data[0].BusinessName == "" {
		return code
	}
	return body.Data[0].BusinessName
}

func (c *Client) get(ctx context.Context, path string, q url.Values, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody apiErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return fmt.Errorf("%s", errorDetail(errBody, resp.Status))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) wait(ctx context.Context, endpoint string) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx, endpoint)
}

func errorDetail(body apiErrorResponse, fallback string) string {
	if len(body.Errors) == 0 {
		return fallback
	}
	if d := body.Errors[0].Detail; d != "" {
		return d
	}
	if t := body.Errors[0].Title; t != "" {
		return t
	}
	return fallback
}

func wellFormed(o models.Offer) bool {
	if o.ID == "" {
		return false
	}
	if o.Price.Total == "" && o.Price.GrandTotal == "" {
		return false
	}
	return true
}
