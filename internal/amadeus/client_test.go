package amadeus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func newAuthServer(t *testing.T, tokenCalls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(tokenCalls, 1)
		if err := r.ParseForm(); err != nil || r.Form.Get("grant_type") != "client_credentials" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-token",
			"expires_in":   1799,
		})
	}))
}

func TestTokenCachedAcrossSearches(t *testing.T) {
	var tokenCalls int32
	authSrv := newAuthServer(t, &tokenCalls)
	defer authSrv.Close()

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, want bearer test-token", got)
		}
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer apiSrv.Close()

	auth := NewAuthenticator(authSrv.URL, "key", "secret", nil)
	client := NewClient(apiSrv.URL, auth)

	for i := 0; i < 3; i++ {
		if _, err := client.SearchFlights(context.Background(), "jfk", "lhr", "2025-06-01"); err != nil {
			t.Fatalf("search %d failed: %v", i, err)
		}
	}

	if got := atomic.LoadInt32(&tokenCalls); got != 1 {
		t.Errorf("token endpoint hit %d times, want 1 (cached)", got)
	}
}

func TestSearchFlightsQueryAndDecode(t *testing.T) {
	var tokenCalls int32
	authSrv := newAuthServer(t, &tokenCalls)
	defer authSrv.Close()

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("originLocationCode") != "JFK" || q.Get("destinationLocationCode") != "LHR" {
			t.Errorf("airport codes not upper-cased: %v", q)
		}
		if q.Get("departureDate") != "2025-06-01" || q.Get("adults") != "1" {
			t.Errorf("unexpected query: %v", q)
		}
		fmt.Fprint(w, `{"data":[
			{"id":"1","price":{"currency":"USD","total":"210.00","grandTotal":"215.30"},
			 "validatingAirlineCodes":["AA"],
			 "itineraries":[{"duration":"PT7H10M","segments":[
				{"id":"s1","numberOfStops":0,
				 "departure":{"iataCode":"JFK","at":"2025-06-01T18:05:00"},
				 "arrival":{"iataCode":"LHR","at":"2025-06-02T06:15:00"}}]}]},
			{"id":"","price":{"total":"1.00"}},
			{"id":"3","price":{}}
		]}`)
	}))
	defer apiSrv.Close()

	auth := NewAuthenticator(authSrv.URL, "key", "secret", nil)
	client := NewClient(apiSrv.URL, auth)

	offers, err := client.SearchFlights(context.Background(), "jfk", "lhr", "2025-06-01")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	// The two malformed entries (missing id, missing price) are dropped
	// at the boundary.
	if len(offers) != 1 {
		t.Fatalf("got %d offers, want 1 well-formed", len(offers))
	}
	o := offers[0]
	if o.ID != "1" || o.Price.GrandTotal != "215.30" || len(o.Itineraries) != 1 {
		t.Errorf("decoded offer mismatch: %+v", o)
	}
	if o.Itineraries[0].Segments[0].Departure.IATACode != "JFK" {
		t.Errorf("segment decode mismatch: %+v", o.Itineraries[0].Segments[0])
	}
}

func TestSearchErrorTranslation(t *testing.T) {
	var tokenCalls int32
	authSrv := newAuthServer(t, &tokenCalls)
	defer authSrv.Close()

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"errors":[{"status":429,"title":"Too Many Requests","detail":"rate limited"}]}`)
	}))
	defer apiSrv.Close()

	auth := NewAuthenticator(authSrv.URL, "key", "secret", nil)
	client := NewClient(apiSrv.URL, auth)

	_, err := client.SearchFlights(context.Background(), "JFK", "LHR", "2025-06-01")
	if err == nil {
		t.Fatal("expected an error")
	}
	if want := "flight search failed: rate limited"; err.Error() != want {
		t.Errorf("err = %q, want %q", err.Error(), want)
	}
}

func TestAuthenticationErrorTranslation(t *testing.T) {
	authSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid_client","error_description":"Client credentials are invalid"}`)
	}))
	defer authSrv.Close()

	auth := NewAuthenticator(authSrv.URL, "key", "bad-secret", nil)
	client := NewClient("http://unused.invalid", auth)

	_, err := client.SearchFlights(context.Background(), "JFK", "LHR", "2025-06-01")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "authentication failed") ||
		!strings.Contains(err.Error(), "Client credentials are invalid") {
		t.Errorf("err = %q, want a human-readable authentication message", err)
	}
}

func TestAirlineNameLookup(t *testing.T) {
	var tokenCalls int32
	authSrv := newAuthServer(t, &tokenCalls)
	defer authSrv.Close()

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("airlineCodes") != "BA" {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"errors":[{"title":"Not Found"}]}`)
			return
		}
		fmt.Fprint(w, `{"data":[{"businessName":"BRITISH AIRWAYS","commonName":"BRITISH A/W"}]}`)
	}))
	defer apiSrv.Close()

	auth := NewAuthenticator(authSrv.URL, "key", "secret", nil)
	client := NewClient(apiSrv.URL, auth)

	if got := client.AirlineName(context.Background(), "ba"); got != "BRITISH AIRWAYS" {
		t.Errorf("AirlineName = %q, want the business name", got)
	}

	// Lookup failures degrade to the code itself.
	if got := client.AirlineName(context.Background(), "ZZ"); got != "ZZ" {
		t.Errorf("failed lookup should pass the code through, got %q", got)
	}
}
