package amadeus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// tokenSlack refreshes the token a little before the upstream expiry so
// an in-flight search never races the cutoff.
const tokenSlack = 60 * time.Second

// Authenticator owns the OAuth2 client-credentials flow against the
// flight API, caching the access token with its expiry. One instance
// per process; nothing about the token lives in package state.
type Authenticator struct {
	authURL      string
	clientID     string
	clientSecret string
	hc           *http.Client
	now          func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewAuthenticator(authURL, clientID, clientSecret string, hc *http.Client) *Authenticator {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Authenticator{
		authURL:      authURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		hc:           hc,
		now:          time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type authErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Token returns the cached access token, fetching a fresh one when the
// cache is empty or inside the refresh slack.
func (a *Authenticator) Token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && a.now().Before(a.expiresAt) {
		return a.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {a.clientID},
		"client_secret": {a.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("authentication failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body authErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&body)
		detail := body.ErrorDescription
		if detail == "" {
			detail = resp.Status
		}
		return "", fmt.Errorf("authentication failed: %s", detail)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("authentication failed: malformed token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("authentication failed: empty access token")
	}

	a.token = tok.AccessToken
	a.expiresAt = a.now().Add(time.Duration(tok.ExpiresIn)*time.Second - tokenSlack)
	return a.token, nil
}
