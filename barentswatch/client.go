package barentswatch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	fleetspeed "github.com/TorgeirBrenn/FleetSpeed"
)

// Interface compliance checks.
var (
	_ fleetspeed.TokenSource = (*Client)(nil)
	_ fleetspeed.Feed        = (*Client)(nil)
)

// Client performs the token exchange and opens authenticated streaming
// connections. It holds no mutable state after construction, so one Client
// may serve any number of concurrent sessions.
type Client struct {
	creds      fleetspeed.Credentials
	tokenURL   string
	streamURL  string
	httpClient *http.Client
	policy     fleetspeed.ReadErrorPolicy
	chunkSize  int
}

// Option configures a [Client].
type Option func(*Client)

// WithTokenURL sets the token endpoint. Useful for testing with httptest.
func WithTokenURL(u string) Option {
	return func(c *Client) { c.tokenURL = u }
}

// WithStreamURL sets the streaming endpoint. Useful for testing with httptest.
func WithStreamURL(u string) Option {
	return func(c *Client) { c.streamURL = u }
}

// WithHTTPClient sets a custom HTTP client. The default has no timeout:
// a response-wide deadline would kill a healthy long-lived stream. Callers
// that want connection-level timeouts should supply a client with a
// configured transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithReadErrorPolicy sets what streams do after a failed read.
// Default is [fleetspeed.StopAfterReadError].
func WithReadErrorPolicy(p fleetspeed.ReadErrorPolicy) Option {
	return func(c *Client) { c.policy = p }
}

// New creates a Client with the given credentials and options.
func New(creds fleetspeed.Credentials, opts ...Option) *Client {
	c := &Client{
		creds:      creds,
		tokenURL:   defaultTokenURL,
		streamURL:  defaultStreamURL,
		httpClient: http.DefaultClient,
		chunkSize:  defaultChunkSize,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Token performs one client-credentials exchange and returns the bearer
// token. Missing credentials fail before any network activity. The exchange
// is never retried or cached; a new token costs one round trip and the
// upstream recommends fetching one per connection.
func (c *Client) Token(ctx context.Context) (string, error) {
	if err := c.creds.Validate(); err != nil {
		return "", err
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.creds.ClientID},
		"client_secret": {c.creds.ClientSecret},
		"scope":         {scope},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &fleetspeed.TokenError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &fleetspeed.TokenError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &fleetspeed.TokenError{Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &fleetspeed.TokenError{Status: resp.StatusCode, Body: string(body)}
	}

	// The raw body goes into the error on shape mismatches: token endpoint
	// failures are otherwise opaque to operators.
	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil || tr.AccessToken == "" {
		return "", &fleetspeed.TokenError{Status: resp.StatusCode, Body: string(body)}
	}

	return tr.AccessToken, nil
}

// Open starts an authenticated GET against the streaming endpoint and
// returns the live record stream. The token is sent unmodified; an expired
// or invalid token surfaces as a *ConnectError carrying the server's status.
func (c *Client) Open(ctx context.Context, token string) (fleetspeed.Stream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.streamURL, nil)
	if err != nil {
		return nil, &fleetspeed.ConnectError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &fleetspeed.ConnectError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &fleetspeed.ConnectError{Status: resp.StatusCode, Body: string(body)}
	}

	return newStream(ctx, resp.Body, c.policy, c.chunkSize), nil
}
