// Package fleetspeed defines the domain types for consuming the BarentsWatch
// live AIS feed: credentials and the token exchange contract, the pull-based
// chunk stream, vessel report parsing, and speed ranking.
package fleetspeed

import "context"

// TokenSource performs the OAuth2 client-credentials exchange and returns a
// bearer token. Every call performs a fresh exchange: tokens are short-lived
// (about an hour, with no guarantee) and are never cached or refreshed by
// implementations. A returned token is never empty.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Feed opens an authenticated connection to the live data feed. The token
// must be the unmodified value returned by a TokenSource; Feed does not
// inspect it. The returned Stream owns the connection exclusively — renewal
// of expired tokens is the caller's job (obtain a new token and Open again
// when the stream ends).
type Feed interface {
	Open(ctx context.Context, token string) (Stream, error)
}

// Credentials hold the client-credentials grant secrets. Both fields are
// required; Validate fails before any network activity is attempted.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Validate reports ErrMissingCredentials when either secret is absent.
func (c Credentials) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return ErrMissingCredentials
	}
	return nil
}
