// Package mock provides test doubles for fleetspeed interfaces using
// function fields.
package mock

import (
	"context"

	fleetspeed "github.com/TorgeirBrenn/FleetSpeed"
)

// Interface compliance checks.
var (
	_ fleetspeed.TokenSource = (*TokenSource)(nil)
	_ fleetspeed.Feed        = (*Feed)(nil)
)

// TokenSource is a test double for fleetspeed.TokenSource.
// Set TokenFn before calling Token.
type TokenSource struct {
	TokenFn func(ctx context.Context) (string, error)
}

// Token delegates to TokenFn.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	return ts.TokenFn(ctx)
}

// Feed is a test double for fleetspeed.Feed.
// Set OpenFn before calling Open.
type Feed struct {
	OpenFn func(ctx context.Context, token string) (fleetspeed.Stream, error)
}

// Open delegates to OpenFn.
func (f *Feed) Open(ctx context.Context, token string) (fleetspeed.Stream, error) {
	return f.OpenFn(ctx, token)
}
