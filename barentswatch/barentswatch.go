// Package barentswatch implements [fleetspeed.TokenSource] and
// [fleetspeed.Feed] against the BarentsWatch AIS API.
//
// The token endpoint is an OAuth2 client-credentials exchange; the streaming
// endpoint is a long-lived chunked GET whose body is exposed through the
// pull-based [fleetspeed.Stream] interface, one transport chunk per record.
// Tokens are valid for roughly an hour with no guarantee, so callers should
// perform a fresh exchange for every connection.
package barentswatch

const (
	defaultTokenURL  = "https://id.barentswatch.no/connect/token"
	defaultStreamURL = "https://live.ais.barentswatch.no/v1/ais"
	scope            = "ais"

	// defaultChunkSize bounds a single read from the response body. One
	// read maps to one record, so this also caps record size.
	defaultChunkSize = 32 * 1024
)

// tokenResponse is the JSON body returned by the token endpoint. The
// endpoint also sends expires_in, token_type and scope; only access_token
// is read.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
}
