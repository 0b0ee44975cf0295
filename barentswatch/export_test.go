package barentswatch

import (
	"context"
	"io"

	fleetspeed "github.com/TorgeirBrenn/FleetSpeed"
)

// NewStreamForTest exposes newStream for external tests, allowing streams
// to be driven by scripted readers instead of live connections.
func NewStreamForTest(ctx context.Context, body io.ReadCloser, policy fleetspeed.ReadErrorPolicy) fleetspeed.Stream {
	return newStream(ctx, body, policy, defaultChunkSize)
}
