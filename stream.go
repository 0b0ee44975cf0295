package fleetspeed

// StreamState indicates the current state of a Stream.
type StreamState int

const (
	StreamStateNew       StreamState = iota // Before Next() is ever called.
	StreamStateStreaming                    // Mid-stream, receiving chunks.
	StreamStateComplete                     // Next() returned io.EOF.
	StreamStateError                        // Next() returned a terminal read error.
	StreamStateClosed                       // Close() called before a terminal state.
)

// Stream is a pull-based iterator over a live feed connection. Each call to
// Next blocks until the transport delivers a chunk, the body ends, or a read
// fails. Cancellation flows through the context passed to Feed.Open().
//
// Next() returns the next Record. Behavior by outcome:
//   - one non-empty transport chunk: the decoded Record, nil error.
//   - clean end of body: zero Record, io.EOF. State becomes StreamStateComplete.
//   - transport read failure: zero Record, *ReadError. Under
//     StopAfterReadError the state becomes StreamStateError and subsequent
//     calls return the same error; under ContinueAfterReadError the stream
//     keeps reading on the next call.
//   - after Close(): zero Record, ErrStreamClosed.
//
// Empty chunks are never surfaced: they are skipped, not treated as end of
// stream. Records preserve transport order — one chunk maps to exactly one
// record, with no reframing to application-level message boundaries.
//
// Close() releases the underlying connection. Consumers that abandon a
// stream early must call Close; no background work continues afterwards.
type Stream interface {
	Next() (Record, error)
	State() StreamState
	Close() error
}

// ReadErrorPolicy controls what a Stream does after Next returns a
// *ReadError. The upstream feed gives no guarantee that a connection is
// usable after a failed read, so the default is to stop.
type ReadErrorPolicy int

const (
	// StopAfterReadError makes the first read error terminal: the stream
	// enters StreamStateError and every later Next returns the same error.
	StopAfterReadError ReadErrorPolicy = iota

	// ContinueAfterReadError surfaces the error once and lets the consumer
	// keep pulling from the same connection.
	ContinueAfterReadError
)
