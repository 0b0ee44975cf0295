package barentswatch

import (
	"context"
	"io"
	"strings"
	"time"

	fleetspeed "github.com/TorgeirBrenn/FleetSpeed"
)

// stream implements [fleetspeed.Stream] over an open HTTP response body.
// One Read from the body yields one record, preserving transport framing:
// no line-splitting or reassembly to application message boundaries.
type stream struct {
	body   io.ReadCloser
	ctx    context.Context
	policy fleetspeed.ReadErrorPolicy
	buf    []byte
	state  fleetspeed.StreamState
	err    error // terminal error, if any

	// pending holds a read error delivered together with data; the data is
	// surfaced first, the error on the following call.
	pending error
}

// Interface compliance check.
var _ fleetspeed.Stream = (*stream)(nil)

func newStream(ctx context.Context, body io.ReadCloser, policy fleetspeed.ReadErrorPolicy, chunkSize int) *stream {
	return &stream{
		body:   body,
		ctx:    ctx,
		policy: policy,
		buf:    make([]byte, chunkSize),
		state:  fleetspeed.StreamStateNew,
	}
}

// Next blocks until the transport delivers the next non-empty chunk.
// Consuming slowly applies backpressure: nothing is read from the
// connection between calls.
func (s *stream) Next() (fleetspeed.Record, error) {
	switch s.state {
	case fleetspeed.StreamStateComplete:
		return fleetspeed.Record{}, io.EOF
	case fleetspeed.StreamStateError:
		return fleetspeed.Record{}, s.err
	case fleetspeed.StreamStateClosed:
		return fleetspeed.Record{}, fleetspeed.ErrStreamClosed
	}

	if err := s.pending; err != nil {
		s.pending = nil
		return fleetspeed.Record{}, s.finish(err)
	}

	for {
		n, err := s.body.Read(s.buf)
		if n > 0 {
			if err != nil {
				s.pending = err
			}
			s.state = fleetspeed.StreamStateStreaming
			return fleetspeed.Record{
				Text:       strings.ToValidUTF8(string(s.buf[:n]), "�"),
				ReceivedAt: time.Now(),
			}, nil
		}
		if err == nil {
			// Empty chunk: skipped, not end-of-stream, not an error.
			continue
		}
		return fleetspeed.Record{}, s.finish(err)
	}
}

// finish maps a body read failure to a sequence outcome.
func (s *stream) finish(err error) error {
	if err == io.EOF {
		s.state = fleetspeed.StreamStateComplete
		return io.EOF
	}
	readErr := &fleetspeed.ReadError{Err: err}
	if s.policy == fleetspeed.ContinueAfterReadError && s.ctx.Err() == nil {
		// Surfaced once; the consumer decides whether to keep pulling.
		return readErr
	}
	s.state = fleetspeed.StreamStateError
	s.err = readErr
	return s.err
}

// State returns the current stream state.
func (s *stream) State() fleetspeed.StreamState {
	return s.state
}

// Close closes the underlying connection. Safe to call at any point;
// abandoning a stream without closing it leaks the connection.
func (s *stream) Close() error {
	if s.state != fleetspeed.StreamStateComplete && s.state != fleetspeed.StreamStateError {
		s.state = fleetspeed.StreamStateClosed
	}
	return s.body.Close()
}
