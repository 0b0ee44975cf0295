package mock

import (
	"io"
	"time"

	fleetspeed "github.com/TorgeirBrenn/FleetSpeed"
)

// Interface compliance check.
var _ fleetspeed.Stream = (*Stream)(nil)

// Stream is a test double for fleetspeed.Stream.
// Set the function fields for the methods you need. NextFn panics when nil
// to catch missing setup. CloseFn and StateFn are nil-safe (no-op and zero
// value) because test code commonly calls defer stream.Close() and these
// methods rarely need custom behavior.
type Stream struct {
	NextFn  func() (fleetspeed.Record, error)
	StateFn func() fleetspeed.StreamState
	CloseFn func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (fleetspeed.Record, error) {
	return s.NextFn()
}

// State delegates to StateFn. Returns StreamStateNew when StateFn is nil.
func (s *Stream) State() fleetspeed.StreamState {
	if s.StateFn == nil {
		return fleetspeed.StreamStateNew
	}
	return s.StateFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// ChunkStream returns a Stream that yields the given non-empty chunks in
// order, skips empty ones, and then ends with finalErr (io.EOF when nil).
// The terminal result repeats on subsequent calls. Set CloseFn on the
// returned Stream to observe Close.
func ChunkStream(chunks []string, finalErr error) *Stream {
	if finalErr == nil {
		finalErr = io.EOF
	}
	i := 0
	done := false
	s := &Stream{}
	s.NextFn = func() (fleetspeed.Record, error) {
		for !done {
			if i >= len(chunks) {
				done = true
				break
			}
			chunk := chunks[i]
			i++
			if chunk == "" {
				continue
			}
			return fleetspeed.Record{Text: chunk, ReceivedAt: time.Now()}, nil
		}
		return fleetspeed.Record{}, finalErr
	}
	return s
}
