package ingest_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	fleetspeed "github.com/TorgeirBrenn/FleetSpeed"
	"github.com/TorgeirBrenn/FleetSpeed/ingest"
	"github.com/TorgeirBrenn/FleetSpeed/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	reportA = `{"mmsi": "100000001", "speedOverGround": 5.0, "msgtime": "2022-12-12T10:10:10"}`
	reportB = `{"mmsi": "100000002", "speedOverGround": 7.5, "msgtime": "2022-12-12T10:10:11"}`
)

func staticTokens(token string) *mock.TokenSource {
	return &mock.TokenSource{
		TokenFn: func(ctx context.Context) (string, error) { return token, nil },
	}
}

func singleStreamFeed(s fleetspeed.Stream) *mock.Feed {
	return &mock.Feed{
		OpenFn: func(ctx context.Context, token string) (fleetspeed.Stream, error) {
			return s, nil
		},
	}
}

func TestLoop_PassesTokenUnmodified(t *testing.T) {
	t.Parallel()

	var gotToken string
	feed := &mock.Feed{
		OpenFn: func(ctx context.Context, token string) (fleetspeed.Stream, error) {
			gotToken = token
			return mock.ChunkStream(nil, nil), nil
		},
	}

	loop := ingest.New(staticTokens("tok_xyz"), feed)
	require.NoError(t, loop.Run(context.Background()))
	assert.Equal(t, "tok_xyz", gotToken)
}

func TestLoop_TokenFailureIsFatal(t *testing.T) {
	t.Parallel()

	cause := &fleetspeed.TokenError{Status: 401, Body: "no"}
	tokens := &mock.TokenSource{
		TokenFn: func(ctx context.Context) (string, error) { return "", cause },
	}
	opened := false
	feed := &mock.Feed{
		OpenFn: func(ctx context.Context, token string) (fleetspeed.Stream, error) {
			opened = true
			return nil, errors.New("unreachable")
		},
	}

	loop := ingest.New(tokens, feed)
	err := loop.Run(context.Background(), ingest.WithReconnect(time.Millisecond))
	assert.Equal(t, cause, err)
	assert.False(t, opened, "feed must not be opened without a token")
}

func TestLoop_RecordsForwardedInOrder(t *testing.T) {
	t.Parallel()

	stream := mock.ChunkStream([]string{"a", "", "b", "c"}, nil)
	loop := ingest.New(staticTokens("tok"), singleStreamFeed(stream))

	var texts []string
	err := loop.Run(context.Background(),
		ingest.WithRecordHandler(func(r fleetspeed.Record) { texts = append(texts, r.Text) }),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, texts)
}

func TestLoop_BatchesValidReports(t *testing.T) {
	t.Parallel()

	// One chunk holding two messages plus a fragment: the fragment is
	// skipped, the rest flushes at end of stream.
	stream := mock.ChunkStream([]string{reportA + "\n" + reportB + "\n" + `{"mmsi": "1000`}, nil)
	loop := ingest.New(staticTokens("tok"), singleStreamFeed(stream))

	var batches [][]fleetspeed.VesselReport
	err := loop.Run(context.Background(),
		ingest.WithBatchInterval(time.Hour),
		ingest.WithBatchHandler(func(_ fleetspeed.Session, b []fleetspeed.VesselReport) {
			batches = append(batches, b)
		}),
	)
	require.NoError(t, err)

	require.Len(t, batches, 1)
	require.Len(t, batches[0], 2)
	assert.Equal(t, "100000001", batches[0][0].MMSI)
	assert.Equal(t, "100000002", batches[0][1].MMSI)
}

func TestLoop_SessionIdentity(t *testing.T) {
	t.Parallel()

	stream := mock.ChunkStream([]string{reportA}, nil)
	loop := ingest.New(staticTokens("tok"), singleStreamFeed(stream))

	var session fleetspeed.Session
	var batchSession fleetspeed.Session
	err := loop.Run(context.Background(),
		ingest.WithBatchInterval(time.Hour),
		ingest.WithSessionHandler(func(s fleetspeed.Session) { session = s }),
		ingest.WithBatchHandler(func(s fleetspeed.Session, _ []fleetspeed.VesselReport) {
			batchSession = s
		}),
	)
	require.NoError(t, err)

	assert.NotEmpty(t, session.ID)
	assert.False(t, session.StartedAt.IsZero())
	assert.Equal(t, session.ID, batchSession.ID)
}

type captureSink struct {
	sessionIDs []string
	batches    [][]fleetspeed.VesselReport
	err        error
}

func (s *captureSink) InsertBatch(_ context.Context, sessionID string, reports []fleetspeed.VesselReport) error {
	s.sessionIDs = append(s.sessionIDs, sessionID)
	s.batches = append(s.batches, reports)
	return s.err
}

func TestLoop_SinkReceivesBatches(t *testing.T) {
	t.Parallel()

	stream := mock.ChunkStream([]string{reportA, reportB}, nil)
	loop := ingest.New(staticTokens("tok"), singleStreamFeed(stream))

	sink := &captureSink{}
	var session fleetspeed.Session
	err := loop.Run(context.Background(),
		ingest.WithBatchInterval(time.Hour),
		ingest.WithSessionHandler(func(s fleetspeed.Session) { session = s }),
		ingest.WithSink(sink),
	)
	require.NoError(t, err)

	require.Len(t, sink.batches, 1)
	assert.Len(t, sink.batches[0], 2)
	assert.Equal(t, []string{session.ID}, sink.sessionIDs)
}

func TestLoop_SinkFailureDoesNotStopIngestion(t *testing.T) {
	t.Parallel()

	// Nanosecond interval: every record flushes its own batch.
	stream := mock.ChunkStream([]string{reportA, reportB}, nil)
	loop := ingest.New(staticTokens("tok"), singleStreamFeed(stream))

	sink := &captureSink{err: errors.New("disk full")}
	var sinkErrs int
	err := loop.Run(context.Background(),
		ingest.WithBatchInterval(time.Nanosecond),
		ingest.WithSink(sink),
		ingest.WithErrorHandler(func(error) { sinkErrs++ }),
	)
	require.NoError(t, err)
	assert.Len(t, sink.batches, 2)
	assert.Equal(t, 2, sinkErrs)
}

func TestLoop_ReadErrorSurfacedOnce(t *testing.T) {
	t.Parallel()

	readErr := &fleetspeed.ReadError{Err: errors.New("reset")}
	stream := mock.ChunkStream([]string{"a"}, readErr)
	closed := false
	stream.CloseFn = func() error { closed = true; return nil }

	loop := ingest.New(staticTokens("tok"), singleStreamFeed(stream))

	var reported []error
	err := loop.Run(context.Background(),
		ingest.WithErrorHandler(func(e error) { reported = append(reported, e) }),
	)
	assert.Equal(t, readErr, err)
	assert.Equal(t, []error{readErr}, reported)
	assert.True(t, closed, "stream must be closed when the session ends")
}

func TestLoop_ContinuesWhenStreamStaysUsable(t *testing.T) {
	t.Parallel()

	// A stream under ContinueAfterReadError: one error mid-sequence,
	// reading resumes afterwards.
	readErr := &fleetspeed.ReadError{Err: errors.New("transient")}
	script := []any{"a", readErr, "b", io.EOF}
	i := 0
	stream := &mock.Stream{
		NextFn: func() (fleetspeed.Record, error) {
			item := script[i]
			i++
			switch v := item.(type) {
			case string:
				return fleetspeed.Record{Text: v}, nil
			case error:
				return fleetspeed.Record{}, v
			}
			panic("bad script")
		},
		StateFn: func() fleetspeed.StreamState { return fleetspeed.StreamStateStreaming },
	}

	loop := ingest.New(staticTokens("tok"), singleStreamFeed(stream))

	var texts []string
	var errs int
	err := loop.Run(context.Background(),
		ingest.WithRecordHandler(func(r fleetspeed.Record) { texts = append(texts, r.Text) }),
		ingest.WithErrorHandler(func(error) { errs++ }),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, texts)
	assert.Equal(t, 1, errs)
}

func TestLoop_ReconnectReportsReadErrorOncePerSession(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	readErr := &fleetspeed.ReadError{Err: errors.New("reset")}
	opens := 0
	feed := &mock.Feed{
		OpenFn: func(ctx context.Context, token string) (fleetspeed.Stream, error) {
			opens++
			if opens == 3 {
				// The third session's drain exits on the context check
				// before reading, so only the first two report errors.
				cancel()
			}
			return mock.ChunkStream([]string{"x"}, readErr), nil
		},
	}

	loop := ingest.New(staticTokens("tok"), feed)
	var reported []error
	err := loop.Run(ctx,
		ingest.WithReconnect(time.Millisecond),
		ingest.WithErrorHandler(func(e error) { reported = append(reported, e) }),
	)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []error{readErr, readErr}, reported,
		"each session's terminal read error must reach the handler exactly once")
}

func TestLoop_ReconnectFetchesFreshToken(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tokenCalls := 0
	tokens := &mock.TokenSource{
		TokenFn: func(ctx context.Context) (string, error) {
			tokenCalls++
			return "tok", nil
		},
	}
	opens := 0
	feed := &mock.Feed{
		OpenFn: func(ctx context.Context, token string) (fleetspeed.Stream, error) {
			opens++
			if opens == 3 {
				cancel()
			}
			return mock.ChunkStream([]string{"x"}, nil), nil
		},
	}

	loop := ingest.New(tokens, feed)
	err := loop.Run(ctx, ingest.WithReconnect(time.Millisecond))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, opens)
	assert.Equal(t, 3, tokenCalls, "every session performs a fresh exchange")
}

func TestLoop_CancelStopsConsumption(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	records := 0
	stream := &mock.Stream{
		NextFn: func() (fleetspeed.Record, error) {
			records++
			if records == 2 {
				cancel()
			}
			return fleetspeed.Record{Text: "x"}, nil
		},
	}
	closed := false
	stream.CloseFn = func() error { closed = true; return nil }

	loop := ingest.New(staticTokens("tok"), singleStreamFeed(stream))
	err := loop.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, closed)
}

func TestLoop_OpenFailureWithoutReconnect(t *testing.T) {
	t.Parallel()

	cause := &fleetspeed.ConnectError{Status: 503}
	feed := &mock.Feed{
		OpenFn: func(ctx context.Context, token string) (fleetspeed.Stream, error) {
			return nil, cause
		},
	}

	loop := ingest.New(staticTokens("tok"), feed)
	err := loop.Run(context.Background())
	assert.Equal(t, cause, err)
}
