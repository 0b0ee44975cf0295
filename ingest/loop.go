// Package ingest orchestrates feed consumption: token exchange, stream
// open, record draining, report validation, and time-based mini-batching.
// The stream itself never refreshes tokens or reconnects; this loop is the
// caller that re-invokes both components when a session ends.
package ingest

import (
	"context"
	"io"
	"time"

	fleetspeed "github.com/TorgeirBrenn/FleetSpeed"
	"github.com/google/uuid"
)

// BatchSink persists batches of validated reports. Implemented by
// store.Store; nil sinks are skipped.
type BatchSink interface {
	InsertBatch(ctx context.Context, sessionID string, reports []fleetspeed.VesselReport) error
}

// Loop drives one token exchange and one stream session at a time, with
// optional reconnection. It holds no shared mutable state: independent
// Loops may run concurrently.
type Loop struct {
	tokens fleetspeed.TokenSource
	feed   fleetspeed.Feed
}

// New creates a Loop with the given token source and feed.
func New(tokens fleetspeed.TokenSource, feed fleetspeed.Feed) *Loop {
	return &Loop{tokens: tokens, feed: feed}
}

// RunOption configures a single Run invocation.
type RunOption func(*runConfig)

type runConfig struct {
	onSession      func(fleetspeed.Session)
	onRecord       func(fleetspeed.Record)
	onBatch        func(fleetspeed.Session, []fleetspeed.VesselReport)
	onError        func(error)
	sink           BatchSink
	interval       time.Duration
	reconnect      bool
	reconnectDelay time.Duration
	now            func() time.Time
}

// WithSessionHandler sets a callback invoked once per opened connection.
func WithSessionHandler(h func(fleetspeed.Session)) RunOption {
	return func(c *runConfig) { c.onSession = h }
}

// WithRecordHandler sets a callback that receives every raw record, in
// transport order, before any validation. If nil, records are not reported.
func WithRecordHandler(h func(fleetspeed.Record)) RunOption {
	return func(c *runConfig) { c.onRecord = h }
}

// WithBatchHandler sets a callback that receives each mini-batch of
// validated reports. Batches may be empty; an empty batch still marks the
// passage of one interval.
func WithBatchHandler(h func(fleetspeed.Session, []fleetspeed.VesselReport)) RunOption {
	return func(c *runConfig) { c.onBatch = h }
}

// WithErrorHandler sets a callback for non-fatal errors: mid-stream read
// failures, sink write failures, and failed reconnection attempts. If nil,
// they are silently discarded.
func WithErrorHandler(h func(error)) RunOption {
	return func(c *runConfig) { c.onError = h }
}

// WithSink persists every non-empty batch to the given sink. Sink failures
// are reported through the error handler and do not stop ingestion.
func WithSink(s BatchSink) RunOption {
	return func(c *runConfig) { c.sink = s }
}

// WithBatchInterval sets the mini-batch flush interval. Default is one
// second. The flush is checked as records arrive, so a silent feed delays
// the flush rather than emitting on a timer.
func WithBatchInterval(d time.Duration) RunOption {
	return func(c *runConfig) { c.interval = d }
}

// WithReconnect makes Run open a fresh session (new token, new connection)
// after a session ends or errors, waiting delay between attempts. Without
// it Run returns when the first session terminates.
func WithReconnect(delay time.Duration) RunOption {
	return func(c *runConfig) {
		c.reconnect = true
		c.reconnectDelay = delay
	}
}

// Run executes the ingestion loop until the context is cancelled, or —
// without WithReconnect — until the first session ends. Token exchange
// failures are fatal in either mode: a rejected credential will not heal
// by retrying.
func (l *Loop) Run(ctx context.Context, opts ...RunOption) error {
	cfg := runConfig{
		interval: time.Second,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		token, err := l.tokens.Token(ctx)
		if err != nil {
			return err
		}

		stream, err := l.feed.Open(ctx, token)
		if err != nil {
			if !cfg.reconnect {
				return err
			}
			cfg.reportError(err)
		} else {
			// drain has already reported any terminal read error through
			// the error handler; it is not re-reported here.
			err = l.drain(ctx, stream, &cfg)
			_ = stream.Close()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !cfg.reconnect {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.reconnectDelay):
		}
	}
}

// drain consumes one stream session to its end. It returns nil on a clean
// end-of-body, the terminal *ReadError when the stream errors out, or the
// context error on cancellation.
func (l *Loop) drain(ctx context.Context, stream fleetspeed.Stream, cfg *runConfig) error {
	session := fleetspeed.Session{ID: uuid.NewString(), StartedAt: cfg.now()}
	if cfg.onSession != nil {
		cfg.onSession(session)
	}

	var batch []fleetspeed.VesselReport
	nextFlush := cfg.now().Add(cfg.interval)

	flush := func() {
		if cfg.onBatch != nil {
			cfg.onBatch(session, batch)
		}
		if cfg.sink != nil && len(batch) > 0 {
			if err := cfg.sink.InsertBatch(ctx, session.ID, batch); err != nil {
				cfg.reportError(err)
			}
		}
		batch = nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := stream.Next()
		if err == io.EOF {
			if len(batch) > 0 {
				flush()
			}
			return nil
		}
		if err != nil {
			cfg.reportError(err)
			// Under ContinueAfterReadError the stream stays usable.
			if stream.State() == fleetspeed.StreamStateStreaming {
				continue
			}
			if len(batch) > 0 {
				flush()
			}
			return err
		}

		if cfg.onRecord != nil {
			cfg.onRecord(rec)
		}

		for _, line := range fleetspeed.SplitRecords(rec.Text) {
			report, perr := fleetspeed.ParseReport(line)
			if perr != nil {
				// Data errors are skipped, not surfaced: a chunk may end
				// mid-message and the fragment is unrecoverable anyway.
				continue
			}
			batch = append(batch, report)
		}

		if now := cfg.now(); !now.Before(nextFlush) {
			flush()
			nextFlush = now.Add(cfg.interval)
		}
	}
}

func (c *runConfig) reportError(err error) {
	if c.onError != nil {
		c.onError(err)
	}
}
