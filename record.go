package fleetspeed

import "time"

// Record is one unit produced by a Stream: the lossy UTF-8 decoding of a
// single non-empty transport chunk. The feed gives no alignment guarantee
// between chunks and application-level messages — a Record may hold a
// partial message or several messages. ReceivedAt is local receipt time.
type Record struct {
	Text       string
	ReceivedAt time.Time
}
