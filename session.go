package fleetspeed

import "time"

// Session identifies one open authenticated connection to the feed. A
// session lives exactly as long as its stream: it is created when the
// connection opens and discarded when the stream ends, errors, or the
// consumer stops reading. The ID ties cached reports to the connection
// that produced them.
type Session struct {
	ID        string
	StartedAt time.Time
}
