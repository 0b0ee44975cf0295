package fleetspeed

import (
	"sort"
	"time"
)

// Leaderboard ranks vessels by their fastest observed speed over a rolling
// window of recent batches. It is not safe for concurrent use; the ingest
// loop and the TUI both drive it from a single goroutine.
type Leaderboard struct {
	window  int           // batches retained, 0 = unlimited
	ttl     time.Duration // report age cutoff, 0 = no cutoff
	minKeep int           // floor on reports retained when the TTL applies

	entries []entry
	nextSeq int
	now     func() time.Time
}

type entry struct {
	report  VesselReport
	seq     int // batch sequence number
	addedAt time.Time
}

// LeaderboardOption configures a Leaderboard.
type LeaderboardOption func(*Leaderboard)

// WithWindow sets how many recent batches are retained. Zero disables
// batch-count pruning.
func WithWindow(n int) LeaderboardOption {
	return func(l *Leaderboard) { l.window = n }
}

// WithTTL drops reports older than d, but never below minKeep reports, so a
// quiet feed still has something to show.
func WithTTL(d time.Duration, minKeep int) LeaderboardOption {
	return func(l *Leaderboard) {
		l.ttl = d
		l.minKeep = minKeep
	}
}

// defaultWindow keeps roughly the last ten seconds of one-second batches.
const defaultWindow = 10

// NewLeaderboard creates a Leaderboard retaining the last ten batches.
func NewLeaderboard(opts ...LeaderboardOption) *Leaderboard {
	l := &Leaderboard{
		window: defaultWindow,
		now:    time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Add appends one batch of reports and prunes the window. Empty batches
// still advance the window, aging out older data.
func (l *Leaderboard) Add(batch []VesselReport) {
	seq := l.nextSeq
	l.nextSeq++

	now := l.now()
	for _, r := range batch {
		l.entries = append(l.entries, entry{report: r, seq: seq, addedAt: now})
	}
	l.prune(seq, now)
}

func (l *Leaderboard) prune(maxSeq int, now time.Time) {
	if l.window > 0 {
		cutoff := maxSeq - l.window
		kept := l.entries[:0]
		for _, e := range l.entries {
			if e.seq > cutoff {
				kept = append(kept, e)
			}
		}
		l.entries = kept
	}

	if l.ttl <= 0 {
		return
	}
	deadline := now.Add(-l.ttl)
	fresh := 0
	for _, e := range l.entries {
		if e.addedAt.After(deadline) {
			fresh++
		}
	}
	// Entries are in arrival order, so the most recent ones sit at the tail.
	if keep := max(fresh, min(l.minKeep, len(l.entries))); keep < len(l.entries) {
		l.entries = append(l.entries[:0], l.entries[len(l.entries)-keep:]...)
	}
}

// Len returns the number of reports currently retained.
func (l *Leaderboard) Len() int {
	return len(l.entries)
}

// Top returns up to n vessels ranked by maximum observed speed, fastest
// first. Each vessel appears once, represented by its fastest retained
// report (most recent report on a speed tie).
func (l *Leaderboard) Top(n int) []VesselReport {
	best := make(map[string]VesselReport)
	for _, e := range l.entries {
		r := e.report
		cur, ok := best[r.MMSI]
		if !ok || r.SpeedOverGround > cur.SpeedOverGround ||
			(r.SpeedOverGround == cur.SpeedOverGround && r.MsgTime.After(cur.MsgTime)) {
			best[r.MMSI] = r
		}
	}

	ranked := make([]VesselReport, 0, len(best))
	for _, r := range best {
		ranked = append(ranked, r)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].SpeedOverGround != ranked[j].SpeedOverGround {
			return ranked[i].SpeedOverGround > ranked[j].SpeedOverGround
		}
		return ranked[i].MMSI < ranked[j].MMSI
	})

	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
