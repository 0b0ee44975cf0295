package fleetspeed

import "time"

// SetNowForTest overrides the leaderboard clock for TTL tests.
func (l *Leaderboard) SetNowForTest(now func() time.Time) { l.now = now }
