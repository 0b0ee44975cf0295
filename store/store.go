// Package store caches received vessel reports in SQLite. The cache is an
// optional downstream consumer: ingestion never depends on it, and write
// failures are reported to the ingest loop's error handler rather than
// stopping the stream.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	fleetspeed "github.com/TorgeirBrenn/FleetSpeed"
)

// Store persists vessel reports keyed by the stream session that produced
// them.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a report cache at the supplied path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS reports (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	mmsi TEXT NOT NULL,
	speed_over_ground REAL NOT NULL,
	msgtime TIMESTAMP NOT NULL,
	received_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_reports_session ON reports(session_id);
CREATE INDEX IF NOT EXISTS idx_reports_mmsi ON reports(mmsi);
CREATE INDEX IF NOT EXISTS idx_reports_msgtime ON reports(msgtime);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases underlying resources.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertBatch stores one mini-batch of reports for a session, atomically.
func (s *Store) InsertBatch(ctx context.Context, sessionID string, reports []fleetspeed.VesselReport) error {
	if len(reports) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO reports(session_id, mmsi, speed_over_ground, msgtime) VALUES(?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range reports {
		if _, err := stmt.ExecContext(ctx, sessionID, r.MMSI, r.SpeedOverGround, r.MsgTime.UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert report: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	return nil
}

// Count returns the number of cached reports.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return n, nil
}

// Fastest returns up to n vessels ranked by their maximum cached speed,
// fastest first, one row per vessel. Each vessel is represented by its
// fastest report (most recent on a speed tie), so the returned msgtime
// belongs to the returned speed. Mirrors Leaderboard.Top over the
// persisted history instead of the in-memory window.
func (s *Store) Fastest(ctx context.Context, n int) ([]fleetspeed.VesselReport, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT r.mmsi, r.speed_over_ground, r.msgtime
FROM reports r
WHERE r.id = (
	SELECT id FROM reports
	WHERE mmsi = r.mmsi
	ORDER BY speed_over_ground DESC, msgtime DESC
	LIMIT 1
)
ORDER BY r.speed_over_ground DESC, r.mmsi ASC
LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query fastest: %w", err)
	}
	defer rows.Close()

	var out []fleetspeed.VesselReport
	for rows.Next() {
		var r fleetspeed.VesselReport
		var msgtime string
		if err := rows.Scan(&r.MMSI, &r.SpeedOverGround, &msgtime); err != nil {
			return nil, fmt.Errorf("scan fastest: %w", err)
		}
		// Stored as RFC 3339 UTC, so the text ordering in the subquery
		// matches chronological ordering.
		t, err := time.Parse(time.RFC3339, msgtime)
		if err != nil {
			return nil, fmt.Errorf("scan fastest msgtime: %w", err)
		}
		r.MsgTime = t
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fastest: %w", err)
	}
	return out, nil
}

// Prune deletes reports older than the retention period, measured against
// receipt time. Returns the number of rows removed.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	// CURRENT_TIMESTAMP writes "YYYY-MM-DD HH:MM:SS" in UTC; compare in
	// the same shape.
	cutoff := time.Now().UTC().Add(-retention).Format("2006-01-02 15:04:05")
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE received_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune reports: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune reports: %w", err)
	}
	return n, nil
}
