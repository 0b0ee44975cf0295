package fleetspeed

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidReport indicates a feed message failed vessel report validation.
var ErrInvalidReport = errors.New("invalid vessel report")

// VesselReport is one validated position/speed message from the feed.
// Fields the feed sends beyond these are ignored.
type VesselReport struct {
	MMSI            string    // nine-digit vessel identifier
	SpeedOverGround float64   // knots, never negative
	MsgTime         time.Time // truncated to whole seconds
}

// reportDTO is the wire shape of a feed message. MMSI arrives as either a
// JSON string or a JSON number depending on the upstream serializer.
type reportDTO struct {
	MMSI            json.RawMessage `json:"mmsi"`
	SpeedOverGround *float64        `json:"speedOverGround"`
	MsgTime         *string         `json:"msgtime"`
}

// msgtime layouts observed on the feed: RFC 3339 with offset, and a bare
// local form with optional fractional seconds.
var msgTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// ParseReport validates and extracts a VesselReport from one JSON message.
// Violations return an error wrapping ErrInvalidReport; callers typically
// skip the message rather than abort the stream.
func ParseReport(line string) (VesselReport, error) {
	var dto reportDTO
	if err := json.Unmarshal([]byte(line), &dto); err != nil {
		return VesselReport{}, fmt.Errorf("parse message: %v: %w", err, ErrInvalidReport)
	}

	mmsi, err := parseMMSI(dto.MMSI)
	if err != nil {
		return VesselReport{}, err
	}

	if dto.SpeedOverGround == nil {
		return VesselReport{}, fmt.Errorf("speedOverGround missing: %w", ErrInvalidReport)
	}
	if *dto.SpeedOverGround < 0 {
		return VesselReport{}, fmt.Errorf("speedOverGround must be non-negative, got %g: %w", *dto.SpeedOverGround, ErrInvalidReport)
	}

	if dto.MsgTime == nil {
		return VesselReport{}, fmt.Errorf("msgtime missing: %w", ErrInvalidReport)
	}
	msgTime, err := parseMsgTime(*dto.MsgTime)
	if err != nil {
		return VesselReport{}, err
	}

	return VesselReport{
		MMSI:            mmsi,
		SpeedOverGround: *dto.SpeedOverGround,
		MsgTime:         msgTime,
	}, nil
}

// parseMMSI normalizes a raw mmsi value (string or number) and checks it is
// exactly nine digits.
func parseMMSI(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("mmsi missing: %w", ErrInvalidReport)
	}

	var mmsi string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &mmsi); err != nil {
			return "", fmt.Errorf("mmsi: %v: %w", err, ErrInvalidReport)
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", fmt.Errorf("mmsi: %v: %w", err, ErrInvalidReport)
		}
		mmsi = n.String()
	}

	if len(mmsi) != 9 {
		return "", fmt.Errorf("mmsi must be nine digits, got %q: %w", mmsi, ErrInvalidReport)
	}
	for _, r := range mmsi {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("mmsi must be nine digits, got %q: %w", mmsi, ErrInvalidReport)
		}
	}
	return mmsi, nil
}

func parseMsgTime(raw string) (time.Time, error) {
	for _, layout := range msgTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Truncate(time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("msgtime %q is not a timestamp: %w", raw, ErrInvalidReport)
}

// FormatSpeed renders a speed in knots the way the leaderboard displays it.
func FormatSpeed(knots float64) string {
	return strconv.FormatFloat(knots, 'f', 1, 64) + " kn"
}

// SplitRecords splits a decoded chunk into candidate feed messages, one per
// non-blank line. Chunk boundaries are not guaranteed to align with message
// boundaries, so a trailing fragment may fail validation and be skipped;
// acceptable loss for a live ranking.
func SplitRecords(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
