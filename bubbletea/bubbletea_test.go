package bubbletea_test

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	fleetspeed "github.com/TorgeirBrenn/FleetSpeed"
	bt "github.com/TorgeirBrenn/FleetSpeed/bubbletea"
	"github.com/stretchr/testify/require"
)

// initModel creates a model and sends a WindowSizeMsg to initialize the table.
func initModel(t *testing.T, run bt.IngestFunc) bt.Model {
	t.Helper()
	board := fleetspeed.NewLeaderboard()
	m := bt.New(run, board, fleetspeed.DefaultTheme(), bt.Config{})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

// updateModel sends a message and returns the updated Model.
func updateModel(t *testing.T, m bt.Model, msg tea.Msg) bt.Model {
	t.Helper()
	updated, _ := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

// nopIngest is an ingest loop that produces nothing and returns immediately.
func nopIngest(_ context.Context, _ func([]fleetspeed.VesselReport)) error {
	return nil
}

func vessel(mmsi string, speed float64) fleetspeed.VesselReport {
	return fleetspeed.VesselReport{
		MMSI:            mmsi,
		SpeedOverGround: speed,
		MsgTime:         time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}
