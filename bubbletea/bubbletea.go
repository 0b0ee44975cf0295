// Package bubbletea provides the live FleetSpeed leaderboard TUI.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	fleetspeed "github.com/TorgeirBrenn/FleetSpeed"
)

// IngestFunc runs the ingestion loop. The onBatch callback is called for
// each mini-batch of validated reports. The function blocks until ingestion
// completes or the context is cancelled.
type IngestFunc func(ctx context.Context, onBatch func([]fleetspeed.VesselReport)) error

// Run creates and runs the Bubble Tea TUI program. It blocks until the
// program exits. The context is used for graceful shutdown — when
// cancelled, the program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// BatchMsg delivers one mini-batch of reports to the Bubble Tea model.
type BatchMsg struct {
	Reports []fleetspeed.VesselReport
}

// IngestDoneMsg signals that the ingestion loop has completed.
type IngestDoneMsg struct {
	Err error
}
