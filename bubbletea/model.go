package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	fleetspeed "github.com/TorgeirBrenn/FleetSpeed"
)

var _ tea.Model = Model{}

const defaultTitle = "FleetSpeed - The Fastest Vessels in Norway Right Now"

const defaultTopN = 10

// Config carries display options for the TUI.
type Config struct {
	Title string // leaderboard title; empty = default
	TopN  int    // vessels shown; 0 = 10
}

// Model is the Bubble Tea model for the FleetSpeed leaderboard.
type Model struct {
	// Table is the leaderboard table component. Exported for test access.
	Table table.Model

	run    IngestFunc
	board  *fleetspeed.Leaderboard
	theme  fleetspeed.Theme
	styles Styles
	config Config

	running   bool
	cancel    context.CancelFunc
	ingestCmd tea.Cmd
	batchCh   chan []fleetspeed.VesselReport
	doneCh    chan error
	err       error
	ready     bool

	batches int
	reports int
}

// New creates a TUI Model. Ingestion starts when the program does and feeds
// the given leaderboard; the model reads Top(config.TopN) after every batch.
func New(run IngestFunc, board *fleetspeed.Leaderboard, theme fleetspeed.Theme, config Config) Model {
	if config.Title == "" {
		config.Title = defaultTitle
	}
	if config.TopN == 0 {
		config.TopN = defaultTopN
	}

	columns := []table.Column{
		{Title: "#", Width: 3},
		{Title: "Vessel MMSI", Width: 12},
		{Title: "Speed", Width: 9},
		{Title: "Measured at", Width: 20},
	}

	styles := NewStyles(theme)
	tbl := table.New(
		table.WithColumns(columns),
		table.WithHeight(config.TopN),
	)
	tbl.SetStyles(styles.Table)

	ctx, cancel := context.WithCancel(context.Background())

	m := Model{
		Table:   tbl,
		run:     run,
		board:   board,
		theme:   theme,
		styles:  styles,
		config:  config,
		running: true,
		cancel:  cancel,
		batchCh: make(chan []fleetspeed.VesselReport, 16),
		doneCh:  make(chan error, 1),
	}
	m.ingestCmd = startIngest(run, ctx, m.batchCh, m.doneCh)
	return m
}

// Running returns whether ingestion is currently active.
func (m Model) Running() bool { return m.running }

// Err returns the terminal ingestion error, if any.
func (m Model) Err() error { return m.err }

// Init implements tea.Model: it launches the ingestion loop and starts
// listening for batches.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.ingestCmd, listenForBatch(m.batchCh, m.doneCh))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case BatchMsg:
		m.board.Add(msg.Reports)
		m.batches++
		m.reports += len(msg.Reports)
		m.Table.SetRows(leaderboardRows(m.board.Top(m.config.TopN)))
		return m, listenForBatch(m.batchCh, m.doneCh)

	case IngestDoneMsg:
		m.running = false
		if msg.Err != nil && !errors.Is(msg.Err, context.Canceled) {
			m.err = msg.Err
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Connecting..."
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render(m.config.Title))
	b.WriteString("\n\n")
	b.WriteString(m.Table.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(m.styles.Error.Render(m.err.Error()))
	}
	return b.String()
}

func (m Model) statusLine() string {
	state := "streaming"
	if !m.running {
		state = "stopped"
	}
	return m.styles.Muted.Render(
		fmt.Sprintf("%s · %d batches · %d reports · q to quit", state, m.batches, m.reports))
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	// Title + blank line + status take four rows; the table gets the rest,
	// capped at the leaderboard size.
	height := msg.Height - 4
	if m.err != nil {
		height--
	}
	if height > m.config.TopN+1 {
		height = m.config.TopN + 1
	}
	if height < 2 {
		height = 2
	}
	m.Table.SetWidth(msg.Width)
	m.Table.SetHeight(height)
	m.ready = true
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC, msg.String() == "q":
		if m.running && m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

func leaderboardRows(top []fleetspeed.VesselReport) []table.Row {
	rows := make([]table.Row, len(top))
	for i, r := range top {
		rows[i] = table.Row{
			strconv.Itoa(i + 1),
			r.MMSI,
			fleetspeed.FormatSpeed(r.SpeedOverGround),
			r.MsgTime.Format("2006-01-02 15:04:05"),
		}
	}
	return rows
}

// startIngest runs the ingestion loop in a tea command, forwarding batches
// to the model through batchCh.
func startIngest(run IngestFunc, ctx context.Context, batchCh chan<- []fleetspeed.VesselReport, doneCh chan<- error) tea.Cmd {
	return func() tea.Msg {
		err := run(ctx, func(b []fleetspeed.VesselReport) {
			select {
			case batchCh <- b:
			case <-ctx.Done():
			}
		})
		close(batchCh)
		doneCh <- err
		return nil
	}
}

// listenForBatch waits for the next batch from the channel. When the
// channel closes, it reads the error from doneCh and returns IngestDoneMsg.
func listenForBatch(ch <-chan []fleetspeed.VesselReport, doneCh <-chan error) tea.Cmd {
	return func() tea.Msg {
		b, ok := <-ch
		if !ok {
			return IngestDoneMsg{Err: <-doneCh}
		}
		return BatchMsg{Reports: b}
	}
}
