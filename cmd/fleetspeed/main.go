// Command fleetspeed shows the fastest vessels in Norwegian waters, live,
// from the BarentsWatch AIS feed.
//
// Usage:
//
//	BARENTSWATCH_CLIENT_ID=... BARENTSWATCH_CLIENT_SECRET=... fleetspeed [flags]
//
// Flags:
//
//	-config string    Path to YAML config file (default: .fleetspeed.yaml)
//	-token string     Pre-fetched access token (skips the credential exchange)
//	-store string     Path to SQLite report cache (empty: caching disabled)
//	-top int          Number of vessels on the leaderboard
//	-headless         Print validated reports to stdout instead of the TUI
//	-fastest          Print the fastest vessels from the cache and exit
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	fleetspeed "github.com/TorgeirBrenn/FleetSpeed"
	"github.com/TorgeirBrenn/FleetSpeed/barentswatch"
	bt "github.com/TorgeirBrenn/FleetSpeed/bubbletea"
	"github.com/TorgeirBrenn/FleetSpeed/ingest"
	"github.com/TorgeirBrenn/FleetSpeed/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fleetspeed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Parse flags.
	var (
		configPath = flag.String("config", defaultConfigPath, "Path to YAML config file")
		tokenFlag  = flag.String("token", "", "Pre-fetched access token (skips the credential exchange)")
		storePath  = flag.String("store", "", "Path to SQLite report cache (empty: caching disabled)")
		topN       = flag.Int("top", 0, "Number of vessels on the leaderboard")
		headless   = flag.Bool("headless", false, "Print validated reports to stdout instead of the TUI")
		fastest    = flag.Bool("fastest", false, "Print the fastest vessels from the cache and exit")
	)
	flag.Parse()

	// Handle OS signals for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Load config. Env vars are read here and passed as values.
	cfg, err := loadConfig(*configPath,
		os.Getenv("BARENTSWATCH_CLIENT_ID"),
		os.Getenv("BARENTSWATCH_CLIENT_SECRET"),
		os.Getenv("BARENTSWATCH_TOKEN"))
	if err != nil {
		return err
	}
	if *tokenFlag != "" {
		cfg.Token = *tokenFlag
	}
	if *storePath != "" {
		cfg.StorePath = *storePath
	}
	if *topN > 0 {
		cfg.TopN = *topN
	}

	// Open the report cache, when configured.
	var st *store.Store
	if cfg.StorePath != "" {
		st, err = store.Open(cfg.StorePath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()
		if cfg.Retention > 0 {
			if _, err := st.Prune(ctx, cfg.Retention); err != nil {
				return fmt.Errorf("prune store: %w", err)
			}
		}
	}

	if *fastest {
		return printFastest(ctx, st, cfg.TopN)
	}

	loop := ingest.New(buildClient(cfg))

	if *headless {
		return runHeadless(ctx, loop, st, cfg)
	}
	return runTUI(ctx, loop, st, cfg)
}

// buildClient constructs the BarentsWatch client and picks the token
// source: a pre-fetched token bypasses the credential exchange entirely.
func buildClient(cfg config) (fleetspeed.TokenSource, fleetspeed.Feed) {
	var opts []barentswatch.Option
	if cfg.TokenURL != "" {
		opts = append(opts, barentswatch.WithTokenURL(cfg.TokenURL))
	}
	if cfg.StreamURL != "" {
		opts = append(opts, barentswatch.WithStreamURL(cfg.StreamURL))
	}
	if cfg.ContinueOnReadError {
		opts = append(opts, barentswatch.WithReadErrorPolicy(fleetspeed.ContinueAfterReadError))
	}

	client := barentswatch.New(fleetspeed.Credentials{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
	}, opts...)

	if cfg.Token != "" {
		return staticTokenSource(cfg.Token), client
	}
	return client, client
}

// staticTokenSource returns a fixed, pre-fetched token.
type staticTokenSource string

func (s staticTokenSource) Token(context.Context) (string, error) {
	return string(s), nil
}

func runOptions(st *store.Store, cfg config) []ingest.RunOption {
	opts := []ingest.RunOption{ingest.WithBatchInterval(cfg.BatchInterval)}
	if st != nil {
		opts = append(opts, ingest.WithSink(st))
	}
	if cfg.ReconnectDelay > 0 {
		opts = append(opts, ingest.WithReconnect(cfg.ReconnectDelay))
	}
	return opts
}

func runTUI(ctx context.Context, loop *ingest.Loop, st *store.Store, cfg config) error {
	board := fleetspeed.NewLeaderboard(fleetspeed.WithWindow(cfg.Window))

	ingestFn := func(ctx context.Context, onBatch func([]fleetspeed.VesselReport)) error {
		opts := append(runOptions(st, cfg),
			ingest.WithBatchHandler(func(_ fleetspeed.Session, batch []fleetspeed.VesselReport) {
				onBatch(batch)
			}))
		return loop.Run(ctx, opts...)
	}

	m := bt.New(ingestFn, board, fleetspeed.DefaultTheme(), bt.Config{TopN: cfg.TopN})
	if err := bt.Run(ctx, m); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}
	return nil
}

func runHeadless(ctx context.Context, loop *ingest.Loop, st *store.Store, cfg config) error {
	opts := append(runOptions(st, cfg),
		ingest.WithSessionHandler(func(s fleetspeed.Session) {
			fmt.Fprintf(os.Stderr, "session %s started\n", s.ID)
		}),
		ingest.WithErrorHandler(func(err error) {
			fmt.Fprintf(os.Stderr, "fleetspeed: %v\n", err)
		}),
		ingest.WithBatchHandler(func(_ fleetspeed.Session, batch []fleetspeed.VesselReport) {
			for _, r := range batch {
				fmt.Printf("%s\t%s\t%s\n",
					r.MMSI,
					fleetspeed.FormatSpeed(r.SpeedOverGround),
					r.MsgTime.Format(time.RFC3339))
			}
		}))
	return loop.Run(ctx, opts...)
}

// printFastest reports the top vessels from the cache, ranked like the
// live leaderboard but over the persisted history.
func printFastest(ctx context.Context, st *store.Store, n int) error {
	if st == nil {
		return fmt.Errorf("-fastest requires a report cache (use -store or store_path)")
	}
	top, err := st.Fastest(ctx, n)
	if err != nil {
		return err
	}
	for i, r := range top {
		fmt.Printf("%2d  %s  %9s  %s\n",
			i+1,
			r.MMSI,
			fleetspeed.FormatSpeed(r.SpeedOverGround),
			r.MsgTime.Format("2006-01-02 15:04:05"))
	}
	return nil
}
