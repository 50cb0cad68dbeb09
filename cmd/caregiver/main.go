// Package main is the entry point for the caregiver application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/jwulff/caregiver-go/internal/api"
	"github.com/jwulff/caregiver-go/internal/config"
	"github.com/jwulff/caregiver-go/internal/domain"
	"github.com/jwulff/caregiver-go/internal/graph"
	"github.com/jwulff/caregiver-go/internal/logger"
	"github.com/jwulff/caregiver-go/internal/metrics"
	"github.com/jwulff/caregiver-go/internal/monitor"
	"github.com/jwulff/caregiver-go/internal/nightscout"
	"github.com/jwulff/caregiver-go/internal/pixoo"
	"github.com/jwulff/caregiver-go/internal/render"
	"github.com/jwulff/caregiver-go/internal/storage/sqlite"
	"github.com/jwulff/caregiver-go/internal/treatment"
)

const commandTimeout = 30 * time.Second

// newLogger builds the process logger.
var newLogger = logger.NewLogger

func main() {
	os.Exit(run(os.Args))
}

// run executes one subcommand and returns the process exit code. Deferred
// cleanup, including flushing the logger, happens before main exits.
func run(argv []string) int {
	if len(argv) < 2 {
		showUsage()
		return 0
	}

	if argv[1] == "scan" {
		if err := scanForDisplays(); err != nil {
			fmt.Printf("\nError: %v\n", err)
			return 1
		}
		return 0
	}

	cfg, err := config.Load(os.Getenv("CAREGIVER_CONFIG"))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}
	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	client := nightscout.NewClient(cfg.Nightscout, log)
	args := argv[2:]

	switch argv[1] {
	case "serve":
		err = serve(cfg, client, log)
	case "graph":
		err = printGraph(cfg, client)
	case "current":
		err = printCurrent(client)
	case "preview":
		err = previewFrame(cfg, client)
	case "display":
		err = pushOnce(cfg, client, log)
	case "bolus":
		if len(args) < 2 {
			return usageError("units and OTP code required", "caregiver bolus <units> <otp>")
		}
		err = sendBolus(client, args[0], args[1])
	case "carbs":
		if len(args) < 3 {
			return usageError("grams, absorption hours and OTP code required", "caregiver carbs <grams> <hours> <otp>")
		}
		err = sendCarbs(client, args[0], args[1], args[2])
	case "override":
		if len(args) < 1 {
			return usageError("override name required", "caregiver override <name> [minutes]")
		}
		minutes := ""
		if len(args) > 1 {
			minutes = args[1]
		}
		err = startOverride(client, args[0], minutes)
	case "overrides":
		err = listOverrides(client)
	default:
		showUsage()
		return 0
	}

	if err != nil {
		log.Error("Command failed", zap.String("command", argv[1]), zap.Error(err))
		fmt.Printf("\nError: %v\n", err)
		return 1
	}
	return 0
}

func showUsage() {
	fmt.Println("Caregiver - remote view and control for a Loop user")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  caregiver serve                        - Run the refresher and HTTP API")
	fmt.Println("  caregiver graph                        - Print the graph items for the window")
	fmt.Println("  caregiver current                      - Show the latest glucose reading")
	fmt.Println("  caregiver preview                      - Show ASCII preview of the graph")
	fmt.Println("  caregiver display                      - Push the graph to the Pixoo once")
	fmt.Println("  caregiver scan                         - Scan the local network for Pixoo displays")
	fmt.Println("  caregiver bolus <units> <otp>          - Deliver a remote bolus")
	fmt.Println("  caregiver carbs <grams> <hours> <otp>  - Enter remote carbs")
	fmt.Println("  caregiver override <name> [minutes]    - Start an override preset")
	fmt.Println("  caregiver overrides                    - List override presets")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  CAREGIVER_CONFIG    - Path to a YAML config file (optional)")
	fmt.Println("  NIGHTSCOUT_URL      - Nightscout site URL")
	fmt.Println("  NIGHTSCOUT_SECRET   - Nightscout API secret")
	fmt.Println("  CAREGIVER_DB        - SQLite cache path")
	fmt.Println("  CAREGIVER_LISTEN    - HTTP listen address")
	fmt.Println("  PIXOO_ADDR          - Pixoo64 address (optional)")
	fmt.Println("  LOG_LEVEL           - debug, info, warn or error")
}

func usageError(msg, usage string) int {
	fmt.Printf("Error: %s\n", msg)
	fmt.Printf("Usage: %s\n", usage)
	return 1
}

func newProjector(cfg *config.Config) *graph.Projector {
	p := graph.NewProjector()
	p.FallbackValue = cfg.Graph.FallbackValue
	return p
}

func serve(cfg *config.Config, client *nightscout.Client, log *zap.Logger) error {
	store, err := sqlite.NewFileStore(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	m := metrics.New(prometheus.DefaultRegisterer)

	refresher := monitor.NewRefresher(client, monitor.Options{
		Window:    cfg.GraphWindow(),
		Interval:  cfg.Refresh.Interval,
		Retention: cfg.Storage.Retention,
		Projector: newProjector(cfg),
		Store:     store,
		Metrics:   m,
		Logger:    log,
	})

	server := api.NewServer(cfg.Server.Listen, api.Deps{
		Refresher: refresher,
		Commander: client,
		Store:     store,
		Metrics:   m,
		Gatherer:  prometheus.DefaultGatherer,
		Logger:    log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := refresher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Refresher stopped", zap.Error(err))
		}
	}()

	if cfg.Display.Enabled() {
		go runDisplay(ctx, cfg, refresher, pixoo.NewClient(cfg.Display, log), m, log)
	}

	errc := make(chan error, 1)
	go func() { errc <- server.Start() }()

	fmt.Printf("Serving on %s. Press Ctrl+C to stop\n", cfg.Server.Listen)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		fmt.Println("\nStopping...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// refreshOnce builds a single snapshot without the cache.
func refreshOnce(cfg *config.Config, client *nightscout.Client) (*monitor.Snapshot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	refresher := monitor.NewRefresher(client, monitor.Options{
		Window:    cfg.GraphWindow(),
		Projector: newProjector(cfg),
	})
	return refresher.Refresh(ctx)
}

func printGraph(cfg *config.Config, client *nightscout.Client) error {
	snap, err := refreshOnce(cfg, client)
	if err != nil {
		return err
	}

	fmt.Printf("Graph %s - %s (%d items)\n",
		snap.Start.Local().Format("15:04"), snap.End.Local().Format("15:04"), len(snap.Items))
	fmt.Println()
	for _, item := range snap.Items {
		label := graph.Annotate(item).Label
		fmt.Printf("  %s  %-5s  %3d mg/dL  %-6s  %s\n",
			item.DisplayTime.Local().Format("15:04"), item.Kind.Name(), item.Value, item.Band(), label)
	}
	return nil
}

func printCurrent(client *nightscout.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	reading, err := client.FetchLatest(ctx, monitor.LatestLookback)
	if err != nil {
		return err
	}
	if reading == nil {
		fmt.Println("No glucose readings in the last 30 minutes.")
		return nil
	}

	glucose, delta, age := render.HeaderText(reading, time.Now())
	fmt.Printf("%s mg/dL (%.1f mmol/L) %s  %s  %s ago\n",
		glucose, reading.GlucoseMmol, reading.TrendArrow, delta, age)
	fmt.Printf("Range: %s", reading.Band)
	if reading.IsStale {
		fmt.Print(" (stale)")
	}
	fmt.Println()
	return nil
}

// composeSnapshot renders snap into a width x height frame.
func composeSnapshot(snap *monitor.Snapshot, width, height int) *domain.Frame {
	return render.ComposeFrame(render.View{
		Items:  snap.Items,
		Latest: snap.Latest,
		Start:  snap.Start,
		End:    snap.End,
		Now:    time.Now(),
	}, width, height)
}

func previewFrame(cfg *config.Config, client *nightscout.Client) error {
	snap, err := refreshOnce(cfg, client)
	if err != nil {
		return err
	}

	frame := composeSnapshot(snap, domain.DefaultWidth, domain.DefaultHeight)

	fmt.Printf("%dx%d Graph Preview:\n", frame.Width, frame.Height)
	fmt.Println()
	printFrameASCII(frame)
	fmt.Println()
	fmt.Println("Legend: █=bright ▓=medium ▒=dim ░=faint ·=very dim (space)=off")
	return nil
}

// printFrameASCII prints the frame inside a border with row numbers.
func printFrameASCII(frame *domain.Frame) {
	border := strings.Repeat("─", frame.Width)
	fmt.Printf("  ┌%s┐\n", border)
	for y, line := range strings.Split(strings.TrimSuffix(frame.ASCII(), "\n"), "\n") {
		fmt.Printf("%2d│%s│\n", y, line)
	}
	fmt.Printf("  └%s┘\n", border)
}

// runDisplay pushes the latest snapshot to the Pixoo on every refresh
// interval until ctx is done.
func runDisplay(ctx context.Context, cfg *config.Config, refresher *monitor.Refresher, display *pixoo.Client, m *metrics.Metrics, log *zap.Logger) {
	log = log.With(zap.String("display", cfg.Display.Address))

	if cfg.Display.Brightness > 0 {
		if err := display.SetBrightness(ctx, cfg.Display.Brightness); err != nil {
			log.Warn("Failed to set display brightness", zap.Error(err))
		}
	}

	ticker := time.NewTicker(cfg.Refresh.Interval)
	defer ticker.Stop()

	for {
		if snap := refresher.Snapshot(); snap != nil {
			err := display.Push(ctx, composeSnapshot(snap, pixoo.Size, pixoo.Size))
			m.ObserveDisplayPush(err)
			if err != nil && ctx.Err() == nil {
				log.Warn("Failed to push frame", zap.Error(err))
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func pushOnce(cfg *config.Config, client *nightscout.Client, log *zap.Logger) error {
	if !cfg.Display.Enabled() {
		return errors.New("no display configured (set PIXOO_ADDR or display.address)")
	}

	snap, err := refreshOnce(cfg, client)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	display := pixoo.NewClient(cfg.Display, log)
	if cfg.Display.Brightness > 0 {
		if err := display.SetBrightness(ctx, cfg.Display.Brightness); err != nil {
			return err
		}
	}

	fmt.Printf("Sending graph to %s...\n", cfg.Display.Address)
	if err := display.Push(ctx, composeSnapshot(snap, pixoo.Size, pixoo.Size)); err != nil {
		return err
	}
	fmt.Println("Frame sent successfully!")
	return nil
}

func scanForDisplays() error {
	subnet, err := pixoo.LocalSubnet()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	fmt.Printf("Scanning %s.0/24 for Pixoo devices...\n", subnet)
	found, err := pixoo.Scan(ctx, subnet, func(done, total int) {
		fmt.Printf("\r  %d/%d", done, total)
	})
	fmt.Println()
	if err != nil {
		return err
	}

	if len(found) == 0 {
		fmt.Println("No Pixoo devices found.")
		return nil
	}
	fmt.Printf("Found %d device(s):\n", len(found))
	for _, addr := range found {
		fmt.Printf("  %s\n", addr)
	}
	fmt.Println()
	fmt.Println("Set PIXOO_ADDR to use one with 'caregiver serve' or 'caregiver display'.")
	return nil
}

func sendBolus(client *nightscout.Client, units, otp string) error {
	cmd, err := treatment.ParseBolus(units, otp)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	fmt.Printf("Sending %s bolus...\n", graph.FormatBolus(cmd.Units))
	if err := client.SendBolus(ctx, cmd); err != nil {
		return err
	}
	fmt.Println("Bolus sent successfully!")
	return nil
}

func sendCarbs(client *nightscout.Client, grams, hours, otp string) error {
	cmd, err := treatment.ParseCarbs(grams, hours, otp)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	fmt.Printf("Sending %s over %g hours...\n", graph.FormatCarbs(cmd.Grams), cmd.AbsorptionHours)
	if err := client.SendCarbs(ctx, cmd); err != nil {
		return err
	}
	fmt.Println("Carbs sent successfully!")
	return nil
}

func startOverride(client *nightscout.Client, name, minutes string) error {
	cmd, err := treatment.ParseOverride(name, minutes)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	overrides, err := client.FetchOverrides(ctx)
	if err != nil {
		return err
	}
	preset, ok := overrides.FindPreset(cmd.Name)
	if !ok {
		return fmt.Errorf("%w: unknown override preset %q (see 'caregiver overrides')", treatment.ErrInvalidInput, cmd.Name)
	}
	if strings.TrimSpace(minutes) == "" {
		cmd.DurationMinutes = preset.DurationMinutes(treatment.DefaultOverrideMinutes)
	}

	fmt.Printf("Starting override %s for %d minutes...\n", cmd.Name, cmd.DurationMinutes)
	if err := client.SendOverride(ctx, cmd); err != nil {
		return err
	}
	fmt.Println("Override started successfully!")
	return nil
}

func listOverrides(client *nightscout.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	overrides, err := client.FetchOverrides(ctx)
	if err != nil {
		return err
	}

	if len(overrides.Presets) == 0 {
		fmt.Println("No override presets found.")
		fmt.Println()
		fmt.Println("Loop uploads its presets with the profile. Make sure")
		fmt.Println("remote commands are enabled in Loop's Nightscout settings.")
		return nil
	}

	fmt.Printf("Found %d preset(s):\n", len(overrides.Presets))
	fmt.Println()
	for i, p := range overrides.Presets {
		duration := "indefinite"
		if p.Duration > 0 {
			duration = fmt.Sprintf("%d min", p.DurationMinutes(0))
		}
		marker := " "
		if overrides.Active != nil && overrides.Active.Name == p.Name {
			marker = "*"
		}
		fmt.Printf(" %s%d. %s %s (%s)\n", marker, i+1, p.Symbol, p.Name, duration)
	}
	return nil
}
