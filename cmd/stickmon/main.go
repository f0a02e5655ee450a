// Stickmon is an ambient-sensor monitor and network clock.
//
// It subscribes to a single MQTT topic carrying JSON sensor telemetry
// (CO2, thermal comfort index, temperature, humidity), mirrors the
// latest reading onto an ANSI terminal screen, and keeps an external
// seven-segment clock module showing network-synchronized time.
// Configuration is loaded from a single YAML file discovered
// automatically (see [config.DefaultSearchPaths]).
//
// Usage:
//
//	stickmon                 Run the monitor loop
//	stickmon run             Same as above
//	stickmon init [dir]      Write an example config.yaml (default: .)
//	stickmon version         Print version and build information
//	stickmon -config <path>  Use an explicit config file
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/comfortlab/stickmon/internal/app"
	"github.com/comfortlab/stickmon/internal/buildinfo"
	"github.com/comfortlab/stickmon/internal/config"
	"github.com/comfortlab/stickmon/internal/conn"
	"github.com/comfortlab/stickmon/internal/digiclock"
	"github.com/comfortlab/stickmon/internal/display"
	"github.com/comfortlab/stickmon/internal/retry"
	"github.com/comfortlab/stickmon/internal/session"
	"github.com/comfortlab/stickmon/internal/store"
	"github.com/comfortlab/stickmon/internal/timesync"
)

// main is intentionally minimal. It constructs the OS-level
// environment (context, stdio, argv) and delegates immediately to
// [run] so the startup-to-shutdown lifecycle can be driven from
// tests.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point. The screen owns stdout; structured
// logs — the diagnostic stream — go to stderr. Arguments are parsed
// by hand: the flag package relies on package-level globals that
// interfere with parallel tests, and the surface here is tiny.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	var configPath string
	command := ""
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-"):
			if command == "" {
				command = args[i]
			} else {
				cmdArgs = append(cmdArgs, args[i])
			}
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	switch command {
	case "version":
		fmt.Fprintln(stdout, buildinfo.String())
		return nil
	case "init":
		dir := "."
		if len(cmdArgs) > 0 {
			dir = cmdArgs[0]
		}
		return runInit(stdout, dir)
	case "", "run":
		return runMonitor(ctx, stdout, stderr, configPath)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Usage: stickmon [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run          Run the monitor loop (default)")
	fmt.Fprintln(w, "  init [dir]   Write an example config.yaml (default: .)")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	return nil
}

// runMonitor wires the components from configuration and runs the
// control loop until ctx is cancelled.
func runMonitor(ctx context.Context, stdout io.Writer, stderr io.Writer, configPath string) error {
	path, err := config.FindConfig(configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	logger.Info("stickmon starting", "config", path, "version", buildinfo.Version)

	screen := display.NewTermScreen(stdout, cfg.Display.Columns)
	st := &store.Store{}
	mbox := &session.Mailbox{}

	clock := timesync.New(timesync.Config{
		Server:   cfg.Time.Server,
		Offset:   time.Duration(cfg.Time.OffsetSec) * time.Second,
		Interval: time.Duration(cfg.Time.SyncIntervalSec) * time.Second,
		Policy: retry.Policy{
			MaxAttempts: cfg.Time.MaxRetries,
			Delay:       time.Duration(cfg.Time.RetryDelaySec) * time.Second,
		},
	}, logger)

	sess := session.New(session.Config{
		Address:        cfg.Broker.Address,
		Port:           cfg.Broker.Port,
		Topic:          cfg.Broker.Topic,
		ClientIDPrefix: cfg.Broker.ClientIDPrefix,
		KeepAlive:      uint16(cfg.Broker.KeepAliveSec),
		ConnectTimeout: time.Duration(cfg.Broker.ConnectTimeoutSec) * time.Second,
	}, func(topic string, payload []byte) {
		logger.Debug("message received", "topic", topic, "payload_size", len(payload))
		mbox.Put(payload)
	}, logger)
	defer sess.Close()

	disp := display.New(screen, st, clock, sess, display.DefaultLayout(),
		time.Duration(cfg.Display.RefreshIntervalMS)*time.Millisecond)

	sup := conn.New(conn.Config{
		PollInterval: time.Duration(cfg.Link.PollIntervalMS) * time.Millisecond,
		RetryDelay:   time.Duration(cfg.Broker.ReconnectDelaySec) * time.Second,
		SuccessDwell: time.Duration(cfg.Display.SuccessDwellMS) * time.Millisecond,
	}, conn.DialProbe(cfg.LinkProbeAddress(), time.Duration(cfg.Link.TimeoutSec)*time.Second),
		sess, disp, logger)

	// An absent clock module is reported once and then ignored: the
	// monitor is still useful without it.
	var module digiclock.Module
	if cfg.ClockModule.Port != "" {
		m, err := digiclock.OpenSerial(cfg.ClockModule.Port, cfg.ClockModule.BaudRate)
		if err != nil {
			logger.Warn("clock module unavailable", "port", cfg.ClockModule.Port, "error", err)
		} else {
			defer m.Close()
			module = m
		}
	}

	a := app.New(app.Deps{
		Supervisor: sup,
		Mailbox:    mbox,
		Store:      st,
		Display:    disp,
		Clock:      clock,
		AuxClock:   digiclock.NewRenderer(module, clock, logger),
		Logger:     logger,
		Tick:       cfg.TickDelay(),
		Dwell:      time.Duration(cfg.Display.SuccessDwellMS) * time.Millisecond,
		Brightness: cfg.ClockModule.Brightness,
	})
	return a.Run(ctx)
}
