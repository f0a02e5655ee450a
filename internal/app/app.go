// Package app wires the components into the control loop.
//
// Execution is cooperative on a single goroutine: each tick heals the
// broker session if needed, drains the inbound mailbox, gives the
// display and the time service a chance to refresh, and repaints the
// auxiliary clock if the minute changed. The only blocking phases are
// connectivity establishment and reconnects, accepted because the
// device has no other useful work while disconnected.
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/comfortlab/stickmon/internal/buildinfo"
	"github.com/comfortlab/stickmon/internal/conn"
	"github.com/comfortlab/stickmon/internal/digiclock"
	"github.com/comfortlab/stickmon/internal/display"
	"github.com/comfortlab/stickmon/internal/retry"
	"github.com/comfortlab/stickmon/internal/session"
	"github.com/comfortlab/stickmon/internal/store"
	"github.com/comfortlab/stickmon/internal/telemetry"
)

// TimeService is the time sync surface the loop drives. Satisfied by
// timesync.Service.
type TimeService interface {
	Synchronize(ctx context.Context, onRetry func(attempt int, err error)) bool
	Refresh(ctx context.Context)
	Now() time.Time
	Plausible() bool
}

// Deps are the constructed components the loop coordinates. All are
// required except AuxClock behavior degrading via its own disabled
// state.
type Deps struct {
	Supervisor *conn.Supervisor
	Mailbox    *session.Mailbox
	Store      *store.Store
	Display    *display.Reconciler
	Clock      TimeService
	AuxClock   *digiclock.Renderer
	Logger     *slog.Logger

	// Tick is the loop cadence.
	Tick time.Duration
	// Dwell is how long startup result banners stay visible.
	Dwell time.Duration
	// Brightness is the auxiliary module brightness set at Init.
	Brightness int
}

// App is the application context. It is exclusively owned by the
// control loop; components receive it by reference and never across
// goroutines.
type App struct {
	d Deps
}

// New creates an App.
func New(d Deps) *App {
	return &App{d: d}
}

// Startup runs the one-time initialization sequence: startup banner,
// auxiliary clock init, the blocking link gate, time sync, session
// establishment, and the first full repaint. It returns an error only
// when ctx is cancelled — nothing in the sequence is fatal.
func (a *App) Startup(ctx context.Context) error {
	a.d.Logger.Info("starting", "build", buildinfo.String())
	a.d.Display.ShowStatus("Starting...")

	if err := a.d.AuxClock.Init(a.d.Brightness); err != nil {
		// Reported once, then ignored for the rest of the run.
		a.d.Logger.Warn("clock module init failed", "error", err)
		a.d.Display.ShowStatus("DigiClock ERR")
		retry.Sleep(ctx, a.d.Dwell)
	}

	if err := a.d.Supervisor.EstablishLink(ctx); err != nil {
		return err
	}

	a.d.Display.ShowStatus("NTP Sync...")
	if a.d.Clock.Synchronize(ctx, func(attempt int, err error) {
		a.d.Display.Progress()
	}) {
		a.d.Display.ShowStatus("NTP Synced!")
	} else {
		a.d.Display.ShowStatus("NTP Failed!")
	}
	retry.Sleep(ctx, a.d.Dwell)

	if err := a.d.Supervisor.EstablishSession(ctx); err != nil {
		return err
	}

	a.d.Display.Refresh()
	a.d.Logger.Info("initialization complete")
	return nil
}

// Run executes Startup and then ticks until ctx is cancelled.
// Cancellation is the clean shutdown path and returns nil.
func (a *App) Run(ctx context.Context) error {
	if err := a.Startup(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	ticker := time.NewTicker(a.d.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.d.Logger.Info("shutting down")
			return nil
		case <-ticker.C:
			if err := a.step(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
		}
	}
}

// step is one tick of the control loop.
func (a *App) step(ctx context.Context) error {
	if err := a.d.Supervisor.Maintain(ctx); err != nil {
		return err
	}

	if payload, ok := a.d.Mailbox.Take(); ok {
		a.handlePayload(payload)
	}

	a.d.Display.Tick()
	a.d.Clock.Refresh(ctx)
	a.d.AuxClock.Refresh()
	return nil
}

// handlePayload runs the decode → store → repaint path for one
// inbound message. Decode failures paint the error panel and the
// loop continues; nothing here aborts the process.
func (a *App) handlePayload(payload []byte) {
	reading, err := telemetry.Decode(payload)
	if err != nil {
		var de *telemetry.DecodeError
		if errors.As(err, &de) {
			a.d.Logger.Warn("payload rejected",
				"category", de.Category(),
				"detail", de.Detail,
				"payload_size", len(payload),
			)
			a.d.Display.ShowDecodeError(de)
		}
		return
	}

	a.d.Store.Update(reading)
	a.d.Logger.Info("reading stored",
		"co2", reading.CO2,
		"thi", reading.THI,
		"temperature", reading.Temperature,
		"humidity", reading.Humidity,
	)
	a.d.Display.Refresh()
}
