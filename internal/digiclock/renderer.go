// Package digiclock mirrors the synchronized time onto the external
// seven-segment clock module.
//
// The module is slow to repaint and flickers on redundant writes, so
// the renderer pushes a new time string only when the minute actually
// changes. Seconds ticking past never trigger a write. The debounce
// state is just the last-rendered minute, kept here rather than in
// the module driver so it is testable without hardware.
package digiclock

import (
	"fmt"
	"log/slog"
	"time"
)

// Module is the auxiliary display boundary: a short fixed-format
// time string plus a one-time brightness call at startup.
type Module interface {
	SetString(s string) error
	SetBrightness(level int) error
}

// TimeSource supplies the current belief and its trustworthiness.
// Satisfied by timesync.Service.
type TimeSource interface {
	Now() time.Time
	Plausible() bool
}

// Renderer drives the module. Methods must be called from the
// control loop.
type Renderer struct {
	module Module
	clock  TimeSource
	logger *slog.Logger

	lastMinute int
	disabled   bool
}

// NewRenderer creates a Renderer. A nil module leaves the renderer
// permanently disabled, which callers use when the port could not be
// opened at all.
func NewRenderer(module Module, clock TimeSource, logger *slog.Logger) *Renderer {
	return &Renderer{
		module:     module,
		clock:      clock,
		logger:     logger,
		lastMinute: -1,
		disabled:   module == nil,
	}
}

// Init sets the module brightness and shows the idle pattern. An
// init failure disables the renderer for the rest of the run and is
// returned once for the caller to report; it is never fatal. An
// intentionally absent module (nil at construction) is a quiet no-op.
func (r *Renderer) Init(brightness int) error {
	if r.disabled {
		return nil
	}
	if err := r.module.SetBrightness(brightness); err != nil {
		r.disabled = true
		return fmt.Errorf("set clock module brightness: %w", err)
	}
	if err := r.module.SetString("----"); err != nil {
		r.disabled = true
		return fmt.Errorf("write clock module idle pattern: %w", err)
	}
	r.logger.Info("clock module initialized", "brightness", brightness)
	return nil
}

// Refresh pushes the current time as zero-padded HH:MM, but only
// when the time belief is plausible and the minute differs from the
// last push. Called every tick.
func (r *Renderer) Refresh() {
	if r.disabled || !r.clock.Plausible() {
		return
	}

	now := r.clock.Now()
	minute := now.Minute()
	if minute == r.lastMinute {
		return
	}

	s := fmt.Sprintf("%02d:%02d", now.Hour(), minute)
	if err := r.module.SetString(s); err != nil {
		// Transient write failure: leave lastMinute unchanged so the
		// next tick retries.
		r.logger.Warn("clock module write failed", "time", s, "error", err)
		return
	}
	r.lastMinute = minute
}
