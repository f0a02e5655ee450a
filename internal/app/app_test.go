package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/comfortlab/stickmon/internal/conn"
	"github.com/comfortlab/stickmon/internal/digiclock"
	"github.com/comfortlab/stickmon/internal/display"
	"github.com/comfortlab/stickmon/internal/session"
	"github.com/comfortlab/stickmon/internal/store"
)

// fakeScreen records what the reconciler paints.
type fakeScreen struct {
	prints []string
}

func (f *fakeScreen) Clear()                          {}
func (f *fakeScreen) SetCursor(x, y int)              {}
func (f *fakeScreen) SetTextColor(c display.Color)    {}
func (f *fakeScreen) SetTextSize(size int)            {}
func (f *fakeScreen) Width() int                      { return 40 }
func (f *fakeScreen) Print(text string)               { f.prints = append(f.prints, text) }
func (f *fakeScreen) DrawRight(text string, x, y int) { f.prints = append(f.prints, text) }

func (f *fakeScreen) reset() { f.prints = nil }

// fakeSession satisfies both conn.Session and display.SessionState.
type fakeSession struct {
	up       bool
	connects int
}

func (s *fakeSession) Connect(ctx context.Context) (byte, error) {
	s.connects++
	s.up = true
	return 0, nil
}

func (s *fakeSession) Connected() bool { return s.up }

// fakeTime satisfies TimeService and digiclock.TimeSource.
type fakeTime struct {
	t         time.Time
	plausible bool
	syncOK    bool
	refreshes int
}

func (f *fakeTime) Synchronize(ctx context.Context, onRetry func(int, error)) bool {
	return f.syncOK
}
func (f *fakeTime) Refresh(ctx context.Context) { f.refreshes++ }
func (f *fakeTime) Now() time.Time              { return f.t }
func (f *fakeTime) Plausible() bool             { return f.plausible }

// fakeModule records auxiliary clock pushes.
type fakeModule struct {
	pushes []string
}

func (m *fakeModule) SetString(s string) error      { m.pushes = append(m.pushes, s); return nil }
func (m *fakeModule) SetBrightness(level int) error { return nil }

type fixture struct {
	app    *App
	screen *fakeScreen
	sess   *fakeSession
	clock  *fakeTime
	module *fakeModule
	store  *store.Store
	mbox   *session.Mailbox
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.Default()
	screen := &fakeScreen{}
	sess := &fakeSession{}
	clock := &fakeTime{
		t:         time.Date(2025, 7, 9, 12, 34, 56, 0, time.UTC),
		plausible: true,
		syncOK:    true,
	}
	module := &fakeModule{}
	st := &store.Store{}
	mbox := &session.Mailbox{}

	disp := display.New(screen, st, clock, sess, display.DefaultLayout(), time.Hour)
	sup := conn.New(conn.Config{
		PollInterval: time.Millisecond,
		RetryDelay:   time.Millisecond,
	}, func(ctx context.Context) error { return nil }, sess, disp, logger)

	a := New(Deps{
		Supervisor: sup,
		Mailbox:    mbox,
		Store:      st,
		Display:    disp,
		Clock:      clock,
		AuxClock:   digiclock.NewRenderer(module, clock, logger),
		Logger:     logger,
		Tick:       time.Millisecond,
		Dwell:      0,
		Brightness: 80,
	})
	return &fixture{app: a, screen: screen, sess: sess, clock: clock, module: module, store: st, mbox: mbox}
}

func TestStartup_Sequence(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	if err := f.app.Startup(context.Background()); err != nil {
		t.Fatalf("Startup() error = %v", err)
	}
	if !f.sess.up {
		t.Error("session not established")
	}
	// "----" idle pattern from aux clock init, then the first repaint.
	if !slices.Contains(f.module.pushes, "----") {
		t.Errorf("module pushes = %v, want idle pattern", f.module.pushes)
	}
	for _, want := range []string{"Starting...", "NTP Sync...", "NTP Synced!", "Sensor Monitor", "No Data"} {
		if !slices.Contains(f.screen.prints, want) {
			t.Errorf("prints missing %q", want)
		}
	}
}

func TestStartup_SyncFailureBanner(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.clock.syncOK = false

	if err := f.app.Startup(context.Background()); err != nil {
		t.Fatalf("Startup() error = %v", err)
	}
	if !slices.Contains(f.screen.prints, "NTP Failed!") {
		t.Error("prints missing NTP Failed! banner")
	}
}

func TestStep_ValidPayloadEndToEnd(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.sess.up = true

	f.mbox.Put([]byte(`{"co2":850,"thi":24.3}`))
	if err := f.app.step(context.Background()); err != nil {
		t.Fatalf("step() error = %v", err)
	}

	r, ok := f.store.Current()
	if !ok {
		t.Fatal("store empty after valid payload")
	}
	if r.CO2 != 850 || r.THI != 24.3 {
		t.Errorf("stored reading = %+v, want CO2=850 THI=24.3", r)
	}
	if r.Temperature != 0 || r.Humidity != 0 {
		t.Errorf("unspecified fields = %+v, want zero", r)
	}
	// The repaint after storing shows the primary metric.
	if !slices.Contains(f.screen.prints, "850") {
		t.Errorf("prints %v missing 850", f.screen.prints)
	}
}

func TestStep_MalformedPayloadPaintsPanel(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.sess.up = true

	f.mbox.Put([]byte("not json"))
	if err := f.app.step(context.Background()); err != nil {
		t.Fatalf("step() error = %v", err)
	}

	if _, ok := f.store.Current(); ok {
		t.Error("store updated by malformed payload")
	}
	if !slices.Contains(f.screen.prints, "Invalid JSON") {
		t.Errorf("prints %v missing Invalid JSON panel", f.screen.prints)
	}
}

func TestStep_ParseFailurePaintsPanel(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.sess.up = true

	f.mbox.Put([]byte(`{"co2":}`))
	if err := f.app.step(context.Background()); err != nil {
		t.Fatalf("step() error = %v", err)
	}
	if !slices.Contains(f.screen.prints, "Parse Failed") {
		t.Errorf("prints %v missing Parse Failed panel", f.screen.prints)
	}
}

func TestStep_MaintainReconnects(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.sess.up = false

	if err := f.app.step(context.Background()); err != nil {
		t.Fatalf("step() error = %v", err)
	}
	if f.sess.connects != 1 {
		t.Errorf("connects = %d, want 1", f.sess.connects)
	}
	if !f.sess.up {
		t.Error("session still down after step")
	}
}

func TestStep_DrivesTimeAndAuxClock(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.sess.up = true

	if err := f.app.step(context.Background()); err != nil {
		t.Fatalf("step() error = %v", err)
	}
	if f.clock.refreshes != 1 {
		t.Errorf("time refreshes = %d, want 1", f.clock.refreshes)
	}
	// Plausible time: the aux clock pushes HH:MM once per minute.
	if !slices.Contains(f.module.pushes, "12:34") {
		t.Errorf("module pushes = %v, want 12:34", f.module.pushes)
	}
}

func TestStep_ImplausibleTimeSkipsAuxClock(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.sess.up = true
	f.clock.plausible = false
	f.clock.t = time.Unix(42, 0).UTC()

	for range 10 {
		if err := f.app.step(context.Background()); err != nil {
			t.Fatalf("step() error = %v", err)
		}
	}
	if len(f.module.pushes) != 0 {
		t.Errorf("module pushes = %v, want none for implausible time", f.module.pushes)
	}

	// The main screen still shows the formatted best-known time.
	f.screen.reset()
	f.app.d.Display.Refresh()
	if !slices.Contains(f.screen.prints, fmt.Sprintf("%02d:%02d:%02d", 0, 0, 42)) {
		t.Errorf("prints %v missing unconditional time", f.screen.prints)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.app.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil on cancellation", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after cancellation")
	}
}
