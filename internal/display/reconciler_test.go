package display

import (
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/comfortlab/stickmon/internal/store"
	"github.com/comfortlab/stickmon/internal/telemetry"
)

// fakeScreen records draw operations for assertions.
type fakeScreen struct {
	ops    []string
	prints []string
}

func (f *fakeScreen) Clear()               { f.ops = append(f.ops, "clear") }
func (f *fakeScreen) SetCursor(x, y int)   { f.ops = append(f.ops, fmt.Sprintf("cursor(%d,%d)", x, y)) }
func (f *fakeScreen) SetTextColor(c Color) { f.ops = append(f.ops, fmt.Sprintf("color(%d)", c)) }
func (f *fakeScreen) SetTextSize(size int) { f.ops = append(f.ops, fmt.Sprintf("size(%d)", size)) }
func (f *fakeScreen) Width() int           { return 40 }
func (f *fakeScreen) Print(text string) {
	f.ops = append(f.ops, "print:"+text)
	f.prints = append(f.prints, text)
}
func (f *fakeScreen) DrawRight(text string, x, y int) {
	f.ops = append(f.ops, fmt.Sprintf("right:%s@(%d,%d)", text, x, y))
	f.prints = append(f.prints, text)
}

func (f *fakeScreen) reset() {
	f.ops = nil
	f.prints = nil
}

func (f *fakeScreen) clears() int {
	n := 0
	for _, op := range f.ops {
		if op == "clear" {
			n++
		}
	}
	return n
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeSession struct{ up bool }

func (s fakeSession) Connected() bool { return s.up }

func newTestReconciler(scr Screen, st *store.Store, up bool, interval time.Duration) *Reconciler {
	clock := fixedClock{t: time.Date(2025, 7, 9, 12, 34, 56, 0, time.UTC)}
	return New(scr, st, clock, fakeSession{up: up}, DefaultLayout(), interval)
}

func TestRefresh_NoData(t *testing.T) {
	t.Parallel()
	scr := &fakeScreen{}
	r := newTestReconciler(scr, &store.Store{}, true, 3*time.Second)

	r.Refresh()

	if scr.clears() != 1 {
		t.Fatalf("clears = %d, want 1", scr.clears())
	}
	if scr.ops[0] != "clear" {
		t.Errorf("first op = %q, want clear", scr.ops[0])
	}
	for _, want := range []string{"Sensor Monitor", "12:34:56", "MQTT:OK", "No Data"} {
		if !slices.Contains(scr.prints, want) {
			t.Errorf("prints %v missing %q", scr.prints, want)
		}
	}
}

func TestRefresh_SessionDown(t *testing.T) {
	t.Parallel()
	scr := &fakeScreen{}
	r := newTestReconciler(scr, &store.Store{}, false, 3*time.Second)

	r.Refresh()

	if !slices.Contains(scr.prints, "MQTT:NG") {
		t.Errorf("prints %v missing MQTT:NG", scr.prints)
	}
	if slices.Contains(scr.prints, "MQTT:OK") {
		t.Errorf("prints %v contains MQTT:OK for a down session", scr.prints)
	}
}

func TestRefresh_PrimaryMetric(t *testing.T) {
	t.Parallel()
	scr := &fakeScreen{}
	st := &store.Store{}
	st.Update(telemetry.Reading{CO2: 850, THI: 24.3})
	r := newTestReconciler(scr, st, true, 3*time.Second)

	r.Refresh()

	if !slices.Contains(scr.prints, "CO2:") || !slices.Contains(scr.prints, "850") {
		t.Errorf("prints %v, want CO2 label and value 850", scr.prints)
	}

	// An explicit refresh must not advance the mode.
	scr.reset()
	r.Refresh()
	if !slices.Contains(scr.prints, "850") {
		t.Errorf("second Refresh prints %v, want 850 again", scr.prints)
	}
}

func TestTick_TogglesMode(t *testing.T) {
	t.Parallel()
	scr := &fakeScreen{}
	st := &store.Store{}
	st.Update(telemetry.Reading{CO2: 850, THI: 24.3})
	r := newTestReconciler(scr, st, true, 3*time.Second)

	now := time.Unix(10000, 0)
	r.now = func() time.Time { return now }
	r.last = now

	// Advance past the interval: first interval repaint shows the
	// primary view, the next shows the secondary.
	now = now.Add(3 * time.Second)
	scr.reset()
	if !r.Tick() {
		t.Fatal("Tick() = false after interval elapsed")
	}
	if !slices.Contains(scr.prints, "850") {
		t.Errorf("first interval prints %v, want 850", scr.prints)
	}

	now = now.Add(3 * time.Second)
	scr.reset()
	if !r.Tick() {
		t.Fatal("second Tick() = false after interval elapsed")
	}
	if !slices.Contains(scr.prints, "24.3") {
		t.Errorf("second interval prints %v, want 24.3", scr.prints)
	}
}

func TestTick_OneRepaintPerInterval(t *testing.T) {
	t.Parallel()
	scr := &fakeScreen{}
	r := newTestReconciler(scr, &store.Store{}, true, 3*time.Second)

	now := time.Unix(10000, 0)
	r.now = func() time.Time { return now }
	r.last = now

	// 100ms tick cadence over 9 seconds: exactly three repaints.
	repaints := 0
	for range 90 {
		now = now.Add(100 * time.Millisecond)
		if r.Tick() {
			repaints++
		}
	}
	if repaints != 3 {
		t.Errorf("repaints over 9s at 3s interval = %d, want 3", repaints)
	}
}

func TestTick_ModeAdvancesWithoutData(t *testing.T) {
	t.Parallel()
	scr := &fakeScreen{}
	r := newTestReconciler(scr, &store.Store{}, true, time.Second)

	now := time.Unix(10000, 0)
	r.now = func() time.Time { return now }
	r.last = now

	now = now.Add(time.Second)
	r.Tick()
	if r.mode != ModeTHI {
		t.Errorf("mode = %v, want ModeTHI after one interval", r.mode)
	}
}

func TestShowDecodeError(t *testing.T) {
	t.Parallel()
	scr := &fakeScreen{}
	st := &store.Store{}
	st.Update(telemetry.Reading{CO2: 850})
	r := newTestReconciler(scr, st, true, 3*time.Second)

	r.ShowDecodeError(&telemetry.DecodeError{
		Kind:   telemetry.KindParseFailure,
		Detail: "unexpected end of JSON input",
	})

	for _, want := range []string{"Sensor Monitor", "12:34:56", "MQTT:OK", "Parse Failed", "unexpected end of JSON input"} {
		if !slices.Contains(scr.prints, want) {
			t.Errorf("prints %v missing %q", scr.prints, want)
		}
	}
	// The metric area is replaced by the panel, not rendered alongside.
	if slices.Contains(scr.prints, "850") {
		t.Errorf("prints %v contains the metric during an error panel", scr.prints)
	}
}

func TestShowStatus_AndProgress(t *testing.T) {
	t.Parallel()
	scr := &fakeScreen{}
	r := newTestReconciler(scr, &store.Store{}, false, 3*time.Second)

	r.ShowStatus("WiFi connecting...")
	r.Progress()
	r.Progress()

	if !slices.Contains(scr.prints, "WiFi connecting...") {
		t.Errorf("prints %v missing banner", scr.prints)
	}
	dots := 0
	for _, p := range scr.prints {
		if p == "." {
			dots++
		}
	}
	if dots != 2 {
		t.Errorf("progress dots = %d, want 2", dots)
	}
}
