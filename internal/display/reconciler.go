package display

import (
	"fmt"
	"strconv"
	"time"

	"github.com/comfortlab/stickmon/internal/store"
	"github.com/comfortlab/stickmon/internal/telemetry"
)

// Mode selects which telemetry view the metric area shows.
type Mode int

const (
	// ModeCO2 shows the carbon dioxide concentration.
	ModeCO2 Mode = iota
	// ModeTHI shows the thermal comfort index.
	ModeTHI
)

func (m Mode) next() Mode {
	if m == ModeCO2 {
		return ModeTHI
	}
	return ModeCO2
}

// Clock supplies the header time. Satisfied by timesync.Service.
type Clock interface {
	Now() time.Time
}

// SessionState reports broker-session liveness, polled live on every
// repaint so the indicator is never stale.
type SessionState interface {
	Connected() bool
}

// Layout holds the cell positions of every screen element. Pure
// configuration; behavior never depends on these values.
type Layout struct {
	TitleX, TitleY   int
	TimeX, TimeY     int
	StatusX, StatusY int
	LabelX, LabelY   int
	ValueY           int
	NoDataX, NoDataY int
	ErrorX, ErrorY   int
	DetailY          int
	RightMargin      int
}

// DefaultLayout positions the elements for a 40-column screen.
func DefaultLayout() Layout {
	return Layout{
		TitleX: 0, TitleY: 0,
		TimeX: 22, TimeY: 0,
		StatusX: 32, StatusY: 0,
		LabelX: 2, LabelY: 2,
		ValueY:  3,
		NoDataX: 14, NoDataY: 3,
		ErrorX: 4, ErrorY: 3,
		DetailY:     5,
		RightMargin: 2,
	}
}

// Reconciler owns screen state. It decides what to paint from
// elapsed time, connectivity, and reading validity, alternating the
// metric area between the two telemetry views. All methods must be
// called from the control loop.
type Reconciler struct {
	screen   Screen
	store    *store.Store
	clock    Clock
	sess     SessionState
	layout   Layout
	interval time.Duration
	title    string

	mode Mode
	last time.Time

	now func() time.Time
}

// New creates a Reconciler. The interval governs the alternating
// full repaint driven by Tick.
func New(screen Screen, st *store.Store, clock Clock, sess SessionState, layout Layout, interval time.Duration) *Reconciler {
	return &Reconciler{
		screen:   screen,
		store:    st,
		clock:    clock,
		sess:     sess,
		layout:   layout,
		interval: interval,
		title:    "Sensor Monitor",
		now:      time.Now,
	}
}

// Refresh repaints the full screen immediately: after every stored
// reading and once at startup. It does not advance the mode or reset
// the interval timer.
func (r *Reconciler) Refresh() {
	r.paint()
}

// Tick repaints and advances the mode if the refresh interval has
// elapsed. Called every loop tick; cheap when the interval has not
// elapsed. Reports whether a repaint happened.
func (r *Reconciler) Tick() bool {
	now := r.now()
	if now.Sub(r.last) < r.interval {
		return false
	}
	r.paint()
	r.mode = r.mode.next()
	r.last = now
	return true
}

// paint renders the full frame: header, then the metric selected by
// the current mode, or the no-data indicator.
func (r *Reconciler) paint() {
	r.screen.Clear()
	r.paintHeader()

	reading, ok := r.store.Current()
	if !ok {
		r.paintNoData()
		return
	}
	switch r.mode {
	case ModeCO2:
		r.paintMetric("CO2:", strconv.Itoa(reading.CO2), ColorGreen)
	case ModeTHI:
		r.paintMetric("THI:", fmt.Sprintf("%.1f", reading.THI), ColorOrange)
	}
}

// paintHeader draws the title, the best-known time (shown regardless
// of the plausibility gate), and the session indicator.
func (r *Reconciler) paintHeader() {
	l := r.layout
	s := r.screen

	s.SetTextSize(1)
	s.SetTextColor(ColorCyan)
	s.SetCursor(l.TitleX, l.TitleY)
	s.Print(r.title)

	s.SetTextColor(ColorWhite)
	s.SetCursor(l.TimeX, l.TimeY)
	s.Print(r.clock.Now().Format("15:04:05"))

	if r.sess.Connected() {
		s.SetTextColor(ColorGreen)
		s.SetCursor(l.StatusX, l.StatusY)
		s.Print("MQTT:OK")
	} else {
		s.SetTextColor(ColorRed)
		s.SetCursor(l.StatusX, l.StatusY)
		s.Print("MQTT:NG")
	}
}

func (r *Reconciler) paintMetric(label, value string, c Color) {
	l := r.layout
	s := r.screen

	s.SetTextSize(2)
	s.SetTextColor(c)
	s.SetCursor(l.LabelX, l.LabelY)
	s.Print(label)

	s.SetTextSize(8)
	s.DrawRight(value, s.Width()-l.RightMargin, l.ValueY)
}

func (r *Reconciler) paintNoData() {
	l := r.layout
	s := r.screen
	s.SetTextSize(2)
	s.SetTextColor(ColorRed)
	s.SetCursor(l.NoDataX, l.NoDataY)
	s.Print("No Data")
}

// ShowDecodeError repaints with the normal header but substitutes a
// two-line error panel (category + detail) for the metric area. It
// bypasses the store/mode branch entirely.
func (r *Reconciler) ShowDecodeError(de *telemetry.DecodeError) {
	l := r.layout
	s := r.screen

	s.Clear()
	r.paintHeader()

	s.SetTextSize(2)
	s.SetTextColor(ColorRed)
	s.SetCursor(l.ErrorX, l.ErrorY)
	s.Print(de.Category())

	s.SetTextSize(1)
	s.SetCursor(l.ErrorX, l.DetailY)
	s.Print(de.Detail)
}

// ShowStatus clears the screen and paints a single status banner.
// Used by the startup and reconnect phases.
func (r *Reconciler) ShowStatus(msg string) {
	l := r.layout
	s := r.screen

	s.Clear()
	s.SetTextSize(2)
	s.SetTextColor(ColorWhite)
	s.SetCursor(l.TitleX, l.TitleY)
	s.Print(msg)
}

// Progress appends a visible progress marker to the current banner.
func (r *Reconciler) Progress() {
	r.screen.Print(".")
}
