// Package conn supervises the two connectivity layers: the network
// link and the broker session.
//
// Link establishment is a deliberate blocking startup gate — the
// device is useless without the network, so the loop polls forever,
// painting a progress marker per poll. Session establishment retries
// forever at a flat interval, displaying the broker's reason code per
// failed attempt. Neither path ever escalates to a fatal error; only
// context cancellation stops them.
package conn

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/comfortlab/stickmon/internal/retry"
)

// LinkProbe reports whether the network link is currently up.
// Return nil when it is.
type LinkProbe func(ctx context.Context) error

// DialProbe returns a LinkProbe that checks reachability by dialing
// addr over TCP.
func DialProbe(addr string, timeout time.Duration) LinkProbe {
	return func(ctx context.Context) error {
		dialCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		var d net.Dialer
		c, err := d.DialContext(dialCtx, "tcp", addr)
		if err != nil {
			return fmt.Errorf("probe %s: %w", addr, err)
		}
		return c.Close()
	}
}

// Session is the broker session the supervisor heals. Satisfied by
// session.Session.
type Session interface {
	// Connect performs a single connection attempt, returning the
	// broker reason code alongside any error.
	Connect(ctx context.Context) (byte, error)
	// Connected reports current session liveness.
	Connected() bool
}

// StatusSink is where the supervisor paints per-attempt feedback.
// Satisfied by display.Reconciler. The retry policies themselves
// render nothing.
type StatusSink interface {
	ShowStatus(msg string)
	Progress()
}

// Config holds supervisor timing, immutable after New.
type Config struct {
	// PollInterval is the spacing of link probes during EstablishLink.
	PollInterval time.Duration
	// RetryDelay is the flat wait between session attempts.
	RetryDelay time.Duration
	// SuccessDwell is how long confirmation banners stay visible.
	SuccessDwell time.Duration
}

// Supervisor maintains link and session liveness.
type Supervisor struct {
	cfg     Config
	probe   LinkProbe
	session Session
	status  StatusSink
	logger  *slog.Logger

	// sleep is swapped out by tests.
	sleep func(ctx context.Context, d time.Duration) bool
}

// New creates a Supervisor.
func New(cfg Config, probe LinkProbe, sess Session, status StatusSink, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		cfg:     cfg,
		probe:   probe,
		session: sess,
		status:  status,
		logger:  logger,
		sleep:   retry.Sleep,
	}
}

// EstablishLink blocks until the link probe passes, polling at the
// configured interval with a progress marker per poll. There is no
// give-up path; the only error it returns is ctx cancellation.
func (s *Supervisor) EstablishLink(ctx context.Context) error {
	s.logger.Info("waiting for network link")
	s.status.ShowStatus("Link connecting...")

	policy := retry.Policy{MaxAttempts: 0, Delay: s.cfg.PollInterval}
	err := policy.Run(ctx, s.probe, func(attempt int, err error) {
		s.status.Progress()
		s.logger.Debug("link probe failed", "attempt", attempt, "error", err)
	})
	if err != nil {
		return err
	}

	s.logger.Info("network link up")
	s.status.ShowStatus("Link up!")
	s.sleep(ctx, s.cfg.SuccessDwell)
	return nil
}

// LinkUp reports current link liveness. Polled live, never cached.
func (s *Supervisor) LinkUp(ctx context.Context) bool {
	return s.probe(ctx) == nil
}

// EstablishSession connects to the broker, retrying forever at the
// flat delay. Each failed attempt paints the broker's reason code.
// Subscription happens inside Session.Connect, so a nil return means
// the session is up and subscribed.
func (s *Supervisor) EstablishSession(ctx context.Context) error {
	s.logger.Info("connecting to broker")
	s.status.ShowStatus("MQTT connecting...")

	var lastCode byte
	policy := retry.Policy{MaxAttempts: 0, Delay: s.cfg.RetryDelay}
	err := policy.Run(ctx, func(ctx context.Context) error {
		code, err := s.session.Connect(ctx)
		lastCode = code
		return err
	}, func(attempt int, err error) {
		s.status.ShowStatus(fmt.Sprintf("Failed, rc=%d retry in %s", lastCode, s.cfg.RetryDelay))
		s.logger.Warn("broker connect failed",
			"attempt", attempt,
			"reason_code", lastCode,
			"error", err,
		)
	})
	if err != nil {
		return err
	}

	s.status.ShowStatus("MQTT Connected!")
	s.sleep(ctx, s.cfg.SuccessDwell)
	return nil
}

// Maintain heals the session if it has dropped. Called every tick;
// when healing is needed it blocks the tick until the session is back
// up, which is accepted — display and clock updates are not
// time-critical to the second.
func (s *Supervisor) Maintain(ctx context.Context) error {
	if s.session.Connected() {
		return nil
	}
	s.logger.Warn("broker session lost, reconnecting")
	return s.EstablishSession(ctx)
}
