// Package timesync maintains a network-synchronized belief about the
// current wall-clock time.
//
// The belief is anchored: a successful NTP query stores the reported
// wall time together with the local monotonic instant it arrived, and
// Now extrapolates from that anchor. Before the first sync the belief
// starts at the Unix epoch, which is exactly what the plausibility
// gate exists to catch: a time below the recency cutoff is shown on
// the main screen but never trusted by the auxiliary clock.
package timesync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/beevik/ntp"

	"github.com/comfortlab/stickmon/internal/retry"
)

// PlausibilityCutoff is the epoch second below which a synced time is
// treated as not yet trustworthy (2023-01-01T00:00:00Z). It guards
// against acting on an unset clock after a failed sync.
const PlausibilityCutoff = 1672531200

// QueryFunc asks a time server for the current UTC time. The default
// implementation wraps beevik/ntp; tests substitute a fake.
type QueryFunc func(ctx context.Context, server string) (time.Time, error)

// Config holds the service parameters, all immutable after New.
type Config struct {
	// Server is the NTP server address.
	Server string
	// Offset is the timezone offset applied to every reported time.
	Offset time.Duration
	// Interval is the minimum spacing between background resync
	// attempts driven by Refresh.
	Interval time.Duration
	// Policy bounds the startup Synchronize loop.
	Policy retry.Policy
	// QueryTimeout limits a single server exchange.
	QueryTimeout time.Duration
}

// Service is the time sync service. Safe for concurrent use.
type Service struct {
	cfg    Config
	query  QueryFunc
	now    func() time.Time
	zone   *time.Location
	logger *slog.Logger

	mu          sync.Mutex
	synced      bool
	wall        time.Time // UTC time reported by the last good sync
	anchor      time.Time // local instant of that sync
	started     time.Time // local instant of New, pre-sync anchor
	lastAttempt time.Time
}

// New creates a Service. logger must not be nil.
func New(cfg Config, logger *slog.Logger) *Service {
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 5 * time.Second
	}
	s := &Service{
		cfg:    cfg,
		now:    time.Now,
		zone:   time.FixedZone("", int(cfg.Offset/time.Second)),
		logger: logger,
	}
	s.query = s.ntpQuery
	s.started = s.now()
	return s
}

// ntpQuery is the production QueryFunc.
func (s *Service) ntpQuery(ctx context.Context, server string) (time.Time, error) {
	resp, err := ntp.QueryWithOptions(server, ntp.QueryOptions{
		Timeout: s.cfg.QueryTimeout,
	})
	if err != nil {
		return time.Time{}, err
	}
	if err := resp.Validate(); err != nil {
		return time.Time{}, err
	}
	return resp.Time.UTC(), nil
}

// Synchronize runs the startup sync loop: bounded attempts with a
// fixed delay between them. onRetry, if non-nil, is invoked per
// failed attempt so the caller can paint progress. Returns whether a
// sync succeeded; failure is not fatal, the service just stays
// unsynced until a later Refresh lands.
func (s *Service) Synchronize(ctx context.Context, onRetry func(attempt int, err error)) bool {
	err := s.cfg.Policy.Run(ctx, func(ctx context.Context) error {
		return s.attempt(ctx)
	}, onRetry)
	if err != nil {
		s.logger.Warn("time sync failed", "server", s.cfg.Server, "error", err)
		return false
	}
	s.logger.Info("time synced", "server", s.cfg.Server, "time", s.Now().Format("15:04:05"))
	return true
}

// Refresh performs a self-throttled background resync. It is cheap
// to call every tick: attempts are spaced at least Interval apart, so
// callers need no throttling of their own. Failures are logged at
// debug level and leave the existing belief in place.
func (s *Service) Refresh(ctx context.Context) {
	s.mu.Lock()
	due := s.lastAttempt.IsZero() || s.now().Sub(s.lastAttempt) >= s.cfg.Interval
	s.mu.Unlock()
	if !due {
		return
	}
	if err := s.attempt(ctx); err != nil {
		s.logger.Debug("background time sync failed", "server", s.cfg.Server, "error", err)
	}
}

// attempt performs one server exchange and updates the belief on
// success.
func (s *Service) attempt(ctx context.Context) error {
	s.mu.Lock()
	s.lastAttempt = s.now()
	s.mu.Unlock()

	wall, err := s.query(ctx, s.cfg.Server)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.wall = wall.UTC()
	s.anchor = s.now()
	s.synced = true
	s.mu.Unlock()
	return nil
}

// Now returns the best-known current time in the configured zone.
// It always returns a value, even before the first sync — display
// callers show it unconditionally and apply Plausible themselves
// where trust matters.
func (s *Service) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.synced {
		return time.Unix(0, 0).UTC().Add(s.now().Sub(s.started)).In(s.zone)
	}
	return s.wall.Add(s.now().Sub(s.anchor)).In(s.zone)
}

// Plausible reports whether the current belief is past the recency
// cutoff and therefore trustworthy enough for the auxiliary clock.
func (s *Service) Plausible() bool {
	return s.Now().Unix() > PlausibilityCutoff
}
