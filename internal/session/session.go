// Package session manages the broker connection and the single topic
// subscription.
//
// A Session wraps one paho.golang client at a time. Each Connect
// attempt dials a fresh TCP connection, presents a freshly generated
// client identifier, and subscribes immediately on success — the
// broker's CONNACK reason code is surfaced per attempt so the
// supervisor can paint it. Reconnect policy lives in the supervisor,
// not here.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eclipse/paho.golang/paho"
	"github.com/google/uuid"
)

// Handler is called for each message received on the subscribed
// topic. It runs on the client's delivery goroutine and must be safe
// for concurrent use.
type Handler func(topic string, payload []byte)

// Config holds the broker connection parameters.
type Config struct {
	// Address is the broker host.
	Address string
	// Port is the broker TCP port.
	Port int
	// Topic is the single subscribed topic.
	Topic string
	// ClientIDPrefix is prepended to the random client ID suffix.
	ClientIDPrefix string
	// KeepAlive is the MQTT keepalive in seconds.
	KeepAlive uint16
	// ConnectTimeout limits a single dial+connect exchange.
	ConnectTimeout time.Duration
}

// Session is a broker session. Safe for concurrent use.
type Session struct {
	cfg     Config
	handler Handler
	logger  *slog.Logger

	connected atomic.Bool

	mu     sync.Mutex
	client *paho.Client
	conn   net.Conn
}

// New creates a Session. handler and logger must not be nil.
func New(cfg Config, handler Handler, logger *slog.Logger) *Session {
	if cfg.KeepAlive == 0 {
		cfg.KeepAlive = 30
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	return &Session{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
	}
}

// NewClientID returns prefix plus a random hex suffix. Collision
// across reboots is made unlikely, not impossible — the broker will
// reject a duplicate and the supervisor simply retries with a fresh
// one.
func NewClientID(prefix string) string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return prefix + suffix
}

// Connect performs one connection attempt: dial, CONNECT, SUBSCRIBE.
// On a broker rejection the CONNACK reason code is returned alongside
// the error so the caller can display it; a transport failure returns
// code 0xFF. Connect does not retry.
func (s *Session) Connect(ctx context.Context) (byte, error) {
	s.teardown()

	dialCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()

	addr := net.JoinHostPort(s.cfg.Address, fmt.Sprintf("%d", s.cfg.Port))
	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return 0xFF, fmt.Errorf("dial broker %s: %w", addr, err)
	}

	clientID := NewClientID(s.cfg.ClientIDPrefix)
	client := paho.NewClient(paho.ClientConfig{
		Conn: conn,
		OnPublishReceived: []func(paho.PublishReceived) (bool, error){
			func(pr paho.PublishReceived) (bool, error) {
				s.handler(pr.Packet.Topic, pr.Packet.Payload)
				return true, nil
			},
		},
		OnClientError: func(err error) {
			s.connected.Store(false)
			s.logger.Warn("broker session lost", "error", err)
		},
		OnServerDisconnect: func(d *paho.Disconnect) {
			s.connected.Store(false)
			s.logger.Warn("broker disconnected us", "reason_code", d.ReasonCode)
		},
	})

	ca, err := client.Connect(dialCtx, &paho.Connect{
		ClientID:   clientID,
		KeepAlive:  s.cfg.KeepAlive,
		CleanStart: true,
	})
	if err != nil {
		conn.Close()
		code := byte(0xFF)
		if ca != nil {
			code = ca.ReasonCode
		}
		return code, fmt.Errorf("connect as %s: %w", clientID, err)
	}
	if ca.ReasonCode != 0 {
		conn.Close()
		return ca.ReasonCode, fmt.Errorf("broker rejected %s: reason code %d", clientID, ca.ReasonCode)
	}

	if _, err := client.Subscribe(dialCtx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{
			{Topic: s.cfg.Topic, QoS: 0},
		},
	}); err != nil {
		client.Disconnect(&paho.Disconnect{ReasonCode: 0})
		return 0xFF, fmt.Errorf("subscribe %s: %w", s.cfg.Topic, err)
	}

	s.mu.Lock()
	s.client = client
	s.conn = conn
	s.mu.Unlock()
	s.connected.Store(true)

	s.logger.Info("broker session established",
		"broker", addr,
		"client_id", clientID,
		"topic", s.cfg.Topic,
	)
	return 0, nil
}

// Connected reports whether the session is currently up. Polled live
// by the supervisor and the display; never cached by callers.
func (s *Session) Connected() bool {
	return s.connected.Load()
}

// Close tears down the current connection, if any.
func (s *Session) Close() {
	s.teardown()
}

func (s *Session) teardown() {
	s.mu.Lock()
	client, conn := s.client, s.conn
	s.client, s.conn = nil, nil
	s.mu.Unlock()

	s.connected.Store(false)
	if client != nil {
		client.Disconnect(&paho.Disconnect{ReasonCode: 0})
	}
	if conn != nil {
		conn.Close()
	}
}
