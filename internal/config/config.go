// Package config handles stickmon configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/stickmon/config.yaml,
// /etc/stickmon/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "stickmon", "config.yaml"))
	}

	paths = append(paths, "/etc/stickmon/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must
// exist. Otherwise, searches DefaultSearchPaths and returns the first
// that exists.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all stickmon configuration. Every field is an
// immutable input to the core at startup.
type Config struct {
	Broker      BrokerConfig      `yaml:"broker"`
	Link        LinkConfig        `yaml:"link"`
	Time        TimeConfig        `yaml:"time"`
	Display     DisplayConfig     `yaml:"display"`
	ClockModule ClockModuleConfig `yaml:"clock_module"`
	Loop        LoopConfig        `yaml:"loop"`
	LogLevel    string            `yaml:"log_level"`
}

// BrokerConfig defines the MQTT broker connection.
type BrokerConfig struct {
	Address           string `yaml:"address"`
	Port              int    `yaml:"port"`
	Topic             string `yaml:"topic"`
	ClientIDPrefix    string `yaml:"client_id_prefix"`
	KeepAliveSec      int    `yaml:"keepalive_sec"`
	ConnectTimeoutSec int    `yaml:"connect_timeout_sec"`
	ReconnectDelaySec int    `yaml:"reconnect_delay_sec"`
}

// LinkConfig defines the network link probe used by the startup gate.
type LinkConfig struct {
	// ProbeAddress is the host:port dialed to check reachability.
	// Empty means probe the broker address.
	ProbeAddress   string `yaml:"probe_address"`
	PollIntervalMS int    `yaml:"poll_interval_ms"`
	TimeoutSec     int    `yaml:"timeout_sec"`
}

// TimeConfig defines time synchronization.
type TimeConfig struct {
	Server          string `yaml:"server"`
	OffsetSec       int    `yaml:"offset_sec"`
	SyncIntervalSec int    `yaml:"sync_interval_sec"`
	MaxRetries      int    `yaml:"max_retries"`
	RetryDelaySec   int    `yaml:"retry_delay_sec"`
}

// DisplayConfig defines the primary display refresh behavior.
type DisplayConfig struct {
	RefreshIntervalMS int `yaml:"refresh_interval_ms"`
	SuccessDwellMS    int `yaml:"success_dwell_ms"`
	Columns           int `yaml:"columns"`
}

// ClockModuleConfig defines the auxiliary seven-segment module link.
// An empty Port disables the module.
type ClockModuleConfig struct {
	Port       string `yaml:"port"`
	BaudRate   int    `yaml:"baud_rate"`
	Brightness int    `yaml:"brightness"`
}

// LoopConfig defines the main control loop cadence.
type LoopConfig struct {
	TickMS int `yaml:"tick_ms"`
}

// Load reads configuration from a YAML file, expanding environment
// variables, and fills unset fields with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return cfg, nil
}

// Default returns the default configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Broker.Port == 0 {
		c.Broker.Port = 1883
	}
	if c.Broker.Topic == "" {
		c.Broker.Topic = "sensor_data"
	}
	if c.Broker.ClientIDPrefix == "" {
		c.Broker.ClientIDPrefix = "stickmon-"
	}
	if c.Broker.KeepAliveSec == 0 {
		c.Broker.KeepAliveSec = 30
	}
	if c.Broker.ConnectTimeoutSec == 0 {
		c.Broker.ConnectTimeoutSec = 10
	}
	if c.Broker.ReconnectDelaySec == 0 {
		c.Broker.ReconnectDelaySec = 5
	}
	if c.Link.PollIntervalMS == 0 {
		c.Link.PollIntervalMS = 500
	}
	if c.Link.TimeoutSec == 0 {
		c.Link.TimeoutSec = 3
	}
	if c.Time.Server == "" {
		c.Time.Server = "pool.ntp.org"
	}
	if c.Time.SyncIntervalSec == 0 {
		c.Time.SyncIntervalSec = 60
	}
	if c.Time.MaxRetries == 0 {
		c.Time.MaxRetries = 10
	}
	if c.Time.RetryDelaySec == 0 {
		c.Time.RetryDelaySec = 1
	}
	if c.Display.RefreshIntervalMS == 0 {
		c.Display.RefreshIntervalMS = 3000
	}
	if c.Display.SuccessDwellMS == 0 {
		c.Display.SuccessDwellMS = 2000
	}
	if c.Display.Columns == 0 {
		c.Display.Columns = 40
	}
	if c.ClockModule.BaudRate == 0 {
		c.ClockModule.BaudRate = 9600
	}
	if c.ClockModule.Brightness == 0 {
		c.ClockModule.Brightness = 80
	}
	if c.Loop.TickMS == 0 {
		c.Loop.TickMS = 100
	}
}

// LinkProbeAddress returns the configured probe target, defaulting
// to the broker address.
func (c *Config) LinkProbeAddress() string {
	if c.Link.ProbeAddress != "" {
		return c.Link.ProbeAddress
	}
	return fmt.Sprintf("%s:%d", c.Broker.Address, c.Broker.Port)
}

// TickDelay returns the loop cadence as a duration.
func (c *Config) TickDelay() time.Duration {
	return time.Duration(c.Loop.TickMS) * time.Millisecond
}
