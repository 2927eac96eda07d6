package config

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/c360/objkit/errors"
)

// Config is the complete process configuration.
type Config struct {
	Version   string          `json:"version" yaml:"version"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	Equality  EqualityConfig  `json:"equality" yaml:"equality"`
	Parallel  ParallelConfig  `json:"parallel" yaml:"parallel"`
	Observers ObserversConfig `json:"observers" yaml:"observers"`
	Metrics   MetricsConfig   `json:"metrics" yaml:"metrics"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // text, json
}

// EqualityConfig is the process-wide float comparison policy used by
// object equality.
type EqualityConfig struct {
	Epsilon  float64 `json:"epsilon" yaml:"epsilon"`
	Tolerant bool    `json:"tolerant" yaml:"tolerant"`
}

// ParallelConfig sizes the parallelism provider.
type ParallelConfig struct {
	Threads int `json:"threads" yaml:"threads"` // 0 means one per CPU
}

// ObserversConfig configures the bundled observers.
type ObserversConfig struct {
	BufferSize int             `json:"buffer_size" yaml:"buffer_size"` // recorder capacity
	LatestSize int             `json:"latest_size" yaml:"latest_size"` // latest-value cache entries
	RateLimit  float64         `json:"rate_limit" yaml:"rate_limit"`   // deliveries per second, 0 disables
	Burst      int             `json:"burst" yaml:"burst"`
	NATS       NATSConfig      `json:"nats" yaml:"nats"`
	WebSocket  WebSocketConfig `json:"websocket" yaml:"websocket"`
}

// WebSocketConfig configures streaming observed values to WebSocket
// clients. The endpoint is served by the metrics server.
type WebSocketConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

// NATSConfig configures publishing observed values to NATS.
type NATSConfig struct {
	URL        string `json:"url,omitempty" yaml:"url,omitempty"`
	Subject    string `json:"subject" yaml:"subject"`
	MaxRetries int    `json:"max_retries" yaml:"max_retries"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Port    int    `json:"port" yaml:"port"`
	Path    string `json:"path" yaml:"path"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Version:  "1.0.0",
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Equality: EqualityConfig{Epsilon: 0},
		Parallel: ParallelConfig{Threads: 0},
		Observers: ObserversConfig{
			BufferSize: 1024,
			LatestSize: 256,
			Burst:      1,
			NATS:       NATSConfig{Subject: "objkit.observed", MaxRetries: 3},
			WebSocket:  WebSocketConfig{Path: "/observe"},
		},
		Metrics: MetricsConfig{Enabled: false, Port: 9090, Path: "/metrics"},
	}
}

// Validate checks every section and reports the first problem as an
// Invalid-classified error.
func (c *Config) Validate() error {
	if c == nil {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "check config")
	}
	if c.Version != "" {
		if _, _, _, err := parseSemVer(c.Version); err != nil {
			return invalid("version", err.Error())
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return invalid("logging.level", fmt.Sprintf("unknown level %q", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return invalid("logging.format", fmt.Sprintf("unknown format %q", c.Logging.Format))
	}

	if c.Equality.Epsilon < 0 || math.IsInf(c.Equality.Epsilon, 0) {
		return invalid("equality.epsilon", "must be a finite non-negative number")
	}
	if c.Parallel.Threads < 0 {
		return invalid("parallel.threads", "must not be negative")
	}

	o := c.Observers
	if o.BufferSize < 0 || o.LatestSize < 0 {
		return invalid("observers", "sizes must not be negative")
	}
	if o.RateLimit < 0 {
		return invalid("observers.rate_limit", "must not be negative")
	}
	if o.RateLimit > 0 && o.Burst < 1 {
		return invalid("observers.burst", "must be at least 1 when rate_limit is set")
	}
	if o.NATS.URL != "" && !isValidSubject(o.NATS.Subject) {
		return invalid("observers.nats.subject", fmt.Sprintf("invalid subject %q", o.NATS.Subject))
	}
	if o.NATS.MaxRetries < 0 {
		return invalid("observers.nats.max_retries", "must not be negative")
	}

	if o.WebSocket.Enabled {
		if !c.Metrics.Enabled {
			return invalid("observers.websocket.enabled", "requires metrics.enabled")
		}
		if !strings.HasPrefix(o.WebSocket.Path, "/") {
			return invalid("observers.websocket.path", "must start with /")
		}
		if o.WebSocket.Path == c.Metrics.Path || o.WebSocket.Path == "/health" {
			return invalid("observers.websocket.path", fmt.Sprintf("%s is already served", o.WebSocket.Path))
		}
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
			return invalid("metrics.port", fmt.Sprintf("port %d out of range", c.Metrics.Port))
		}
		if !strings.HasPrefix(c.Metrics.Path, "/") {
			return invalid("metrics.path", "must start with /")
		}
	}
	return nil
}

func invalid(field, reason string) error {
	return errors.WrapInvalid(fmt.Errorf("%w: %s: %s", errors.ErrInvalidConfig, field, reason),
		"Config", "Validate", "check "+field)
}

// isValidSubject accepts dot-separated NATS subject tokens without
// wildcards or whitespace.
func isValidSubject(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if part == "" || strings.ContainsAny(part, "*> \t\r\n") {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}
	copied := *c
	return &copied
}

// String renders the configuration as YAML.
func (c *Config) String() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		data, _ = json.MarshalIndent(c, "", "  ")
	}
	return string(data)
}

// SafeConfig provides thread-safe access to configuration.
type SafeConfig struct {
	mu     sync.RWMutex
	config *Config
}

// NewSafeConfig wraps cfg. A nil cfg wraps Default().
func NewSafeConfig(cfg *Config) *SafeConfig {
	if cfg == nil {
		cfg = Default()
	}
	return &SafeConfig{config: cfg}
}

// Get returns a copy of the current configuration.
func (sc *SafeConfig) Get() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config.Clone()
}

// Update replaces the configuration after validating it.
func (sc *SafeConfig) Update(cfg *Config) error {
	if cfg == nil {
		return errors.WrapInvalid(errors.ErrMissingConfig, "SafeConfig", "Update", "replace config")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.config = cfg.Clone()
	return nil
}
