// Package config loads the listen address, protocol version, token
// allow-list, logging and debug-surface settings (SPEC_FULL.md §4.8),
// grounded on the teacher's internal/config singleton-with-env-
// override pattern, narrowed to this system's configuration surface
// (spec.md §6 "Configuration").
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Config is the root configuration document.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	Debug   DebugConfig   `yaml:"debug"`
}

// ServerConfig is spec.md §6's "Configuration" entry: listen address,
// protocol version, and an optional accepted-token set.
type ServerConfig struct {
	ListenAddr      string   `yaml:"listen_addr"`
	ProtocolVersion uint64   `yaml:"protocol_version"`
	AllowedTokens   []uint64 `yaml:"allowed_tokens"`
}

// LoggingConfig controls the process-wide slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `yaml:"format"` // "text" | "json"
}

// DebugConfig controls the optional /healthz and /metrics HTTP
// surface; an empty ListenAddr disables it.
type DebugConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// AllowedTokenSet returns the configured tokens as a lookup set. An
// empty set means "accept all", per spec.md §6.
func (c *Config) AllowedTokenSet() map[uint64]struct{} {
	if len(c.Server.AllowedTokens) == 0 {
		return nil
	}
	set := make(map[uint64]struct{}, len(c.Server.AllowedTokens))
	for _, t := range c.Server.AllowedTokens {
		set[t] = struct{}{}
	}
	return set
}

var (
	instance *Config
	once     sync.Once
)

// Load returns the process-wide singleton configuration: it loads
// .env (tolerating a missing file, matching the teacher's style),
// reads CONFIG_PATH (default "config.yaml"), and applies
// STATEBRIDGE_* environment overrides on top.
func Load() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			slog.Warn("config: failed to load .env", "error", err)
		}

		cfg, err := LoadConfig(getEnv("CONFIG_PATH", "config.yaml"))
		if err != nil {
			slog.Warn("config: failed to load config file, using defaults", "error", err)
			cfg = &Config{}
		}
		cfg.applyEnvOverrides()
		cfg.applyDefaults()
		instance = cfg
	})
	return instance
}

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.Server.ListenAddr = getEnv("STATEBRIDGE_LISTEN_ADDR", c.Server.ListenAddr)
	if v := getEnvUint("STATEBRIDGE_PROTOCOL_VERSION", 0); v > 0 {
		c.Server.ProtocolVersion = v
	}
	if tokens := getEnv("STATEBRIDGE_ALLOWED_TOKENS", ""); tokens != "" {
		c.Server.AllowedTokens = parseUintCSV(tokens)
	}

	c.Logging.Level = getEnv("STATEBRIDGE_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("STATEBRIDGE_LOG_FORMAT", c.Logging.Format)

	c.Debug.ListenAddr = getEnv("STATEBRIDGE_DEBUG_LISTEN_ADDR", c.Debug.ListenAddr)
}

func (c *Config) applyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":7777"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvUint(key string, defaultVal uint64) uint64 {
	if val := os.Getenv(key); val != "" {
		if u, err := strconv.ParseUint(val, 10, 64); err == nil {
			return u
		}
	}
	return defaultVal
}

func parseUintCSV(s string) []uint64 {
	parts := strings.Split(s, ",")
	out := make([]uint64, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed == "" {
			continue
		}
		if u, err := strconv.ParseUint(trimmed, 10, 64); err == nil {
			out = append(out, u)
		}
	}
	return out
}
