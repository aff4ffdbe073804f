package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  listen_addr: "0.0.0.0:9000"
  protocol_version: 7
  allowed_tokens: [171, 200]
logging:
  level: debug
  format: json
debug:
  listen_addr: "127.0.0.1:9001"
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.ListenAddr)
	assert.EqualValues(t, 7, cfg.Server.ProtocolVersion)
	assert.Equal(t, []uint64{171, 200}, cfg.Server.AllowedTokens)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "127.0.0.1:9001", cfg.Debug.ListenAddr)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestAllowedTokenSetEmptyMeansAcceptAll(t *testing.T) {
	cfg := &Config{}
	assert.Nil(t, cfg.AllowedTokenSet())
}

func TestAllowedTokenSetMembership(t *testing.T) {
	cfg := &Config{Server: ServerConfig{AllowedTokens: []uint64{0xAB, 0xCD}}}
	set := cfg.AllowedTokenSet()
	_, ok := set[0xAB]
	assert.True(t, ok)
	_, ok = set[0x99]
	assert.False(t, ok)
}

func TestApplyDefaultsFillsZeroValues(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()
	assert.Equal(t, ":7777", cfg.Server.ListenAddr)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("STATEBRIDGE_LISTEN_ADDR", "127.0.0.1:6000")
	t.Setenv("STATEBRIDGE_PROTOCOL_VERSION", "3")
	t.Setenv("STATEBRIDGE_ALLOWED_TOKENS", "1, 2,3")
	t.Setenv("STATEBRIDGE_LOG_LEVEL", "warn")

	cfg := &Config{}
	cfg.applyEnvOverrides()

	assert.Equal(t, "127.0.0.1:6000", cfg.Server.ListenAddr)
	assert.EqualValues(t, 3, cfg.Server.ProtocolVersion)
	assert.Equal(t, []uint64{1, 2, 3}, cfg.Server.AllowedTokens)
	assert.Equal(t, "warn", cfg.Logging.Level)
}
