package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/cratemover/pkg/errors"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultsValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "sequential", cfg.Policy)
	assert.Equal(t, BackendFile, cfg.Cache.Backend)
	assert.Equal(t, "cratemover:", cfg.Redis.Prefix)
	assert.Equal(t, log.InfoLevel, cfg.Level())
}

func TestDecode(t *testing.T) {
	src := `
policy = "9001"
error_mode = "lenient"

[cache]
backend = "redis"
ttl = "2h"

[redis]
addr = "cache:6379"
db = 2
prefix = "cratemover:staging:"

[log]
level = "debug"
`
	cfg := Defaults()
	require.NoError(t, Decode(strings.NewReader(src), &cfg))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "batch", cfg.Policy)
	assert.Equal(t, "lenient", cfg.ErrorMode)
	assert.Equal(t, "token", cfg.HeaderMode, "unset keys keep defaults")
	assert.Equal(t, BackendRedis, cfg.Cache.Backend)
	assert.Equal(t, 2*time.Hour, cfg.Cache.TTL.Duration)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "cratemover:staging:", cfg.Redis.Prefix)
	assert.Equal(t, log.DebugLevel, cfg.Level())
}

func TestDecodeUnknownKey(t *testing.T) {
	cfg := Defaults()
	err := Decode(strings.NewReader("polcy = \"batch\"\n"), &cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
	assert.Contains(t, err.Error(), "polcy")
}

func TestDecodeBadDuration(t *testing.T) {
	cfg := Defaults()
	err := Decode(strings.NewReader("[cache]\nttl = \"forever\"\n"), &cfg)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}

func TestApplyEnv(t *testing.T) {
	cfg := Defaults()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"CRATEMOVER_POLICY":        "batch",
		"CRATEMOVER_HEADER_MODE":   "digit",
		"CRATEMOVER_CACHE_BACKEND": "none",
		"CRATEMOVER_CACHE_TTL":     "15m",
		"CRATEMOVER_REDIS_DB":      "3",
		"CRATEMOVER_REDIS_PREFIX":  "ci:",
		"CRATEMOVER_SERVER_ADDR":   " :9090 ",
		"CRATEMOVER_LOG_LEVEL":     "",
	}))
	require.NoError(t, err)
	assert.Equal(t, "batch", cfg.Policy)
	assert.Equal(t, "digit", cfg.HeaderMode)
	assert.Equal(t, BackendNone, cfg.Cache.Backend)
	assert.Equal(t, 15*time.Minute, cfg.Cache.TTL.Duration)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, "ci:", cfg.Redis.Prefix)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level, "empty values are ignored")
}

func TestApplyEnvErrors(t *testing.T) {
	for _, env := range []map[string]string{
		{"CRATEMOVER_CACHE_TTL": "soon"},
		{"CRATEMOVER_REDIS_DB": "one"},
	} {
		cfg := Defaults()
		err := cfg.ApplyEnv(envMap(env))
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig), "env %v: %v", env, err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"policy", func(c *Config) { c.Policy = "forklift" }},
		{"error mode", func(c *Config) { c.ErrorMode = "ignore" }},
		{"header mode", func(c *Config) { c.HeaderMode = "roman" }},
		{"backend", func(c *Config) { c.Cache.Backend = "s3" }},
		{"redis addr", func(c *Config) { c.Cache.Backend = BackendRedis; c.Redis.Addr = "" }},
		{"ttl", func(c *Config) { c.Cache.TTL.Duration = -time.Second }},
		{"redis db", func(c *Config) { c.Redis.DB = -1 }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig), "got %v", err)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("CRATEMOVER_POLICY", "")
	t.Setenv("CRATEMOVER_ERROR_MODE", "lenient")

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("policy = \"batch\"\nerror_mode = \"strict\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "batch", cfg.Policy)
	assert.Equal(t, "lenient", cfg.ErrorMode, "environment wins over the file")
}

func TestLoadMissingDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults().Policy, cfg.Policy)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	p, err := Path()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "cratemover", "config.toml"), p)
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := Defaults()
	cfg.Cache.TTL.Duration = 90 * time.Minute

	var buf bytes.Buffer
	require.NoError(t, cfg.Encode(&buf))
	assert.Contains(t, buf.String(), `ttl = "1h30m0s"`)

	decoded := Defaults()
	require.NoError(t, Decode(&buf, &decoded))
	assert.Equal(t, cfg, decoded)
}
