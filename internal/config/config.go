// Package config loads cratemover settings from a TOML file and the
// environment.
//
// Sources are layered, later ones winning: built-in defaults, the config file,
// CRATEMOVER_* environment variables. Command-line flags are applied on top
// by the CLI.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/cratemover/pkg/errors"
	"github.com/matzehuels/cratemover/pkg/pipeline"
	"github.com/matzehuels/cratemover/pkg/supply"
)

const (
	appName  = "cratemover"
	fileName = "config.toml"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "CRATEMOVER_"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the resolved runtime configuration.
type Config struct {
	Policy     string `toml:"policy"`
	ErrorMode  string `toml:"error_mode"`
	HeaderMode string `toml:"header_mode"`

	Cache  Cache  `toml:"cache"`
	Redis  Redis  `toml:"redis"`
	Server Server `toml:"server"`
	Log    Log    `toml:"log"`
}

// Cache selects where answers are cached.
type Cache struct {
	Backend string   `toml:"backend"`
	TTL     Duration `toml:"ttl"` // zero keeps the per-entry defaults
}

// Redis holds connection settings for the redis backend.
type Redis struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"` // namespaces keys when deployments share a server
}

// Server holds HTTP API settings.
type Server struct {
	Addr string `toml:"addr"`
}

// Log holds logger settings.
type Log struct {
	Level string `toml:"level"`
}

// Duration is a time.Duration written as a string ("720h") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Policy:     string(pipeline.DefaultPolicy),
		ErrorMode:  string(pipeline.DefaultErrorMode),
		HeaderMode: string(pipeline.DefaultHeaderMode),
		Cache:      Cache{Backend: BackendFile},
		Redis:      Redis{Addr: "localhost:6379", Prefix: appName + ":"},
		Server:     Server{Addr: ":8080"},
		Log:        Log{Level: "info"},
	}
}

// Path returns the default config file location
// ($XDG_CONFIG_HOME/cratemover/config.toml, else ~/.config/cratemover/config.toml).
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, fileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, fileName), nil
}

// Load resolves the configuration from defaults, the file at path and the
// process environment, then validates it.
//
// An empty path means the default location, which may be absent. An explicit
// path must exist.
func Load(path string) (Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			if explicit || !os.IsNotExist(err) {
				return cfg, err
			}
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Decode reads TOML from r over cfg. Unknown keys are rejected.
func Decode(r io.Reader, cfg *Config) error {
	meta, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	return checkUndecoded(meta)
}

func decodeFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode %s", path)
	}
	return checkUndecoded(meta)
}

func checkUndecoded(meta toml.MetaData) error {
	if keys := meta.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(names, ", "))
	}
	return nil
}

// ApplyEnv overrides fields from CRATEMOVER_* variables found by lookup.
// Empty values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("POLICY", &c.Policy)
	str("ERROR_MODE", &c.ErrorMode)
	str("HEADER_MODE", &c.HeaderMode)
	str("CACHE_BACKEND", &c.Cache.Backend)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	str("REDIS_PREFIX", &c.Redis.Prefix)
	str("SERVER_ADDR", &c.Server.Addr)
	str("LOG_LEVEL", &c.Log.Level)

	var ttl, db string
	str("CACHE_TTL", &ttl)
	str("REDIS_DB", &db)
	if ttl != "" {
		if err := c.Cache.TTL.UnmarshalText([]byte(ttl)); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%sCACHE_TTL", EnvPrefix)
		}
	}
	if db != "" {
		n, err := strconv.Atoi(db)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%sREDIS_DB", EnvPrefix)
		}
		c.Redis.DB = n
	}
	return nil
}

// Validate checks every field and normalizes the policy name.
func (c *Config) Validate() error {
	p, err := supply.ParsePolicy(c.Policy)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "policy")
	}
	c.Policy = string(p)

	if err := pipeline.ValidateErrorMode(c.ErrorMode); err != nil {
		return err
	}
	if err := pipeline.ValidateHeaderMode(c.HeaderMode); err != nil {
		return err
	}

	switch c.Cache.Backend {
	case BackendFile, BackendNone:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "redis.addr is required for the redis cache backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "invalid cache.backend: %q (must be one of: file, redis, none)", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}
	if c.Redis.DB < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "redis.db must not be negative")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "log.level")
	}
	return nil
}

// Level returns the configured log level, Info if it does not parse.
func (c Config) Level() log.Level {
	l, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return l
}

// Encode writes c as TOML.
func (c Config) Encode(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}
