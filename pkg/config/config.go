// Package config loads vizgrid settings from a TOML file.
//
// Settings come from, in increasing precedence: built-in defaults, the
// config file ($XDG_CONFIG_HOME/vizgrid/config.toml or --config), and the
// environment variables VIZGRID_REDIS_ADDR, VIZGRID_MONGO_URI and
// VIZGRID_ADDR. A missing default config file is not an error.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/vizgrid/pkg/creator"
	"github.com/matzehuels/vizgrid/pkg/errors"
	"github.com/matzehuels/vizgrid/pkg/layout"
)

// Environment overrides.
const (
	EnvRedisAddr = "VIZGRID_REDIS_ADDR"
	EnvMongoURI  = "VIZGRID_MONGO_URI"
	EnvAddr      = "VIZGRID_ADDR"
)

// Backend names.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendNone   = "none"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// Config is the full vizgrid configuration.
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Bus    BusConfig    `toml:"bus"`
	Redis  RedisConfig  `toml:"redis"`
	Server ServerConfig `toml:"server"`
}

// LayoutConfig holds defaults for new layouts and matrix generation.
type LayoutConfig struct {
	Rows      int    `toml:"rows"`
	Columns   int    `toml:"columns"`
	Style     string `toml:"style"`
	Tokens    string `toml:"tokens"`
	RowHeight int    `toml:"row_height"`
}

// CacheConfig selects the artifact cache.
type CacheConfig struct {
	Backend string `toml:"backend"` // file, redis or none
	Dir     string `toml:"dir,omitempty"`
}

// StoreConfig selects where named layouts are saved.
type StoreConfig struct {
	Backend    string `toml:"backend"` // file or mongo
	Dir        string `toml:"dir,omitempty"`
	MongoURI   string `toml:"mongo_uri,omitempty"`
	Database   string `toml:"database,omitempty"`
	Collection string `toml:"collection,omitempty"`
}

// BusConfig selects the host ↔ surface message bus.
type BusConfig struct {
	Backend string `toml:"backend"` // memory or redis
}

// RedisConfig is shared by the Redis cache and bus.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password,omitempty"`
	DB       int    `toml:"db"`
}

// ServerConfig configures `vizgrid serve`.
type ServerConfig struct {
	Addr            string        `toml:"addr"`
	SessionTTL      time.Duration `toml:"session_ttl"`
	CleanupInterval time.Duration `toml:"cleanup_interval"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Layout: LayoutConfig{
			Rows:      creator.DefaultRows,
			Columns:   creator.DefaultColumns,
			Style:     layout.DefaultStyle,
			Tokens:    "uuid",
			RowHeight: 180,
		},
		Cache:  CacheConfig{Backend: BackendFile},
		Store:  StoreConfig{Backend: BackendFile, Database: "vizgrid", Collection: "layouts"},
		Bus:    BusConfig{Backend: BackendMemory},
		Redis:  RedisConfig{Addr: "localhost:6379"},
		Server: ServerConfig{Addr: ":8765", SessionTTL: 24 * time.Hour, CleanupInterval: 5 * time.Minute},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/vizgrid/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return filepath.Join(dir, "vizgrid", "config.toml"), nil
}

// Load reads the config at path over the defaults and applies environment
// overrides. An empty path reads DefaultPath if it exists.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			cfg.applyEnv()
			return cfg, cfg.Validate()
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse reads a config document over the defaults. Environment overrides
// are not applied.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) decode(data []byte) error {
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errors.New(errors.ErrCodeInvalidInput, "unknown config key %q", undecoded[0].String())
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv(EnvMongoURI); v != "" {
		c.Store.MongoURI = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
}

// Validate checks backend names and layout bounds.
func (c *Config) Validate() error {
	if err := oneOf("cache.backend", c.Cache.Backend, BackendFile, BackendRedis, BackendNone); err != nil {
		return err
	}
	if err := oneOf("store.backend", c.Store.Backend, BackendFile, BackendMongo); err != nil {
		return err
	}
	if err := oneOf("bus.backend", c.Bus.Backend, BackendMemory, BackendRedis); err != nil {
		return err
	}
	if err := oneOf("layout.tokens", c.Layout.Tokens, "uuid", "sequential"); err != nil {
		return err
	}
	if c.Store.Backend == BackendMongo && c.Store.MongoURI == "" {
		return errors.New(errors.ErrCodeInvalidInput, "store.mongo_uri (or %s) is required for the mongo store", EnvMongoURI)
	}
	for _, d := range []struct {
		name string
		v    int
	}{{"layout.rows", c.Layout.Rows}, {"layout.columns", c.Layout.Columns}} {
		if d.v < 1 || d.v > creator.MaxDimension {
			return errors.New(errors.ErrCodeInvalidInput, "%s must be between 1 and %d, got %d", d.name, creator.MaxDimension, d.v)
		}
	}
	if c.Layout.RowHeight <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "layout.row_height must be positive")
	}
	if c.Server.SessionTTL <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "server.session_ttl must be positive")
	}
	return nil
}

func oneOf(key, v string, allowed ...string) error {
	if slices.Contains(allowed, v) {
		return nil
	}
	return errors.New(errors.ErrCodeInvalidInput, "%s must be one of %v, got %q", key, allowed, v)
}

// Encode writes c as TOML.
func (c *Config) Encode(w io.Writer) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteFile writes c to path, creating parent directories. An existing
// file is left untouched unless overwrite is set.
func (c *Config) WriteFile(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New(errors.ErrCodeInvalidInput, "%s already exists", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return c.Encode(f)
}
