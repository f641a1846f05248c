// Package config loads netdraw settings.
//
// Settings come from three layers, later ones winning:
//
//  1. built-in defaults ([Default])
//  2. a TOML file: the --config flag, else $NETDRAW_CONFIG, else
//     ~/.config/netdraw/config.toml when it exists
//  3. NETDRAW_* environment variables, after loading a .env file from the
//     working directory
//
// Example config.toml:
//
//	[server]
//	addr = ":8080"
//
//	[store]
//	backend = "sqlite"
//	path = "/var/lib/netdraw/netdraw.db"
//
//	[log]
//	level = "debug"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/matzehuels/netdraw/pkg/store"
)

// Environment variables.
const (
	EnvConfig       = "NETDRAW_CONFIG"
	EnvAddr         = "NETDRAW_ADDR"
	EnvStore        = "NETDRAW_STORE"
	EnvStorePath    = "NETDRAW_STORE_PATH"
	EnvRedisAddr    = "NETDRAW_REDIS_ADDR"
	EnvMongoURI     = "NETDRAW_MONGO_URI"
	EnvLogLevel     = "NETDRAW_LOG_LEVEL"
	EnvCache        = "NETDRAW_CACHE"
	EnvHistoryLimit = "NETDRAW_HISTORY_LIMIT"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config holds every setting.
type Config struct {
	Server ServerConfig `toml:"server"`
	Store  StoreConfig  `toml:"store"`
	Cache  CacheConfig  `toml:"cache"`
	Editor EditorConfig `toml:"editor"`
	Log    LogConfig    `toml:"log"`

	// path is the file the config was read from, if any.
	path string
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type StoreConfig struct {
	Backend       string `toml:"backend"`
	Path          string `toml:"path"`
	RedisAddr     string `toml:"redis_addr"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

type CacheConfig struct {
	Backend   string `toml:"backend"`
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
}

type EditorConfig struct {
	HistoryLimit int `toml:"history_limit"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Store:  StoreConfig{Backend: store.BackendFile, MongoDatabase: store.DefaultMongoDatabase},
		Cache:  CacheConfig{Backend: CacheFile},
		Editor: EditorConfig{HistoryLimit: 40},
		Log:    LogConfig{Level: "info"},
	}
}

// Load builds the configuration. An explicit path (or $NETDRAW_CONFIG) must
// exist; the default path is optional.
func Load(path string) (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	explicit := true
	if path == "" {
		path = getenv(EnvConfig)
	}
	if path == "" {
		explicit = false
		if p, err := DefaultPath(); err == nil {
			path = p
		}
	}

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			if !explicit && os.IsNotExist(err) {
				path = ""
			} else {
				return nil, err
			}
		}
	}
	cfg.path = path

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return fmt.Errorf("read config: %w", err)
	}
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("parse %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Server.Addr, EnvAddr)
	set(&c.Store.Backend, EnvStore)
	set(&c.Store.Path, EnvStorePath)
	set(&c.Store.RedisAddr, EnvRedisAddr)
	set(&c.Store.MongoURI, EnvMongoURI)
	set(&c.Cache.Backend, EnvCache)
	set(&c.Log.Level, EnvLogLevel)
	if c.Cache.RedisAddr == "" {
		c.Cache.RedisAddr = c.Store.RedisAddr
	}
	if v := getenv(EnvHistoryLimit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvHistoryLimit, err)
		}
		c.Editor.HistoryLimit = n
	}
	return nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	c.Store.Backend = strings.ToLower(c.Store.Backend)
	valid := false
	for _, b := range store.Backends {
		if c.Store.Backend == b {
			valid = true
		}
	}
	if !valid {
		return fmt.Errorf("invalid store backend %q (must be one of: %s)", c.Store.Backend, strings.Join(store.Backends, ", "))
	}

	c.Cache.Backend = strings.ToLower(c.Cache.Backend)
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheNone:
	default:
		return fmt.Errorf("invalid cache backend %q (must be one of: file, redis, none)", c.Cache.Backend)
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	if c.Editor.HistoryLimit < 1 {
		return fmt.Errorf("editor.history_limit must be at least 1, got %d", c.Editor.HistoryLimit)
	}
	return nil
}

// Path returns the file the configuration was read from, or "".
func (c *Config) Path() string {
	return c.path
}

// LogLevel returns the configured level, info if unparseable.
func (c *Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// StoreOptions converts the store section for store.Open.
func (c *Config) StoreOptions() store.Config {
	return store.Config{
		Backend:       c.Store.Backend,
		Path:          c.Store.Path,
		RedisAddr:     c.Store.RedisAddr,
		MongoURI:      c.Store.MongoURI,
		MongoDatabase: c.Store.MongoDatabase,
	}
}

// DefaultPath returns ~/.config/netdraw/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "netdraw", "config.toml"), nil
}
