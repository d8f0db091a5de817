// Package config loads dialoguegraph settings from a TOML file and the
// environment.
//
// The file lives at $XDG_CONFIG_HOME/dialoguegraph/config.toml (falling back
// to ~/.config). A missing file is not an error; defaults apply. Environment
// variables override file values:
//
//	DIALOGUEGRAPH_STORAGE     storage.backend
//	DIALOGUEGRAPH_DIR         storage.dir
//	DIALOGUEGRAPH_REDIS_ADDR  storage.redis_addr
//	DIALOGUEGRAPH_MONGO_URI   storage.mongo_uri
//	DIALOGUEGRAPH_ADDR        server.addr
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// AppName is used for directories and the environment prefix.
const AppName = "dialoguegraph"

// Storage backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
)

// Defaults.
const (
	DefaultRedisAddr     = "localhost:6379"
	DefaultRedisPrefix   = "dialoguegraph:"
	DefaultMongoURI      = "mongodb://localhost:27017"
	DefaultMongoDatabase = "dialoguegraph"
	DefaultServerAddr    = ":8080"
)

// Config is the full configuration.
type Config struct {
	Storage Storage `toml:"storage"`
	Server  Server  `toml:"server"`
}

// Storage selects and configures the asset repository backend.
type Storage struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPrefix   string `toml:"redis_prefix"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
	SQLitePath    string `toml:"sqlite_path"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	dir, err := DataDir()
	if err != nil {
		dir = filepath.Join(".", AppName)
	}
	return Config{
		Storage: Storage{
			Backend:       BackendFile,
			Dir:           filepath.Join(dir, "graphs"),
			RedisAddr:     DefaultRedisAddr,
			RedisPrefix:   DefaultRedisPrefix,
			MongoURI:      DefaultMongoURI,
			MongoDatabase: DefaultMongoDatabase,
			SQLitePath:    filepath.Join(dir, "graphs.db"),
		},
		Server: Server{Addr: DefaultServerAddr},
	}
}

// Load reads the config file at path on top of the defaults and applies
// environment overrides. An empty path means DefaultPath; a missing default
// file is ignored, a missing explicit file is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !explicit && errors.Is(err, fs.ErrNotExist) {
				cfg.applyEnv()
				return cfg, nil
			}
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		env string
		dst *string
	}{
		{"DIALOGUEGRAPH_STORAGE", &c.Storage.Backend},
		{"DIALOGUEGRAPH_DIR", &c.Storage.Dir},
		{"DIALOGUEGRAPH_REDIS_ADDR", &c.Storage.RedisAddr},
		{"DIALOGUEGRAPH_MONGO_URI", &c.Storage.MongoURI},
		{"DIALOGUEGRAPH_ADDR", &c.Server.Addr},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}
}

// =============================================================================
// Paths
// =============================================================================

// DefaultPath returns the config file location using the XDG standard
// (~/.config/dialoguegraph/config.toml).
func DefaultPath() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.toml"), nil
}

// DataDir returns the data directory using the XDG standard
// (~/.local/share/dialoguegraph/).
func DataDir() (string, error) {
	if home := os.Getenv("XDG_DATA_HOME"); home != "" {
		return filepath.Join(home, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", AppName), nil
}
