// Package config loads runpad's YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/caffeineduck/runpad/executor"
	"github.com/caffeineduck/runpad/internal/logger"
	"github.com/caffeineduck/runpad/language"
	"github.com/caffeineduck/runpad/remote"
)

const (
	DefaultServerAddr = "127.0.0.1:8080"
	DefaultRunTimeout = 60 * time.Second
)

// Config holds runpad configuration.
type Config struct {
	Log    logger.Config `yaml:"log"`
	Remote Remote        `yaml:"remote"`
	// Languages overrides the remote language/version of built-in
	// remote-service languages, keyed by language ID.
	Languages    map[string]language.RemoteTarget `yaml:"languages"`
	Interpreters Interpreters                     `yaml:"interpreters"`
	CacheDir     string                           `yaml:"cacheDir"`
	// MemoryLimitPages caps interpreter memory in 64KB pages; 0 is no limit.
	MemoryLimitPages uint32        `yaml:"memoryLimitPages"`
	RunTimeout       time.Duration `yaml:"runTimeout"`
	Server           Server        `yaml:"server"`
}

type Remote struct {
	URL         string        `yaml:"url"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxBodySize int64         `yaml:"maxBodySize"`
}

type Interpreters struct {
	Python Interpreter `yaml:"python"`
}

// Interpreter locates a WASI interpreter module. URL is only used by
// `runpad interpreter fetch`.
type Interpreter struct {
	Module string `yaml:"module"`
	LibDir string `yaml:"libDir"`
	URL    string `yaml:"url"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	cfg := Config{}
	applyDefaults(&cfg)
	return cfg
}

// Load reads path and fills in defaults. An empty path yields Default().
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file failed: %w", err)
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "warn"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Remote.URL == "" {
		cfg.Remote.URL = remote.DefaultURL
	}
	if cfg.Remote.Timeout == 0 {
		cfg.Remote.Timeout = remote.DefaultRequestTimeout
	}
	if cfg.Remote.MaxBodySize == 0 {
		cfg.Remote.MaxBodySize = remote.DefaultMaxBodySize
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = executor.DefaultCacheDir()
	}
	if cfg.Interpreters.Python.Module == "" {
		cfg.Interpreters.Python.Module = filepath.Join(cfg.CacheDir, "python.wasm")
	}
	if cfg.RunTimeout == 0 {
		cfg.RunTimeout = DefaultRunTimeout
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultServerAddr
	}
}

// RemoteConfig converts the remote section for remote.New.
func (c Config) RemoteConfig() remote.Config {
	return remote.Config{
		URL:            c.Remote.URL,
		MaxBodySize:    c.Remote.MaxBodySize,
		RequestTimeout: c.Remote.Timeout,
	}
}
