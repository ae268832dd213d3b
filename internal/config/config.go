// Package config handles loading of the compd daemon configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// SupportedConfigNames contains supported configuration file names
// (in order of preference).
var SupportedConfigNames = []string{
	"compd.yml",
	"compd.yaml",
	"compd.toml",
	"compd.json",
}

// Config is the daemon configuration. Zero values are replaced with
// defaults on load.
type Config struct {
	// Socket is the Unix domain socket the daemon listens on.
	Socket string `koanf:"socket"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// SpecDir optionally layers user spec blobs over the embedded set.
	SpecDir string `koanf:"spec_dir"`
	// CacheSize bounds the spec registry entry count.
	CacheSize int `koanf:"cache_size"`
	// MaxConns bounds concurrently served connections.
	MaxConns int `koanf:"max_conns"`
	// RequestTimeoutMs aborts a single completion request.
	RequestTimeoutMs int `koanf:"request_timeout_ms"`
	// MaxRequestBytes bounds one encoded request line.
	MaxRequestBytes int `koanf:"max_request_bytes"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Socket:           "/tmp/compd.sock",
		LogLevel:         "warn",
		CacheSize:        50,
		MaxConns:         100,
		RequestTimeoutMs: 100,
		MaxRequestBytes:  64 * 1024,
	}
}

// RequestTimeout returns the per-request timeout as a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

// DefaultDir returns the XDG config directory for compd.
func DefaultDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "compd")
}

// Find locates the first supported config file in dir, or "".
func Find(dir string) string {
	for _, name := range SupportedConfigNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Load reads the config file at path, applying defaults for unset
// fields. An empty path searches the default config directory; a
// missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = Find(DefaultDir())
		if path == "" {
			return cfg, nil
		}
	}

	parser, err := parserFor(path)
	if err != nil {
		return cfg, err
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return cfg, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.CacheSize <= 0 {
		cfg.CacheSize = Default().CacheSize
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = Default().MaxConns
	}
	if cfg.RequestTimeoutMs <= 0 {
		cfg.RequestTimeoutMs = Default().RequestTimeoutMs
	}
	if cfg.MaxRequestBytes <= 0 {
		cfg.MaxRequestBytes = Default().MaxRequestBytes
	}
	if cfg.Socket == "" {
		cfg.Socket = Default().Socket
	}

	return cfg, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return yaml.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	}
	return nil, fmt.Errorf("unsupported config format: %s", path)
}
