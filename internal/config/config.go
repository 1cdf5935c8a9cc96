package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/sadopc/timeclock/internal/store"
)

// Config represents the application configuration
type Config struct {
	Database     string             `toml:"database"`
	LogFile      string             `toml:"log_file"`
	Locale       string             `toml:"locale"`
	Connectivity ConnectivityConfig `toml:"connectivity"`
	Cache        CacheConfig        `toml:"cache"`
}

// ConnectivityConfig controls the reachability probe
type ConnectivityConfig struct {
	ProbeURL string   `toml:"probe_url"`
	Interval Duration `toml:"interval"`
	Timeout  Duration `toml:"timeout"`
}

// CacheConfig controls the offline asset cache server
type CacheConfig struct {
	Version  string   `toml:"version"`
	Addr     string   `toml:"addr"`
	Upstream string   `toml:"upstream"`
	Database string   `toml:"database"`
	Manifest []string `toml:"manifest"`
}

// Duration decodes TOML strings such as "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Dir returns ~/.config/timeclock
func Dir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "timeclock"), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	c := &Config{}
	c.fillDefaults()
	return c
}

// Load reads the config at path. A missing file yields defaults; an empty
// path means DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	var c Config
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	c.fillDefaults()
	return &c, nil
}

// Save writes the config as TOML, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

func (c *Config) fillDefaults() {
	dir, err := Dir()
	if err != nil {
		dir = "."
	}
	if c.Database == "" {
		if p, err := store.DefaultDBPath(); err == nil {
			c.Database = p
		} else {
			c.Database = filepath.Join(dir, "timeclock.db")
		}
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(dir, "timeclock.log")
	}
	if c.Locale == "" {
		c.Locale = "en-US"
	}
	if c.Connectivity.ProbeURL == "" {
		c.Connectivity.ProbeURL = "https://clients3.google.com/generate_204"
	}
	if c.Connectivity.Interval.Duration <= 0 {
		c.Connectivity.Interval.Duration = 15 * time.Second
	}
	if c.Connectivity.Timeout.Duration <= 0 {
		c.Connectivity.Timeout.Duration = 3 * time.Second
	}
	if c.Cache.Version == "" {
		c.Cache.Version = "v2"
	}
	if c.Cache.Addr == "" {
		c.Cache.Addr = "127.0.0.1:8080"
	}
	if c.Cache.Upstream == "" {
		c.Cache.Upstream = "http://127.0.0.1:3000"
	}
	if c.Cache.Database == "" {
		c.Cache.Database = filepath.Join(dir, "assets.db")
	}
}
