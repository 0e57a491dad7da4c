// Package config manages application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"ytsubs/feed"
)

// Config holds all options for the feed acquisition subsystem.
type Config struct {
	// Backend selects which client services this session: "local" or
	// "mirror". Chosen once per session, not per call.
	Backend string `yaml:"backend"`

	// RequestTimeout bounds each network request.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// RSSThreshold is the batch size above which import and refresh switch
	// to the cheap RSS path per channel.
	RSSThreshold int `yaml:"rss_threshold"`

	// Tabs lists the channel tabs to fetch: videos, shorts, streams.
	Tabs []string `yaml:"tabs"`

	// Chapters enables parsing description chapters during format fetches.
	Chapters bool `yaml:"chapters"`

	// InstancesFile is where the mirror instance list is persisted, one
	// domain per line.
	InstancesFile string `yaml:"instances_file"`

	// CacheDir is where chapter metadata files are written.
	CacheDir string `yaml:"cache_dir"`
}

// DefaultConfig returns configuration with safe defaults.
func DefaultConfig() *Config {
	return &Config{
		Backend:        "local",
		RequestTimeout: 8 * time.Second,
		RSSThreshold:   10,
		Tabs:           []string{"videos", "shorts", "streams"},
		Chapters:       true,
		InstancesFile:  filepath.Join(configDir(), "instances"),
		CacheDir:       os.TempDir(),
	}
}

// Load loads configuration from the config file and environment variables,
// on top of the defaults. Priority: env vars > config file > defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.loadFromFile(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile reads config.yaml from the working directory or the user
// config directory. The file is optional.
func (c *Config) loadFromFile() error {
	paths := []string{
		"ytsubs.yaml",
		filepath.Join(configDir(), "config.yaml"),
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}
	return os.ErrNotExist
}

// loadFromEnv overrides settings from YTSUBS_* environment variables.
func (c *Config) loadFromEnv() {
	if v := os.Getenv("YTSUBS_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("YTSUBS_REQUEST_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.RequestTimeout = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("YTSUBS_RSS_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RSSThreshold = n
		}
	}
	if v := os.Getenv("YTSUBS_TABS"); v != "" {
		c.Tabs = strings.Split(v, ",")
	}
	if v := os.Getenv("YTSUBS_INSTANCES_FILE"); v != "" {
		c.InstancesFile = v
	}
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Backend) {
	case "local", "mirror":
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("config: request_timeout must be positive")
	}
	if c.RSSThreshold < 0 {
		return fmt.Errorf("config: rss_threshold must not be negative")
	}
	for _, tab := range c.Tabs {
		switch strings.ToLower(strings.TrimSpace(tab)) {
		case "videos", "shorts", "streams":
		default:
			return fmt.Errorf("config: unknown tab %q", tab)
		}
	}
	return nil
}

// EnabledTabs converts the configured tab names into the feed selection.
func (c *Config) EnabledTabs() feed.EnabledTabs {
	var tabs feed.EnabledTabs
	for _, tab := range c.Tabs {
		switch strings.ToLower(strings.TrimSpace(tab)) {
		case "videos":
			tabs.Videos = true
		case "shorts":
			tabs.Shorts = true
		case "streams":
			tabs.Streams = true
		}
	}
	return tabs
}

// SelectedBackend returns the configured backend enum.
func (c *Config) SelectedBackend() feed.Backend {
	if strings.ToLower(c.Backend) == "mirror" {
		return feed.BackendMirror
	}
	return feed.BackendLocal
}

func configDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "ytsubs")
	}
	return "."
}
