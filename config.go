package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const appName = "d365nc"

type config struct {
	// DevTools endpoint of the browser, e.g. one started with
	// --remote-debugging-port=9222
	DebuggerURL    string        `yaml:"debugger_url"`
	PrefsPath      string        `yaml:"prefs_path"`
	NoCacheDefault bool          `yaml:"nocache_default"`
	HighlightClass string        `yaml:"highlight_class"`
	TabTimeout     time.Duration `yaml:"tab_timeout"`
	Debug          bool          `yaml:"debug"`
}

// defaultConfig returns the configuration used when no file is present
func defaultConfig() config {
	return config{
		DebuggerURL:    "ws://127.0.0.1:9222/",
		PrefsPath:      filepath.Join(configDir(), "prefs.yaml"),
		NoCacheDefault: true,
		HighlightClass: "mylo-extension-highlight",
		TabTimeout:     10 * time.Second,
	}
}

// configDir returns the per-user directory holding config and preferences
func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}

	return filepath.Join(dir, appName)
}

// loadConfig reads the YAML config at path on top of the defaults and then
// applies environment overrides. A missing file is not an error
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return config{}, fmt.Errorf("failed to read config: %w", err)
	}

	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return config{}, err
	}

	return cfg, nil
}

// applyEnvOverrides lets D365NC_* variables win over the file
func (c *config) applyEnvOverrides() error {
	if v := os.Getenv("D365NC_DEBUGGER_URL"); v != "" {
		c.DebuggerURL = v
	}

	if v := os.Getenv("D365NC_PREFS_PATH"); v != "" {
		c.PrefsPath = v
	}

	if v := os.Getenv("D365NC_NOCACHE_DEFAULT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid D365NC_NOCACHE_DEFAULT %q: %w", v, err)
		}
		c.NoCacheDefault = b
	}

	return nil
}

// validate ensures the configuration is valid
func (c *config) validate() error {
	if c.PrefsPath == "" {
		return errors.New("prefs_path cannot be empty")
	}

	if c.HighlightClass == "" {
		return errors.New("highlight_class cannot be empty")
	}

	if c.TabTimeout <= 0 {
		return fmt.Errorf("tab_timeout must be positive, got %s", c.TabTimeout)
	}

	return nil
}
