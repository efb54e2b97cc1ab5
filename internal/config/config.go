// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	Extractor struct {
		Command string   `json:"command"`
		Args    []string `json:"args"`
	} `json:"extractor"`

	Cache struct {
		Dir      string `json:"dir"`
		Disabled bool   `json:"disabled"`
	} `json:"cache"`

	LogLevel string `json:"log_level"` // debug, info, warn, error
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.Extractor.Command = "sigdiff-extract"
	cfg.LogLevel = "info"
	if dir, err := os.UserCacheDir(); err == nil {
		cfg.Cache.Dir = filepath.Join(dir, "sigdiff")
	} else {
		cfg.Cache.Disabled = true
	}
	return cfg
}

// Path returns the config file location: SIGDIFF_CONFIG if set,
// otherwise sigdiff/config.json under the user config dir.
func Path() string {
	if p := os.Getenv("SIGDIFF_CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "sigdiff", "config.json")
}

// Load reads path over the defaults. A missing file is not an error;
// the defaults come back.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
