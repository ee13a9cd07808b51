// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Chart    ChartConfig    `toml:"chart"`
	Profiles ProfilesConfig `toml:"profiles"`
}

// ChartConfig maps chart and export settings.
type ChartConfig struct {
	Width     *int    `toml:"width"`
	Height    *int    `toml:"height"`
	ExportDir *string `toml:"export-dir"`
	Title     *string `toml:"title"`
}

// ProfilesConfig maps profile settings.
type ProfilesConfig struct {
	Default *string `toml:"default"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
