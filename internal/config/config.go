package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// EnvVar names the environment variable that overrides the config path.
	EnvVar            = "GEOSTAMP_CONFIG"
	defaultConfigPath = "~/.config/geostamp/config.json"
	defaultParallel   = 1
	defaultQuality    = 100
)

// Config holds user-editable settings for stamping.
type Config struct {
	Processing Processing `json:"processing"`
	Logging    Logging    `json:"logging"`
	Paths      Paths      `json:"paths"`
	Caption    Caption    `json:"caption"`
	Batch      Batch      `json:"batch"`
	Location   Location   `json:"location"`
}

// Processing captures execution preferences.
type Processing struct {
	ParallelJobs int `json:"parallel_jobs"`
	Quality      int `json:"quality"` // JPEG quality of written files, 1-100
}

// Logging controls logging verbosity and destinations.
type Logging struct {
	Level      string `json:"level"`       // debug, info, warn, error
	Format     string `json:"format"`      // text, json
	FileOutput bool   `json:"file_output"` // Enable file logging
	LogDir     string `json:"log_dir"`     // Directory for log files
}

// Paths configures default output location.
type Paths struct {
	DefaultOutput string `json:"default_output"`
}

// Caption configures how captions are drawn.
type Caption struct {
	FontPath string `json:"font_path"` // empty uses the embedded Go Regular face
	Corner   string `json:"corner"`
	FontSize int    `json:"font_size"` // 0 fits the caption to the image width
}

// Batch configures the gap between consecutive capture times.
type Batch struct {
	FromMinutes int `json:"from_minutes"`
	ToMinutes   int `json:"to_minutes"`
}

// Location holds optional presets used when the matching flags are absent.
type Location struct {
	Latitude     *float64 `json:"latitude,omitempty"`
	LatitudeRef  string   `json:"latitude_ref,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	LongitudeRef string   `json:"longitude_ref,omitempty"`
	Address      string   `json:"address,omitempty"`
	Label        string   `json:"label,omitempty"`
}

// Path returns the config file location, honoring GEOSTAMP_CONFIG.
func Path() (string, error) {
	configPath := os.Getenv(EnvVar)
	if configPath == "" {
		configPath = defaultConfigPath
	}
	return expandUser(configPath)
}

// Load reads configuration from disk, falling back to sensible defaults.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as indented JSON, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// Validate rejects settings that would fail every batch.
func (c *Config) Validate() error {
	if c.Processing.ParallelJobs < 1 {
		return fmt.Errorf("processing.parallel_jobs must be at least 1, got %d", c.Processing.ParallelJobs)
	}
	if c.Processing.Quality < 1 || c.Processing.Quality > 100 {
		return fmt.Errorf("processing.quality must be in 1-100, got %d", c.Processing.Quality)
	}
	if c.Caption.FontSize < 0 {
		return fmt.Errorf("caption.font_size must not be negative, got %d", c.Caption.FontSize)
	}
	if c.Batch.FromMinutes < 0 || c.Batch.FromMinutes > c.Batch.ToMinutes {
		return fmt.Errorf("batch window %d-%d minutes is invalid", c.Batch.FromMinutes, c.Batch.ToMinutes)
	}
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Processing: Processing{
			ParallelJobs: defaultParallel,
			Quality:      defaultQuality,
		},
		Logging: Logging{
			Level:      "info",
			Format:     "text",
			FileOutput: false,
			LogDir:     "./logs",
		},
		Paths: Paths{
			DefaultOutput: "./stamped",
		},
		Caption: Caption{
			Corner: "Bottom Right",
		},
		Batch: Batch{
			FromMinutes: 1,
			ToMinutes:   2,
		},
	}
}

func expandUser(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if path == "~" {
		return home, nil
	}

	return filepath.Join(home, path[2:]), nil
}
