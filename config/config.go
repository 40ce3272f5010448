package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("config: invalid value")

// Config holds the read-only generation parameters shared by every cell.
type Config struct {
	/// The xz-plane size of one raster pixel. [Limit: > 0] [Units: wu]
	PixelSize float32 `yaml:"pixel_size"`
	/// World units per altitude step. [Limit: > 0] [Units: wu]
	AltitudeScale float32 `yaml:"altitude_scale"`
	/// Width/height of a generation cell, overlap excluded. [Limit: >= 1] [Units: px]
	CellPixels int `yaml:"cell_pixels"`
	/// How far the recorded cell bounds are grown for the stitcher. [Limit: >= 0] [Units: wu]
	Enlargement float32 `yaml:"enlargement"`
	/// World position of the south-west corner of cell (0,0).
	Origin [3]float32 `yaml:"origin"`

	Simplify Simplify `yaml:"simplify"`
	Link     Link     `yaml:"link"`

	/// Number of cells generated concurrently. [Limit: >= 1]
	Workers int `yaml:"workers"`
	Log     Log `yaml:"log"`
}

type Simplify struct {
	/// Maximum lateral deviation of a simplified edge. [Limit: >= 0] [Units: px]
	Horizontal float64 `yaml:"horizontal"`
	/// Maximum altitude deviation, negative to ignore altitude. [Units: altitude steps]
	Vertical float64 `yaml:"vertical"`
}

type Link struct {
	/// Horizontal matching distance for floor links. [Limit: >= 0] [Units: wu]
	Tolerance float32 `yaml:"tolerance"`
	/// Largest altitude difference bridged by a floor link. [Limit: >= 0] [Units: wu]
	MaxStep float32 `yaml:"max_step"`
}

type Log struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

func Default() *Config {
	return &Config{
		PixelSize:     0.25,
		AltitudeScale: 0.05,
		CellPixels:    64,
		Enlargement:   0.25,
		Simplify: Simplify{
			Horizontal: 0.5,
			Vertical:   -1,
		},
		Link: Link{
			Tolerance: 0.01,
			MaxStep:   0.5,
		},
		Workers: 4,
		Log: Log{
			Level:      "info",
			MaxSizeMB:  64,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// Load reads a YAML file on top of Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	switch {
	case cfg.PixelSize <= 0:
		return fmt.Errorf("%w: pixel_size %v", ErrInvalid, cfg.PixelSize)
	case cfg.AltitudeScale <= 0:
		return fmt.Errorf("%w: altitude_scale %v", ErrInvalid, cfg.AltitudeScale)
	case cfg.CellPixels < 1:
		return fmt.Errorf("%w: cell_pixels %d", ErrInvalid, cfg.CellPixels)
	case cfg.Enlargement < 0:
		return fmt.Errorf("%w: enlargement %v", ErrInvalid, cfg.Enlargement)
	case cfg.Simplify.Horizontal < 0:
		return fmt.Errorf("%w: simplify.horizontal %v", ErrInvalid, cfg.Simplify.Horizontal)
	case cfg.Link.Tolerance < 0 || cfg.Link.MaxStep < 0:
		return fmt.Errorf("%w: link %+v", ErrInvalid, cfg.Link)
	case cfg.Workers < 1:
		return fmt.Errorf("%w: workers %d", ErrInvalid, cfg.Workers)
	}
	return nil
}
