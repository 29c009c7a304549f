// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load(ctx) layers a YAML file and the environment on top of New.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// SmoothingAlpha is the weight of the newly observed velocity in the blend.
	SmoothingAlpha float64 `koanf:"smoothing_alpha"`

	// DTFloor is the lower bound applied to every elapsed-time value.
	DTFloor float64 `koanf:"dt_floor"`

	// DefaultDT is used when neither an explicit dt nor both frame ids exist.
	DefaultDT float64 `koanf:"default_dt"`

	// MaxEntities bounds the state store; 0 keeps every entity.
	MaxEntities int `koanf:"max_entities"`

	// Partitions sets the number of key partitions used per batch.
	Partitions int `koanf:"partitions"`

	// PartitionBuffer bounds each partition queue.
	PartitionBuffer int `koanf:"partition_buffer"`

	// MaxBatchRows caps the rows accepted by POST /predict.
	MaxBatchRows int `koanf:"max_batch_rows"`

	// RawDir holds the raw tracking_week*.csv, plays.csv and players.csv files.
	RawDir string `koanf:"raw_dir"`

	// OutDir receives processed parquet output.
	OutDir string `koanf:"out_dir"`

	// FieldLength and FieldWidth are the playing field extents in yards.
	FieldLength float64 `koanf:"field_length"`
	FieldWidth  float64 `koanf:"field_width"`
}

// New creates a Config populated with defaults. Context is accepted first to
// follow the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		SmoothingAlpha:  0.7,
		DTFloor:         1.0,
		DefaultDT:       1.0,
		MaxEntities:     0,
		Partitions:      1,
		PartitionBuffer: 1024,
		MaxBatchRows:    100_000,
		RawDir:          "data/raw",
		OutDir:          "data/processed",
		FieldLength:     120.0,
		FieldWidth:      53.3,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.SmoothingAlpha <= 0 || c.SmoothingAlpha > 1:
		return fmt.Errorf("%w: smoothing_alpha must be in (0,1], got %v", ErrInvalidConfig, c.SmoothingAlpha)
	case c.DTFloor <= 0:
		return fmt.Errorf("%w: dt_floor must be positive, got %v", ErrInvalidConfig, c.DTFloor)
	case c.DefaultDT <= 0:
		return fmt.Errorf("%w: default_dt must be positive, got %v", ErrInvalidConfig, c.DefaultDT)
	case c.MaxEntities < 0:
		return fmt.Errorf("%w: max_entities must not be negative", ErrInvalidConfig)
	case c.Partitions < 1:
		return fmt.Errorf("%w: partitions must be at least 1", ErrInvalidConfig)
	case c.PartitionBuffer < 1:
		return fmt.Errorf("%w: partition_buffer must be at least 1", ErrInvalidConfig)
	case c.MaxBatchRows < 1:
		return fmt.Errorf("%w: max_batch_rows must be at least 1", ErrInvalidConfig)
	case c.FieldLength <= 0 || c.FieldWidth <= 0:
		return fmt.Errorf("%w: field extents must be positive", ErrInvalidConfig)
	case c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
