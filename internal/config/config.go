// Package config handles converter configuration loading and management.
package config

import (
	"fmt"
	"runtime"

	"github.com/Faultbox/meshconv/pkg/encoding"
	"github.com/Faultbox/meshconv/pkg/formats"
	"github.com/Faultbox/meshconv/pkg/mesh"
)

// Config holds all converter settings.
type Config struct {
	Convert ConvertConfig `yaml:"convert"`
	Logging LoggingConfig `yaml:"logging"`
}

// ConvertConfig holds conversion settings.
type ConvertConfig struct {
	Format        string `yaml:"format"`         // t3b or t3t
	Collisions    string `yaml:"collisions"`     // verify or merge
	Workers       int    `yaml:"workers"`        // meshes converted in parallel
	InputEncoding string `yaml:"input_encoding"` // charset of scene files, empty for UTF-8
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Convert: ConvertConfig{
			Format:     formats.FormatBinary.String(),
			Collisions: mesh.CollisionVerify.String(),
			Workers:    runtime.NumCPU(),
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks that every setting names something the converter knows.
func (c *Config) Validate() error {
	if _, err := formats.ParseFormat(c.Convert.Format); err != nil {
		return fmt.Errorf("convert.format: %w", err)
	}
	if _, err := mesh.ParseCollisionPolicy(c.Convert.Collisions); err != nil {
		return fmt.Errorf("convert.collisions: %w", err)
	}
	if c.Convert.Workers < 1 {
		return fmt.Errorf("convert.workers: must be at least 1, got %d", c.Convert.Workers)
	}
	if _, err := encoding.Lookup(c.Convert.InputEncoding); err != nil {
		return fmt.Errorf("convert.input_encoding: %w", err)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	return nil
}
