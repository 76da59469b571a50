package config

import (
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test convert defaults
	if cfg.Convert.Format != "t3b" {
		t.Errorf("expected format t3b, got %s", cfg.Convert.Format)
	}
	if cfg.Convert.Collisions != "verify" {
		t.Errorf("expected collisions verify, got %s", cfg.Convert.Collisions)
	}
	if cfg.Convert.Workers != runtime.NumCPU() {
		t.Errorf("expected %d workers, got %d", runtime.NumCPU(), cfg.Convert.Workers)
	}
	if cfg.Convert.InputEncoding != "" {
		t.Errorf("expected empty input encoding, got %s", cfg.Convert.InputEncoding)
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	yamlContent := `
convert:
  format: t3t
  collisions: merge
  workers: 3
  input_encoding: gbk

logging:
  level: "debug"
  log_file: "meshconv.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Convert.Format != "t3t" {
		t.Errorf("expected format t3t, got %s", cfg.Convert.Format)
	}
	if cfg.Convert.Collisions != "merge" {
		t.Errorf("expected collisions merge, got %s", cfg.Convert.Collisions)
	}
	if cfg.Convert.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.Convert.Workers)
	}
	if cfg.Convert.InputEncoding != "gbk" {
		t.Errorf("expected input encoding gbk, got %s", cfg.Convert.InputEncoding)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "meshconv.log" {
		t.Errorf("expected log file 'meshconv.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFilePartial(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)
	if err := os.WriteFile(configPath, []byte("convert:\n  format: t3t\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Unset keys keep their defaults
	if cfg.Convert.Collisions != "verify" {
		t.Errorf("expected collisions to stay verify, got %s", cfg.Convert.Collisions)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level to stay info, got %s", cfg.Logging.Level)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
convert:
  workers: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/meshconv.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"format", func(c *Config) { c.Convert.Format = "obj" }},
		{"collisions", func(c *Config) { c.Convert.Collisions = "ignore" }},
		{"workers", func(c *Config) { c.Convert.Workers = 0 }},
		{"encoding", func(c *Config) { c.Convert.InputEncoding = "ebcdic" }},
		{"level", func(c *Config) { c.Logging.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected %s to be rejected", tt.name)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if filepath.Base(dir) != "meshconv" {
		t.Errorf("ConfigDir should end in meshconv, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	// Save current directory
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)

	// No config file exists - should return empty
	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, FileName)
	if err := os.WriteFile(configPath, []byte("convert:\n  workers: 2\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Errorf("expected to find %s in current directory", FileName)
	}
}

func parseFlags(t *testing.T, args ...string) *Flags {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return f
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(*testing.T, *Config)
	}{
		{
			name: "verbose flag",
			args: []string{"-v"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "format flag",
			args: []string{"-o", "t3t"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Convert.Format != "t3t" {
					t.Errorf("expected format t3t, got %s", cfg.Convert.Format)
				}
			},
		},
		{
			name: "collision and worker flags",
			args: []string{"-collisions", "merge", "-workers", "7"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Convert.Collisions != "merge" {
					t.Errorf("expected collisions merge, got %s", cfg.Convert.Collisions)
				}
				if cfg.Convert.Workers != 7 {
					t.Errorf("expected 7 workers, got %d", cfg.Convert.Workers)
				}
			},
		},
		{
			name: "encoding and log flags",
			args: []string{"-encoding", "big5", "-log", "out.log"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Convert.InputEncoding != "big5" {
					t.Errorf("expected encoding big5, got %s", cfg.Convert.InputEncoding)
				}
				if cfg.Logging.LogFile != "out.log" {
					t.Errorf("expected log file out.log, got %s", cfg.Logging.LogFile)
				}
			},
		},
		{
			name: "no flags",
			args: nil,
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Convert.Format != "t3b" || cfg.Logging.Level != "info" {
					t.Errorf("expected defaults, got %+v", cfg)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			parseFlags(t, tt.args...).apply(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	yamlContent := `
convert:
  format: t3t
  workers: 2
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(parseFlags(t, "-config", configPath, "-workers", "5"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Workers should be from flag (5), not file (2)
	if cfg.Convert.Workers != 5 {
		t.Errorf("expected 5 workers from flag, got %d", cfg.Convert.Workers)
	}

	// Format should be from file since no flag override
	if cfg.Convert.Format != "t3t" {
		t.Errorf("expected format t3t from file, got %s", cfg.Convert.Format)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if _, err := Load(parseFlags(t, "-config", filepath.Join(t.TempDir(), "missing.yaml"))); err == nil {
		t.Error("expected error for missing explicit config")
	}
	if _, err := Load(parseFlags(t, "-config", "", "-collisions", "sometimes")); err == nil {
		t.Error("expected validation error for unknown collision policy")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	cfg := Default()
	cfg.Convert.Format = "t3t"
	cfg.Convert.Workers = 4
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Convert != cfg.Convert {
		t.Errorf("expected %+v, got %+v", cfg.Convert, loaded.Convert)
	}
}

func TestSave(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on linux")
	}

	path, err := Default().Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected config at %s: %v", path, err)
	}
}
