package config

import "flag"

// Flags holds the command-line overrides registered on a flag set.
type Flags struct {
	config     *string
	verbose    *bool
	format     *string
	collisions *string
	workers    *int
	encoding   *string
	logFile    *string
}

// RegisterFlags adds the config flags to fs. Call fs.Parse before Load.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		config:     fs.String("config", "", "Path to config file"),
		verbose:    fs.Bool("v", false, "Enable debug logging"),
		format:     fs.String("o", "", "Output format: t3b or t3t"),
		collisions: fs.String("collisions", "", "Key collision policy: verify or merge"),
		workers:    fs.Int("workers", 0, "Meshes converted in parallel"),
		encoding:   fs.String("encoding", "", "Charset of the input file (gbk, euc-kr, shift-jis, big5)"),
		logFile:    fs.String("log", "", "Also write logs to this file"),
	}
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return *f.config
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if *f.verbose {
		cfg.Logging.Level = "debug"
	}
	if *f.format != "" {
		cfg.Convert.Format = *f.format
	}
	if *f.collisions != "" {
		cfg.Convert.Collisions = *f.collisions
	}
	if *f.workers > 0 {
		cfg.Convert.Workers = *f.workers
	}
	if *f.encoding != "" {
		cfg.Convert.InputEncoding = *f.encoding
	}
	if *f.logFile != "" {
		cfg.Logging.LogFile = *f.logFile
	}
}
