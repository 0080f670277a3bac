package log

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the content of the file passed via --log-config.
//
//	level: debug
//	format: text
//	filter: "debug:stats.* info,warn,error:*"
type Config struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Filter string `yaml:"filter"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read log config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse log config %s: %w", path, err)
	}
	return cfg, nil
}

// Build creates a logger from the config. Empty values fall back to the given defaults.
func (c *Config) Build(w io.Writer, defaultLevel Level, defaultFormat string) (*Logger, error) {
	level := defaultLevel
	if c.Level != "" {
		l, err := ParseLevel(c.Level)
		if err != nil {
			return nil, err
		}
		level = l
	}
	format := defaultFormat
	if c.Format != "" {
		format = c.Format
	}
	var logger *Logger
	switch format {
	case "json":
		logger = New(w, level, WithCaller(true), AddCallerSkip(1))
	default:
		logger = DevLogger(w, level, WithCaller(true), AddCallerSkip(1))
	}
	if c.Filter == "" {
		return logger, nil
	}
	return logger.WithFilter(c.Filter)
}
