package logging

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config selects the go-logger output.
type Config struct {
	// Level is one of trace, debug, info, warn, error or fatal.
	// Empty keeps the go-logger default.
	Level string `yaml:"level"`

	// Format is one of json (default), console or pretty.
	Format string `yaml:"format"`

	// AddSource adds the caller location to every entry.
	AddSource bool `yaml:"add_source"`

	// Focus limits output to the named child loggers.
	Focus []string `yaml:"focus"`
}

// Validate checks level and format names.
func (c Config) Validate() error {
	level := strings.ToLower(strings.TrimSpace(c.Level))
	format := strings.ToLower(strings.TrimSpace(c.Format))

	return validation.Errors{
		"level":  validation.Validate(level, validation.In("trace", "debug", "info", "warn", "warning", "error", "fatal")),
		"format": validation.Validate(format, validation.In("json", "console", "pretty")),
	}.Filter()
}
