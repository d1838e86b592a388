// Package config holds the settings of the calculator binary and loads them
// from YAML or JSON files.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
)

// Config is the calculator configuration. The zero value is not valid; start
// from Default.
type Config struct {
	// Precision is the working precision in bits.
	Precision uint `yaml:"precision" json:"precision"`
	// Digits is the number of significant digits printed for results, or -1
	// for the fewest digits that identify the result exactly.
	Digits int `yaml:"digits" json:"digits"`
	// Prompt is shown before each line in the interactive shell.
	Prompt string `yaml:"prompt" json:"prompt"`
	// History is the shell history file. Relative paths are relative to the
	// user's home directory. Empty disables history.
	History string `yaml:"history" json:"history"`
	// LogLevel is one of debug, info, warn, or error.
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Precision: 64,
		Digits:    -1,
		Prompt:    "> ",
		History:   ".calculator_history",
		LogLevel:  "warn",
	}
}

// Validate checks that every field has a usable value.
func (c Config) Validate() error {
	var errs []error
	if c.Precision == 0 || c.Precision > big.MaxPrec {
		errs = append(errs, fmt.Errorf("precision %d out of range [1, %d]", c.Precision, uint(big.MaxPrec)))
	}
	if c.Digits < -1 || c.Digits == 0 {
		errs = append(errs, fmt.Errorf("digits must be positive or -1, got %d", c.Digits))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return l, nil
}

// HistoryPath resolves History against the user's home directory. It returns
// "" if history is disabled or the home directory is unknown.
func (c Config) HistoryPath() string {
	if c.History == "" || filepath.IsAbs(c.History) {
		return c.History
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, c.History)
}
