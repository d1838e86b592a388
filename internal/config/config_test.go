package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zephyrtronium/calculator/internal/config"
)

func TestDefault(t *testing.T) {
	c := config.Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, uint(64), c.Precision)
	assert.Equal(t, -1, c.Digits)
	l, err := c.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, l)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
		errMsg string
	}{
		{"zero precision", func(c *config.Config) { c.Precision = 0 }, "precision"},
		{"zero digits", func(c *config.Config) { c.Digits = 0 }, "digits"},
		{"negative digits", func(c *config.Config) { c.Digits = -2 }, "digits"},
		{"bad level", func(c *config.Config) { c.LogLevel = "loud" }, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := config.Default()
			tt.modify(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestFromYAML(t *testing.T) {
	c, err := config.FromYAML([]byte("precision: 256\ndigits: 30\nprompt: \"calc> \"\nlog_level: debug\n"))
	require.NoError(t, err)
	assert.Equal(t, uint(256), c.Precision)
	assert.Equal(t, 30, c.Digits)
	assert.Equal(t, "calc> ", c.Prompt)
	assert.Equal(t, "debug", c.LogLevel)
	// Unset keys keep their defaults.
	assert.Equal(t, config.Default().History, c.History)
}

func TestFromYAMLEmpty(t *testing.T) {
	c, err := config.FromYAML(nil)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), c)
}

func TestFromYAMLErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown key", "precison: 10\n"},
		{"bad type", "precision: lots\n"},
		{"invalid value", "precision: 0\n"},
		{"malformed", "precision: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.FromYAML([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestFromJSON(t *testing.T) {
	c, err := config.FromJSON([]byte(`{"precision": 128, "history": ""}`))
	require.NoError(t, err)
	assert.Equal(t, uint(128), c.Precision)
	assert.Equal(t, "", c.History)
	assert.Equal(t, "", c.HistoryPath())

	_, err = config.FromJSON([]byte(`{"precision": 128, "extra": true}`))
	assert.Error(t, err)
	_, err = config.FromJSON([]byte(`{"digits": 0}`))
	assert.Error(t, err)
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "calc.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("precision: 100\n"), 0o600))
	c, err := config.FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, uint(100), c.Precision)

	jsonPath := filepath.Join(dir, "calc.JSON")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"digits": 12}`), 0o600))
	c, err = config.FromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 12, c.Digits)

	txtPath := filepath.Join(dir, "calc.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("precision: 100\n"), 0o600))
	_, err = config.FromFile(txtPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")

	_, err = config.FromFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestHistoryPath(t *testing.T) {
	c := config.Default()
	c.History = "/tmp/calc_history"
	assert.Equal(t, "/tmp/calc_history", c.HistoryPath())

	c.History = ""
	assert.Equal(t, "", c.HistoryPath())

	t.Setenv("HOME", "/home/someone")
	c.History = ".calc"
	assert.Equal(t, filepath.Join("/home/someone", ".calc"), c.HistoryPath())
}
