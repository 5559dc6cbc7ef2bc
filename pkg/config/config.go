// Package config loads the shell configuration: a YAML file validated against
// a generated JSON Schema, then environment overrides.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ormasoftchile/sjsh/internal/logging"
	"github.com/ormasoftchile/sjsh/pkg/render"
	"gopkg.in/yaml.v3"
)

// DefaultHistoryFile is where the input history lives unless configured.
const DefaultHistoryFile = "./history.txt"

// Environment variables that override file settings.
const (
	EnvHistoryFile = "SJSH_HISTORY_FILE"
	EnvTimeout     = "SJSH_TIMEOUT"
	EnvColor       = "SJSH_COLOR"
	EnvLogLevel    = "SJSH_LOG_LEVEL"
)

// Config is the on-disk configuration.
type Config struct {
	HistoryFile  string      `yaml:"history_file,omitempty" json:"history_file,omitempty" jsonschema:"description=Path of the input history file"`
	HistoryLimit int         `yaml:"history_limit,omitempty" json:"history_limit,omitempty" jsonschema:"minimum=1,description=Maximum number of history entries kept"`
	Timeout      string      `yaml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"description=API request timeout as a Go duration (e.g. 10s)"`
	Color        string      `yaml:"color,omitempty" json:"color,omitempty" jsonschema:"enum=auto,enum=always,enum=never"`
	LogLevel     string      `yaml:"log_level,omitempty" json:"log_level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	UserAgent    string      `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`
	Hosts        []HostEntry `yaml:"hosts,omitempty" json:"hosts,omitempty" jsonschema:"description=Hosts known at startup"`
}

// HostEntry seeds the root context with a host.
type HostEntry struct {
	URL   string `yaml:"url" json:"url" jsonschema:"required,minLength=1"`
	Token string `yaml:"token" json:"token" jsonschema:"required,minLength=1"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HistoryFile:  DefaultHistoryFile,
		HistoryLimit: 1000,
		Timeout:      "10s",
		Color:        render.ColorAuto,
		LogLevel:     "warn",
	}
}

// Load reads path over the defaults and applies environment overrides. When
// path is empty only defaults and the environment are used. When required is
// false a missing file is not an error.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := cfg.merge(data); err != nil {
				return nil, fmt.Errorf("config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !required:
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	cfg.applyEnv(os.Getenv)
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// merge validates a YAML document and decodes it over cfg.
func (c *Config) merge(data []byte) error {
	if errs := ValidateYAML(data); len(errs) > 0 {
		return &Error{Errors: errs}
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(EnvHistoryFile); v != "" {
		c.HistoryFile = v
	}
	if v := getenv(EnvTimeout); v != "" {
		c.Timeout = v
	}
	if v := getenv(EnvColor); v != "" {
		c.Color = strings.ToLower(v)
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// Check validates values that may come from the environment.
func (c *Config) Check() error {
	if _, err := c.RequestTimeout(); err != nil {
		return err
	}
	switch c.Color {
	case render.ColorAuto, render.ColorAlways, render.ColorNever:
	default:
		return fmt.Errorf("invalid color mode %q (want auto, always or never)", c.Color)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// RequestTimeout parses Timeout. Empty selects zero, meaning the client default.
func (c *Config) RequestTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid timeout %q: negative", c.Timeout)
	}
	return d, nil
}

// LoadDotEnv reads KEY=VALUE lines from path and sets the variables that are
// not already set. Comments (#) and blanks are skipped. A missing file is fine.
func LoadDotEnv(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.Trim(strings.TrimSpace(val), `"'`)
		if _, set := os.LookupEnv(key); !set {
			os.Setenv(key, val)
		}
	}
}

// String renders the config as YAML with tokens masked.
func (c *Config) String() string {
	masked := *c
	masked.Hosts = make([]HostEntry, len(c.Hosts))
	for i, h := range c.Hosts {
		masked.Hosts[i] = HostEntry{URL: h.URL, Token: strings.Repeat("*", min(len(h.Token), 8))}
	}
	data, err := yaml.Marshal(&masked)
	if err != nil {
		return fmt.Sprintf("%+v", masked)
	}
	return string(data)
}
