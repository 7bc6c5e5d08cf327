// Package config loads imgpipe's defaults from a YAML file and the
// environment.
//
// The file is read from $IMGPIPE_CONFIG, or ~/.config/imgpipe/config.yaml
// when that is unset. Environment variables override the file:
//
//	IMGPIPE_LOG_LEVEL=debug
//	IMGPIPE_RESPECT_PARENTHESES=true
//	IMGPIPE_INTERPOLATE=false
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/image-pipeline/internal/pipeline"
)

// Environment variables read by ApplyEnv.
const (
	EnvConfig             = "IMGPIPE_CONFIG"
	EnvLogLevel           = "IMGPIPE_LOG_LEVEL"
	EnvRespectParentheses = "IMGPIPE_RESPECT_PARENTHESES"
	EnvInterpolate        = "IMGPIPE_INTERPOLATE"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// Config holds the defaults of a pipeline run.
type Config struct {
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	RespectParentheses bool `yaml:"respect_parentheses"`

	// Interpolate turns percent escapes on for options that allow them.
	Interpolate bool `yaml:"interpolate"`

	RegardWarnings bool `yaml:"regard_warnings"`
	Monitor        bool `yaml:"monitor"`

	// MaxStackDepth bounds "(" and "{" nesting; 0 keeps the built-in limit.
	MaxStackDepth int `yaml:"max_stack_depth"`

	// Defines are applied as -define key=value.
	Defines map[string]string `yaml:"defines"`

	// Limits are applied as -limit resource value.
	Limits map[string]string `yaml:"limits"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		LogLevel:    "info",
		Interpolate: true,
		Defines:     map[string]string{},
		Limits:      map[string]string{},
	}
}

// Path returns the configuration file to read.
func Path() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "imgpipe", "config.yaml")
}

// Load reads the file at path over the defaults and applies the
// environment. A missing file is not an error unless it was named by
// $IMGPIPE_CONFIG.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist) && os.Getenv(EnvConfig) == "":
		case err != nil:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := cfg.decode(data); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults without consulting the
// environment.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return err
	}
	if c.Defines == nil {
		c.Defines = map[string]string{}
	}
	if c.Limits == nil {
		c.Limits = map[string]string{}
	}
	return nil
}

// ApplyEnv overrides fields from the environment variables that are set.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	for _, b := range []struct {
		name  string
		field *bool
	}{
		{EnvRespectParentheses, &c.RespectParentheses},
		{EnvInterpolate, &c.Interpolate},
	} {
		v := getenv(b.name)
		if v == "" {
			continue
		}
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", b.name, v, err)
		}
		*b.field = on
	}
	return nil
}

// Validate checks the values a file or the environment may get wrong.
func (c *Config) Validate() error {
	known := false
	for _, l := range logLevels {
		if c.LogLevel == l {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("invalid log_level %q: want one of %s", c.LogLevel, strings.Join(logLevels, ", "))
	}
	if c.MaxStackDepth < 0 {
		return fmt.Errorf("invalid max_stack_depth %d", c.MaxStackDepth)
	}
	return nil
}

// Debug reports whether debug traces are wanted.
func (c *Config) Debug() bool {
	return c.LogLevel == "debug"
}

// Options converts the configuration into pipeline options. The caller
// fills in the streams and the codec.
func (c *Config) Options() pipeline.Options {
	return pipeline.Options{
		NoInterpolate:      !c.Interpolate,
		RespectParentheses: c.RespectParentheses,
		RegardWarnings:     c.RegardWarnings,
		Monitor:            c.Monitor,
		MaxStackDepth:      c.MaxStackDepth,
		Defines:            c.Defines,
		Limits:             c.Limits,
	}
}
