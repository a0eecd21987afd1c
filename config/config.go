// Package config loads console settings from a TOML or YAML file and turns
// them into parser options.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/relux-works/opline/expr"
	"github.com/relux-works/opline/operation"
	"github.com/relux-works/opline/value"
)

// Format is a configuration file format.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
	FormatAuto // pick from the file extension
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	case FormatAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// Config holds the console settings.
type Config struct {
	Log     LogConfig     `toml:"log" yaml:"log"`
	Parse   ParseConfig   `toml:"parse" yaml:"parse"`
	Resolve ResolveConfig `toml:"resolve" yaml:"resolve"`
}

// LogConfig selects the log level (debug, info, warn, error) and format
// (text, json).
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// ParseConfig holds command parsing settings.
type ParseConfig struct {
	Lenient    bool   `toml:"lenient" yaml:"lenient"`
	Prefix     string `toml:"prefix" yaml:"prefix"`
	Separators string `toml:"separators" yaml:"separators"`
	MaxDepth   int    `toml:"max_depth" yaml:"max_depth"`
}

// ResolveConfig holds expression resolution settings. Variables answer
// ${name} before the environment does; Env enables ${env.NAME}.
type ResolveConfig struct {
	Values    bool              `toml:"values" yaml:"values"`
	Names     bool              `toml:"names" yaml:"names"`
	Stage     string            `toml:"stage" yaml:"stage"`
	Env       bool              `toml:"env" yaml:"env"`
	MaxDepth  int               `toml:"max_depth" yaml:"max_depth"`
	Variables map[string]string `toml:"variables" yaml:"variables"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Parse: ParseConfig{
			Separators: ",;",
		},
		Resolve: ResolveConfig{
			Stage: value.StageLeaves.String(),
			Env:   true,
		},
	}
}

// Load reads a configuration file. The format follows the extension:
// .yaml and .yml are YAML, anything else is TOML. Settings missing from
// the file keep their defaults.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := LoadFromString(string(content), detectFormat(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromString decodes content in the given format over the defaults and
// validates the result. FormatAuto is treated as TOML.
func LoadFromString(content string, format Format) (*Config, error) {
	cfg := Default()
	switch format {
	case FormatTOML, FormatAuto:
		if _, err := toml.Decode(content, cfg); err != nil {
			return nil, fmt.Errorf("TOML parse error: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
			return nil, fmt.Errorf("YAML parse error: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func detectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	if c.Parse.Prefix != "" {
		if _, err := operation.ParseAddress(c.Parse.Prefix); err != nil {
			errs = append(errs, fmt.Errorf("parse.prefix: %w", err))
		}
	}
	if c.Parse.MaxDepth < 0 {
		errs = append(errs, errors.New("parse.max_depth: must not be negative"))
	}
	if _, err := value.ParseStage(c.Resolve.Stage); err != nil {
		errs = append(errs, fmt.Errorf("resolve.stage: %w", err))
	}
	if c.Resolve.MaxDepth < 0 {
		errs = append(errs, errors.New("resolve.max_depth: must not be negative"))
	}
	return errors.Join(errs...)
}

// Logger builds the logger described by the log settings.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch c.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if c.Log.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Resolver builds the expression resolver: configured variables first,
// then the environment when enabled.
func (c *Config) Resolver(logger *slog.Logger) *expr.Resolver {
	lookups := []expr.Lookup{expr.MapLookup(c.Resolve.Variables)}
	if c.Resolve.Env {
		lookups = append(lookups, expr.Env())
	}
	opts := []expr.Option{expr.WithLogger(logger)}
	if c.Resolve.MaxDepth > 0 {
		opts = append(opts, expr.WithMaxDepth(c.Resolve.MaxDepth))
	}
	return expr.New(expr.Chain(lookups...), opts...)
}

// Options translates the settings into parser options.
func (c *Config) Options(logger *slog.Logger) ([]operation.Option, error) {
	stage, err := value.ParseStage(c.Resolve.Stage)
	if err != nil {
		return nil, err
	}
	opts := []operation.Option{
		operation.WithStrict(!c.Parse.Lenient),
		operation.WithSeparators(c.Parse.Separators),
		operation.WithMaxDepth(c.Parse.MaxDepth),
		operation.WithResolver(c.Resolver(logger)),
		operation.WithResolveValues(c.Resolve.Values),
		operation.WithResolveNames(c.Resolve.Names),
		operation.WithStage(stage),
		operation.WithLogger(logger),
	}
	if c.Parse.Prefix != "" {
		prefix, err := operation.ParseAddress(c.Parse.Prefix)
		if err != nil {
			return nil, fmt.Errorf("parse.prefix: %w", err)
		}
		opts = append(opts, operation.WithPrefix(prefix))
	}
	return opts, nil
}
