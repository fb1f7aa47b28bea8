// Package config loads tsxlint settings: rule severities and the set of
// files to lint.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/viper"

	"github.com/Sayanli/tsxlint/host"
	"github.com/Sayanli/tsxlint/rules/notsxwithoutjsx"
)

const (
	DefaultName = ".tsxlint"
	EnvPrefix   = "TSXLINT"
)

var ErrBadPattern = errors.New("bad include pattern")

type Config struct {
	Rules       map[string]any `mapstructure:"rules"`
	Include     []string       `mapstructure:"include"`
	Exclude     []string       `mapstructure:"exclude"`
	Concurrency int            `mapstructure:"concurrency"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("rules", map[string]any{notsxwithoutjsx.Name: "error"})
	v.SetDefault("include", []string{"**/*.tsx"})
	v.SetDefault("exclude", []string{"node_modules", ".git", "dist"})
	v.SetDefault("concurrency", runtime.NumCPU())
}

// Load reads the config file at path. With an empty path it looks for
// .tsxlint.{yaml,json,toml} in the working directory and falls back to the
// defaults when there is none.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultName)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Severities parses the configured rule levels.
func (c *Config) Severities() (map[string]host.Severity, error) {
	out := make(map[string]host.Severity, len(c.Rules))
	for name, raw := range c.Rules {
		sev, err := host.ParseSeverity(fmt.Sprint(raw))
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", name, err)
		}
		out[name] = sev
	}
	return out, nil
}

// Apply validates the config and sets the severity of every configured rule
// on l.
func (c *Config) Apply(l *host.Linter) error {
	for _, p := range c.Include {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("%w: %q", ErrBadPattern, p)
		}
	}

	sevs, err := c.Severities()
	if err != nil {
		return err
	}

	names := make([]string, 0, len(sevs))
	for name := range sevs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := l.Configure(name, sevs[name]); err != nil {
			return err
		}
	}
	return nil
}

// Match reports whether path, relative to the lint root, is selected by the
// include patterns.
func (c *Config) Match(path string) bool {
	slashed := filepath.ToSlash(path)
	for _, p := range c.Include {
		if ok, _ := doublestar.Match(p, slashed); ok {
			return true
		}
	}
	return false
}

// SkipDir reports whether a directory with this base name is excluded.
func (c *Config) SkipDir(name string) bool {
	for _, ex := range c.Exclude {
		if name == ex {
			return true
		}
	}
	return false
}
