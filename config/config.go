package config

import (
	"errors"
	"fmt"
	"gopkg.in/yaml.v3"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variables overriding configuration, e.g. PATHCOVER_OUTPUT
const EnvPrefix = "PATHCOVER"

var (
	ErrInvalidConcurrency = errors.New("concurrency must be positive")
	ErrInvalidLogFormat   = errors.New("invalid log format")
	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrMissingOutput      = errors.New("output location is required")
)

type Config struct {
	// Output is the snapshot location, any afs URL; .lz4 suffix selects compressed encoding
	Output string `mapstructure:"output" yaml:"output"`
	// Accumulate merges the snapshot already stored at Output before saving
	Accumulate     bool `mapstructure:"accumulate" yaml:"accumulate"`
	WithCallPoints bool `mapstructure:"call_points" yaml:"call_points"`
	// Check holds minimum percentages, e.g. "80,70;perFile:60;app.service:90,80"
	Check          string  `mapstructure:"check" yaml:"check,omitempty"`
	CheckIndicator string  `mapstructure:"check_indicator" yaml:"check_indicator"`
	Concurrency    int     `mapstructure:"concurrency" yaml:"concurrency"`
	Logging        Logging `mapstructure:"logging" yaml:"logging"`
}

type Logging struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		Output:         "coverage.json",
		CheckIndicator: "coverage.check.failed",
		Concurrency:    4,
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from an optional YAML file and PATHCOVER_* environment variables
func Load(configPath string) (*Config, error) {
	viperCfg := viper.New()
	setDefaults(viperCfg, DefaultConfig())
	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("pathcover")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
	}
	viperCfg.SetEnvPrefix(EnvPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperCfg.AutomaticEnv()

	if err := viperCfg.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	ret := &Config{}
	if err := viperCfg.Unmarshal(ret); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := ret.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return ret, nil
}

func setDefaults(viperCfg *viper.Viper, defaults *Config) {
	viperCfg.SetDefault("output", defaults.Output)
	viperCfg.SetDefault("accumulate", defaults.Accumulate)
	viperCfg.SetDefault("call_points", defaults.WithCallPoints)
	viperCfg.SetDefault("check", defaults.Check)
	viperCfg.SetDefault("check_indicator", defaults.CheckIndicator)
	viperCfg.SetDefault("concurrency", defaults.Concurrency)
	viperCfg.SetDefault("logging.level", defaults.Logging.Level)
	viperCfg.SetDefault("logging.format", defaults.Logging.Format)
}

// Validate checks configuration values
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Output) == "" {
		return ErrMissingOutput
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidConcurrency, c.Concurrency)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}
	if _, err := c.Logging.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel returns the configured log level
func (l *Logging) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return level, fmt.Errorf("%w: %q", ErrInvalidLogLevel, l.Level)
	}
	return level, nil
}

// Dump writes configuration as YAML
func Dump(c *Config, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return encoder.Close()
}
