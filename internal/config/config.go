package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every key when read from the environment,
// e.g. COVERAGE_DELTA_LCOV_BASE.
const EnvPrefix = "COVERAGE_DELTA"

// DefaultMaxChars matches the comment size limit the report is usually posted under.
const DefaultMaxChars = 65536

// Config holds the settings of a report run.
type Config struct {
	LcovFile           string   `mapstructure:"lcov-file"`
	LcovBase           string   `mapstructure:"lcov-base"`
	Title              string   `mapstructure:"title"`
	HideBranchCoverage bool     `mapstructure:"hide-branch-coverage"`
	FilterChangedFiles bool     `mapstructure:"filter-changed-files"`
	ChangedFiles       []string `mapstructure:"changed-files"`
	ChangedFilesFrom   string   `mapstructure:"changed-files-from"`
	Prefix             string   `mapstructure:"prefix"`
	OutputFile         string   `mapstructure:"output-file"`
	Format             string   `mapstructure:"format"`
	MaxChars           int      `mapstructure:"max-chars"`
	LineDetail         bool     `mapstructure:"line-detail"`
	HeadRef            string   `mapstructure:"head-ref"`
	BaseRef            string   `mapstructure:"base-ref"`

	// AWSProfile and AWSRegion apply to s3:// report locations.
	AWSProfile string `mapstructure:"aws-profile"`
	AWSRegion  string `mapstructure:"aws-region"`

	BadgeOutput string  `mapstructure:"badge-output"`
	BadgeMetric string  `mapstructure:"badge-metric"`
	BadgeRed    float64 `mapstructure:"badge-red"`
	BadgeYellow float64 `mapstructure:"badge-yellow"`

	LogLevel string `mapstructure:"log-level"`
}

// New returns a viper instance with defaults and environment bindings.
func New() *viper.Viper {
	v := viper.New()
	// Every key gets a default so environment-only values reach Unmarshal.
	v.SetDefault("lcov-file", "./coverage/lcov.info")
	v.SetDefault("lcov-base", "")
	v.SetDefault("title", "")
	v.SetDefault("hide-branch-coverage", false)
	v.SetDefault("filter-changed-files", false)
	v.SetDefault("changed-files", []string{})
	v.SetDefault("changed-files-from", "")
	v.SetDefault("prefix", "")
	v.SetDefault("output-file", "")
	v.SetDefault("line-detail", false)
	v.SetDefault("head-ref", "")
	v.SetDefault("base-ref", "")
	v.SetDefault("aws-profile", "")
	v.SetDefault("aws-region", "")
	v.SetDefault("log-level", "")
	v.SetDefault("format", "markdown")
	v.SetDefault("max-chars", DefaultMaxChars)
	v.SetDefault("badge-output", "coverage.svg")
	v.SetDefault("badge-metric", "lines")
	v.SetDefault("badge-red", 40.0)
	v.SetDefault("badge-yellow", 70.0)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// CI runners export the checkout directory; it is the natural prefix.
	_ = v.BindEnv("prefix", EnvPrefix+"_PREFIX", "GITHUB_WORKSPACE")
	return v
}

// Load reads the optional config file and unmarshals everything into a Config.
// An explicit configFile must exist; otherwise .coverage-delta.yaml in the
// working directory is used when present.
func Load(v *viper.Viper, configFile string, flags *pflag.FlagSet) (*Config, error) {
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("binding flags: %w", err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".coverage-delta")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	if c.MaxChars < 0 {
		return fmt.Errorf("max-chars must not be negative, got %d", c.MaxChars)
	}
	switch strings.ToLower(c.BadgeMetric) {
	case "", "lines", "branches", "functions":
	default:
		return fmt.Errorf("unknown badge metric %q (want lines, branches or functions)", c.BadgeMetric)
	}
	return nil
}
