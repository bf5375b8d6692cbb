// Package config provides configuration loading and validation for shapematch.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/shapematch/pkg/match"
	"github.com/Sumatoshi-tech/shapematch/pkg/levenshtein"
	"github.com/Sumatoshi-tech/shapematch/pkg/observability"
	"github.com/Sumatoshi-tech/shapematch/pkg/safeconv"
	"github.com/Sumatoshi-tech/shapematch/pkg/uast/pkg/mapping"
)

// Sentinel validation errors.
var (
	ErrInvalidWorkers      = errors.New("checker workers must be positive")
	ErrInvalidTimeout      = errors.New("checker timeout must be positive")
	ErrInvalidCacheSize    = errors.New("pattern cache size must be positive")
	ErrInvalidSourceSize   = errors.New("invalid max source size")
	ErrInvalidLogFormat    = errors.New("invalid log format")
	ErrInvalidMaxResults   = errors.New("max results must not be negative")
	ErrInvalidSampleRatio  = errors.New("sample ratio must be within [0, 1]")
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// Config holds all configuration for shapematch.
type Config struct {
	Matcher   MatcherConfig   `mapstructure:"matcher"`
	Parser    ParserConfig    `mapstructure:"parser"`
	Checker   CheckerConfig   `mapstructure:"checker"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// MatcherConfig holds the engine knobs.
type MatcherConfig struct {
	CommutativeOperators []string `mapstructure:"commutative_operators"`
	StretchyBlocks       bool     `mapstructure:"stretchy_blocks"`
	TrimRoot             bool     `mapstructure:"trim_root"`
	MaxResults           int      `mapstructure:"max_results"`
}

// ParserConfig holds source parsing configuration.
type ParserConfig struct {
	Language      string `mapstructure:"language"`
	MappingFile   string `mapstructure:"mapping_file"`
	MaxSourceSize string `mapstructure:"max_source_size"`
}

// CheckerConfig holds grading-layer configuration.
type CheckerConfig struct {
	Timeout          time.Duration `mapstructure:"timeout"`
	Workers          int           `mapstructure:"workers"`
	PatternCacheSize int           `mapstructure:"pattern_cache_size"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OpenTelemetry export configuration.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	Environment  string  `mapstructure:"environment"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`

	// MetricsAddr, when set, exposes Prometheus metrics at /metrics on this
	// address while the MCP server runs.
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// Default returns the default configuration without touching the
// filesystem or environment.
func Default() *Config {
	return &Config{
		Matcher: MatcherConfig{
			CommutativeOperators: slices.Clone(match.DefaultCommutativeOperators),
			StretchyBlocks:       DefaultStretchyBlocks,
			TrimRoot:             DefaultTrimRoot,
			MaxResults:           DefaultMaxResults,
		},
		Parser: ParserConfig{
			Language:      DefaultLanguage,
			MappingFile:   DefaultMappingFile,
			MaxSourceSize: DefaultMaxSourceSize,
		},
		Checker: CheckerConfig{
			Timeout:          DefaultTimeout,
			Workers:          DefaultWorkers,
			PatternCacheSize: DefaultPatternCacheSize,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: DefaultOTLPEndpoint,
			Environment:  DefaultEnvironment,
			SampleRatio:  DefaultSampleRatio,
			MetricsAddr:  DefaultMetricsAddr,
			OTLPInsecure: DefaultOTLPInsecure,
		},
	}
}

// LoadConfig loads configuration from file and environment variables.
// An empty path searches for shapematch.yaml in the working directory,
// ./config and $HOME/.config/shapematch; a missing file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("shapematch")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("$HOME/.config/shapematch")
	}

	viperCfg.SetEnvPrefix("SHAPEMATCH")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults mirrors Default into viper so file and env values layer on top.
func setDefaults(viperCfg *viper.Viper) {
	defaults := Default()

	viperCfg.SetDefault("matcher.commutative_operators", defaults.Matcher.CommutativeOperators)
	viperCfg.SetDefault("matcher.stretchy_blocks", defaults.Matcher.StretchyBlocks)
	viperCfg.SetDefault("matcher.trim_root", defaults.Matcher.TrimRoot)
	viperCfg.SetDefault("matcher.max_results", defaults.Matcher.MaxResults)

	viperCfg.SetDefault("parser.language", defaults.Parser.Language)
	viperCfg.SetDefault("parser.mapping_file", defaults.Parser.MappingFile)
	viperCfg.SetDefault("parser.max_source_size", defaults.Parser.MaxSourceSize)

	viperCfg.SetDefault("checker.timeout", defaults.Checker.Timeout.String())
	viperCfg.SetDefault("checker.workers", defaults.Checker.Workers)
	viperCfg.SetDefault("checker.pattern_cache_size", defaults.Checker.PatternCacheSize)

	viperCfg.SetDefault("logging.level", defaults.Logging.Level)
	viperCfg.SetDefault("logging.format", defaults.Logging.Format)

	viperCfg.SetDefault("telemetry.otlp_endpoint", defaults.Telemetry.OTLPEndpoint)
	viperCfg.SetDefault("telemetry.environment", defaults.Telemetry.Environment)
	viperCfg.SetDefault("telemetry.sample_ratio", defaults.Telemetry.SampleRatio)
	viperCfg.SetDefault("telemetry.otlp_insecure", defaults.Telemetry.OTLPInsecure)
	viperCfg.SetDefault("telemetry.metrics_addr", defaults.Telemetry.MetricsAddr)
}

// Validate checks every section and returns the first violation.
func (c *Config) Validate() error {
	if c.Checker.Workers <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Checker.Workers)
	}

	if c.Checker.Timeout <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, c.Checker.Timeout)
	}

	if c.Checker.PatternCacheSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCacheSize, c.Checker.PatternCacheSize)
	}

	if c.Matcher.MaxResults < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxResults, c.Matcher.MaxResults)
	}

	if _, err := c.MaxSourceBytes(); err != nil {
		return err
	}

	switch c.Logging.Format {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("%w: %q%s", ErrInvalidLogFormat, c.Logging.Format,
			levenshtein.Suggest(c.Logging.Format, []string{LogFormatText, LogFormatJSON}))
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %g", ErrInvalidSampleRatio, c.Telemetry.SampleRatio)
	}

	// A custom mapping file names its own language.
	if languages := mapping.Languages(); c.Parser.MappingFile == "" && !slices.Contains(languages, c.Parser.Language) {
		return fmt.Errorf("%w: %q%s", ErrUnsupportedLanguage, c.Parser.Language,
			levenshtein.Suggest(c.Parser.Language, languages))
	}

	return nil
}

// MaxSourceBytes parses Parser.MaxSourceSize ("1MB", "512KiB", "4096").
func (c *Config) MaxSourceBytes() (int64, error) {
	size, err := humanize.ParseBytes(c.Parser.MaxSourceSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidSourceSize, err)
	}

	n, ok := safeconv.Uint64ToInt64(size)
	if !ok || n == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSourceSize, c.Parser.MaxSourceSize)
	}

	return n, nil
}

// MatcherOptions converts the matcher section to engine options.
func (c *Config) MatcherOptions() []match.Option {
	return []match.Option{
		match.WithCommutative(c.Matcher.CommutativeOperators...),
		match.WithStretchyBlocks(c.Matcher.StretchyBlocks),
		match.WithTrimRoot(c.Matcher.TrimRoot),
		match.WithMaxResults(c.Matcher.MaxResults),
	}
}

// Observability converts the logging and telemetry sections to an
// observability configuration for the given binary version and mode.
func (c *Config) Observability(version string, mode observability.AppMode) observability.Config {
	obs := observability.DefaultConfig()

	obs.ServiceVersion = version
	obs.Mode = mode
	obs.Environment = c.Telemetry.Environment
	obs.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	obs.OTLPInsecure = c.Telemetry.OTLPInsecure
	obs.SampleRatio = c.Telemetry.SampleRatio
	obs.PrometheusEnabled = mode == observability.ModeMCP && c.Telemetry.MetricsAddr != ""
	obs.LogLevel = observability.ParseLevel(c.Logging.Level)
	obs.LogJSON = c.Logging.Format == LogFormatJSON

	return obs
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	return observability.ParseLevel(c.Logging.Level)
}
