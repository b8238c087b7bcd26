// Package config loads server settings from an optional file, IMPACT_*
// environment variables and built-in defaults, in that order of precedence
// (environment wins).
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/signalsfoundry/impact-simulator/internal/logging"
	"github.com/signalsfoundry/impact-simulator/internal/observability"
	"github.com/signalsfoundry/impact-simulator/timectrl"
)

// EnvPrefix is prepended to every environment override, e.g.
// IMPACT_GRPC_ADDR or IMPACT_TRACING_ENABLED.
const EnvPrefix = "IMPACT"

// ErrInvalidConfig wraps every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the fully resolved server configuration.
type Config struct {
	GRPCAddr    string `mapstructure:"grpc_addr"`
	HTTPAddr    string `mapstructure:"http_addr"`
	PresetsPath string `mapstructure:"presets_path"`

	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Replay    ReplayConfig    `mapstructure:"replay"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Exporter    string  `mapstructure:"exporter"`
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// RateLimitConfig bounds requests per client peer. PerSecond <= 0 disables
// limiting.
type RateLimitConfig struct {
	PerSecond float64 `mapstructure:"per_second"`
	Burst     int     `mapstructure:"burst"`
}

// ReplayConfig controls default trajectory streaming pace.
type ReplayConfig struct {
	Mode    string  `mapstructure:"mode"`
	Speedup float64 `mapstructure:"speedup"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("grpc_addr", ":50051")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("presets_path", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.service_name", "impact-simulator")
	v.SetDefault("tracing.sample_ratio", 1.0)

	v.SetDefault("rate_limit.per_second", 20.0)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("replay.mode", "realtime")
	v.SetDefault("replay.speedup", 10.0)
}

// Load resolves configuration. path may be empty, in which case only the
// environment and defaults apply. The file type is taken from its extension.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values no component could run with.
func (c Config) Validate() error {
	var errs []error
	if c.GRPCAddr == "" {
		errs = append(errs, errors.New("grpc_addr must be set"))
	}
	if r := c.Tracing.SampleRatio; r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("tracing.sample_ratio %v outside [0,1]", r))
	}
	switch strings.ToLower(c.Tracing.Exporter) {
	case "", observability.ExporterStdout, observability.ExporterOTLP:
	default:
		errs = append(errs, fmt.Errorf("tracing.exporter %q not supported", c.Tracing.Exporter))
	}
	if c.RateLimit.PerSecond < 0 {
		errs = append(errs, fmt.Errorf("rate_limit.per_second %v is negative", c.RateLimit.PerSecond))
	}
	if c.RateLimit.Burst < 0 {
		errs = append(errs, fmt.Errorf("rate_limit.burst %d is negative", c.RateLimit.Burst))
	}
	if c.RateLimit.PerSecond > 0 && c.RateLimit.Burst == 0 {
		errs = append(errs, errors.New("rate_limit.burst must be positive when limiting is enabled"))
	}
	if _, err := timectrl.ParseMode(c.Replay.Mode); err != nil {
		errs = append(errs, err)
	}
	if c.Replay.Speedup <= 0 {
		errs = append(errs, fmt.Errorf("replay.speedup %v must be positive", c.Replay.Speedup))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Logging returns the logger settings.
func (c Config) Logging() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format}
}

// TracingSettings converts to the observability package's shape.
func (c Config) TracingSettings() observability.TracingConfig {
	return observability.TracingConfig{
		Enabled:     c.Tracing.Enabled,
		ServiceName: c.Tracing.ServiceName,
		Exporter:    c.Tracing.Exporter,
		Endpoint:    c.Tracing.Endpoint,
		SampleRatio: c.Tracing.SampleRatio,
	}
}

// ReplayMode returns the parsed replay mode. Validate guarantees it parses.
func (c Config) ReplayMode() timectrl.Mode {
	m, _ := timectrl.ParseMode(c.Replay.Mode)
	return m
}
