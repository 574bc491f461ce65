package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/benvon/origin-guard/internal/originpolicy"
	"github.com/benvon/origin-guard/internal/validation"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure returned by Load.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigPathEnv names the environment variable holding the YAML config path.
const ConfigPathEnv = "ORIGIN_GUARD_CONFIG"

const (
	defaultServerPort     = "50021"
	defaultMaxRequestSize = int64(1 << 20)
	defaultRequestTimeout = 30 * time.Second
)

// Config holds application configuration
type Config struct {
	CorsPolicyMode  string        `yaml:"cors_policy_mode" validate:"required,cors_policy_mode"`
	AllowOrigin     []string      `yaml:"allow_origin"`
	ServerPort      string        `yaml:"server_port" validate:"required,numeric"`
	ServerDebugMode bool          `yaml:"server_debug_mode"`
	LogFormat       string        `yaml:"log_format" validate:"omitempty,oneof=json console"`
	EnableHSTS      bool          `yaml:"enable_hsts"`
	UpstreamURL     string        `yaml:"upstream_url" validate:"omitempty,url"`
	RateLimit       string        `yaml:"rate_limit" validate:"omitempty,ulule_rate"`
	RedisURL        string        `yaml:"redis_url" validate:"omitempty,url"`
	MaxRequestSize  int64         `yaml:"max_request_size" validate:"gte=0"`
	RequestTimeout  time.Duration `yaml:"request_timeout" validate:"gte=0"`
	OTELEnabled     bool          `yaml:"otel_enabled"`
	OTELEndpoint    string        `yaml:"otel_endpoint"`
}

// Default returns the configuration used when nothing else is supplied.
func Default() *Config {
	return &Config{
		CorsPolicyMode: string(originpolicy.ModeLocalApps),
		ServerPort:     defaultServerPort,
		LogFormat:      "json",
		MaxRequestSize: defaultMaxRequestSize,
		RequestTimeout: defaultRequestTimeout,
	}
}

// Load resolves configuration from defaults, the YAML file at path (or
// $ORIGIN_GUARD_CONFIG when path is empty) and environment variables, in that
// order. overrides run last, typically to apply command-line flags, and the
// result is validated.
func Load(path string, overrides ...func(*Config)) (*Config, error) {
	return load(path, os.LookupEnv, overrides...)
}

func load(path string, lookup lookupFunc, overrides ...func(*Config)) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getEnv(lookup, ConfigPathEnv, "")
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv(lookup)

	for _, override := range overrides {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup lookupFunc) {
	c.CorsPolicyMode = getEnv(lookup, "CORS_POLICY_MODE", c.CorsPolicyMode)
	if raw, ok := lookup("ALLOW_ORIGIN"); ok {
		c.AllowOrigin = SplitOrigins(raw)
	}
	c.ServerPort = getEnv(lookup, "SERVER_PORT", c.ServerPort)
	c.ServerDebugMode = getEnvBool(lookup, "SERVER_DEBUG_MODE", c.ServerDebugMode)
	c.LogFormat = getEnv(lookup, "LOG_FORMAT", c.LogFormat)
	c.EnableHSTS = getEnvBool(lookup, "ENABLE_HSTS", c.EnableHSTS)
	c.UpstreamURL = getEnv(lookup, "UPSTREAM_URL", c.UpstreamURL)
	c.RateLimit = getEnv(lookup, "RATE_LIMIT", c.RateLimit)
	c.RedisURL = getEnv(lookup, "REDIS_URL", c.RedisURL)
	c.MaxRequestSize = getEnvInt64(lookup, "MAX_REQUEST_SIZE", c.MaxRequestSize)
	c.RequestTimeout = getEnvDuration(lookup, "REQUEST_TIMEOUT", c.RequestTimeout)
	c.OTELEnabled = getEnvBool(lookup, "OTEL_ENABLED", c.OTELEnabled)
	c.OTELEndpoint = getEnv(lookup, "OTEL_EXPORTER_OTLP_ENDPOINT", c.OTELEndpoint)
}

// Validate checks the configuration with the shared validator.
func (c *Config) Validate() error {
	if err := validation.Validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ValidateOrigins reports allow_origin entries that can never equal an Origin
// header. Load keeps such entries so startup never fails on them; init and
// other writers call this to refuse them up front.
func (c *Config) ValidateOrigins() error {
	var errs []error
	for _, origin := range c.AllowOrigin {
		if err := validation.ValidateOriginEntry(origin); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// OriginPolicy resolves the origin allowlist described by the configuration.
// Entries that can never match are kept verbatim and logged.
func (c *Config) OriginPolicy(logger *zap.Logger) (*originpolicy.Policy, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mode, err := originpolicy.ParseMode(c.CorsPolicyMode)
	if err != nil {
		return nil, err
	}
	for _, origin := range c.AllowOrigin {
		if err := validation.ValidateOriginEntry(origin); err != nil {
			logger.Warn("allow_origin_entry_never_matches",
				zap.String("allow_origin", origin),
				zap.Error(err),
			)
		}
	}
	return originpolicy.New(mode, c.AllowOrigin, logger)
}

// SplitOrigins splits a comma or whitespace separated list of origins.
func SplitOrigins(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	if len(fields) == 0 {
		return nil
	}
	return fields
}

type lookupFunc func(string) (string, bool)

func getEnv(lookup lookupFunc, key, defaultValue string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(lookup lookupFunc, key string, defaultValue bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt64(lookup lookupFunc, key string, defaultValue int64) int64 {
	if value, ok := lookup(key); ok && value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(lookup lookupFunc, key string, defaultValue time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
