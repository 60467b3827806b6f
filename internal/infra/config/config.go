package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported model backends.
const (
	BackendLexical = "lexical"
	BackendRemote  = "remote"
)

// Model names reported when model.name is not set.
const (
	DefaultLexicalModel = "lexical-copy"
	DefaultRemoteModel  = "t5-small"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP  HTTPConfig  `yaml:"http"`
	Model ModelConfig `yaml:"model"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool         `yaml:"enabled"`
	RequestsPerMinute int          `yaml:"requestsPerMinute"`
	Burst             int          `yaml:"burst"`
	Valkey            ValkeyConfig `yaml:"valkey"`
}

// ValkeyConfig points the rate limiter at a shared counter store.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// ModelConfig selects and sizes the sequence-to-sequence model provider.
type ModelConfig struct {
	Name                     string          `yaml:"name"`
	Backend                  string          `yaml:"backend"`
	Encoding                 string          `yaml:"encoding"`
	MaxConcurrentGenerations int             `yaml:"maxConcurrentGenerations"`
	Remote                   RemoteConfig    `yaml:"remote"`
	Artifacts                ArtifactsConfig `yaml:"artifacts"`
}

// RemoteConfig configures the inference sidecar used by the remote backend.
type RemoteConfig struct {
	BaseURL string        `yaml:"baseUrl"`
	Timeout time.Duration `yaml:"timeout"`
}

// ArtifactsConfig describes the S3-compatible bucket holding tokenizer vocabularies.
type ArtifactsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Prefix    string `yaml:"prefix"`
	CacheDir  string `yaml:"cacheDir"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	cfg.applyModelDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if _, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Address = ":" + v
		}
	}
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_VALKEY_ADDR"); v != "" {
		cfg.HTTP.RateLimit.Valkey.Enabled = true
		cfg.HTTP.RateLimit.Valkey.Addr = v
	}
	if v := os.Getenv("MODEL_NAME"); v != "" {
		cfg.Model.Name = v
	}
	if v := os.Getenv("MODEL_BACKEND"); v != "" {
		cfg.Model.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("MODEL_ENCODING"); v != "" {
		cfg.Model.Encoding = v
	}
	if v := os.Getenv("MODEL_MAX_CONCURRENT_GENERATIONS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Model.MaxConcurrentGenerations = parsed
		}
	}
	if v := os.Getenv("MODEL_REMOTE_BASE_URL"); v != "" {
		cfg.Model.Remote.BaseURL = v
	}
	if v := os.Getenv("MODEL_REMOTE_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Model.Remote.Timeout = parsed
		}
	}
	if v := os.Getenv("MODEL_ARTIFACTS_ENABLED"); v != "" {
		cfg.Model.Artifacts.Enabled = parseBool(v)
	}
	if v := os.Getenv("MODEL_ARTIFACTS_ENDPOINT"); v != "" {
		cfg.Model.Artifacts.Endpoint = v
	}
	if v := os.Getenv("MODEL_ARTIFACTS_ACCESS_KEY"); v != "" {
		cfg.Model.Artifacts.AccessKey = v
	}
	if v := os.Getenv("MODEL_ARTIFACTS_SECRET_KEY"); v != "" {
		cfg.Model.Artifacts.SecretKey = v
	}
	if v := os.Getenv("MODEL_ARTIFACTS_BUCKET"); v != "" {
		cfg.Model.Artifacts.Bucket = v
	}
	if v := os.Getenv("MODEL_ARTIFACTS_REGION"); v != "" {
		cfg.Model.Artifacts.Region = v
	}
	if v := os.Getenv("MODEL_ARTIFACTS_PREFIX"); v != "" {
		cfg.Model.Artifacts.Prefix = v
	}
	if v := os.Getenv("MODEL_ARTIFACTS_CACHE_DIR"); v != "" {
		cfg.Model.Artifacts.CacheDir = v
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":5001",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 120 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 30,
				Burst:             10,
			},
		},
		Model: ModelConfig{
			Backend:                  BackendLexical,
			Encoding:                 "cl100k_base",
			MaxConcurrentGenerations: 1,
			Remote: RemoteConfig{
				Timeout: 30 * time.Second,
			},
			Artifacts: ArtifactsConfig{
				Prefix:   "tokenizers",
				CacheDir: ".cache/tokenizers",
			},
		},
	}
}

// applyModelDefaults names the model after the backend that serves it
// unless a name was configured.
func (c *Config) applyModelDefaults() {
	if strings.TrimSpace(c.Model.Name) != "" {
		return
	}
	switch c.Model.Backend {
	case BackendRemote:
		c.Model.Name = DefaultRemoteModel
	case BackendLexical:
		c.Model.Name = DefaultLexicalModel
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
		if c.HTTP.RateLimit.Valkey.Enabled && strings.TrimSpace(c.HTTP.RateLimit.Valkey.Addr) == "" {
			return errors.New("http.rateLimit.valkey.addr cannot be empty when valkey is enabled")
		}
	}
	if strings.TrimSpace(c.Model.Encoding) == "" {
		return errors.New("model.encoding cannot be empty")
	}
	if c.Model.MaxConcurrentGenerations <= 0 {
		return errors.New("model.maxConcurrentGenerations must be positive")
	}
	switch c.Model.Backend {
	case BackendLexical:
	case BackendRemote:
		if strings.TrimSpace(c.Model.Remote.BaseURL) == "" {
			return errors.New("model.remote.baseUrl cannot be empty for the remote backend")
		}
		if c.Model.Remote.Timeout <= 0 {
			return errors.New("model.remote.timeout must be positive")
		}
	default:
		return fmt.Errorf("model.backend %q is not supported", c.Model.Backend)
	}
	if strings.TrimSpace(c.Model.Name) == "" {
		return errors.New("model.name cannot be empty")
	}
	if c.Model.Artifacts.Enabled {
		if strings.TrimSpace(c.Model.Artifacts.Endpoint) == "" {
			return errors.New("model.artifacts.endpoint cannot be empty when artifacts are enabled")
		}
		if strings.TrimSpace(c.Model.Artifacts.Bucket) == "" {
			return errors.New("model.artifacts.bucket cannot be empty when artifacts are enabled")
		}
		if strings.TrimSpace(c.Model.Artifacts.CacheDir) == "" {
			return errors.New("model.artifacts.cacheDir cannot be empty when artifacts are enabled")
		}
	}
	return nil
}
