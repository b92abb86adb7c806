// Package config provides configuration management for the codeshift server
// and CLI. Configuration is layered: built-in defaults, then an optional YAML
// file (with ${VAR} and ${VAR:-default} expansion), then a small set of
// environment overrides. The result is validated once and then treated as
// read-only by every component it is injected into.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration.
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	LLM            LLMConfig            `yaml:"llm"`
	Converter      ConverterConfig      `yaml:"converter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
	Logging        LoggingConfig        `yaml:"logging"`
	Routes         []RouteConfig        `yaml:"routes" validate:"dive"`
}

// ServerConfig holds settings for the HTTP boundary.
type ServerConfig struct {
	// Host is the interface to bind (default: 127.0.0.1)
	Host string `yaml:"host" env:"API_HOST"`

	// Port specifies the HTTP server port (default: 8000)
	Port int `yaml:"port" env:"API_PORT" validate:"gte=0,lte=65535"`

	// Debug relaxes CORS to any origin (default: true)
	Debug bool `yaml:"debug" env:"DEBUG"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the uploaded file (default: 30s)
	ReadTimeout time.Duration `yaml:"read_timeout" validate:"gte=0"`

	// WriteTimeout bounds the whole conversion round trip, so it is
	// deliberately generous (default: 120s)
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"gte=0"`

	// MaxHeaderBytes controls the maximum size of request headers (default: 1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes" validate:"gte=0"`

	// ShutdownTimeout is how long in-flight requests get on shutdown (default: 30s)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`

	// MaxUploadSize limits the uploaded file in bytes (default: 1MB)
	MaxUploadSize int64 `yaml:"max_upload_size" env:"MAX_FILE_SIZE" validate:"gt=0"`

	// UploadField is the multipart field carrying the source file (default: ada_file)
	UploadField string `yaml:"upload_field" validate:"required"`

	// AllowedExtensions lists accepted file extensions, including the dot.
	// An empty list accepts any extension.
	AllowedExtensions []string `yaml:"allowed_extensions" validate:"dive,startswith=."`

	// CORSOrigins is the allow-list used when Debug is false. Entries may
	// contain '*' wildcards, e.g. https://*.netlify.app
	CORSOrigins []string `yaml:"cors_origins"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LLMConfig selects and configures the completion backend.
type LLMConfig struct {
	// Provider is "openai" or any provider name understood by gollm
	// (e.g. "anthropic", "ollama", "groq")
	Provider string `yaml:"provider" env:"LLM_PROVIDER" validate:"required"`

	// Model is the model identifier sent with every exchange
	Model string `yaml:"model" env:"OPENAI_MODEL" validate:"required"`

	// APIKey is the explicit credential. When empty the client falls back
	// to the OPENAI_API_KEY environment variable. Use ${VAR} expansion to
	// reference other variables.
	APIKey string `yaml:"api_key"`

	// Endpoint overrides the provider base URL (optional)
	Endpoint string `yaml:"endpoint" env:"LLM_ENDPOINT" validate:"omitempty,url"`

	// SystemPrompt is used by the interactive chat mode
	SystemPrompt string `yaml:"system_prompt"`

	// Timeout bounds a single HTTP call to the provider; 0 leaves it to
	// the transport default
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`

	// MaxContextTokens rejects uploads whose token count exceeds it;
	// 0 disables the check
	MaxContextTokens int `yaml:"max_context_tokens" validate:"gte=0"`
}

// ConverterConfig configures the code conversion prompts.
type ConverterConfig struct {
	SourceLanguage string `yaml:"source_language" validate:"required"`
	TargetLanguage string `yaml:"target_language" validate:"required"`

	// SystemPrompt and Directive are text/template sources rendered with
	// {{.Source}} and {{.Target}}. Empty values use the built-in prompts.
	SystemPrompt string `yaml:"system_prompt"`
	Directive    string `yaml:"directive"`
}

// CircuitBreakerConfig configures the optional breaker around the
// completion backend. It never retries; it only fails fast while open.
type CircuitBreakerConfig struct {
	Enabled bool `yaml:"enabled"`

	// MaxRequests is the number of requests allowed through in the half-open state
	MaxRequests uint32 `yaml:"max_requests"`

	// Interval is the cyclic period of the closed state after which counts reset
	Interval time.Duration `yaml:"interval" validate:"gte=0"`

	// Timeout is the period of the open state until it becomes half-open
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`

	// FailureThreshold is the number of consecutive failures needed to trip the circuit
	FailureThreshold uint32 `yaml:"failure_threshold"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	// Level sets logging verbosity: debug, info, warn, error
	Level string `yaml:"level" env:"LOG_LEVEL" validate:"oneof=debug info warn error"`

	// Format specifies log output format: json or text
	Format string `yaml:"format" validate:"oneof=json text"`
}

// RouteConfig mounts a named handler on a path.
type RouteConfig struct {
	// Path is the URL path to match
	Path string `yaml:"path" validate:"required,startswith=/"`

	// Handler is one of convert, health, metrics
	Handler string `yaml:"handler" validate:"required,oneof=convert health metrics"`

	// Version prefixes the path (e.g. "v1" mounts /api/v1/...); empty
	// mounts the path as-is
	Version string `yaml:"version"`

	// Methods specifies the allowed HTTP methods for this route
	Methods []string `yaml:"methods" validate:"dive,oneof=GET POST OPTIONS"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "127.0.0.1",
			Port:              8000,
			Debug:             true,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      120 * time.Second,
			MaxHeaderBytes:    1 << 20,
			ShutdownTimeout:   30 * time.Second,
			MaxUploadSize:     1 << 20,
			UploadField:       "ada_file",
			AllowedExtensions: []string{".ada", ".adb", ".ads"},
			CORSOrigins: []string{
				"http://localhost:5173",
				"http://localhost:3000",
				"https://*.netlify.app",
			},
		},

		LLM: LLMConfig{
			Provider:     "openai",
			Model:        "gpt-3.5-turbo",
			SystemPrompt: "You are a helpful assistant that provides clear and concise answers.",
			Timeout:      60 * time.Second,
		},

		Converter: ConverterConfig{
			SourceLanguage: "Ada",
			TargetLanguage: "Python",
		},

		CircuitBreaker: CircuitBreakerConfig{
			Enabled:          false,
			MaxRequests:      1,
			Interval:         60 * time.Second,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},

		Routes: []RouteConfig{
			{Path: "/convert", Handler: "convert", Version: "v1", Methods: []string{"POST", "OPTIONS"}},
			{Path: "/convert", Handler: "convert", Methods: []string{"POST", "OPTIONS"}},
			{Path: "/health", Handler: "health", Methods: []string{"GET"}},
			{Path: "/metrics", Handler: "metrics", Methods: []string{"GET"}},
		},
	}
}

// LoadFile loads configuration from a YAML file
func LoadFile(filename string) (*Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load loads configuration from an io.Reader
func Load(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded, err := expandEnvVars(string(data))
	if err != nil {
		return nil, fmt.Errorf("expand environment variables: %w", err)
	}

	// Start with defaults and decode YAML on top of them
	config := DefaultConfig()
	if strings.TrimSpace(expanded) != "" {
		dec := yaml.NewDecoder(strings.NewReader(expanded))
		dec.KnownFields(true)
		if err := dec.Decode(config); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	}

	return finish(config)
}

// FromEnv returns the defaults with environment overrides applied.
func FromEnv() (*Config, error) {
	return finish(DefaultConfig())
}

func finish(config *Config) (*Config, error) {
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return config, nil
}

// expandEnvVars resolves ${VAR} and ${VAR:-default} references. Unset
// variables without a default expand to the empty string.
func expandEnvVars(s string) (string, error) {
	if strings.Count(s, "${") > strings.Count(s, "}") {
		return "", fmt.Errorf("invalid syntax: unterminated variable reference")
	}

	return os.Expand(s, func(key string) string {
		if i := strings.Index(key, ":-"); i >= 0 {
			if val := os.Getenv(key[:i]); val != "" {
				return val
			}
			return key[i+2:]
		}
		return os.Getenv(key)
	}), nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	if c.CircuitBreaker.Enabled && c.CircuitBreaker.FailureThreshold == 0 {
		return fmt.Errorf("circuit breaker enabled with zero failure threshold")
	}

	convert := 0
	for _, route := range c.Routes {
		if route.Handler == "convert" {
			convert++
		}
	}
	if convert == 0 {
		return fmt.Errorf("no route mounts the convert handler")
	}

	return nil
}
