// Package config loads palaver's layered configuration:
// defaults < YAML file < .env file < environment < explicit overrides (flags).
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/aretw0/palaver/pkg/adapters/redis"
	"github.com/aretw0/palaver/pkg/adapters/remote"
	"github.com/aretw0/palaver/pkg/conversation"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when present and no other file was requested.
const DefaultFile = "palaver.yaml"

// DefaultDotEnv is read from the working directory when present.
const DefaultDotEnv = ".env"

// Config is the resolved configuration.
type Config struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	AgentID string        `mapstructure:"agent_id"`
	Timeout time.Duration `mapstructure:"timeout"`
	Debug   bool          `mapstructure:"debug"`
	Redis   RedisConfig   `mapstructure:"redis"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Store   StoreConfig   `mapstructure:"store"`
}

// RedisConfig selects the shared session store. An empty Addr keeps sessions in memory.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// StoreConfig protects conversations at rest.
type StoreConfig struct {
	// Key enables AES-256 encryption of stored conversations (32 bytes, raw or base64).
	Key string `mapstructure:"key"`

	// FallbackKeys are previous keys still accepted for decryption.
	FallbackKeys []string `mapstructure:"fallback_keys"`

	// Redact lists regular expressions masked in transcripts before they are stored.
	Redact []string `mapstructure:"redact"`
}

// HTTPConfig configures the gateway listener.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// envBindings maps environment variables onto dotted config keys.
var envBindings = map[string]string{
	"MAXIAI_BASE_URL":        "base_url",
	"MAXIAI_API_KEY":         "api_key",
	"MAXIAI_AGENT_ID":        "agent_id",
	"MAXIAI_TIMEOUT":         "timeout",
	"PALAVER_DEBUG":          "debug",
	"PALAVER_REDIS_ADDR":     "redis.addr",
	"PALAVER_REDIS_PASSWORD": "redis.password",
	"PALAVER_REDIS_DB":       "redis.db",
	"PALAVER_REDIS_PREFIX":   "redis.prefix",
	"PALAVER_REDIS_TTL":      "redis.ttl",
	"PALAVER_HTTP_ADDR":      "http.addr",

	"PALAVER_STORE_KEY":           "store.key",
	"PALAVER_STORE_FALLBACK_KEYS": "store.fallback_keys",
}

// Defaults returns the base layer.
func Defaults() map[string]any {
	return map[string]any{
		"base_url": remote.DefaultBaseURL,
		"timeout":  conversation.DefaultTimeout,
		"redis": map[string]any{
			"prefix": redis.DefaultPrefix,
			"ttl":    redis.DefaultTTL,
		},
		"http": map[string]any{
			"addr": ":8080",
		},
	}
}

// LoadOptions controls where Load reads from.
type LoadOptions struct {
	// File is a YAML file. Empty means DefaultFile if it exists.
	File string

	// DotEnv is a KEY=VALUE file. Empty means DefaultDotEnv if it exists.
	DotEnv string

	// LookupEnv reads the environment. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)

	// Overrides are applied last, keyed like the YAML file (e.g. "redis.addr").
	Overrides map[string]any
}

// Load merges every layer and decodes the result.
func Load(opts LoadOptions) (*Config, error) {
	merged := Defaults()

	file, required := opts.File, opts.File != ""
	if file == "" {
		file = DefaultFile
	}
	fileLayer, err := readYAML(file, required)
	if err != nil {
		return nil, err
	}
	merge(merged, fileLayer)

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	dotenv, required := opts.DotEnv, opts.DotEnv != ""
	if dotenv == "" {
		dotenv = DefaultDotEnv
	}
	dotLayer, err := readDotEnv(dotenv, required)
	if err != nil {
		return nil, err
	}

	for env, key := range envBindings {
		if val, ok := dotLayer[env]; ok && val != "" {
			set(merged, key, val)
		}
	}
	for env, key := range envBindings {
		if val, ok := lookup(env); ok && val != "" {
			set(merged, key, val)
		}
	}

	for key, val := range opts.Overrides {
		set(merged, key, val)
	}

	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(merged); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &cfg, nil
}

var (
	// ErrMissingAPIKey is reported when no API key is configured.
	ErrMissingAPIKey = errors.New("missing MAXIAI_API_KEY environment variable")

	// ErrMissingAgentID is reported when no agent id is configured.
	ErrMissingAgentID = errors.New("missing MAXIAI_AGENT_ID environment variable")
)

// ValidationError carries a user-facing hint next to the failure.
type ValidationError struct {
	Err  error
	Hint string
}

func (e *ValidationError) Error() string {
	if e.Hint == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s (%s)", e.Err, e.Hint)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidateCredentials checks what every command talking to the remote API needs.
func (c *Config) ValidateCredentials() error {
	var errs []error
	if strings.TrimSpace(c.APIKey) == "" {
		errs = append(errs, &ValidationError{Err: ErrMissingAPIKey, Hint: "Set MAXIAI_API_KEY in your environment"})
	}
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, &ValidationError{Err: fmt.Errorf("invalid base url %q", c.BaseURL), Hint: "Check MAXIAI_BASE_URL"})
	}
	if c.Timeout <= 0 {
		errs = append(errs, &ValidationError{Err: fmt.Errorf("timeout must be positive, got %s", c.Timeout)})
	}
	for _, p := range c.Store.Redact {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, &ValidationError{Err: fmt.Errorf("invalid redact pattern %q: %w", p, err)})
		}
	}
	return errors.Join(errs...)
}

// Validate checks everything a conversation needs, including the agent id.
func (c *Config) Validate() error {
	err := c.ValidateCredentials()
	if strings.TrimSpace(c.AgentID) == "" {
		err = errors.Join(err, &ValidationError{Err: ErrMissingAgentID, Hint: "Set MAXIAI_AGENT_ID in your environment"})
	}
	return err
}

func readYAML(path string, required bool) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return out, nil
}

// merge copies src into dst, descending into nested maps.
func merge(dst, src map[string]any) {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := dst[k].(map[string]any); ok {
				merge(existing, sub)
				continue
			}
		}
		dst[k] = v
	}
}

// set assigns val at a dotted key, creating intermediate maps.
func set(dst map[string]any, key string, val any) {
	parts := strings.Split(key, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := dst[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			dst[p] = next
		}
		dst = next
	}
	dst[parts[len(parts)-1]] = val
}
