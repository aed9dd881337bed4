// Package config loads the service settings from a YAML or JSON file and
// PARLEY_* environment variables. Environment values win over the file.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aretw0/parley/pkg/adapters/redis"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/policy"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment override, e.g. PARLEY_REDIS_ADDR.
const EnvPrefix = "PARLEY_"

// ErrInvalidKey is returned when the encryption key is not 32 bytes of base64.
var ErrInvalidKey = errors.New("encryption key must be 32 bytes, base64 encoded")

// Config holds every tunable of the engine and the service around it.
type Config struct {
	HistoryWindow       int           `mapstructure:"history_window"`
	ClarifyThreshold    float64       `mapstructure:"clarify_threshold"`
	EscalateThreshold   float64       `mapstructure:"escalate_threshold"`
	MaxFallbacks        int           `mapstructure:"max_fallbacks"`
	CollaboratorTimeout time.Duration `mapstructure:"collaborator_timeout"`

	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	MaxSessions   int           `mapstructure:"max_sessions"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`

	TemplatesDir string `mapstructure:"templates_dir"`
	BackendsFile string `mapstructure:"backends_file"`

	Redis RedisConfig `mapstructure:"redis"`

	EncryptionKey string   `mapstructure:"encryption_key"`
	MaskSlots     []string `mapstructure:"mask_slots"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	HTTP HTTPConfig `mapstructure:"http"`
}

// RedisConfig selects the Redis session store. An empty Addr keeps sessions in memory.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// HTTPConfig configures the HTTP adapter.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		HistoryWindow:       domain.DefaultHistoryWindow,
		ClarifyThreshold:    policy.DefaultClarifyThreshold,
		EscalateThreshold:   policy.DefaultEscalateThreshold,
		CollaboratorTimeout: 2 * time.Second,
		SessionTTL:          30 * time.Minute,
		SweepInterval:       time.Minute,
		BackendsFile:        "backends.yaml",
		Redis:               RedisConfig{Prefix: redis.DefaultPrefix},
		LogLevel:            "info",
		LogFormat:           "text",
		HTTP:                HTTPConfig{Addr: ":8080"},
	}
}

// Load reads path (YAML or JSON, which YAML parses too) over the defaults and
// applies the environment on top. A missing file is not an error.
func Load(path string) (Config, error) {
	return load(path, os.Environ())
}

func load(path string, environ []string) (Config, error) {
	raw := map[string]any{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &raw); err != nil {
				return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	overlayEnv(raw, environ)

	cfg := Default()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return Config{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// nested lists the sections whose keys are reachable as PARLEY_<SECTION>_<KEY>.
var nested = []string{"redis", "http"}

func overlayEnv(raw map[string]any, environ []string) {
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, EnvPrefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
		if !known(key) {
			continue
		}

		section, field, isNested := "", key, false
		for _, s := range nested {
			if rest, found := strings.CutPrefix(key, s+"_"); found {
				section, field, isNested = s, rest, true
				break
			}
		}
		if !isNested {
			raw[key] = v
			continue
		}

		sub, _ := raw[section].(map[string]any)
		if sub == nil {
			sub = map[string]any{}
			raw[section] = sub
		}
		sub[field] = v
	}
}

// known filters the environment down to Config keys so unrelated PARLEY_*
// variables (PARLEY_MAX_INPUT_SIZE, PARLEY_INTENT) do not fail decoding.
func known(key string) bool {
	switch key {
	case "history_window", "clarify_threshold", "escalate_threshold", "max_fallbacks",
		"collaborator_timeout", "session_ttl", "max_sessions", "sweep_interval",
		"templates_dir", "backends_file", "encryption_key", "mask_slots",
		"log_level", "log_format",
		"redis_addr", "redis_password", "redis_db", "redis_prefix", "redis_ttl",
		"http_addr":
		return true
	}
	return false
}

// Validate checks ranges and the encryption key.
func (c Config) Validate() error {
	if c.HistoryWindow <= 0 {
		return fmt.Errorf("history_window must be positive, got %d", c.HistoryWindow)
	}
	if c.ClarifyThreshold < 0 || c.ClarifyThreshold > 1 {
		return fmt.Errorf("clarify_threshold must be within [0,1], got %v", c.ClarifyThreshold)
	}
	if c.EscalateThreshold < 0 || c.EscalateThreshold > 1 {
		return fmt.Errorf("escalate_threshold must be within [0,1], got %v", c.EscalateThreshold)
	}
	if c.MaxFallbacks < 0 {
		return fmt.Errorf("max_fallbacks must not be negative, got %d", c.MaxFallbacks)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	if _, err := c.Key(); err != nil {
		return err
	}
	return nil
}

// Key decodes EncryptionKey. No key configured returns nil.
func (c Config) Key() ([]byte, error) {
	if c.EncryptionKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(c.EncryptionKey)
	if err != nil || len(key) != 32 {
		return nil, ErrInvalidKey
	}
	return key, nil
}
