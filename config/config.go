// Package config loads closet settings from defaults, an optional YAML
// file and CLOSET_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// PathEnvVar overrides the config file location.
	PathEnvVar = "CLOSET_CONFIG"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "CLOSET_"

	// APIKeyEnvVar is read when weather.api_key is not set otherwise.
	APIKeyEnvVar = "OPENWEATHER_KEY"
)

// DefaultPath is used when neither an explicit path nor CLOSET_CONFIG is set.
var DefaultPath = "closet.yaml"

// Config is the complete closet configuration.
type Config struct {
	State     StateConfig     `koanf:"state"`
	Images    ImagesConfig    `koanf:"images"`
	Extractor ExtractorConfig `koanf:"extractor"`
	Weather   WeatherConfig   `koanf:"weather"`
	Rules     RulesConfig     `koanf:"rules"`
	Index     IndexConfig     `koanf:"index"`
	Logging   LoggingConfig   `koanf:"logging"`
	// Seed fixes the outfit tie-break source; 0 is nondeterministic.
	Seed uint64 `koanf:"seed"`
}

// StateConfig selects the persistence backend.
type StateConfig struct {
	Backend string `koanf:"backend" validate:"oneof=file sqlite postgres"`
	Path    string `koanf:"path" validate:"required_if=Backend file"`
	DSN     string `koanf:"dsn" validate:"required_unless=Backend file"`
}

type ImagesConfig struct {
	Dir string `koanf:"dir" validate:"required"`
}

// ExtractorConfig points at the embedding service. Dimension 0 accepts
// whatever the first embedding has.
type ExtractorConfig struct {
	URL       string        `koanf:"url" validate:"omitempty,url"`
	Timeout   time.Duration `koanf:"timeout" validate:"gt=0"`
	Dimension int           `koanf:"dimension" validate:"gte=0"`
}

type WeatherConfig struct {
	BaseURL           string        `koanf:"base_url" validate:"required,url"`
	APIKey            string        `koanf:"api_key"`
	Timeout           time.Duration `koanf:"timeout" validate:"gt=0"`
	RequestsPerMinute int           `koanf:"requests_per_minute" validate:"gte=0"`
	BreakerFailures   uint32        `koanf:"breaker_failures"`
	BreakerCooldown   time.Duration `koanf:"breaker_cooldown" validate:"gte=0"`
}

// RulesConfig optionally replaces the built-in rule set.
type RulesConfig struct {
	Path string `koanf:"path"`
}

type IndexConfig struct {
	Metric string `koanf:"metric" validate:"oneof=l2 cosine"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		State: StateConfig{
			Backend: "file",
			Path:    "closet.state",
		},
		Images: ImagesConfig{Dir: "images"},
		Extractor: ExtractorConfig{
			Timeout: 30 * time.Second,
		},
		Weather: WeatherConfig{
			BaseURL:           "https://api.openweathermap.org",
			Timeout:           5 * time.Second,
			RequestsPerMinute: 60,
			BreakerFailures:   5,
			BreakerCooldown:   30 * time.Second,
		},
		Index: IndexConfig{Metric: "l2"},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load layers defaults, the YAML file and environment overrides, then
// validates the result. path may be empty; an explicitly named file must
// exist, the implicit ones are optional.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if configPath, err := findFile(path); err != nil {
		return nil, err
	} else if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}
	if k.String("weather.api_key") == "" {
		if key := os.Getenv(APIKeyEnvVar); key != "" {
			if err := k.Set("weather.api_key", key); err != nil {
				return nil, fmt.Errorf("config: set api key: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config: invalid: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}

func findFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config: %w", err)
		}
		return explicit, nil
	}
	if p := os.Getenv(PathEnvVar); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("config: %s: %w", PathEnvVar, err)
		}
		return p, nil
	}
	if _, err := os.Stat(DefaultPath); err == nil {
		return DefaultPath, nil
	}
	return "", nil
}

// envTransform maps CLOSET_WEATHER_API_KEY to weather.api_key. The first
// underscore separates the section; section names contain none.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if key == "config" {
		return ""
	}
	section, field, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}
	return section + "." + field
}
