// Package config loads the server configuration from an optional YAML file
// and the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// Config is the complete server configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Logging       LoggingConfig       `yaml:"logging"`
	Blueprints    BlueprintsConfig    `yaml:"blueprints"`
	Addon         AddonConfig         `yaml:"addon"`
	HomeAssistant HomeAssistantConfig `yaml:"home_assistant"`
	Upload        UploadConfig        `yaml:"upload"`
}

// ServerConfig controls the HTTP listener
type ServerConfig struct {
	Port           string   `yaml:"port" env:"PORT, overwrite" validate:"required,numeric"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS, overwrite"`
	// InstanceIDFile keeps the instance ID stable across restarts when set
	InstanceIDFile string `yaml:"instance_id_file" env:"INSTANCE_ID_FILE, overwrite"`
}

// LoggingConfig controls the structured logger
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL, overwrite" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" env:"LOG_FORMAT, overwrite" validate:"oneof=json console"`
}

// BlueprintsConfig says where blueprints and apps live when the request does
// not say otherwise
type BlueprintsConfig struct {
	FallbackDir string `yaml:"fallback_dir" env:"BLUEPRINTS_FALLBACK_DIR, overwrite" validate:"required"`
	AppsPath    string `yaml:"apps_path" env:"APPDAEMON_APPS_PATH, overwrite"`
}

// AddonConfig describes the Home Assistant add-on environment
type AddonConfig struct {
	Enabled         bool   `yaml:"enabled" env:"ADDON_MODE, overwrite"`
	SupervisorToken string `yaml:"-" env:"SUPERVISOR_TOKEN, overwrite"`
	OptionsFile     string `yaml:"options_file" env:"ADDON_OPTIONS_FILE, overwrite"`
}

// HomeAssistantConfig tunes the Home Assistant client
type HomeAssistantConfig struct {
	// CacheTTL of zero turns the response cache off
	CacheTTL time.Duration `yaml:"cache_ttl" env:"HA_CACHE_TTL, overwrite" validate:"gte=0"`
}

// UploadConfig limits blueprint archive uploads
type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes" env:"UPLOAD_MAX_BYTES, overwrite" validate:"gt=0"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Server:        ServerConfig{Port: "8080"},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
		Blueprints:    BlueprintsConfig{FallbackDir: "blueprints"},
		Addon:         AddonConfig{OptionsFile: "/data/options.json"},
		HomeAssistant: HomeAssistantConfig{CacheTTL: 30 * time.Second},
		Upload:        UploadConfig{MaxBytes: 50 << 20},
	}
}

// Load reads path, when it exists, over the defaults and then applies
// environment overrides
func Load(ctx context.Context, path string) (*Config, error) {
	return LoadWith(ctx, path, envconfig.OsLookuper())
}

// LoadWith is Load with a custom environment source
func LoadWith(ctx context.Context, path string, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Address returns the listen address for echo
func (c *Config) Address() string {
	return ":" + c.Server.Port
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}
