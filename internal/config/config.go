// Package config loads promptpad settings from defaults, an optional
// config.yaml, a .env file and PROMPTPAD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/dpshade/promptpad/internal/textutil"
)

// DefaultBaseDir holds the store and the optional config.yaml
const DefaultBaseDir = "~/.promptpad"

// Config is the merged configuration of every mode
type Config struct {
	Store    StoreConfig    `mapstructure:"store"`
	Web      WebConfig      `mapstructure:"web"`
	Relay    RelayConfig    `mapstructure:"relay"`
	Renderer RendererConfig `mapstructure:"renderer"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// StoreConfig locates the on-disk prompt store
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// WebConfig is the listen address of the browser page
type WebConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// RelayConfig covers both ends of a completion: the relay's listen
// address and upstream, and the URL clients post prompts to.
type RelayConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	URL         string `mapstructure:"url"`          // Endpoint the completion client posts to
	UpstreamURL string `mapstructure:"upstream_url"` // OpenAI-compatible base URL the relay calls
	Model       string `mapstructure:"model"`
	APIKey      string `mapstructure:"api_key"`
}

// RendererConfig controls how stored content is read and shown
type RendererConfig struct {
	SanitizeMarkup bool   `mapstructure:"sanitize_markup"`
	ContentFormat  string `mapstructure:"content_format"` // plain or markup
}

// Format returns the parsed content format. Load has already validated it.
func (r RendererConfig) Format() textutil.Format {
	f, _ := textutil.ParseFormat(r.ContentFormat)
	return f
}

// LoggingConfig feeds logger.NewLogger
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.path", filepath.Join(DefaultBaseDir, "store"))

	v.SetDefault("web.host", "localhost")
	v.SetDefault("web.port", 8080)

	v.SetDefault("relay.host", "localhost")
	v.SetDefault("relay.port", 3000)
	v.SetDefault("relay.url", "http://localhost:3000/send-to-ia")
	v.SetDefault("relay.upstream_url", "https://api.groq.com/openai/v1")
	v.SetDefault("relay.model", "llama-3.1-8b-instant")
	v.SetDefault("relay.api_key", "")

	v.SetDefault("renderer.sanitize_markup", false)
	v.SetDefault("renderer.content_format", "plain")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output_path", "stderr")
}

// Load reads the configuration using the default search paths
func Load() (*Config, error) {
	return LoadWithPath("")
}

// LoadWithPath reads the configuration, looking for config.yaml in
// configPath first when it is set.
func LoadWithPath(configPath string) (*Config, error) {
	if err := LoadEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PROMPTPAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("relay.api_key", "PROMPTPAD_RELAY_API_KEY", "GROQ_API_KEY")
	// A bare PORT is the hosting convention for the relay process only; the
	// page takes PROMPTPAD_WEB_PORT or --port.
	_ = v.BindEnv("relay.port", "PROMPTPAD_RELAY_PORT", "PORT")

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		expanded, err := homedir.Expand(configPath)
		if err != nil {
			return nil, fmt.Errorf("error expanding config path: %w", err)
		}
		v.AddConfigPath(expanded)
	}
	if base, err := homedir.Expand(DefaultBaseDir); err == nil {
		v.AddConfigPath(base)
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	storePath, err := homedir.Expand(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("error expanding store.path: %w", err)
	}
	cfg.Store.Path = storePath

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadEnv loads key=value pairs from path into the process environment.
// A missing file is not an error; variables already set win.
func LoadEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

func validate(cfg *Config) error {
	var errs []string

	if cfg.Web.Port <= 0 || cfg.Web.Port > 65535 {
		errs = append(errs, "web.port must be between 1 and 65535")
	}
	if cfg.Relay.Port <= 0 || cfg.Relay.Port > 65535 {
		errs = append(errs, "relay.port must be between 1 and 65535")
	}
	if cfg.Store.Path == "" {
		errs = append(errs, "store.path is required")
	}
	if cfg.Relay.URL == "" {
		errs = append(errs, "relay.url is required")
	}
	if _, err := textutil.ParseFormat(cfg.Renderer.ContentFormat); err != nil {
		errs = append(errs, "renderer.content_format must be one of: plain, markup")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, "logging.format must be one of: json, text")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// RelayAddr is the listen address for the relay
func (c *Config) RelayAddr() string {
	return fmt.Sprintf("%s:%d", c.Relay.Host, c.Relay.Port)
}

// WebAddr is the listen address for the browser page
func (c *Config) WebAddr() string {
	return fmt.Sprintf("%s:%d", c.Web.Host, c.Web.Port)
}

// EnsureStoreDir creates the store directory if needed
func (c *Config) EnsureStoreDir() error {
	if err := os.MkdirAll(c.Store.Path, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	return nil
}
