package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all multi-ai-chat configuration.
type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Debate    DebateConfig     `mapstructure:"debate"`
	Providers []ProviderConfig `mapstructure:"providers"`
	Pricing   PricingConfig    `mapstructure:"pricing"`
	Storage   StorageConfig    `mapstructure:"storage"`
	Logging   LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig defines HTTP server settings.
type ServerConfig struct {
	Listen       string `mapstructure:"listen"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// DebateConfig defines orchestration settings.
type DebateConfig struct {
	MaxRounds            int     `mapstructure:"max_rounds"`
	ProviderTimeout      string  `mapstructure:"provider_timeout"`
	ConvergenceThreshold float64 `mapstructure:"convergence_threshold"`
	Judge                string  `mapstructure:"judge"`
}

// ProviderConfig describes one AI provider to register.
type ProviderConfig struct {
	Name      string `mapstructure:"name"`
	Model     string `mapstructure:"model"`
	APIKeyEnv string `mapstructure:"api_key_env"`
	BaseURL   string `mapstructure:"base_url"`
}

// PricingConfig defines pricing data settings.
type PricingConfig struct {
	Dir string `mapstructure:"dir"`
}

// StorageConfig defines database settings.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ProviderTimeoutDuration parses the provider timeout, falling back to a
// minute on an empty or malformed value.
func (d DebateConfig) ProviderTimeoutDuration() time.Duration {
	t, err := time.ParseDuration(d.ProviderTimeout)
	if err != nil || t <= 0 {
		return time.Minute
	}
	return t
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".aichat"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	home, _ := os.UserHomeDir()
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "5m")
	v.SetDefault("debate.max_rounds", 2)
	v.SetDefault("debate.provider_timeout", "60s")
	v.SetDefault("debate.convergence_threshold", 0.0)
	v.SetDefault("pricing.dir", "pricing/")
	v.SetDefault("storage.path", filepath.Join(home, ".aichat", "sessions.db"))
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Environment variables
	v.SetEnvPrefix("MAC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.Providers) == 0 {
		cfg.Providers = DefaultProviders()
	}

	return &cfg, nil
}

// DefaultProviders is the provider roster used when the config file names none.
func DefaultProviders() []ProviderConfig {
	return []ProviderConfig{
		{Name: "openai", Model: "gpt-4o", APIKeyEnv: "OPENAI_API_KEY"},
		{Name: "anthropic", Model: "claude-sonnet-4-20250514", APIKeyEnv: "ANTHROPIC_API_KEY"},
	}
}
