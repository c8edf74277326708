package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/VadymMak/multi-ai-chat-sub002/internal/config"
	"github.com/VadymMak/multi-ai-chat-sub002/pkg/debate"
	"github.com/VadymMak/multi-ai-chat-sub002/pkg/pricing"
	"github.com/VadymMak/multi-ai-chat-sub002/pkg/provider"
	"github.com/VadymMak/multi-ai-chat-sub002/pkg/provider/anthropic"
	"github.com/VadymMak/multi-ai-chat-sub002/pkg/provider/openai"
	"github.com/VadymMak/multi-ai-chat-sub002/pkg/storage"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "aichat",
	Short: "Multi-AI chat - debate orchestration across AI providers",
	Long: `Multi-AI chat sends one question to several AI providers, runs rounds of
debate in which each model critiques the others' answers, and has a judge
synthesize a final answer. Every provider call is metered against per-model
pricing so each session carries its exact cost.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.aichat/config.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// initTable loads the pricing table from the configured directory.
func initTable(cfg *config.Config) (*pricing.Table, error) {
	pricingDir := cfg.Pricing.Dir

	// Try relative to the executable when the configured dir does not exist.
	if _, err := os.Stat(pricingDir); os.IsNotExist(err) {
		exePath, _ := os.Executable()
		if exePath != "" {
			altDir := filepath.Join(filepath.Dir(exePath), "pricing")
			if _, altErr := os.Stat(altDir); altErr == nil {
				pricingDir = altDir
			}
		}
	}

	table, err := pricing.LoadDir(pricingDir)
	if err != nil {
		return nil, fmt.Errorf("load pricing from %s: %w", pricingDir, err)
	}
	return table, nil
}

// initRegistry builds one HTTP adapter per configured provider and registers
// them, preserving config order and rejecting duplicates.
func initRegistry(cfg *config.Config) (*provider.Registry, error) {
	registry := provider.NewRegistry()
	for _, pc := range cfg.Providers {
		apiKey := os.Getenv(pc.APIKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("provider %s: environment variable %s is not set", pc.Name, pc.APIKeyEnv)
		}

		var adapter provider.Adapter
		switch pc.Name {
		case "openai":
			var opts []openai.Option
			if pc.BaseURL != "" {
				opts = append(opts, openai.WithBaseURL(pc.BaseURL))
			}
			adapter = openai.New(pc.Model, apiKey, opts...)
		case "anthropic":
			var opts []anthropic.Option
			if pc.BaseURL != "" {
				opts = append(opts, anthropic.WithBaseURL(pc.BaseURL))
			}
			adapter = anthropic.New(pc.Model, apiKey, opts...)
		default:
			return nil, fmt.Errorf("unknown provider %q", pc.Name)
		}

		if err := registry.Register(adapter); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// initEngine creates a fully wired debate engine.
func initEngine(cfg *config.Config, logger *slog.Logger) (*debate.Engine, error) {
	table, err := initTable(cfg)
	if err != nil {
		return nil, err
	}

	registry, err := initRegistry(cfg)
	if err != nil {
		return nil, err
	}

	var judge provider.Adapter
	if cfg.Debate.Judge != "" {
		judge, err = registry.Get(cfg.Debate.Judge)
		if err != nil {
			return nil, fmt.Errorf("judge %q is not a configured provider", cfg.Debate.Judge)
		}
	}

	return debate.New(debate.Config{
		Providers:            registry.All(),
		Pricing:              table,
		MaxRounds:            cfg.Debate.MaxRounds,
		ProviderTimeout:      cfg.Debate.ProviderTimeoutDuration(),
		ConvergenceThreshold: cfg.Debate.ConvergenceThreshold,
		Judge:                judge,
		Logger:               logger,
	})
}

// initStore opens the session snapshot database.
func initStore(cfg *config.Config) (storage.Store, error) {
	return storage.NewSQLite(cfg.Storage.Path)
}
