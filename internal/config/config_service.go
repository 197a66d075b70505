package config

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// ConfigService holds dependencies and provides config operations.
type ConfigService struct {
	Logger *slog.Logger
	Client *http.Client
}

// NewConfigService creates a new ConfigService instance with the provided logger and HTTP client.
func NewConfigService(logger *slog.Logger, client *http.Client) *ConfigService {
	return &ConfigService{
		Logger: logger,
		Client: client,
	}
}

// Source describes where the configuration is read from. With neither
// File nor URL set, Load returns the defaults.
type Source struct {
	File     string
	URL      string
	AuthUser string
	AuthPass string
}

// Load resolves the configuration from src and applies environment
// overrides. Callers validate after applying their own flag overrides.
func (cs *ConfigService) Load(ctx context.Context, src Source) (*Config, error) {
	var (
		cfg *Config
		err error
	)

	switch {
	case src.File != "":
		cfg, err = loadConfigFromFile(src.File)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", src.File, err)
		}
		cs.Logger.Info("Loaded configuration from file", "path", src.File)
	case src.URL != "":
		cfg, err = loadConfigFromURL(ctx, cs.Client, src.URL, src.AuthUser, src.AuthPass, Default().Retry.Attempts-1)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from URL %s: %w", src.URL, err)
		}
		cs.Logger.Info("Loaded configuration from URL", "url", src.URL)
	default:
		cfg = Default()
	}

	cfg.ApplyEnv()
	return cfg, nil
}
