package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables that override secrets from config.yml.
const (
	EnvWebhookURL    = "RSSNOTIFY_WEBHOOK_URL"
	EnvProxyPassword = "RSSNOTIFY_PROXY_PASSWORD"
)

// EnvConfig holds secrets read from the environment.
type EnvConfig struct {
	WebhookURL    string
	ProxyPassword string
}

// LoadEnvConfig loads the optional dotenv files and then reads the
// environment. Missing dotenv files are not an error.
func LoadEnvConfig(dotenvFiles ...string) (*EnvConfig, error) {
	for _, name := range dotenvFiles {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
	}

	return &EnvConfig{
		WebhookURL:    os.Getenv(EnvWebhookURL),
		ProxyPassword: os.Getenv(EnvProxyPassword),
	}, nil
}

// Apply overrides values of cfg with the non-empty environment values.
func (e *EnvConfig) Apply(cfg Root) Root {
	if e == nil {
		return cfg
	}
	if e.WebhookURL != "" {
		cfg.WebhookURL = e.WebhookURL
	}
	if e.ProxyPassword != "" {
		cfg.Proxy.Password = e.ProxyPassword
	}
	return cfg
}
