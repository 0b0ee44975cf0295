package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultConfigPath = ".fleetspeed.yaml"

// config holds all runtime settings. Precedence, lowest to highest:
// built-in defaults, the YAML config file, environment variables, flags.
type config struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Token        string `yaml:"token"`

	TokenURL  string `yaml:"token_url"`
	StreamURL string `yaml:"stream_url"`

	ContinueOnReadError bool          `yaml:"continue_on_read_error"`
	BatchInterval       time.Duration `yaml:"batch_interval"`
	ReconnectDelay      time.Duration `yaml:"reconnect_delay"`

	TopN   int `yaml:"top_n"`
	Window int `yaml:"window"`

	StorePath string        `yaml:"store_path"`
	Retention time.Duration `yaml:"retention"`
}

func defaultConfig() config {
	return config{
		BatchInterval: time.Second,
		TopN:          10,
		Window:        10,
		Retention:     24 * time.Hour,
	}
}

// loadConfig builds the effective config. Env var values are passed in as
// parameters — env is only read in main(). A missing file is tolerated for
// the default path and an error for an explicitly requested one.
func loadConfig(path string, clientIDEnv, clientSecretEnv, tokenEnv string) (config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && path == defaultConfigPath:
		// Optional default config file; continue with defaults.
	default:
		return config{}, fmt.Errorf("read config: %w", err)
	}

	if clientIDEnv != "" {
		cfg.ClientID = clientIDEnv
	}
	if clientSecretEnv != "" {
		cfg.ClientSecret = clientSecretEnv
	}
	if tokenEnv != "" {
		cfg.Token = tokenEnv
	}
	return cfg, nil
}
