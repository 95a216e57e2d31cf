package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Config holds everything the server needs at startup. Values come from an
// optional YAML file, with environment variables taking precedence so that
// deploys can override a checked-in config without editing it.
type Config struct {
	Port        string `yaml:"port"`
	DatabaseURL string `yaml:"database_url"`

	Storage struct {
		Endpoint       string `yaml:"endpoint"`
		PublicEndpoint string `yaml:"public_endpoint"`
		Bucket         string `yaml:"bucket"`
		AccessKeyID    string `yaml:"access_key_id"`
		SecretKey      string `yaml:"secret_key"`
	} `yaml:"storage"`

	Identity struct {
		Endpoint string `yaml:"endpoint"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"identity"`

	RedisAddr string `yaml:"redis_addr"`

	// SessionCookieName is the cookie the edge guard checks for presence
	// on protected path prefixes. Presence only; it is never verified here.
	SessionCookieName string   `yaml:"session_cookie_name"`
	ProtectedPrefixes []string `yaml:"protected_prefixes"`
}

// Load reads the YAML file at path (if it exists) and applies environment
// overrides. A missing file is not an error; env-only deployments are fine.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Port = "5050"
	cfg.SessionCookieName = "__session"
	cfg.ProtectedPrefixes = []string{"/publish", "/book", "/profile"}

	if raw, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	overrideEnv(&cfg.Port, "PORT")
	overrideEnv(&cfg.DatabaseURL, "DATABASE_URL")
	overrideEnv(&cfg.Storage.Endpoint, "R2_ENDPOINT")
	overrideEnv(&cfg.Storage.PublicEndpoint, "R2_PUBLIC_ENDPOINT")
	overrideEnv(&cfg.Storage.Bucket, "R2_BUCKET")
	overrideEnv(&cfg.Storage.AccessKeyID, "R2_ACCESS_KEY_ID")
	overrideEnv(&cfg.Storage.SecretKey, "R2_SECRET_ACCESS_KEY")
	overrideEnv(&cfg.Identity.Endpoint, "IDENTITY_ENDPOINT")
	overrideEnv(&cfg.Identity.APIKey, "IDENTITY_API_KEY")
	overrideEnv(&cfg.RedisAddr, "REDIS_ADDR")

	return cfg, nil
}

func overrideEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
