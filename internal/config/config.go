// Package config reads the service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/tckz/tempo-downloads/internal/store"
)

const DefaultAdminSecret = "tempo-admin-secret"

type Config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"redis"`
	KVURL        string `env:"KV_URL"`
	KVToken      string `env:"KV_TOKEN"`

	DatastoreProjectID       string `env:"DATASTORE_PROJECT_ID"`
	DatastoreCredentialsFile string `env:"DATASTORE_CREDENTIALS_FILE"`
	DatastoreNamespace       string `env:"DATASTORE_NAMESPACE"`

	CounterKey   string        `env:"COUNTER_KEY" envDefault:"tempo_downloads_real"`
	LaunchEpoch  time.Time     `env:"LAUNCH_EPOCH" envDefault:"2026-01-07T08:00:00Z"`
	AdminSecret  string        `env:"ADMIN_SECRET" envDefault:"tempo-admin-secret"`
	TrackTimeout time.Duration `env:"TRACK_TIMEOUT" envDefault:"2s"`
}

// Load parses the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses vars instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	// An empty secret would let an empty request secret through.
	if cfg.AdminSecret == "" {
		cfg.AdminSecret = DefaultAdminSecret
	}
	return cfg, nil
}

func (c Config) Store() store.Config {
	return store.Config{
		Backend:         store.Backend(c.StoreBackend),
		URL:             c.KVURL,
		Token:           c.KVToken,
		ProjectID:       c.DatastoreProjectID,
		CredentialsFile: c.DatastoreCredentialsFile,
		Namespace:       c.DatastoreNamespace,
	}
}
