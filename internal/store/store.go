// Package store holds the single persisted download counter.
//
// Backends report failures as errors. Deciding what a failure means for the
// caller is left to the counter service.
package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("store: key not found")
	ErrNotConfigured = errors.New("store: not configured")
)

type Store interface {
	Get(ctx context.Context, key string) (int64, error)
	Set(ctx context.Context, key string, v int64) error
	// Incr atomically adds one to key, treating an absent key as zero.
	Incr(ctx context.Context, key string) (int64, error)
	Close() error
}

type Backend string

const (
	BackendRedis     Backend = "redis"
	BackendDatastore Backend = "datastore"
	BackendMemory    Backend = "memory"
)

type Config struct {
	Backend Backend

	// redis
	URL   string
	Token string

	// datastore
	ProjectID       string
	CredentialsFile string
	Namespace       string
}

// HasLocation reports whether the selected backend knows where to connect.
func (c Config) HasLocation() bool {
	switch c.Backend {
	case BackendRedis:
		return c.URL != ""
	case BackendDatastore:
		return c.ProjectID != ""
	case BackendMemory:
		return true
	}
	return false
}

// HasCredential reports whether the selected backend has a credential.
func (c Config) HasCredential() bool {
	switch c.Backend {
	case BackendRedis:
		return c.Token != ""
	case BackendDatastore:
		return c.CredentialsFile != ""
	case BackendMemory:
		return true
	}
	return false
}

func (c Config) Configured() bool {
	return c.HasLocation() && c.HasCredential()
}

// Open builds the backend selected by cfg. An incomplete configuration is not
// an error: it yields Disabled.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if !cfg.Configured() {
		return Disabled{}, nil
	}

	switch cfg.Backend {
	case BackendRedis:
		return NewRedis(cfg.URL, cfg.Token)
	case BackendDatastore:
		return NewDatastore(ctx, cfg.ProjectID, cfg.CredentialsFile, cfg.Namespace)
	case BackendMemory:
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown backend: %s", cfg.Backend)
}

var _ Store = Disabled{}

// Disabled is the store of a process without store configuration.
type Disabled struct{}

func (Disabled) Get(context.Context, string) (int64, error) {
	return 0, ErrNotConfigured
}

func (Disabled) Set(context.Context, string, int64) error {
	return ErrNotConfigured
}

func (Disabled) Incr(context.Context, string) (int64, error) {
	return 0, ErrNotConfigured
}

func (Disabled) Close() error {
	return nil
}
