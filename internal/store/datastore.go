package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/datastore"
	"google.golang.org/api/option"
)

const datastoreKind = "Counter"

var _ Store = (*Datastore)(nil)

type counterEntity struct {
	Value     int64
	UpdatedAt time.Time `datastore:",noindex"`
}

// Datastore keeps each counter as one entity of kind Counter named by key.
type Datastore struct {
	client    *datastore.Client
	namespace string
}

func NewDatastore(ctx context.Context, projectID, credentialsFile, namespace string) (*Datastore, error) {
	cl, err := datastore.NewClient(ctx, projectID, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("datastore.NewClient: %w", err)
	}
	return &Datastore{client: cl, namespace: namespace}, nil
}

func (c *Datastore) key(name string) *datastore.Key {
	key := datastore.NameKey(datastoreKind, name, nil)
	key.Namespace = c.namespace
	return key
}

func (c *Datastore) Get(ctx context.Context, key string) (int64, error) {
	var rec counterEntity
	err := c.client.Get(ctx, c.key(key), &rec)
	if errors.Is(err, datastore.ErrNoSuchEntity) {
		return 0, ErrNotFound
	} else if err != nil {
		return 0, fmt.Errorf("datastore Get %s: %w", key, err)
	}
	return rec.Value, nil
}

func (c *Datastore) Set(ctx context.Context, key string, v int64) error {
	rec := counterEntity{Value: v, UpdatedAt: time.Now().UTC()}
	if _, err := c.client.Put(ctx, c.key(key), &rec); err != nil {
		return fmt.Errorf("datastore Put %s: %w", key, err)
	}
	return nil
}

func (c *Datastore) Incr(ctx context.Context, key string) (int64, error) {
	k := c.key(key)
	var n int64
	// The transaction func may run more than once on contention.
	_, err := c.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var rec counterEntity
		if err := tx.Get(k, &rec); err != nil && !errors.Is(err, datastore.ErrNoSuchEntity) {
			return err
		}
		rec.Value++
		rec.UpdatedAt = time.Now().UTC()
		n = rec.Value
		_, err := tx.Put(k, &rec)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("datastore RunInTransaction %s: %w", key, err)
	}
	return n, nil
}

func (c *Datastore) Close() error {
	return c.client.Close()
}
