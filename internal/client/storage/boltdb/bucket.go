package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/newscoin/newscoin/internal/client/storage"
)

// Bucket is a KeyValueStorage view over a single BoltDB bucket
type Bucket struct {
	db   *bbolt.DB
	name []byte
}

// Get retrieves the value stored under key
func (b *Bucket) Get(ctx context.Context, key string) (string, error) {
	var value string

	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.name)
		if bucket == nil {
			return fmt.Errorf("%s bucket not found", b.name)
		}

		data := bucket.Get([]byte(key))
		if data == nil {
			return storage.ErrKeyNotFound
		}
		// data валиден только внутри транзакции, string() копирует
		value = string(data)
		return nil
	})
	if err != nil {
		return "", err
	}

	return value, nil
}

// Set stores value under key in its own transaction
func (b *Bucket) Set(ctx context.Context, key, value string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.name)
		if bucket == nil {
			return fmt.Errorf("%s bucket not found", b.name)
		}

		if err := bucket.Put([]byte(key), []byte(value)); err != nil {
			return fmt.Errorf("failed to save %q: %w", key, err)
		}
		return nil
	})
}

// Delete removes keys; absent keys are ignored so logout stays idempotent
func (b *Bucket) Delete(ctx context.Context, keys ...string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.name)
		if bucket == nil {
			return fmt.Errorf("%s bucket not found", b.name)
		}

		for _, key := range keys {
			if err := bucket.Delete([]byte(key)); err != nil {
				return fmt.Errorf("failed to delete %q: %w", key, err)
			}
		}
		return nil
	})
}
