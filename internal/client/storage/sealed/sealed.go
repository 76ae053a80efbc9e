// Package sealed encrypts credential values before they reach durable storage.
package sealed

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/newscoin/newscoin/internal/client/storage"
	"github.com/newscoin/newscoin/internal/crypto"
)

// metaSaltKey хранит base64 соль для деривации ключа
const metaSaltKey = "storageSalt"

// Storage wraps a KeyValueStorage and seals every value with AES-256-GCM.
// Keys are stored in clear text and bound to their value as additional
// data, so a ciphertext moved under another key fails to open.
type Storage struct {
	inner storage.KeyValueStorage
	key   []byte
}

var _ storage.KeyValueStorage = (*Storage)(nil)

// New derives the storage key from passphrase and the salt kept in meta,
// creating the salt on first use.
func New(ctx context.Context, inner, meta storage.KeyValueStorage, passphrase string) (*Storage, error) {
	salt, err := loadOrCreateSalt(ctx, meta)
	if err != nil {
		return nil, err
	}

	key, err := crypto.DeriveStorageKey(passphrase, salt)
	if err != nil {
		return nil, fmt.Errorf("failed to derive storage key: %w", err)
	}

	return &Storage{inner: inner, key: key}, nil
}

// Get returns the decrypted value stored under key
func (s *Storage) Get(ctx context.Context, key string) (string, error) {
	sealed, err := s.inner.Get(ctx, key)
	if err != nil {
		return "", err
	}

	value, err := crypto.DecryptFromBase64(sealed, s.key, []byte(key))
	if err != nil {
		return "", fmt.Errorf("failed to open %q: %w", key, err)
	}
	return value, nil
}

// Set encrypts value and stores it under key
func (s *Storage) Set(ctx context.Context, key, value string) error {
	sealed, err := crypto.EncryptToBase64(value, s.key, []byte(key))
	if err != nil {
		return fmt.Errorf("failed to seal %q: %w", key, err)
	}
	return s.inner.Set(ctx, key, sealed)
}

// Delete removes keys from the underlying storage
func (s *Storage) Delete(ctx context.Context, keys ...string) error {
	return s.inner.Delete(ctx, keys...)
}

func loadOrCreateSalt(ctx context.Context, meta storage.KeyValueStorage) ([]byte, error) {
	encoded, err := meta.Get(ctx, metaSaltKey)
	switch {
	case err == nil:
		salt, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("failed to decode storage salt: %w", err)
		}
		return salt, nil
	case errors.Is(err, storage.ErrKeyNotFound):
		salt, err := crypto.GenerateSalt()
		if err != nil {
			return nil, err
		}
		if err := meta.Set(ctx, metaSaltKey, base64.StdEncoding.EncodeToString(salt)); err != nil {
			return nil, fmt.Errorf("failed to save storage salt: %w", err)
		}
		return salt, nil
	default:
		return nil, fmt.Errorf("failed to read storage salt: %w", err)
	}
}
