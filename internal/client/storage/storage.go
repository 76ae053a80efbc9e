package storage

import (
	"context"
)

// Persisted session keys
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
)

// SessionKeys lists every key owned by the credential store
var SessionKeys = []string{KeyAccessToken, KeyRefreshToken, KeyUser}

// KeyValueStorage defines the durable string-keyed, string-valued storage
// used on the client to persist the session. Every key is written
// independently; implementations do not interpret values.
type KeyValueStorage interface {
	// Get returns the value stored under key
	// Returns ErrKeyNotFound if nothing is stored
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key, value string) error

	// Delete removes keys; missing keys are not an error
	Delete(ctx context.Context, keys ...string) error
}
