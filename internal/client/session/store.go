package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/newscoin/newscoin/internal/client/storage"
)

// Store is the single source of truth for session data. Reads are served
// from memory; every mutation is written through to the KeyValueStorage.
// Storage failures are logged and never returned: the in-memory state stays
// authoritative for the running process.
type Store struct {
	storage     storage.KeyValueStorage
	logger      *slog.Logger
	subscribers map[int]func(Session)
	current     Session
	nextSubID   int
	mu          sync.RWMutex
	subMu       sync.Mutex
}

// NewStore creates an anonymous store backed by st
func NewStore(st storage.KeyValueStorage, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		storage:     st,
		logger:      logger,
		subscribers: make(map[int]func(Session)),
	}
}

// Load reads the persisted session into memory and returns it.
// Missing or corrupt state degrades to an anonymous session.
func (s *Store) Load(ctx context.Context) Session {
	loaded := s.read(ctx)

	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()

	s.notify()
	return loaded.clone()
}

func (s *Store) read(ctx context.Context) Session {
	values := make(map[string]string, len(storage.SessionKeys))
	for _, key := range storage.SessionKeys {
		v, err := s.storage.Get(ctx, key)
		if err != nil {
			if !errors.Is(err, storage.ErrKeyNotFound) {
				s.logger.WarnContext(ctx, "failed to read session key", slog.String("key", key), slog.Any("error", err))
			}
			return Session{}
		}
		if v == "" {
			return Session{}
		}
		values[key] = v
	}

	var user User
	if err := json.Unmarshal([]byte(values[storage.KeyUser]), &user); err != nil {
		s.logger.WarnContext(ctx, "stored user is corrupt, starting anonymous", slog.Any("error", err))
		return Session{}
	}

	return Session{
		AccessToken:  values[storage.KeyAccessToken],
		RefreshToken: values[storage.KeyRefreshToken],
		User:         &user,
	}
}

// Save replaces the session in memory and persists the three keys.
// Only a session violating the both-or-nothing invariant is rejected.
func (s *Store) Save(ctx context.Context, sess Session) error {
	if !sess.Authenticated() {
		return ErrIncompleteSession
	}
	sess = sess.clone()

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()

	s.put(ctx, storage.KeyAccessToken, sess.AccessToken)
	s.put(ctx, storage.KeyRefreshToken, sess.RefreshToken)
	s.putUser(ctx, *sess.User)

	s.notify()
	return nil
}

// UpdateUser merges upd into the current user and persists the result.
// Returns false when there is no user to update.
func (s *Store) UpdateUser(ctx context.Context, upd UserUpdate) (User, bool) {
	s.mu.Lock()
	if s.current.User == nil {
		s.mu.Unlock()
		return User{}, false
	}
	merged := upd.apply(*s.current.User)
	s.current.User = &merged
	s.mu.Unlock()

	s.putUser(ctx, merged)
	s.notify()
	return merged, true
}

// SetAccessToken replaces the access token after a refresh. Refresh token
// and user are kept. Returns false if the session was cleared meanwhile,
// so a late refresh never resurrects a logged out session.
func (s *Store) SetAccessToken(ctx context.Context, token string) bool {
	s.mu.Lock()
	if s.current.RefreshToken == "" || s.current.User == nil {
		s.mu.Unlock()
		return false
	}
	s.current.AccessToken = token
	s.mu.Unlock()

	s.put(ctx, storage.KeyAccessToken, token)
	s.notify()
	return true
}

// Clear resets the session to anonymous and deletes the persisted keys.
// Safe to call on an anonymous store.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	wasAnonymous := s.current.Anonymous()
	s.current = Session{}
	s.mu.Unlock()

	if err := s.storage.Delete(ctx, storage.SessionKeys...); err != nil {
		s.logger.WarnContext(ctx, "failed to delete persisted session", slog.Any("error", err))
	}

	if !wasAnonymous {
		s.notify()
	}
}

// Current returns a copy of the in-memory session
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.clone()
}

// AccessToken returns the in-memory access token, empty when anonymous
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.AccessToken
}

// RefreshToken returns the in-memory refresh token, empty when anonymous
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.RefreshToken
}

// Subscribe registers fn to be called with a copy of the session after
// every change. The returned function removes the subscription.
func (s *Store) Subscribe(fn func(Session)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subscribers, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	fns := make([]func(Session), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	if len(fns) == 0 {
		return
	}
	snapshot := s.Current()
	for _, fn := range fns {
		fn(snapshot.clone())
	}
}

func (s *Store) put(ctx context.Context, key, value string) {
	if err := s.storage.Set(ctx, key, value); err != nil {
		s.logger.WarnContext(ctx, "failed to persist session key", slog.String("key", key), slog.Any("error", err))
	}
}

func (s *Store) putUser(ctx context.Context, user User) {
	data, err := json.Marshal(user)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to marshal user", slog.Any("error", err))
		return
	}
	s.put(ctx, storage.KeyUser, string(data))
}
