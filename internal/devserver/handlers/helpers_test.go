package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/newscoin/newscoin/internal/config"
	"github.com/newscoin/newscoin/internal/devserver/storage/sqlite"
	"github.com/newscoin/newscoin/internal/devserver/token"
	"github.com/newscoin/newscoin/internal/models"
	"github.com/newscoin/newscoin/pkg/api"
)

const testPassword = "secret123"

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testEnv собирает handlers поверх настоящей sqlite базы
type testEnv struct {
	now     time.Time
	store   *sqlite.Storage
	issuer  *token.Issuer
	auth    *AuthHandler
	news    *NewsHandler
	user    *UserHandler
	rewards config.Rewards
}

func newTestEnv(t *testing.T, opts ...func(*config.Rewards)) *testEnv {
	t.Helper()

	store, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	env := &testEnv{
		now:     time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC),
		store:   store,
		rewards: config.DefaultDevServer().Rewards,
	}
	for _, opt := range opts {
		opt(&env.rewards)
	}

	clock := func() time.Time { return env.now }
	env.issuer = token.NewIssuer("handlers-test-secret", 15*time.Minute, 24*time.Hour, token.WithClock(clock))

	logger := setupTestLogger()
	env.auth = NewAuthHandler(logger, store, store, env.issuer, AuthConfig{
		SignupBonus: env.rewards.SignupBonus,
		BcryptCost:  bcrypt.MinCost,
	})
	env.news = NewNewsHandler(logger, store, store, store, env.rewards, clock)
	env.user = NewUserHandler(logger, store, store, clock)
	return env
}

// createUser stores a verified user with the test password
func (e *testEnv) createUser(t *testing.T, email string, coins int64) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	code, err := generateReferralCode()
	require.NoError(t, err)

	user := &models.User{
		ID:             "id-" + email,
		Email:          email,
		FullName:       "Test User",
		PasswordHash:   string(hash),
		ReferralCode:   code,
		IsVerified:     true,
		AvailableCoins: coins,
		TotalEarned:    coins,
		CreatedAt:      e.now,
	}
	require.NoError(t, e.store.CreateUser(context.Background(), user))
	return user
}

func (e *testEnv) getUser(t *testing.T, email string) *models.User {
	t.Helper()
	user, err := e.store.GetUserByEmail(context.Background(), email)
	require.NoError(t, err)
	return user
}

// newRequest builds a JSON request, body may be a string with raw JSON
func newRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	var reader io.Reader = http.NoBody
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// asUser marks the request authenticated as userID
func asUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(WithUserID(req.Context(), userID))
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func decodeEnvelope[T any](t *testing.T, w *httptest.ResponseRecorder) api.Envelope[T] {
	t.Helper()
	var env api.Envelope[T]
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	return env
}

func jsonDecode(w *httptest.ResponseRecorder, v any) error {
	return json.NewDecoder(w.Body).Decode(v)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var resp api.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}
