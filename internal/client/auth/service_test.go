package auth

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newscoin/newscoin/internal/client/api"
	"github.com/newscoin/newscoin/internal/client/session"
	"github.com/newscoin/newscoin/internal/client/storage"
	pkgapi "github.com/newscoin/newscoin/pkg/api"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type testEnv struct {
	service *Service
	store   *session.Store
	backend *storage.Memory
	server  *httptest.Server
}

func newTestEnv(t *testing.T, handler http.Handler) *testEnv {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	backend := storage.NewMemory()
	store := session.NewStore(backend, discardLogger())
	client := api.NewClient(server.URL, store, api.WithLogger(discardLogger()))

	return &testEnv{
		service: NewService(client, store, discardLogger()),
		store:   store,
		backend: backend,
		server:  server,
	}
}

func loginOK() pkgapi.Envelope[pkgapi.LoginData] {
	return pkgapi.Envelope[pkgapi.LoginData]{
		Success: true,
		Data: pkgapi.LoginData{
			Tokens: pkgapi.TokenPair{AccessToken: "A1", RefreshToken: "R1"},
			User:   pkgapi.User{ID: "u1", Email: "reader@example.com", FullName: "A", ReferralCode: "ABCD1234"},
			Wallet: pkgapi.Wallet{AvailableCoins: 150, TotalEarned: 150},
		},
	}
}

func TestService_Login_Success(t *testing.T) {
	ctx := context.Background()

	var gotEmail string
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req pkgapi.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotEmail = req.Email
		writeJSON(w, http.StatusOK, loginOK())
	}))

	result := env.service.Login(ctx, "  Reader@Example.COM ", "secret1")
	assert.True(t, result.Success)
	assert.Equal(t, "reader@example.com", gotEmail)
	assert.Equal(t, "reader@example.com", result.Email)

	current := env.store.Current()
	require.True(t, current.Authenticated())
	assert.Equal(t, "A1", current.AccessToken)
	assert.Equal(t, "R1", current.RefreshToken)
	assert.Equal(t, "A", current.User.Name)
	assert.EqualValues(t, 150, current.User.Wallet.AvailableCoins)

	// сессия переживает перезапуск
	restored := session.NewStore(env.backend, discardLogger()).Load(ctx)
	assert.Equal(t, current, restored)
}

func TestService_Login_NeedsVerification(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, pkgapi.ErrorResponse{
			Message: "Please verify your email first",
			Data:    &pkgapi.ErrorData{NeedsVerification: true},
		})
	}))

	result := env.service.Login(context.Background(), "new@example.com", "secret1")
	assert.False(t, result.Success)
	assert.True(t, result.NeedsVerification)
	assert.Equal(t, "Please verify your email first", result.Message)
	assert.Equal(t, "new@example.com", result.Email)

	assert.True(t, env.store.Current().Anonymous())
	assert.Equal(t, 0, env.backend.Len())
}

func TestService_Login_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		email   string
		wantMsg string
	}{
		{
			name: "wrong password",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusBadRequest, pkgapi.ErrorResponse{Message: "Invalid credentials"})
			},
			email:   "a@b.co",
			wantMsg: "Invalid credentials",
		},
		{
			name: "empty error body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			email:   "a@b.co",
			wantMsg: "Login failed",
		},
		{
			name: "malformed success",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{}})
			},
			email:   "a@b.co",
			wantMsg: "Login failed",
		},
		{
			name: "invalid email",
			handler: func(w http.ResponseWriter, r *http.Request) {
				t.Error("no request expected")
			},
			email:   "not-an-email",
			wantMsg: "email must be a valid email address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.handler)

			result := env.service.Login(context.Background(), tt.email, "secret1")
			assert.False(t, result.Success)
			assert.False(t, result.NeedsVerification)
			assert.Equal(t, tt.wantMsg, result.Message)
			assert.True(t, env.store.Current().Anonymous())
		})
	}
}

func TestService_Logout_ServerUnreachable(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, loginOK())
	}))

	require.True(t, env.service.Login(ctx, "reader@example.com", "secret1").Success)
	env.server.Close()

	env.service.Logout(ctx)

	assert.True(t, env.store.Current().Anonymous())
	assert.Equal(t, 0, env.backend.Len())
}

func TestService_Logout_SendsRefreshToken(t *testing.T) {
	ctx := context.Background()

	var logoutToken string
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			writeJSON(w, http.StatusOK, loginOK())
		case "/auth/logout":
			var req pkgapi.LogoutRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			logoutToken = req.RefreshToken
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
		}
	}))

	require.True(t, env.service.Login(ctx, "reader@example.com", "secret1").Success)
	env.service.Logout(ctx)

	assert.Equal(t, "R1", logoutToken)
	assert.True(t, env.store.Current().Anonymous())
}

func TestService_Logout_Anonymous(t *testing.T) {
	var calls atomic.Int32
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	env.service.Logout(context.Background())
	env.service.Logout(context.Background())

	assert.EqualValues(t, 0, calls.Load())
	assert.True(t, env.store.Current().Anonymous())
}

func TestService_Register(t *testing.T) {
	var got pkgapi.RegisterRequest
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/register", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusCreated, pkgapi.RegisterResponse{
			Success:           true,
			Message:           "Registered! Check your email.",
			SignupBonusEarned: 100,
		})
	}))

	result := env.service.Register(context.Background(), RegisterInput{
		Name:         "A",
		Email:        " A@B.co",
		Password:     "secret1",
		ReferralCode: "abcd1234",
	})

	assert.True(t, result.Success)
	assert.True(t, result.NeedsVerification)
	assert.Equal(t, "a@b.co", result.Email)
	assert.EqualValues(t, 100, result.SignupBonusEarned)
	assert.Equal(t, "Registered! Check your email.", result.Message)

	assert.Equal(t, "ABCD1234", got.ReferredByCode)
	assert.Equal(t, "A", got.FullName)
	assert.True(t, env.store.Current().Anonymous(), "registration never logs in")
}

func TestService_Register_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		input   RegisterInput
		handler http.HandlerFunc
		wantMsg string
	}{
		{
			name:  "server message",
			input: RegisterInput{Name: "A", Email: "a@b.co", Password: "secret1"},
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusConflict, pkgapi.ErrorResponse{Message: "Email already registered"})
			},
			wantMsg: "Email already registered",
		},
		{
			name:  "fallback",
			input: RegisterInput{Name: "A", Email: "a@b.co", Password: "secret1"},
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantMsg: "Registration failed",
		},
		{
			name:    "short password",
			input:   RegisterInput{Name: "A", Email: "a@b.co", Password: "12345"},
			wantMsg: "password must be at least 6 characters",
		},
		{
			name:    "missing name",
			input:   RegisterInput{Email: "a@b.co", Password: "secret1"},
			wantMsg: "fullName is required",
		},
		{
			name:    "bad referral code",
			input:   RegisterInput{Name: "A", Email: "a@b.co", Password: "secret1", ReferralCode: "ABC"},
			wantMsg: "referredByCode must be exactly 8 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := tt.handler
			if handler == nil {
				handler = func(w http.ResponseWriter, r *http.Request) {
					t.Error("no request expected")
				}
			}
			env := newTestEnv(t, handler)

			result := env.service.Register(context.Background(), tt.input)
			assert.False(t, result.Success)
			assert.False(t, result.NeedsVerification)
			assert.Equal(t, tt.wantMsg, result.Message)
		})
	}
}

func TestService_ResendVerification(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "OTP sent"})
		}))

		result := env.service.ResendVerification(context.Background(), "a@b.co")
		assert.True(t, result.Success)
		assert.Equal(t, "OTP sent", result.Message)
	})

	t.Run("fallback message", func(t *testing.T) {
		env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))

		result := env.service.ResendVerification(context.Background(), "a@b.co")
		assert.False(t, result.Success)
		assert.Equal(t, "Failed to resend email", result.Message)
	})
}

func TestService_VerifyEmail(t *testing.T) {
	var got pkgapi.VerifyEmailRequest
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		if got.OTP != "123456" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}))

	result := env.service.VerifyEmail(context.Background(), "A@B.co", "123456")
	assert.True(t, result.Success)
	assert.Equal(t, "Email verified successfully", result.Message)
	assert.Equal(t, "a@b.co", got.Email)

	result = env.service.VerifyEmail(context.Background(), "a@b.co", "654321")
	assert.False(t, result.Success)
	assert.Equal(t, "Invalid OTP. Please try again.", result.Message)

	result = env.service.VerifyEmail(context.Background(), "a@b.co", "12a456")
	assert.False(t, result.Success)
	assert.Equal(t, "otp must contain only digits", result.Message)
}

func TestService_LoginWithGoogle(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/google", r.URL.Path)
		var req pkgapi.GoogleLoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.IDToken != "google-id-token" {
			writeJSON(w, http.StatusUnauthorized, pkgapi.ErrorResponse{Message: "Invalid Google token"})
			return
		}
		writeJSON(w, http.StatusOK, loginOK())
	}))

	result := env.service.LoginWithGoogle(context.Background(), "google-id-token")
	assert.True(t, result.Success)
	assert.Equal(t, "reader@example.com", result.Email)
	assert.True(t, env.store.Current().Authenticated())
}

func TestService_LoginWrongPasswordKeepsSession(t *testing.T) {
	ctx := context.Background()
	var refreshes int
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh-token" {
			refreshes++
			writeJSON(w, http.StatusOK, pkgapi.Envelope[pkgapi.RefreshTokenData]{
				Success: true,
				Data:    pkgapi.RefreshTokenData{AccessToken: "A2"},
			})
			return
		}
		var req pkgapi.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret1" {
			writeJSON(w, http.StatusUnauthorized, pkgapi.ErrorResponse{Message: "Invalid email or password"})
			return
		}
		writeJSON(w, http.StatusOK, loginOK())
	}))
	require.True(t, env.service.Login(ctx, "reader@example.com", "secret1").Success)

	result := env.service.Login(ctx, "reader@example.com", "secret2")
	assert.False(t, result.Success)
	assert.Equal(t, "Invalid email or password", result.Message)
	assert.Zero(t, refreshes)
	assert.True(t, env.store.Current().Authenticated())
	assert.Equal(t, "A1", env.store.AccessToken())
}

func TestService_Initialize(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, loginOK())
	}))
	require.True(t, env.service.Login(ctx, "reader@example.com", "secret1").Success)

	// новый процесс с тем же хранилищем
	store := session.NewStore(env.backend, discardLogger())
	service := NewService(api.NewClient(env.server.URL, store), store, discardLogger())
	assert.False(t, service.Initialized())

	sess := service.Initialize(ctx)
	assert.True(t, service.Initialized())
	assert.True(t, sess.Authenticated())
	assert.Equal(t, "A1", store.AccessToken())
}

func TestService_RefreshProfile(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			writeJSON(w, http.StatusOK, loginOK())
		case "/user/profile":
			writeJSON(w, http.StatusOK, pkgapi.Envelope[pkgapi.ProfileData]{
				Success: true,
				Data: pkgapi.ProfileData{
					User:     pkgapi.User{ID: "u1", Email: "reader@example.com", Name: "Reader"},
					Referral: pkgapi.Referral{MyReferralCode: "ZZZZ9999"},
					Wallet:   pkgapi.Wallet{AvailableCoins: 160, TotalEarned: 160},
				},
			})
		}
	}))
	require.True(t, env.service.Login(ctx, "reader@example.com", "secret1").Success)

	data, err := env.service.RefreshProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ZZZZ9999", data.Referral.MyReferralCode)

	user := env.store.Current().User
	require.NotNil(t, user)
	assert.Equal(t, "Reader", user.Name)
	assert.Equal(t, "ZZZZ9999", user.ReferralCode)
	assert.EqualValues(t, 160, user.Wallet.AvailableCoins)
}
