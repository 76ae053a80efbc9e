package auth

import (
	"context"

	"github.com/newscoin/newscoin/internal/client/session"
	pkgapi "github.com/newscoin/newscoin/pkg/api"
)

// API is the part of the backend client used by the service.
// *api.Client implements it.
type API interface {
	Register(ctx context.Context, req pkgapi.RegisterRequest) (*pkgapi.RegisterResponse, error)
	Login(ctx context.Context, req pkgapi.LoginRequest) (*pkgapi.LoginData, error)
	LoginWithGoogle(ctx context.Context, req pkgapi.GoogleLoginRequest) (*pkgapi.LoginData, error)
	Logout(ctx context.Context, refreshToken string) error
	ResendVerification(ctx context.Context, email string) (string, error)
	VerifyEmail(ctx context.Context, req pkgapi.VerifyEmailRequest) (string, error)
	Profile(ctx context.Context) (*pkgapi.ProfileData, error)
}

// SessionStore is the credential store as seen by the service.
// *session.Store implements it.
type SessionStore interface {
	Load(ctx context.Context) session.Session
	Save(ctx context.Context, sess session.Session) error
	UpdateUser(ctx context.Context, upd session.UserUpdate) (session.User, bool)
	Clear(ctx context.Context)
	RefreshToken() string
}
