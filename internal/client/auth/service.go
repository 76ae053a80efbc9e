// Package auth implements the session operations: registration, email
// verification, login, logout and startup restore. Operations report
// failures in their result values and never return Go errors.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/newscoin/newscoin/internal/client/api"
	"github.com/newscoin/newscoin/internal/client/session"
	"github.com/newscoin/newscoin/internal/validation"
	pkgapi "github.com/newscoin/newscoin/pkg/api"
)

// Сообщения по умолчанию, если сервер не прислал свое
const (
	msgRegisterFailed = "Registration failed"
	msgLoginFailed    = "Login failed"
	msgResendFailed   = "Failed to resend email"
	msgVerifyFailed   = "Invalid OTP. Please try again."

	msgRegistered = "Registration successful. Please verify your email."
	msgLoggedIn   = "Login successful"
	msgResent     = "Verification email sent"
	msgVerified   = "Email verified successfully"
)

// Result is the outcome of an operation without extra data
type Result struct {
	Message string
	Success bool
}

// RegisterResult содержит результат регистрации
type RegisterResult struct {
	Message           string
	Email             string // нормализованный email для экрана подтверждения
	SignupBonusEarned int64
	Success           bool
	NeedsVerification bool
}

// LoginResult содержит результат авторизации
type LoginResult struct {
	Message           string
	Email             string
	Success           bool
	NeedsVerification bool
}

// RegisterInput is the sign-up form
type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	ReferralCode string // optional
}

// Service предоставляет функции авторизации
type Service struct {
	api         API
	store       SessionStore
	logger      *slog.Logger
	initialized atomic.Bool
}

// NewService создает новый сервис авторизации
func NewService(apiClient API, store SessionStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		api:    apiClient,
		store:  store,
		logger: logger,
	}
}

// Initialize restores the persisted session. It never fails: unreadable
// state yields an anonymous session.
func (s *Service) Initialize(ctx context.Context) session.Session {
	sess := s.store.Load(ctx)
	s.initialized.Store(true)
	return sess
}

// Initialized reports whether Initialize has completed
func (s *Service) Initialized() bool {
	return s.initialized.Load()
}

// Register creates an account. It never establishes a session: the user
// has to verify the email and log in afterwards.
func (s *Service) Register(ctx context.Context, in RegisterInput) RegisterResult {
	req := pkgapi.RegisterRequest{
		FullName:       in.Name,
		Email:          validation.NormalizeEmail(in.Email),
		Password:       in.Password,
		ReferredByCode: validation.NormalizeReferralCode(in.ReferralCode),
	}
	if err := validation.Struct(req); err != nil {
		return RegisterResult{Message: err.Error(), Email: req.Email}
	}

	resp, err := s.api.Register(ctx, req)
	if err != nil {
		s.logger.DebugContext(ctx, "registration rejected", slog.Any("error", err))
		return RegisterResult{Message: api.MessageOr(err, msgRegisterFailed), Email: req.Email}
	}

	msg := resp.Message
	if msg == "" {
		msg = msgRegistered
	}
	return RegisterResult{
		Success:           true,
		Message:           msg,
		Email:             req.Email,
		NeedsVerification: true,
		SignupBonusEarned: resp.SignupBonusEarned,
	}
}

// Login выполняет аутентификацию по email и паролю и сохраняет сессию
func (s *Service) Login(ctx context.Context, email, password string) LoginResult {
	req := pkgapi.LoginRequest{
		Email:    validation.NormalizeEmail(email),
		Password: password,
	}
	if err := validation.Struct(req); err != nil {
		return LoginResult{Message: err.Error(), Email: req.Email}
	}

	data, err := s.api.Login(ctx, req)
	return s.completeLogin(ctx, req.Email, data, err)
}

// LoginWithGoogle exchanges a verified Google ID token for a session
func (s *Service) LoginWithGoogle(ctx context.Context, idToken string) LoginResult {
	req := pkgapi.GoogleLoginRequest{IDToken: idToken}
	if err := validation.Struct(req); err != nil {
		return LoginResult{Message: err.Error()}
	}

	data, err := s.api.LoginWithGoogle(ctx, req)
	email := ""
	if data != nil {
		email = data.User.Email
	}
	return s.completeLogin(ctx, email, data, err)
}

func (s *Service) completeLogin(ctx context.Context, email string, data *pkgapi.LoginData, err error) LoginResult {
	if err != nil {
		s.logger.DebugContext(ctx, "login rejected", slog.Any("error", err))

		result := LoginResult{
			Message: api.MessageOr(err, msgLoginFailed),
			Email:   email,
		}
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			result.NeedsVerification = apiErr.NeedsVerification
		}
		return result
	}

	if err := s.store.Save(ctx, sessionFromLogin(data)); err != nil {
		s.logger.WarnContext(ctx, "login response produced an incomplete session", slog.Any("error", err))
		return LoginResult{Message: msgLoginFailed, Email: email}
	}

	return LoginResult{Success: true, Message: msgLoggedIn, Email: email}
}

// Logout clears the local session first and then notifies the server.
// Server errors are logged and ignored.
func (s *Service) Logout(ctx context.Context) {
	refreshToken := s.store.RefreshToken()
	s.store.Clear(ctx)

	if refreshToken == "" {
		return
	}
	if err := s.api.Logout(ctx, refreshToken); err != nil {
		s.logger.WarnContext(ctx, "failed to logout on server", slog.Any("error", err))
	}
}

// ResendVerification asks the server for a new one-time code
func (s *Service) ResendVerification(ctx context.Context, email string) Result {
	email = validation.NormalizeEmail(email)
	if err := validation.Var("email", email, "required,email"); err != nil {
		return Result{Message: err.Error()}
	}

	msg, err := s.api.ResendVerification(ctx, email)
	if err != nil {
		return Result{Message: api.MessageOr(err, msgResendFailed)}
	}
	if msg == "" {
		msg = msgResent
	}
	return Result{Success: true, Message: msg}
}

// VerifyEmail confirms the email with the 6 digit code
func (s *Service) VerifyEmail(ctx context.Context, email, otp string) Result {
	req := pkgapi.VerifyEmailRequest{
		Email: validation.NormalizeEmail(email),
		OTP:   otp,
	}
	if err := validation.Struct(req); err != nil {
		return Result{Message: err.Error()}
	}

	msg, err := s.api.VerifyEmail(ctx, req)
	if err != nil {
		return Result{Message: api.MessageOr(err, msgVerifyFailed)}
	}
	if msg == "" {
		msg = msgVerified
	}
	return Result{Success: true, Message: msg}
}

// RefreshProfile loads the profile and merges it into the stored user
func (s *Service) RefreshProfile(ctx context.Context) (*pkgapi.ProfileData, error) {
	data, err := s.api.Profile(ctx)
	if err != nil {
		return nil, err
	}

	code := data.Referral.MyReferralCode
	if code == "" {
		code = data.User.ReferralCode
	}
	s.store.UpdateUser(ctx, session.UserUpdate{
		Email:        session.Ptr(data.User.Email),
		Name:         session.Ptr(data.User.DisplayName()),
		ReferralCode: session.Ptr(code),
		Wallet:       walletFromAPI(data.Wallet).Update(),
	})

	return data, nil
}
