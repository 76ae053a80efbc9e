package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/newscoin/newscoin/internal/devserver/storage"
	"github.com/newscoin/newscoin/internal/devserver/token"
	"github.com/newscoin/newscoin/internal/models"
	"github.com/newscoin/newscoin/internal/validation"
	"github.com/newscoin/newscoin/pkg/api"
)

const (
	otpTTL = 10 * time.Minute
	// referralCodeAttempts ограничивает перегенерацию кода при коллизии
	referralCodeAttempts = 5
)

var errReferralCodeExhausted = errors.New("could not allocate a unique referral code")

// AuthConfig holds the optional parts of AuthHandler
type AuthConfig struct {
	// Google is nil when Google sign-in is disabled
	Google      IDTokenVerifier
	SignupBonus int64
	// BcryptCost defaults to bcrypt.DefaultCost
	BcryptCost int
}

// AuthHandler обрабатывает запросы авторизации
type AuthHandler struct {
	responder
	userStorage  storage.UserStorage
	tokenStorage storage.TokenStorage
	issuer       *token.Issuer
	cfg          AuthConfig
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(
	logger *slog.Logger,
	userStorage storage.UserStorage,
	tokenStorage storage.TokenStorage,
	issuer *token.Issuer,
	cfg AuthConfig,
) *AuthHandler {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthHandler{
		responder:    responder{logger: logger},
		userStorage:  userStorage,
		tokenStorage: tokenStorage,
		issuer:       issuer,
		cfg:          cfg,
	}
}

// Register обрабатывает POST /auth/register
// Регистрация нового пользователя, код подтверждения пишется в лог
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RegisterRequest
	if err := decode(r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode register request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = validation.NormalizeEmail(req.Email)
	req.ReferredByCode = validation.NormalizeReferralCode(req.ReferredByCode)
	if err := validation.Struct(req); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Бонус за регистрацию только по действующему коду
	var bonus int64
	if req.ReferredByCode != "" {
		if _, err := h.userStorage.GetUserByReferralCode(ctx, req.ReferredByCode); err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				h.sendError(w, "Invalid referral code", http.StatusBadRequest)
				return
			}
			h.internalError(ctx, w, "failed to check referral code", err)
			return
		}
		bonus = h.cfg.SignupBonus
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.cfg.BcryptCost)
	if err != nil {
		h.internalError(ctx, w, "failed to hash password", err)
		return
	}

	referralCode, err := h.newReferralCode(ctx)
	if err != nil {
		h.internalError(ctx, w, "failed to generate referral code", err)
		return
	}

	otp, err := generateOTP()
	if err != nil {
		h.internalError(ctx, w, "failed to generate otp", err)
		return
	}

	now := h.issuer.Now()
	expiresAt := now.Add(otpTTL)
	user := &models.User{
		ID:             uuid.New().String(),
		Email:          req.Email,
		FullName:       req.FullName,
		PasswordHash:   string(hash),
		ReferralCode:   referralCode,
		ReferredBy:     req.ReferredByCode,
		OTP:            otp,
		OTPExpiresAt:   &expiresAt,
		AvailableCoins: bonus,
		TotalEarned:    bonus,
		CreatedAt:      now,
	}

	if err := h.userStorage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			h.logger.WarnContext(ctx, "user already exists", slog.String("email", req.Email))
			h.sendError(w, "Email already registered", http.StatusConflict)
			return
		}
		h.internalError(ctx, w, "failed to create user", err)
		return
	}

	h.logger.InfoContext(ctx, "user registered successfully",
		slog.String("email", user.Email),
		slog.String("user_id", user.ID),
		slog.Int64("signup_bonus", bonus))
	h.logOTP(ctx, user)

	h.sendJSON(w, api.RegisterResponse{
		Success:           true,
		Message:           "Registration successful. Please verify your email.",
		SignupBonusEarned: bonus,
	}, http.StatusCreated)
}

// VerifyEmail обрабатывает POST /auth/verify-email
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.VerifyEmailRequest
	if err := decode(r, &req); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = validation.NormalizeEmail(req.Email)
	if err := validation.Struct(req); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, ok := h.findUser(ctx, w, req.Email)
	if !ok {
		return
	}

	if user.IsVerified {
		h.sendMessage(w, "Email already verified")
		return
	}

	if !h.otpMatches(user, req.OTP) {
		h.logger.WarnContext(ctx, "invalid otp", slog.String("user_id", user.ID))
		h.sendError(w, "Invalid or expired OTP", http.StatusBadRequest)
		return
	}

	user.IsVerified = true
	user.OTP = ""
	user.OTPExpiresAt = nil
	if err := h.userStorage.UpdateUser(ctx, user); err != nil {
		h.internalError(ctx, w, "failed to verify user", err)
		return
	}

	h.logger.InfoContext(ctx, "email verified", slog.String("user_id", user.ID))
	h.sendMessage(w, "Email verified successfully")
}

// ResendVerification обрабатывает POST /auth/resend-verification
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.ResendVerificationRequest
	if err := decode(r, &req); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = validation.NormalizeEmail(req.Email)
	if err := validation.Struct(req); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, ok := h.findUser(ctx, w, req.Email)
	if !ok {
		return
	}

	if user.IsVerified {
		h.sendError(w, "Email already verified", http.StatusBadRequest)
		return
	}

	otp, err := generateOTP()
	if err != nil {
		h.internalError(ctx, w, "failed to generate otp", err)
		return
	}
	expiresAt := h.issuer.Now().Add(otpTTL)
	user.OTP = otp
	user.OTPExpiresAt = &expiresAt

	if err := h.userStorage.UpdateUser(ctx, user); err != nil {
		h.internalError(ctx, w, "failed to store otp", err)
		return
	}

	h.logOTP(ctx, user)
	h.sendMessage(w, "Verification code sent")
}

// Login обрабатывает POST /auth/login
// Аутентификация пользователя по email и паролю
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := decode(r, &req); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = validation.NormalizeEmail(req.Email)
	if err := validation.Struct(req); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.userStorage.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.logger.WarnContext(ctx, "login failed: user not found", slog.String("email", req.Email))
			h.sendError(w, "Invalid email or password", http.StatusUnauthorized)
			return
		}
		h.internalError(ctx, w, "failed to get user", err)
		return
	}

	// у Google аккаунтов нет пароля
	if user.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		h.logger.WarnContext(ctx, "login failed: invalid password", slog.String("user_id", user.ID))
		h.sendError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if !user.IsVerified {
		h.sendNeedsVerification(w, "Please verify your email before logging in")
		return
	}

	h.completeLogin(ctx, w, user, "Login successful")
}

// Refresh обрабатывает POST /auth/refresh-token
// Выдает новый access token, refresh token не меняется
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RefreshTokenRequest
	if err := decode(r, &req); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.Struct(req); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	storedToken, err := h.tokenStorage.GetRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			h.logger.WarnContext(ctx, "refresh token not found")
			h.sendError(w, "Invalid refresh token", http.StatusUnauthorized)
			return
		}
		h.internalError(ctx, w, "failed to get refresh token", err)
		return
	}

	if h.issuer.Now().After(storedToken.ExpiresAt) {
		h.logger.WarnContext(ctx, "refresh token expired", slog.String("user_id", storedToken.UserID))
		if err := h.tokenStorage.DeleteRefreshToken(ctx, req.RefreshToken); err != nil {
			h.logger.WarnContext(ctx, "failed to delete expired refresh token", slog.Any("error", err))
		}
		h.sendError(w, "Refresh token expired", http.StatusUnauthorized)
		return
	}

	user, err := h.userStorage.GetUserByID(ctx, storedToken.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.sendError(w, "Invalid refresh token", http.StatusUnauthorized)
			return
		}
		h.internalError(ctx, w, "failed to get user", err)
		return
	}

	accessToken, err := h.issuer.AccessToken(user.ID, user.Email)
	if err != nil {
		h.internalError(ctx, w, "failed to generate access token", err)
		return
	}

	h.logger.InfoContext(ctx, "access token refreshed", slog.String("user_id", user.ID))
	sendData(h.responder, w, "Token refreshed", api.RefreshTokenData{AccessToken: accessToken}, http.StatusOK)
}

// Logout обрабатывает POST /auth/logout
// Удаляет переданный refresh token, ошибки клиенту не важны
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LogoutRequest
	if err := decode(r, &req); err == nil && req.RefreshToken != "" {
		err := h.tokenStorage.DeleteRefreshToken(ctx, req.RefreshToken)
		if err != nil && !errors.Is(err, storage.ErrTokenNotFound) {
			h.logger.WarnContext(ctx, "failed to delete refresh token", slog.Any("error", err))
		}
	}

	h.sendMessage(w, "Logged out successfully")
}

// completeLogin issues tokens and writes the login body
func (h *AuthHandler) completeLogin(ctx context.Context, w http.ResponseWriter, user *models.User, message string) {
	data, err := h.startSession(ctx, user)
	if err != nil {
		h.internalError(ctx, w, "failed to start session", err)
		return
	}

	if err := h.userStorage.UpdateLastLogin(ctx, user.ID, h.issuer.Now()); err != nil {
		// Не критичная ошибка, логируем но не прерываем
		h.logger.WarnContext(ctx, "failed to update last login", slog.Any("error", err))
	}

	h.logger.InfoContext(ctx, "user logged in successfully", slog.String("user_id", user.ID))
	sendData(h.responder, w, message, *data, http.StatusOK)
}

// startSession генерирует пару токенов и сохраняет refresh token
func (h *AuthHandler) startSession(ctx context.Context, user *models.User) (*api.LoginData, error) {
	accessToken, err := h.issuer.AccessToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	refreshToken, expiresAt, err := h.issuer.RefreshToken()
	if err != nil {
		return nil, err
	}

	if err := h.tokenStorage.SaveRefreshToken(ctx, &models.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: expiresAt,
		CreatedAt: h.issuer.Now(),
	}); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return &api.LoginData{
		Tokens: api.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken},
		User:   toAPIUser(user),
		Wallet: toAPIWallet(user),
	}, nil
}

// findUser writes 404 and returns false when email is unknown
func (h *AuthHandler) findUser(ctx context.Context, w http.ResponseWriter, email string) (*models.User, bool) {
	user, err := h.userStorage.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.sendError(w, "User not found", http.StatusNotFound)
			return nil, false
		}
		h.internalError(ctx, w, "failed to get user", err)
		return nil, false
	}
	return user, true
}

func (h *AuthHandler) otpMatches(user *models.User, otp string) bool {
	if user.OTP == "" || user.OTPExpiresAt == nil || h.issuer.Now().After(*user.OTPExpiresAt) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(user.OTP), []byte(otp)) == 1
}

// newReferralCode генерирует код, которого еще нет в базе
func (h *AuthHandler) newReferralCode(ctx context.Context) (string, error) {
	for range referralCodeAttempts {
		code, err := generateReferralCode()
		if err != nil {
			return "", err
		}
		_, err = h.userStorage.GetUserByReferralCode(ctx, code)
		if errors.Is(err, storage.ErrUserNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", errReferralCodeExhausted
}

// logOTP заменяет отправку письма в dev окружении
func (h *AuthHandler) logOTP(ctx context.Context, user *models.User) {
	h.logger.InfoContext(ctx, "verification code issued",
		slog.String("email", user.Email),
		slog.String("otp", user.OTP))
}

func toAPIUser(u *models.User) api.User {
	return api.User{
		ID:           u.ID,
		Email:        u.Email,
		FullName:     u.FullName,
		ReferralCode: u.ReferralCode,
		IsVerified:   u.IsVerified,
	}
}

func toAPIWallet(u *models.User) api.Wallet {
	return api.Wallet{
		AvailableCoins: u.AvailableCoins,
		TotalEarned:    u.TotalEarned,
		TotalRedeemed:  u.TotalRedeemed,
	}
}
