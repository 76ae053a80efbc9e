package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"

	"github.com/newscoin/newscoin/internal/devserver/storage"
	"github.com/newscoin/newscoin/internal/models"
	"github.com/newscoin/newscoin/internal/validation"
	"github.com/newscoin/newscoin/pkg/api"
)

// GoogleIdentity is the verified subset of Google ID token claims
type GoogleIdentity struct {
	Subject       string
	Email         string
	Name          string
	EmailVerified bool
}

// IDTokenVerifier checks a Google ID token
type IDTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*GoogleIdentity, error)
}

// OIDCVerifier verifies ID tokens against the provider keys
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewGoogleVerifier discovers issuer and verifies tokens issued for clientID
func NewGoogleVerifier(ctx context.Context, issuer, clientID string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}
	return &OIDCVerifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

// newStaticVerifier проверяет токены заранее известными ключами, без discovery
func newStaticVerifier(issuer, clientID string, keys oidc.KeySet, now func() time.Time) *OIDCVerifier {
	return &OIDCVerifier{verifier: oidc.NewVerifier(issuer, keys, &oidc.Config{ClientID: clientID, Now: now})}
}

// Verify checks signature, issuer, audience and expiry of rawIDToken
func (v *OIDCVerifier) Verify(ctx context.Context, rawIDToken string) (*GoogleIdentity, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify id token: %w", err)
	}

	var claims struct {
		Email         string `json:"email"`
		Name          string `json:"name"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse id token claims: %w", err)
	}
	if claims.Email == "" {
		return nil, errors.New("id token has no email")
	}

	return &GoogleIdentity{
		Subject:       idToken.Subject,
		Email:         validation.NormalizeEmail(claims.Email),
		Name:          claims.Name,
		EmailVerified: claims.EmailVerified,
	}, nil
}

// Google обрабатывает POST /auth/google
// Ищет пользователя по Google subject, затем по email, иначе создает нового
func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.cfg.Google == nil {
		h.sendError(w, "Google sign-in is not configured", http.StatusNotImplemented)
		return
	}

	var req api.GoogleLoginRequest
	if err := decode(r, &req); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.Struct(req); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	identity, err := h.cfg.Google.Verify(ctx, req.IDToken)
	if err != nil {
		h.logger.WarnContext(ctx, "google token rejected", slog.Any("error", err))
		h.sendError(w, "Invalid Google token", http.StatusUnauthorized)
		return
	}

	user, err := h.googleUser(ctx, identity)
	if err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			h.sendError(w, "Email is linked to another Google account", http.StatusConflict)
			return
		}
		h.internalError(ctx, w, "failed to resolve google user", err)
		return
	}

	h.completeLogin(ctx, w, user, "Login successful")
}

func (h *AuthHandler) googleUser(ctx context.Context, identity *GoogleIdentity) (*models.User, error) {
	user, err := h.userStorage.GetUserByGoogleSubject(ctx, identity.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrUserNotFound) {
		return nil, err
	}

	user, err = h.userStorage.GetUserByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		if user.GoogleSubject != "" {
			return nil, storage.ErrUserAlreadyExists
		}
		// привязываем Google к существующему аккаунту
		user.GoogleSubject = identity.Subject
		if identity.EmailVerified {
			user.IsVerified = true
			user.OTP = ""
			user.OTPExpiresAt = nil
		}
		if err := h.userStorage.UpdateUser(ctx, user); err != nil {
			return nil, err
		}
		h.logger.InfoContext(ctx, "google account linked", slog.String("user_id", user.ID))
		return user, nil
	case !errors.Is(err, storage.ErrUserNotFound):
		return nil, err
	}

	referralCode, err := h.newReferralCode(ctx)
	if err != nil {
		return nil, err
	}

	user = &models.User{
		ID:            uuid.New().String(),
		Email:         identity.Email,
		FullName:      identity.Name,
		ReferralCode:  referralCode,
		GoogleSubject: identity.Subject,
		IsVerified:    true,
		CreatedAt:     h.issuer.Now(),
	}
	if err := h.userStorage.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "user registered with google", slog.String("user_id", user.ID))
	return user, nil
}
