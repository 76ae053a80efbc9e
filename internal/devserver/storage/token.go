package storage

import (
	"context"
	"time"

	"github.com/newscoin/newscoin/internal/models"
)

// TokenStorage keeps the opaque refresh tokens handed out at login.
// Tokens are looked up by value; expiry is checked by the caller.
type TokenStorage interface {
	// SaveRefreshToken stores token, an existing row with the same value is overwritten
	SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error
	// GetRefreshToken returns ErrTokenNotFound for unknown values
	GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	// DeleteRefreshToken returns ErrTokenNotFound when nothing was deleted
	DeleteRefreshToken(ctx context.Context, token string) error
	// DeleteUserTokens ends every session of the user
	DeleteUserTokens(ctx context.Context, userID string) (int, error)
	// DeleteExpiredTokens drops tokens whose expiry is before now
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error)
}
