package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/newscoin/newscoin/internal/devserver/storage"
	"github.com/newscoin/newscoin/internal/models"
)

const refreshTokensTable = "refresh_tokens"

var refreshTokenColumns = []string{"token", "user_id", "expires_at", "created_at"}

// SaveRefreshToken inserts or overwrites the token row
func (s *Storage) SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	query, args, err := psq.Insert(refreshTokensTable).
		Options("OR REPLACE").
		Columns(refreshTokenColumns...).
		Values(token.Token, token.UserID, token.ExpiresAt.UTC(), token.CreatedAt.UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build token insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}
	return nil
}

// GetRefreshToken finds a token by its value
func (s *Storage) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	query, args, err := psq.Select(refreshTokenColumns...).
		From(refreshTokensTable).
		Where(sq.Eq{"token": token}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build token query: %w", err)
	}

	var rt models.RefreshToken
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&rt.Token, &rt.UserID, &rt.ExpiresAt, &rt.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	return &rt, nil
}

// DeleteRefreshToken removes one token, used by logout and on expiry
func (s *Storage) DeleteRefreshToken(ctx context.Context, token string) error {
	result, err := s.deleteTokens(ctx, sq.Eq{"token": token})
	if err != nil {
		return err
	}
	return checkAffected(result, storage.ErrTokenNotFound)
}

// DeleteUserTokens removes every token of the user
func (s *Storage) DeleteUserTokens(ctx context.Context, userID string) (int, error) {
	result, err := s.deleteTokens(ctx, sq.Eq{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return rowsAffected(result)
}

// DeleteExpiredTokens removes tokens that expired before now
func (s *Storage) DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error) {
	result, err := s.deleteTokens(ctx, sq.Lt{"expires_at": now.UTC()})
	if err != nil {
		return 0, err
	}
	return rowsAffected(result)
}

func (s *Storage) deleteTokens(ctx context.Context, where sq.Sqlizer) (sql.Result, error) {
	query, args, err := psq.Delete(refreshTokensTable).Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build token delete: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to delete tokens: %w", err)
	}
	return result, nil
}

func rowsAffected(result sql.Result) (int, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rows), nil
}
