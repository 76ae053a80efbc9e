package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/newscoin/newscoin/internal/devserver/storage"
	"github.com/newscoin/newscoin/internal/models"
)

var giftCardColumns = []string{"id", "name", "brand", "currency", "image_url", "coins_required", "value"}

// CountReads returns the number of reads of the user, on day if it is not empty
func (s *Storage) CountReads(ctx context.Context, userID, day string) (int64, error) {
	qb := psq.Select("COUNT(*)").From("reads").Where(sq.Eq{"user_id": userID})
	if day != "" {
		qb = qb.Where(sq.Eq{"day": day})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count reads: %w", err)
	}
	return count, nil
}

// RecordRead stores the read and credits the user in one transaction
func (s *Storage) RecordRead(ctx context.Context, read *models.Read) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO reads (user_id, article_id, day, time_spent, coins, streak_bonus, read_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			read.UserID, read.ArticleID, read.Day, read.TimeSpent, read.Coins, read.StreakBonus, read.ReadAt,
		)
		if err != nil {
			if isUniqueViolation(err, "reads.") {
				return storage.ErrAlreadyRead
			}
			return fmt.Errorf("failed to insert read: %w", err)
		}

		credit := read.Coins + read.StreakBonus
		result, err := tx.ExecContext(ctx, `
			UPDATE users
			SET available_coins = available_coins + ?, total_earned = total_earned + ?,
				streak_days = ?, last_read_day = ?
			WHERE id = ?`,
			credit, credit, read.StreakDays, read.Day, read.UserID,
		)
		if err != nil {
			return fmt.Errorf("failed to credit read: %w", err)
		}
		return checkAffected(result, storage.ErrUserNotFound)
	})
}

// CreditCoins adds coins to the available and earned balance
func (s *Storage) CreditCoins(ctx context.Context, userID string, coins int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET available_coins = available_coins + ?, total_earned = total_earned + ?
		WHERE id = ?`,
		coins, coins, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to credit coins: %w", err)
	}
	return checkAffected(result, storage.ErrUserNotFound)
}

// ListGiftCards returns the catalog ordered by price
func (s *Storage) ListGiftCards(ctx context.Context) ([]models.GiftCard, error) {
	query, args, err := psq.Select(giftCardColumns...).From("gift_cards").OrderBy("coins_required", "id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build gift cards query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query gift cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cards []models.GiftCard
	for rows.Next() {
		var c models.GiftCard
		if err := scanGiftCard(rows, &c); err != nil {
			return nil, fmt.Errorf("failed to scan gift card: %w", err)
		}
		cards = append(cards, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return cards, nil
}

// GetGiftCard retrieves gift card by ID
func (s *Storage) GetGiftCard(ctx context.Context, cardID string) (*models.GiftCard, error) {
	query, args, err := psq.Select(giftCardColumns...).From("gift_cards").Where(sq.Eq{"id": cardID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build gift card query: %w", err)
	}

	var c models.GiftCard
	if err := scanGiftCard(s.db.QueryRowContext(ctx, query, args...), &c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrGiftCardNotFound
		}
		return nil, fmt.Errorf("failed to get gift card: %w", err)
	}

	return &c, nil
}

func scanGiftCard(row scanner, c *models.GiftCard) error {
	return row.Scan(&c.ID, &c.Name, &c.Brand, &c.Currency, &c.ImageURL, &c.CoinsRequired, &c.Value)
}

// Redeem debits redemption.Coins and stores the redemption
func (s *Storage) Redeem(ctx context.Context, redemption *models.Redemption) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		// списываем только если хватает монет
		result, err := tx.ExecContext(ctx, `
			UPDATE users
			SET available_coins = available_coins - ?, total_redeemed = total_redeemed + ?
			WHERE id = ? AND available_coins >= ?`,
			redemption.Coins, redemption.Coins, redemption.UserID, redemption.Coins,
		)
		if err != nil {
			return fmt.Errorf("failed to debit coins: %w", err)
		}
		if err := checkAffected(result, storage.ErrInsufficientCoins); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO redemptions (id, user_id, card_id, delivery_email, status, coins, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			redemption.ID, redemption.UserID, redemption.CardID, redemption.DeliveryEmail,
			redemption.Status, redemption.Coins, redemption.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert redemption: %w", err)
		}
		return nil
	})
}
