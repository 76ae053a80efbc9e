package storage

import (
	"context"

	"github.com/newscoin/newscoin/internal/models"
)

// RewardStorage defines interface for coin movements
type RewardStorage interface {
	// CountReads returns the number of reads of the user, on day if it is
	// not empty
	CountReads(ctx context.Context, userID, day string) (int64, error)

	// RecordRead stores the read and credits Coins + StreakBonus to the
	// user in one transaction, updating the streak.
	// Returns ErrAlreadyRead if the user already read the article
	RecordRead(ctx context.Context, read *models.Read) error

	// CreditCoins adds coins to the available and earned balance
	// Returns ErrUserNotFound if user doesn't exist
	CreditCoins(ctx context.Context, userID string, coins int64) error

	// ListGiftCards returns the catalog ordered by price
	ListGiftCards(ctx context.Context) ([]models.GiftCard, error)

	// GetGiftCard retrieves gift card by ID
	// Returns ErrGiftCardNotFound if card doesn't exist
	GetGiftCard(ctx context.Context, cardID string) (*models.GiftCard, error)

	// Redeem debits redemption.Coins and stores the redemption
	// Returns ErrInsufficientCoins if the balance is too low
	Redeem(ctx context.Context, redemption *models.Redemption) error
}
