package storage

import (
	"context"
	"time"

	"github.com/newscoin/newscoin/internal/models"
)

// UserStorage defines interface for user data persistence
type UserStorage interface {
	// CreateUser creates a new user in the storage
	// Returns ErrUserAlreadyExists if email or Google account is taken
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID retrieves user by ID
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByID(ctx context.Context, userID string) (*models.User, error)

	// GetUserByEmail retrieves user by normalized email
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByReferralCode retrieves the owner of a referral code
	// Returns ErrUserNotFound if no user has the code
	GetUserByReferralCode(ctx context.Context, code string) (*models.User, error)

	// GetUserByGoogleSubject retrieves the user linked to a Google account
	// Returns ErrUserNotFound if no user is linked
	GetUserByGoogleSubject(ctx context.Context, subject string) (*models.User, error)

	// UpdateUser updates account fields: name, password, Google link,
	// verification state. Coins are changed only through RewardStorage.
	// Returns ErrUserNotFound if user doesn't exist
	UpdateUser(ctx context.Context, user *models.User) error

	// UpdateLastLogin updates the last login timestamp
	UpdateLastLogin(ctx context.Context, userID string, lastLogin time.Time) error

	// CountReferrals returns how many users registered with code
	CountReferrals(ctx context.Context, code string) (int, error)
}
