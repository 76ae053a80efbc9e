package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/newscoin/newscoin/internal/devserver/storage"
	"github.com/newscoin/newscoin/internal/models"
)

const userColumns = `id, email, full_name, password_hash, referral_code, referred_by,
	google_subject, otp, otp_expires_at, is_verified, available_coins, total_earned,
	total_redeemed, streak_days, last_read_day, created_at, last_login`

// CreateUser creates a new user in the storage
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.FullName,
		user.PasswordHash,
		user.ReferralCode,
		user.ReferredBy,
		nullString(user.GoogleSubject),
		user.OTP,
		user.OTPExpiresAt,
		user.IsVerified,
		user.AvailableCoins,
		user.TotalEarned,
		user.TotalRedeemed,
		user.StreakDays,
		user.LastReadDay,
		user.CreatedAt,
		user.LastLogin,
	)

	if err != nil {
		if isUniqueViolation(err, "users.email") || isUniqueViolation(err, "users.google_subject") {
			return storage.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetUserByID retrieves user by ID
func (s *Storage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	return s.getUser(ctx, "id", userID)
}

// GetUserByEmail retrieves user by email
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email", email)
}

// GetUserByReferralCode retrieves the owner of a referral code
func (s *Storage) GetUserByReferralCode(ctx context.Context, code string) (*models.User, error) {
	return s.getUser(ctx, "referral_code", code)
}

// GetUserByGoogleSubject retrieves the user linked to a Google account
func (s *Storage) GetUserByGoogleSubject(ctx context.Context, subject string) (*models.User, error) {
	return s.getUser(ctx, "google_subject", subject)
}

// getUser selects one user by a unique column
func (s *Storage) getUser(ctx context.Context, column, value string) (*models.User, error) {
	query, args, err := psq.Select(userColumns).From("users").Where(column+" = ?", value).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user query: %w", err)
	}

	user, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var (
		googleSubject sql.NullString
		otpExpiresAt  sql.NullTime
		lastLogin     sql.NullTime
	)

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.PasswordHash,
		&user.ReferralCode,
		&user.ReferredBy,
		&googleSubject,
		&user.OTP,
		&otpExpiresAt,
		&user.IsVerified,
		&user.AvailableCoins,
		&user.TotalEarned,
		&user.TotalRedeemed,
		&user.StreakDays,
		&user.LastReadDay,
		&user.CreatedAt,
		&lastLogin,
	)
	if err != nil {
		return nil, err
	}

	user.GoogleSubject = googleSubject.String
	if otpExpiresAt.Valid {
		user.OTPExpiresAt = &otpExpiresAt.Time
	}
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}

	return user, nil
}

// UpdateUser updates account fields of the user
func (s *Storage) UpdateUser(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET full_name = ?, password_hash = ?, google_subject = ?, otp = ?,
			otp_expires_at = ?, is_verified = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		user.FullName,
		user.PasswordHash,
		nullString(user.GoogleSubject),
		user.OTP,
		user.OTPExpiresAt,
		user.IsVerified,
		user.ID,
	)

	if err != nil {
		if isUniqueViolation(err, "users.google_subject") {
			return storage.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	return checkAffected(result, storage.ErrUserNotFound)
}

// UpdateLastLogin updates the last login timestamp
func (s *Storage) UpdateLastLogin(ctx context.Context, userID string, lastLogin time.Time) error {
	query := `UPDATE users SET last_login = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, lastLogin, userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return checkAffected(result, storage.ErrUserNotFound)
}

// CountReferrals returns how many users registered with code
func (s *Storage) CountReferrals(ctx context.Context, code string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE referred_by = ?`, code).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count referrals: %w", err)
	}
	return count, nil
}

// checkAffected returns notFound if the statement changed no rows
func checkAffected(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return notFound
	}

	return nil
}

// nullString stores empty strings as NULL so UNIQUE allows many of them
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
