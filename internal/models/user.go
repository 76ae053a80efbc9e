// Package models holds the records of the development server
package models

import "time"

// User представляет пользователя в системе
type User struct {
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	OTPExpiresAt *time.Time `json:"-"`
	ID           string     `json:"id"`    // UUID пользователя
	Email        string     `json:"email"` // уникальный, в нижнем регистре
	FullName     string     `json:"full_name"`
	PasswordHash string     `json:"-"` // bcrypt, пустой для входа только через Google
	ReferralCode string     `json:"referral_code"`
	ReferredBy   string     `json:"referred_by,omitempty"` // код пригласившего
	// GoogleSubject is the "sub" claim of the linked Google account
	GoogleSubject string `json:"-"`
	OTP           string `json:"-"`
	// LastReadDay is the UTC day (2006-01-02) of the last credited read
	LastReadDay    string `json:"last_read_day,omitempty"`
	AvailableCoins int64  `json:"available_coins"`
	TotalEarned    int64  `json:"total_earned"`
	TotalRedeemed  int64  `json:"total_redeemed"`
	StreakDays     int64  `json:"streak_days"`
	IsVerified     bool   `json:"is_verified"`
}

// RefreshToken представляет refresh token пользователя
type RefreshToken struct {
	ExpiresAt time.Time `json:"expires_at"` // время истечения
	CreatedAt time.Time `json:"created_at"` // время создания
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"` // ID пользователя
}
