package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that user with this email already exists
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrTokenNotFound indicates that refresh token was not found
	ErrTokenNotFound = errors.New("refresh token not found")

	// ErrArticleNotFound indicates that article was not found
	ErrArticleNotFound = errors.New("article not found")

	// ErrAlreadyRead indicates that the user was already credited for the article
	ErrAlreadyRead = errors.New("article already read")

	// ErrGiftCardNotFound indicates that gift card was not found
	ErrGiftCardNotFound = errors.New("gift card not found")

	// ErrInsufficientCoins indicates that the balance does not cover a redemption
	ErrInsufficientCoins = errors.New("insufficient coins")
)
