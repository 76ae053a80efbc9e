package models

import "time"

// GiftCard is a reward users can redeem coins for
type GiftCard struct {
	ID            string `json:"card_id"`
	Name          string `json:"card_name"`
	Brand         string `json:"brand"`
	Currency      string `json:"currency"`
	ImageURL      string `json:"image_url"`
	CoinsRequired int64  `json:"coins_required"`
	Value         int64  `json:"value"`
}

// RedemptionPending is the status of a redemption waiting for delivery
const RedemptionPending = "pending"

// Redemption is a request to deliver a gift card
type Redemption struct {
	CreatedAt     time.Time `json:"created_at"`
	ID            string    `json:"redeem_id"`
	UserID        string    `json:"user_id"`
	CardID        string    `json:"card_id"`
	DeliveryEmail string    `json:"delivery_email"`
	Status        string    `json:"status"`
	Coins         int64     `json:"coins"`
}
