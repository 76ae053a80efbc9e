package api

// Profile holds the optional personal details
type Profile struct {
	Gender string `json:"gender,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Age    int    `json:"age,omitempty"`
}

// Referral describes the user's referral program state
type Referral struct {
	MyReferralCode string `json:"myReferralCode"`
	TotalReferrals int    `json:"totalReferrals"`
}

// ProfileData is the data section of GET /user/profile
type ProfileData struct {
	User     User     `json:"user"`
	Profile  Profile  `json:"profile"`
	Referral Referral `json:"referral"`
	Wallet   Wallet   `json:"wallet"`
}

// Validate checks the user id is present
func (d ProfileData) Validate() error {
	if d.User.ID == "" {
		return malformed("user.id is empty")
	}
	return nil
}

// WalletData is the snake_case wallet of GET /user/wallet
type WalletData struct {
	AvailableCoins int64 `json:"available_coins"`
	TotalEarned    int64 `json:"total_earned"`
	TotalRedeemed  int64 `json:"total_redeemed"`
}

// GiftCard is a redeemable reward
type GiftCard struct {
	CardID        string `json:"card_id"`
	CardName      string `json:"card_name"`
	Brand         string `json:"brand,omitempty"`
	Currency      string `json:"currency,omitempty"`
	ImageURL      string `json:"image_url,omitempty"`
	CoinsRequired int64  `json:"coins_required"`
	Value         int64  `json:"value,omitempty"`
}

// GiftCardList is the data section of GET /gift-cards
type GiftCardList struct {
	GiftCards []GiftCard `json:"giftCards"`
}

// RedeemRequest exchanges coins for a gift card
type RedeemRequest struct {
	CardID        string `json:"cardId" validate:"required"`
	DeliveryEmail string `json:"deliveryEmail" validate:"required,email"`
}

// RedeemData is the data section of POST /redeem
type RedeemData struct {
	RedeemID string `json:"redeemId"`
	Status   string `json:"status"`
}
