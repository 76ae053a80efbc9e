// Package session holds the client's credential store: the in-memory
// session shared by every component and its durable copy.
package session

// Wallet is the coin balance snapshot cached with the user
type Wallet struct {
	AvailableCoins int64 `json:"availableCoins"`
	TotalEarned    int64 `json:"totalEarned"`
	TotalRedeemed  int64 `json:"totalRedeemed"`
}

// Update returns a WalletUpdate that overwrites every wallet field
func (w Wallet) Update() *WalletUpdate {
	return &WalletUpdate{
		AvailableCoins: Ptr(w.AvailableCoins),
		TotalEarned:    Ptr(w.TotalEarned),
		TotalRedeemed:  Ptr(w.TotalRedeemed),
	}
}

// User is the profile snapshot persisted under the "user" key
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	ReferralCode string `json:"referralCode,omitempty"`
	Wallet       Wallet `json:"wallet"`
}

// Session is the bundle of tokens and user snapshot representing who is logged in.
// Both tokens and the user are either all present or all absent.
type Session struct {
	User         *User
	AccessToken  string
	RefreshToken string
}

// Authenticated reports whether the session carries both tokens and a user
func (s Session) Authenticated() bool {
	return s.AccessToken != "" && s.RefreshToken != "" && s.User != nil
}

// Anonymous reports whether the session is empty
func (s Session) Anonymous() bool {
	return s.AccessToken == "" && s.RefreshToken == "" && s.User == nil
}

// clone копирует User, чтобы вызывающий код не мог изменить состояние стора
func (s Session) clone() Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// WalletUpdate changes only the wallet fields that are set
type WalletUpdate struct {
	AvailableCoins *int64
	TotalEarned    *int64
	TotalRedeemed  *int64
}

// UserUpdate is a partial user record. Top-level fields replace the stored
// value when set; Wallet is merged field by field.
type UserUpdate struct {
	Email        *string
	Name         *string
	ReferralCode *string
	Wallet       *WalletUpdate
}

func (u UserUpdate) apply(user User) User {
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.Name != nil {
		user.Name = *u.Name
	}
	if u.ReferralCode != nil {
		user.ReferralCode = *u.ReferralCode
	}
	if w := u.Wallet; w != nil {
		if w.AvailableCoins != nil {
			user.Wallet.AvailableCoins = *w.AvailableCoins
		}
		if w.TotalEarned != nil {
			user.Wallet.TotalEarned = *w.TotalEarned
		}
		if w.TotalRedeemed != nil {
			user.Wallet.TotalRedeemed = *w.TotalRedeemed
		}
	}
	return user
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}
