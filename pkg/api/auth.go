package api

// RegisterRequest представляет запрос на регистрацию нового пользователя
type RegisterRequest struct {
	FullName       string `json:"fullName" validate:"required,max=100"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=6,max=128"`
	ReferredByCode string `json:"referredByCode,omitempty" validate:"omitempty,len=8,alphanum"`
}

// RegisterResponse is flat: the bonus is reported next to success
type RegisterResponse struct {
	Message           string `json:"message"`
	SignupBonusEarned int64  `json:"signupBonusEarned,omitempty"`
	Success           bool   `json:"success"`
}

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// GoogleLoginRequest exchanges a verified Google ID token for a session
type GoogleLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// TokenPair is the token bundle issued on login
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// User is the account as returned by the backend
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name,omitempty"`
	FullName     string `json:"fullName,omitempty"`
	ReferralCode string `json:"referralCode,omitempty"`
	IsVerified   bool   `json:"isVerified,omitempty"`
}

// DisplayName returns Name, falling back to FullName
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.FullName
}

// Wallet is the camelCase wallet embedded in login and profile responses
type Wallet struct {
	AvailableCoins int64 `json:"availableCoins"`
	TotalEarned    int64 `json:"totalEarned"`
	TotalRedeemed  int64 `json:"totalRedeemed"`
}

// LoginData is the data section of a successful login
type LoginData struct {
	Tokens TokenPair `json:"tokens"`
	User   User      `json:"user"`
	Wallet Wallet    `json:"wallet"`
}

// Validate checks the fields the client relies on
func (d LoginData) Validate() error {
	switch {
	case d.Tokens.AccessToken == "":
		return malformed("tokens.accessToken is empty")
	case d.Tokens.RefreshToken == "":
		return malformed("tokens.refreshToken is empty")
	case d.User.ID == "":
		return malformed("user.id is empty")
	}
	return nil
}

// RefreshTokenRequest exchanges a refresh token for a new access token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// RefreshTokenData is the data section of a refresh response
type RefreshTokenData struct {
	AccessToken string `json:"accessToken"`
}

// Validate checks that an access token was issued
func (d RefreshTokenData) Validate() error {
	if d.AccessToken == "" {
		return malformed("accessToken is empty")
	}
	return nil
}

// LogoutRequest invalidates a refresh token on the server
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// ResendVerificationRequest asks for a new verification code
type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyEmailRequest confirms an email with the one-time code
type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

// MessageResponse is returned by endpoints that only report an outcome
type MessageResponse = Envelope[struct{}]
