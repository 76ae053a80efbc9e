package auth

import (
	"github.com/newscoin/newscoin/internal/client/session"
	pkgapi "github.com/newscoin/newscoin/pkg/api"
)

func walletFromAPI(w pkgapi.Wallet) session.Wallet {
	return session.Wallet{
		AvailableCoins: w.AvailableCoins,
		TotalEarned:    w.TotalEarned,
		TotalRedeemed:  w.TotalRedeemed,
	}
}

// sessionFromLogin builds the session from a login response, the wallet
// is embedded into the user snapshot
func sessionFromLogin(data *pkgapi.LoginData) session.Session {
	return session.Session{
		AccessToken:  data.Tokens.AccessToken,
		RefreshToken: data.Tokens.RefreshToken,
		User: &session.User{
			ID:           data.User.ID,
			Email:        data.User.Email,
			Name:         data.User.DisplayName(),
			ReferralCode: data.User.ReferralCode,
			Wallet:       walletFromAPI(data.Wallet),
		},
	}
}
