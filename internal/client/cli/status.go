package cli

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func (c *Cli) runStatus(_ context.Context) error {
	c.io.Println("=== Authentication Status ===")
	c.io.Println()

	sess := c.store.Current()
	if !sess.Authenticated() {
		c.io.Println("Status: Not authenticated")
		c.io.Println()
		c.io.Println("Run 'newscoin login' to authenticate.")
		return nil
	}

	user := sess.User
	c.io.Println("Status: Authenticated")
	c.io.Printf("User:   %s <%s>\n", displayName(user.Name, user.Email), user.Email)
	c.io.Printf("Coins:  %d available, %d earned, %d redeemed\n",
		user.Wallet.AvailableCoins, user.Wallet.TotalEarned, user.Wallet.TotalRedeemed)

	expiresAt, ok := tokenExpiry(sess.AccessToken)
	if !ok {
		c.io.Println("Token expires: unknown")
		return nil
	}

	c.io.Printf("Token expires: %s\n", expiresAt.Format(time.RFC3339))
	if remaining := expiresAt.Sub(c.now()); remaining > 0 {
		c.io.Printf("Time remaining: %s\n", remaining.Round(time.Second))
	} else {
		c.io.Println("Access token has expired, it will be refreshed on the next request.")
	}

	return nil
}

// tokenExpiry reads the exp claim without verifying the signature
func tokenExpiry(token string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
