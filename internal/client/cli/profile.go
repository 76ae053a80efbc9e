package cli

import (
	"context"

	"github.com/newscoin/newscoin/internal/client/session"
	pkgapi "github.com/newscoin/newscoin/pkg/api"
)

func (c *Cli) runProfile(ctx context.Context) error {
	if _, err := c.requireAuth(); err != nil {
		return err
	}

	profile, err := c.auth.RefreshProfile(ctx)
	if err != nil {
		return describe(err, "Failed to load profile")
	}
	return c.render("profile", profile)
}

func (c *Cli) runWallet(ctx context.Context) error {
	if _, err := c.requireAuth(); err != nil {
		return err
	}

	wallet, err := c.refreshWallet(ctx)
	if err != nil {
		return describe(err, "Failed to load wallet")
	}

	c.io.Println("=== Wallet ===")
	c.io.Println()
	c.io.Printf("Available: %d coins\n", wallet.AvailableCoins)
	c.io.Printf("Earned:    %d coins\n", wallet.TotalEarned)
	c.io.Printf("Redeemed:  %d coins\n", wallet.TotalRedeemed)
	return nil
}

// refreshWallet loads the wallet and caches it in the session
func (c *Cli) refreshWallet(ctx context.Context) (*pkgapi.WalletData, error) {
	wallet, err := c.users.Wallet(ctx)
	if err != nil {
		return nil, err
	}

	c.store.UpdateUser(ctx, session.UserUpdate{
		Wallet: session.Wallet{
			AvailableCoins: wallet.AvailableCoins,
			TotalEarned:    wallet.TotalEarned,
			TotalRedeemed:  wallet.TotalRedeemed,
		}.Update(),
	})
	return wallet, nil
}
