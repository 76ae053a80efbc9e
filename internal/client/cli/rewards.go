package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pkgapi "github.com/newscoin/newscoin/pkg/api"
)

func (c *Cli) runGiftCards(ctx context.Context) error {
	if _, err := c.requireAuth(); err != nil {
		return err
	}

	cards, err := c.users.GiftCards(ctx)
	if err != nil {
		return describe(err, "Failed to load gift cards")
	}

	c.io.Println("=== Gift Cards ===")
	c.io.Println()
	if len(cards) == 0 {
		c.io.Println("No gift cards available.")
		return nil
	}

	var balance int64
	if user := c.store.Current().User; user != nil {
		balance = user.Wallet.AvailableCoins
	}

	for _, card := range cards {
		mark := " "
		if balance >= card.CoinsRequired {
			mark = "✓"
		}
		c.io.Printf("%s %-24s %6d coins", mark, card.CardName, card.CoinsRequired)
		if card.Value > 0 {
			c.io.Printf("  (%d %s)", card.Value, card.Currency)
		}
		c.io.Printf("\n  id: %s\n", card.CardID)
	}
	c.io.Println()
	c.io.Printf("Your balance: %d coins. Run 'newscoin redeem <card-id>' to redeem.\n", balance)
	return nil
}

func (c *Cli) runRedeem(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("missing card ID. Usage: newscoin redeem <card-id> [email]")
	}
	sess, err := c.requireAuth()
	if err != nil {
		return err
	}

	cards, err := c.users.GiftCards(ctx)
	if err != nil {
		return describe(err, "Failed to load gift cards")
	}
	card, ok := findCard(cards, args[0])
	if !ok {
		return fmt.Errorf("gift card not found: %s", args[0])
	}

	wallet, err := c.refreshWallet(ctx)
	if err != nil {
		return describe(err, "Failed to load wallet")
	}
	if wallet.AvailableCoins < card.CoinsRequired {
		return fmt.Errorf("insufficient coins: %s needs %d, you have %d",
			card.CardName, card.CoinsRequired, wallet.AvailableCoins)
	}

	email := ""
	if len(args) > 1 {
		email = args[1]
	} else {
		email, err = c.io.ReadInput(fmt.Sprintf("Delivery email [%s]: ", sess.User.Email))
		if err != nil {
			return fmt.Errorf("failed to read email: %w", err)
		}
		if email == "" {
			email = sess.User.Email
		}
	}
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return errors.New("please enter a valid email address")
	}

	answer, err := c.io.ReadInput(fmt.Sprintf("Redeem %s for %d coins? [y/N]: ", card.CardName, card.CoinsRequired))
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
		c.io.Println("Cancelled.")
		return nil
	}

	result, msg, err := c.users.Redeem(ctx, pkgapi.RedeemRequest{CardID: card.CardID, DeliveryEmail: email})
	if err != nil {
		return describe(err, "Redemption failed")
	}

	c.io.Println()
	if msg == "" {
		msg = "Redemption request submitted"
	}
	c.io.Println("✓ " + msg)
	c.io.Printf("Request ID: %s\nStatus:     %s\n", result.RedeemID, result.Status)
	c.io.Printf("The gift card will be sent to %s.\n", email)

	// баланс изменился на сервере
	if wallet, err := c.refreshWallet(ctx); err == nil {
		c.io.Printf("Balance: %d coins\n", wallet.AvailableCoins)
	}
	return nil
}

func findCard(cards []pkgapi.GiftCard, id string) (pkgapi.GiftCard, bool) {
	for _, card := range cards {
		if card.CardID == id {
			return card, true
		}
	}
	return pkgapi.GiftCard{}, false
}
