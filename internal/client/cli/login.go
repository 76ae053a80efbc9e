package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/newscoin/newscoin/internal/client/oauth"
)

func (c *Cli) runLogin(ctx context.Context) error {
	c.io.Println("=== Login ===")
	c.io.Println()

	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}
	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	c.io.Println()
	c.io.Println("Authenticating...")

	result := c.auth.Login(ctx, email, password)
	if !result.Success && result.NeedsVerification {
		c.io.Println("✗ " + result.Message)
		c.io.Println()
		if err := c.verifyPrompt(ctx, result.Email); err != nil {
			return err
		}
		// после подтверждения пробуем войти еще раз
		result = c.auth.Login(ctx, email, password)
	}
	if !result.Success {
		return errors.New(result.Message)
	}

	c.printWelcome()
	return nil
}

func (c *Cli) runLoginGoogle(ctx context.Context) error {
	if c.google == nil {
		return errors.New("google sign-in is not configured, set google.client_id")
	}

	c.io.Println("=== Login with Google ===")
	c.io.Println()
	c.io.Println("Open this URL in your browser and sign in:")
	c.io.Println()
	c.io.Println("  " + c.google.AuthCodeURL())
	c.io.Println()

	input, err := c.io.ReadInput("Paste the redirect URL or the code: ")
	if err != nil {
		return fmt.Errorf("failed to read code: %w", err)
	}

	code, state := oauth.ParseCallback(input)
	idToken, identity, err := c.google.Exchange(ctx, code, state)
	if err != nil {
		return fmt.Errorf("google sign-in failed: %w", err)
	}
	if identity.Email != "" && !identity.EmailVerified {
		return fmt.Errorf("google account %s has no verified email", identity.Email)
	}

	result := c.auth.LoginWithGoogle(ctx, idToken)
	if !result.Success {
		return errors.New(result.Message)
	}

	c.printWelcome()
	return nil
}

func (c *Cli) printWelcome() {
	sess := c.store.Current()
	c.io.Println()
	c.io.Println("✓ Login successful!")
	if sess.User != nil {
		c.io.Printf("Welcome, %s\n", displayName(sess.User.Name, sess.User.Email))
		c.io.Printf("Coins: %d\n", sess.User.Wallet.AvailableCoins)
	}
	c.io.Println()
	c.io.Println("Your session has been saved.")
}

func displayName(name, email string) string {
	if name != "" {
		return name
	}
	return email
}
