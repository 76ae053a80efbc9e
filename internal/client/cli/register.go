package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/newscoin/newscoin/internal/client/auth"
)

func (c *Cli) runRegister(ctx context.Context) error {
	c.io.Println("=== Registration ===")
	c.io.Println()

	name, err := c.io.ReadInput("Full name: ")
	if err != nil {
		return fmt.Errorf("failed to read name: %w", err)
	}
	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	password, err := c.io.ReadPassword("Password (min 6 chars): ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	confirmPassword, err := c.io.ReadPassword("Confirm password: ")
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if password != confirmPassword {
		return errors.New("passwords do not match")
	}

	referralCode, err := c.io.ReadInput("Referral code (optional): ")
	if err != nil {
		return fmt.Errorf("failed to read referral code: %w", err)
	}

	c.io.Println()
	c.io.Println("Registering...")

	result := c.auth.Register(ctx, auth.RegisterInput{
		Name:         name,
		Email:        email,
		Password:     password,
		ReferralCode: referralCode,
	})
	if !result.Success {
		return errors.New(result.Message)
	}

	c.io.Println()
	c.io.Println("✓ " + result.Message)
	if result.SignupBonusEarned > 0 {
		c.io.Printf("🎁 You earned a signup bonus of %d coins!\n", result.SignupBonusEarned)
	}

	if result.NeedsVerification {
		c.io.Println()
		return c.verifyPrompt(ctx, result.Email)
	}
	return nil
}
