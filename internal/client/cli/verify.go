package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/newscoin/newscoin/internal/validation"
)

// ResendCooldown is the minimal pause between two verification emails
const ResendCooldown = 120 * time.Second

func (c *Cli) runVerify(ctx context.Context, args []string) error {
	email, err := c.emailArg(args)
	if err != nil {
		return err
	}
	return c.verifyPrompt(ctx, email)
}

func (c *Cli) runResend(ctx context.Context, args []string) error {
	email, err := c.emailArg(args)
	if err != nil {
		return err
	}
	return c.resend(ctx, email)
}

func (c *Cli) emailArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return "", fmt.Errorf("failed to read email: %w", err)
	}
	return email, nil
}

// verifyPrompt asks for the code until it is accepted. "resend" requests a
// new code, an empty line gives up.
func (c *Cli) verifyPrompt(ctx context.Context, email string) error {
	c.io.Printf("A 6-digit code was sent to %s.\n", email)
	c.io.Println("Type 'resend' for a new code or press Enter to verify later.")

	for {
		input, err := c.io.ReadInput("Verification code: ")
		if err != nil {
			return fmt.Errorf("failed to read code: %w", err)
		}
		input = strings.TrimSpace(input)

		switch {
		case input == "":
			c.io.Printf("Run 'newscoin verify %s' when you have the code.\n", email)
			return nil
		case strings.EqualFold(input, "resend"):
			if err := c.resend(ctx, email); err != nil {
				c.io.Println("✗ " + err.Error())
			}
			continue
		}

		if err := validation.Var("otp", input, "len=6,numeric"); err != nil {
			c.io.Println("✗ Please enter the 6-digit code")
			continue
		}

		result := c.auth.VerifyEmail(ctx, email, input)
		if !result.Success {
			c.io.Println("✗ " + result.Message)
			continue
		}

		c.io.Println("✓ " + result.Message)
		c.io.Println("You can now log in with 'newscoin login'.")
		return nil
	}
}

func (c *Cli) resend(ctx context.Context, email string) error {
	c.mu.Lock()
	wait := ResendCooldown - c.now().Sub(c.lastResend)
	c.mu.Unlock()

	if wait > 0 {
		return fmt.Errorf("please wait %d seconds before requesting a new code", int(wait.Round(time.Second)/time.Second))
	}

	result := c.auth.ResendVerification(ctx, email)
	if !result.Success {
		return errors.New(result.Message)
	}

	c.mu.Lock()
	c.lastResend = c.now()
	c.mu.Unlock()

	c.io.Println("✓ " + result.Message)
	return nil
}
