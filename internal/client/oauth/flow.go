// Package oauth runs the Google sign-in flow for a terminal client:
// authorization code with PKCE, followed by ID token verification.
package oauth

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// GoogleIssuer is the OIDC issuer of Google accounts
const GoogleIssuer = "https://accounts.google.com"

// Config holds the OAuth client registration
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Issuer       string
}

// Identity is the verified content of an ID token
type Identity struct {
	Subject       string
	Email         string
	Name          string
	Nonce         string
	EmailVerified bool
}

// TokenVerifier checks an ID token signature, issuer, audience and expiry
type TokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*Identity, error)
}

type oidcVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func (v oidcVerifier) Verify(ctx context.Context, rawIDToken string) (*Identity, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify id token: %w", err)
	}

	var claims struct {
		Nonce         string `json:"nonce"`
		Email         string `json:"email"`
		Name          string `json:"name"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to extract claims: %w", err)
	}

	return &Identity{
		Subject:       idToken.Subject,
		Email:         claims.Email,
		Name:          claims.Name,
		Nonce:         claims.Nonce,
		EmailVerified: claims.EmailVerified,
	}, nil
}

// Flow is one sign-in attempt. AuthCodeURL starts it, Exchange completes it.
type Flow struct {
	config       *oauth2.Config
	verifier     TokenVerifier
	state        string
	nonce        string
	codeVerifier string
	mu           sync.Mutex
}

// NewProviderFlow discovers the provider at cfg.Issuer and builds a flow
// whose ID tokens must be issued for cfg.ClientID
func NewProviderFlow(ctx context.Context, cfg Config) (*Flow, error) {
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = GoogleIssuer
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  cfg.RedirectURL,
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
	verifier := oidcVerifier{verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})}

	return NewFlow(oauthConfig, verifier), nil
}

// NewFlow creates a flow from an explicit client config
func NewFlow(config *oauth2.Config, verifier TokenVerifier) *Flow {
	return &Flow{config: config, verifier: verifier}
}

// AuthCodeURL generates fresh state, nonce and PKCE verifier and returns
// the URL the user has to open
func (f *Flow) AuthCodeURL() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.state = uuid.NewString()
	f.nonce = uuid.NewString()
	f.codeVerifier = oauth2.GenerateVerifier()

	return f.config.AuthCodeURL(f.state,
		oauth2.AccessTypeOnline,
		oidc.Nonce(f.nonce),
		oauth2.S256ChallengeOption(f.codeVerifier),
	)
}

// Exchange trades the authorization code for tokens and verifies the
// ID token. An empty state skips the state check (code pasted by hand).
func (f *Flow) Exchange(ctx context.Context, code, state string) (string, *Identity, error) {
	f.mu.Lock()
	expectedState, nonce, codeVerifier := f.state, f.nonce, f.codeVerifier
	f.mu.Unlock()

	if codeVerifier == "" {
		return "", nil, ErrNotStarted
	}
	if code == "" {
		return "", nil, ErrNoCode
	}
	if state != "" && state != expectedState {
		return "", nil, ErrStateMismatch
	}

	token, err := f.config.Exchange(ctx, code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return "", nil, fmt.Errorf("token exchange failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return "", nil, ErrNoIDToken
	}

	identity, err := f.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return "", nil, err
	}
	if identity.Nonce != nonce {
		return "", nil, ErrNonceMismatch
	}

	return rawIDToken, identity, nil
}

// ParseCallback extracts code and state from what the user pasted: either
// the full redirect URL or the bare code
func ParseCallback(input string) (code, state string) {
	input = strings.TrimSpace(input)
	if u, err := url.Parse(input); err == nil && u.Scheme != "" {
		q := u.Query()
		return q.Get("code"), q.Get("state")
	}
	return input, ""
}
