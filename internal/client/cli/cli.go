// Package cli implements the newscoin terminal commands
package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/newscoin/newscoin/internal/client/api"
	"github.com/newscoin/newscoin/internal/client/auth"
	"github.com/newscoin/newscoin/internal/client/feed"
	"github.com/newscoin/newscoin/internal/client/iocli"
	"github.com/newscoin/newscoin/internal/client/oauth"
	"github.com/newscoin/newscoin/internal/client/reader"
	"github.com/newscoin/newscoin/internal/client/session"
	pkgapi "github.com/newscoin/newscoin/pkg/api"
)

// ErrUnknownCommand is returned by Run for unsupported commands
var ErrUnknownCommand = errors.New("unknown command")

// ErrNotAuthenticated is returned by commands that need a session
var ErrNotAuthenticated = errors.New("not authenticated. Please run 'newscoin login' first")

// AuthService is the session operations service
type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) auth.RegisterResult
	Login(ctx context.Context, email, password string) auth.LoginResult
	LoginWithGoogle(ctx context.Context, idToken string) auth.LoginResult
	Logout(ctx context.Context)
	ResendVerification(ctx context.Context, email string) auth.Result
	VerifyEmail(ctx context.Context, email, otp string) auth.Result
	RefreshProfile(ctx context.Context) (*pkgapi.ProfileData, error)
}

// UserAPI covers the wallet and reward endpoints
type UserAPI interface {
	Wallet(ctx context.Context) (*pkgapi.WalletData, error)
	GiftCards(ctx context.Context) ([]pkgapi.GiftCard, error)
	Redeem(ctx context.Context, req pkgapi.RedeemRequest) (*pkgapi.RedeemData, string, error)
}

// SessionStore is the credential store as seen by the CLI
type SessionStore interface {
	Current() session.Session
	UpdateUser(ctx context.Context, upd session.UserUpdate) (session.User, bool)
	Subscribe(fn func(session.Session)) (cancel func())
}

// ReadTracker credits article reads
type ReadTracker interface {
	Start(ctx context.Context, articleID string) bool
	Stop()
}

// GoogleFlow is the Google sign-in flow
type GoogleFlow interface {
	AuthCodeURL() string
	Exchange(ctx context.Context, code, state string) (string, *oauth.Identity, error)
}

// Deps are the collaborators of the CLI. Google may be nil when sign-in
// with Google is not configured.
type Deps struct {
	IO     iocli.IO
	Auth   AuthService
	Users  UserAPI
	Store  SessionStore
	Feed   *feed.Controller
	Google GoogleFlow
	// Now defaults to time.Now
	Now func() time.Time
}

type Cli struct {
	io       iocli.IO
	auth     AuthService
	users    UserAPI
	store    SessionStore
	feed     *feed.Controller
	google   GoogleFlow
	tracker  ReadTracker
	now      func() time.Time
	outcomes chan reader.Outcome
	// lastResend ограничивает повторную отправку кода
	lastResend time.Time
	dwell      time.Duration
	mu         sync.Mutex
}

func New(deps Deps) *Cli {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Cli{
		io:       deps.IO,
		auth:     deps.Auth,
		users:    deps.Users,
		store:    deps.Store,
		feed:     deps.Feed,
		google:   deps.Google,
		now:      now,
		outcomes: make(chan reader.Outcome, 1),
		dwell:    reader.DefaultDwell,
	}
}

// SetTracker wires the read tracker. The tracker has to report to
// ReportOutcome.
func (c *Cli) SetTracker(t ReadTracker, dwell time.Duration) {
	c.tracker = t
	if dwell > 0 {
		c.dwell = dwell
	}
}

// ReportOutcome receives read outcomes from the tracker
func (c *Cli) ReportOutcome(o reader.Outcome) {
	select {
	case c.outcomes <- o:
	default:
	}
}

// Run executes command. A forced logout caused by an expired session is
// announced once.
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	if command != "logout" && c.store.Current().Authenticated() {
		var once sync.Once
		cancel := c.store.Subscribe(func(s session.Session) {
			if s.Anonymous() {
				once.Do(func() {
					c.io.Println()
					c.io.Println("⚠️  Your session has expired. Please run 'newscoin login' again.")
				})
			}
		})
		defer cancel()
	}

	switch command {
	case "register":
		return c.runRegister(ctx)
	case "verify":
		return c.runVerify(ctx, args)
	case "resend":
		return c.runResend(ctx, args)
	case "login":
		return c.runLogin(ctx)
	case "login-google":
		return c.runLoginGoogle(ctx)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus(ctx)
	case "feed":
		return c.runFeed(ctx, args)
	case "read":
		return c.runRead(ctx, args)
	case "profile":
		return c.runProfile(ctx)
	case "wallet":
		return c.runWallet(ctx)
	case "giftcards":
		return c.runGiftCards(ctx)
	case "redeem":
		return c.runRedeem(ctx, args)
	case "help":
		c.PrintUsage()
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
}

func (c *Cli) requireAuth() (session.Session, error) {
	sess := c.store.Current()
	if !sess.Authenticated() {
		return sess, ErrNotAuthenticated
	}
	return sess, nil
}

// describe turns an API error into a user-facing message
func describe(err error, fallback string) error {
	if errors.Is(err, api.ErrSessionExpired) {
		return fmt.Errorf("session expired, please log in again")
	}
	return errors.New(api.MessageOr(err, fallback))
}

func (c *Cli) PrintUsage() {
	c.io.Println("newscoin: read news, earn coins")
	c.io.Println()
	c.io.Println("Usage:")
	c.io.Println("  newscoin [OPTIONS] COMMAND [ARGS]")
	c.io.Println()
	c.io.Println("Options:")
	c.io.Println("  --version               Show version information")
	c.io.Println("  --config PATH           YAML config file (env NEWSCOIN_CONFIG)")
	c.io.Println("  --server URL            Server URL (default: http://localhost:8080)")
	c.io.Println("  --db PATH               Path to local database (default: newscoin-client.db)")
	c.io.Println("  --timeout DURATION      HTTP request timeout (default: 30s)")
	c.io.Println("  --coalesce-refresh      Share one token refresh between concurrent requests")
	c.io.Println("  --log-level LEVEL       debug, info, warn, error")
	c.io.Println()
	c.io.Println("Commands:")
	c.io.Println("  register                Create an account")
	c.io.Println("  verify [email]          Enter the 6-digit code sent by email")
	c.io.Println("  resend [email]          Send a new verification code")
	c.io.Println("  login                   Log in with email and password")
	c.io.Println("  login-google            Log in with a Google account")
	c.io.Println("  logout                  Log out and delete the local session")
	c.io.Println("  status                  Show authentication status")
	c.io.Println("  feed [category]         Browse news (" + categoryList() + ")")
	c.io.Println("  read <article-id>       Read an article and earn coins after 30 seconds")
	c.io.Println("  profile                 Show your profile and referral code")
	c.io.Println("  wallet                  Show your coin balance")
	c.io.Println("  giftcards               List gift cards")
	c.io.Println("  redeem <card-id> [email] Redeem coins for a gift card")
	c.io.Println()
	c.io.Println("Examples:")
	c.io.Println("  newscoin register")
	c.io.Println("  newscoin login")
	c.io.Println("  newscoin feed business")
	c.io.Println("  NEWSCOIN_PASSPHRASE='local secret' newscoin wallet")
}
