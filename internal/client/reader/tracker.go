// Package reader credits article reads: an article that stays open for
// the dwell time is reported to the backend once, and the earned coins
// are added to the cached wallet.
package reader

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/newscoin/newscoin/internal/client/api"
	"github.com/newscoin/newscoin/internal/client/session"
	pkgapi "github.com/newscoin/newscoin/pkg/api"
)

// DefaultDwell is how long an article must stay open to count as read
const DefaultDwell = 30 * time.Second

// ReadAPI reports reads to the backend
type ReadAPI interface {
	MarkRead(ctx context.Context, articleID string, timeSpent int64) (*pkgapi.ReadData, error)
}

// WalletStore is the credential store as seen by the tracker
type WalletStore interface {
	Current() session.Session
	UpdateUser(ctx context.Context, upd session.UserUpdate) (session.User, bool)
}

// Status is the result of a reported read
type Status int

const (
	StatusCredited    Status = iota // coins were added
	StatusNoReward                  // read accepted without coins, e.g. daily limit reached
	StatusAlreadyRead               // 400
	StatusNotFound                  // 404
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCredited:
		return "credited"
	case StatusNoReward:
		return "no reward"
	case StatusAlreadyRead:
		return "already read"
	case StatusNotFound:
		return "not found"
	default:
		return "failed"
	}
}

// Outcome describes one reported read
type Outcome struct {
	Err         error
	ArticleID   string
	TimeSpent   int64 // seconds
	CoinsEarned int64
	StreakBonus int64
	Status      Status
}

// Tracker watches one open article at a time
type Tracker struct {
	api       ReadAPI
	store     WalletStore
	clock     Clock
	logger    *slog.Logger
	onOutcome func(Outcome)
	timer     Timer
	tracked   map[string]bool
	current   string
	started   time.Time
	dwell     time.Duration
	gen       uint64
	mu        sync.Mutex
}

// Option configures a Tracker
type Option func(*Tracker)

func WithDwell(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.dwell = d
		}
	}
}

func WithClock(c Clock) Option {
	return func(t *Tracker) { t.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithOutcome registers the callback invoked after each reported read.
// It runs on the timer goroutine.
func WithOutcome(fn func(Outcome)) Option {
	return func(t *Tracker) { t.onOutcome = fn }
}

// NewTracker creates a tracker
func NewTracker(readAPI ReadAPI, store WalletStore, opts ...Option) *Tracker {
	t := &Tracker{
		api:     readAPI,
		store:   store,
		clock:   realClock{},
		logger:  slog.Default(),
		dwell:   DefaultDwell,
		tracked: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start begins the dwell timer for articleID and cancels the previous one.
// Returns false when nothing will be reported: the user is not logged in
// or the article was already tracked in this process.
// The report keeps the values of ctx but not its cancellation, the
// pending report is cancelled only by Stop or the next Start.
func (t *Tracker) Start(ctx context.Context, articleID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()

	if t.store.Current().User == nil || t.tracked[articleID] {
		return false
	}

	reportCtx := context.WithoutCancel(ctx)
	t.gen++
	gen := t.gen
	t.current = articleID
	t.started = t.clock.Now()
	t.timer = t.clock.AfterFunc(t.dwell, func() {
		t.fire(reportCtx, gen)
	})
	return true
}

// Stop cancels the pending report, if any
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Tracker) stopLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.current = ""
	// устаревший колбэк таймера увидит другой gen и ничего не сделает
	t.gen++
}

// Tracked reports whether articleID needs no further reporting
func (t *Tracker) Tracked(articleID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tracked[articleID]
}

func (t *Tracker) fire(ctx context.Context, gen uint64) {
	t.mu.Lock()
	if gen != t.gen || t.current == "" {
		t.mu.Unlock()
		return
	}
	articleID := t.current
	elapsed := t.clock.Now().Sub(t.started)
	if elapsed < t.dwell {
		t.mu.Unlock()
		return
	}
	t.tracked[articleID] = true
	t.timer = nil
	t.current = ""
	t.mu.Unlock()

	timeSpent := int64(elapsed / time.Second)
	outcome := t.report(ctx, articleID, timeSpent)
	if outcome.Status == StatusFailed || outcome.Status == StatusNotFound {
		t.mu.Lock()
		delete(t.tracked, articleID)
		t.mu.Unlock()
	}

	if t.onOutcome != nil {
		t.onOutcome(outcome)
	}
}

func (t *Tracker) report(ctx context.Context, articleID string, timeSpent int64) Outcome {
	outcome := Outcome{ArticleID: articleID, TimeSpent: timeSpent}

	data, err := t.api.MarkRead(ctx, articleID, timeSpent)
	if err != nil {
		outcome.Err = err
		switch api.StatusCode(err) {
		case http.StatusBadRequest:
			outcome.Status = StatusAlreadyRead
			t.logger.DebugContext(ctx, "article already read", slog.String("article_id", articleID))
		case http.StatusNotFound:
			outcome.Status = StatusNotFound
			t.logger.WarnContext(ctx, "article not found", slog.String("article_id", articleID))
		default:
			outcome.Status = StatusFailed
			t.logger.WarnContext(ctx, "failed to track reading",
				slog.String("article_id", articleID),
				slog.Any("error", err),
			)
		}
		return outcome
	}

	outcome.CoinsEarned = data.CoinsEarned
	outcome.StreakBonus = data.StreakBonus
	if data.CoinsEarned <= 0 {
		outcome.Status = StatusNoReward
		return outcome
	}

	outcome.Status = StatusCredited
	t.credit(ctx, data.CoinsEarned)
	return outcome
}

// credit adds coins to the cached wallet
func (t *Tracker) credit(ctx context.Context, coins int64) {
	user := t.store.Current().User
	if user == nil {
		return
	}
	t.store.UpdateUser(ctx, session.UserUpdate{
		Wallet: &session.WalletUpdate{
			AvailableCoins: session.Ptr(user.Wallet.AvailableCoins + coins),
			TotalEarned:    session.Ptr(user.Wallet.TotalEarned + coins),
		},
	})
}
