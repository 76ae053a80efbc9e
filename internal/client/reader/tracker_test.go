package reader

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newscoin/newscoin/internal/client/api"
	"github.com/newscoin/newscoin/internal/client/session"
	"github.com/newscoin/newscoin/internal/client/storage"
	pkgapi "github.com/newscoin/newscoin/pkg/api"
)

type fakeTimer struct {
	f        func()
	deadline time.Time
	stopped  bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// fakeClock fires timers synchronously from Advance
type fakeClock struct {
	now    time.Time
	timers []*fakeTimer
	mu     sync.Mutex
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{f: f, deadline: c.now.Add(d)}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.deadline.After(c.now) {
			t.stopped = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

type markCall struct {
	ctxErr    error
	articleID string
	timeSpent int64
}

type fakeReadAPI struct {
	data  *pkgapi.ReadData
	err   error
	calls []markCall
}

func (f *fakeReadAPI) MarkRead(ctx context.Context, articleID string, timeSpent int64) (*pkgapi.ReadData, error) {
	f.calls = append(f.calls, markCall{ctxErr: ctx.Err(), articleID: articleID, timeSpent: timeSpent})
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func newTestStore(t *testing.T, loggedIn bool) *session.Store {
	t.Helper()
	store := session.NewStore(storage.NewMemory(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if loggedIn {
		require.NoError(t, store.Save(context.Background(), session.Session{
			AccessToken:  "A1",
			RefreshToken: "R1",
			User: &session.User{
				ID:     "u1",
				Email:  "reader@example.com",
				Wallet: session.Wallet{AvailableCoins: 100, TotalEarned: 100},
			},
		}))
	}
	return store
}

func newTestTracker(readAPI ReadAPI, store WalletStore, clock Clock, outcomes *[]Outcome) *Tracker {
	return NewTracker(readAPI, store,
		WithClock(clock),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithOutcome(func(o Outcome) { *outcomes = append(*outcomes, o) }),
	)
}

func TestTracker_CreditsOnceAfterDwell(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTestStore(t, true)
	readAPI := &fakeReadAPI{data: &pkgapi.ReadData{CoinsEarned: 10, StreakBonus: 50}}

	var outcomes []Outcome
	tracker := newTestTracker(readAPI, store, clock, &outcomes)

	require.True(t, tracker.Start(ctx, "a1"))
	clock.Advance(29 * time.Second)
	assert.Empty(t, readAPI.calls)

	clock.Advance(time.Second)
	require.Len(t, readAPI.calls, 1)
	assert.Equal(t, markCall{articleID: "a1", timeSpent: 30}, readAPI.calls[0])

	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusCredited, outcomes[0].Status)
	assert.EqualValues(t, 10, outcomes[0].CoinsEarned)
	assert.EqualValues(t, 50, outcomes[0].StreakBonus)

	wallet := store.Current().User.Wallet
	assert.EqualValues(t, 110, wallet.AvailableCoins)
	assert.EqualValues(t, 110, wallet.TotalEarned)

	// повторное открытие той же статьи не начисляет снова
	assert.False(t, tracker.Start(ctx, "a1"))
	assert.True(t, tracker.Tracked("a1"))
	clock.Advance(time.Minute)
	assert.Len(t, readAPI.calls, 1)
}

func TestTracker_ReportOutlivesStartContext(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(t, true)
	readAPI := &fakeReadAPI{data: &pkgapi.ReadData{CoinsEarned: 10}}
	var outcomes []Outcome
	tracker := newTestTracker(readAPI, store, clock, &outcomes)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	require.True(t, tracker.Start(ctx, "a1"))
	cancel()

	clock.Advance(30 * time.Second)
	require.Len(t, readAPI.calls, 1)
	assert.NoError(t, readAPI.calls[0].ctxErr)

	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusCredited, outcomes[0].Status)
	assert.EqualValues(t, 110, store.Current().User.Wallet.AvailableCoins)
}

func TestTracker_StopBeforeDwell(t *testing.T) {
	clock := newFakeClock()
	readAPI := &fakeReadAPI{data: &pkgapi.ReadData{CoinsEarned: 10}}
	var outcomes []Outcome
	tracker := newTestTracker(readAPI, newTestStore(t, true), clock, &outcomes)

	require.True(t, tracker.Start(context.Background(), "a1"))
	clock.Advance(10 * time.Second)
	tracker.Stop()
	clock.Advance(time.Minute)

	assert.Empty(t, readAPI.calls)
	assert.Empty(t, outcomes)
	assert.False(t, tracker.Tracked("a1"))
}

func TestTracker_SwitchArticle(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	readAPI := &fakeReadAPI{data: &pkgapi.ReadData{CoinsEarned: 10}}
	var outcomes []Outcome
	tracker := newTestTracker(readAPI, newTestStore(t, true), clock, &outcomes)

	require.True(t, tracker.Start(ctx, "a1"))
	clock.Advance(20 * time.Second)
	require.True(t, tracker.Start(ctx, "a2"))
	clock.Advance(15 * time.Second)
	assert.Empty(t, readAPI.calls)

	clock.Advance(15 * time.Second)
	require.Len(t, readAPI.calls, 1)
	assert.Equal(t, "a2", readAPI.calls[0].articleID)
	assert.EqualValues(t, 30, readAPI.calls[0].timeSpent)
}

func TestTracker_Anonymous(t *testing.T) {
	clock := newFakeClock()
	readAPI := &fakeReadAPI{}
	var outcomes []Outcome
	tracker := newTestTracker(readAPI, newTestStore(t, false), clock, &outcomes)

	assert.False(t, tracker.Start(context.Background(), "a1"))
	clock.Advance(time.Minute)
	assert.Empty(t, readAPI.calls)
}

func TestTracker_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  Status
		wantTracked bool
	}{
		{name: "already read", err: &api.APIError{StatusCode: http.StatusBadRequest}, wantStatus: StatusAlreadyRead, wantTracked: true},
		{name: "not found", err: &api.APIError{StatusCode: http.StatusNotFound}, wantStatus: StatusNotFound},
		{name: "server error", err: &api.APIError{StatusCode: http.StatusInternalServerError}, wantStatus: StatusFailed},
		{name: "network", err: io.ErrUnexpectedEOF, wantStatus: StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			store := newTestStore(t, true)
			readAPI := &fakeReadAPI{err: tt.err}
			var outcomes []Outcome
			tracker := newTestTracker(readAPI, store, clock, &outcomes)

			require.True(t, tracker.Start(context.Background(), "a1"))
			clock.Advance(DefaultDwell)

			require.Len(t, outcomes, 1)
			assert.Equal(t, tt.wantStatus, outcomes[0].Status)
			assert.ErrorIs(t, outcomes[0].Err, tt.err)
			assert.Equal(t, tt.wantTracked, tracker.Tracked("a1"))
			assert.EqualValues(t, 100, store.Current().User.Wallet.AvailableCoins)
		})
	}
}

func TestTracker_NoReward(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(t, true)
	readAPI := &fakeReadAPI{data: &pkgapi.ReadData{}}
	var outcomes []Outcome
	tracker := newTestTracker(readAPI, store, clock, &outcomes)

	require.True(t, tracker.Start(context.Background(), "a1"))
	clock.Advance(DefaultDwell)

	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusNoReward, outcomes[0].Status)
	assert.True(t, tracker.Tracked("a1"))
	assert.EqualValues(t, 100, store.Current().User.Wallet.AvailableCoins)
}

func TestTracker_CustomDwell(t *testing.T) {
	clock := newFakeClock()
	readAPI := &fakeReadAPI{data: &pkgapi.ReadData{CoinsEarned: 10}}
	tracker := NewTracker(readAPI, newTestStore(t, true), WithClock(clock), WithDwell(5*time.Second))

	require.True(t, tracker.Start(context.Background(), "a1"))
	clock.Advance(5 * time.Second)
	require.Len(t, readAPI.calls, 1)
	assert.EqualValues(t, 5, readAPI.calls[0].timeSpent)
}
