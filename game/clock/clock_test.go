package clock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/blockfall/game/engine"
	"github.com/wricardo/mcp-training/blockfall/game/service"
)

type fakeTicker struct {
	mu       sync.Mutex
	calls    int
	overAt   int
	failAt   int
	sessions []string
}

func (f *fakeTicker) Tick(ctx context.Context, sessionID string, count int) (*service.TickResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.sessions = append(f.sessions, sessionID)
	if f.failAt > 0 && f.calls >= f.failAt {
		return nil, errors.New("boom")
	}
	over := f.overAt > 0 && f.calls >= f.overAt
	return &service.TickResult{
		TicksRun: 1,
		GameOver: over,
		Snapshot: &engine.Snapshot{Ticks: f.calls, GameOver: over},
	}, nil
}

func (f *fakeTicker) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recorder struct {
	mu    sync.Mutex
	snaps []*engine.Snapshot
}

func (r *recorder) Publish(sessionID string, snap *engine.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, snap)
}

func (r *recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func TestClockTicksAndPublishes(t *testing.T) {
	ticker := &fakeTicker{}
	rec := &recorder{}
	c := New(ticker, rec, zerolog.Nop())
	t.Cleanup(c.StopAll)

	require.NoError(t, c.Start(context.Background(), "ab12", 5*time.Millisecond))
	interval, ok := c.Running("ab12")
	assert.True(t, ok)
	assert.Equal(t, 5*time.Millisecond, interval)

	assert.Eventually(t, func() bool { return rec.Len() >= 3 }, 2*time.Second, 5*time.Millisecond)

	assert.True(t, c.Stop("ab12"))
	assert.False(t, c.Stop("ab12"))
	_, ok = c.Running("ab12")
	assert.False(t, ok)

	calls := ticker.Calls()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, ticker.Calls(), "no ticks after Stop")
}

func TestClockRejectsDoubleStart(t *testing.T) {
	c := New(&fakeTicker{}, nil, zerolog.Nop())
	t.Cleanup(c.StopAll)

	require.NoError(t, c.Start(context.Background(), "s1", time.Second))
	assert.ErrorIs(t, c.Start(context.Background(), "s1", time.Second), ErrAlreadyRunning)
	assert.Error(t, c.Start(context.Background(), "s2", 0))
}

func TestClockStopsAtGameOver(t *testing.T) {
	ticker := &fakeTicker{overAt: 3}
	rec := &recorder{}
	c := New(ticker, rec, zerolog.Nop())

	require.NoError(t, c.Start(context.Background(), "s1", 2*time.Millisecond))

	assert.Eventually(t, func() bool {
		_, running := c.Running("s1")
		return !running
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, ticker.Calls())
	assert.Equal(t, 3, rec.Len())
}

func TestClockStopsOnError(t *testing.T) {
	ticker := &fakeTicker{failAt: 2}
	rec := &recorder{}
	c := New(ticker, rec, zerolog.Nop())

	require.NoError(t, c.Start(context.Background(), "s1", 2*time.Millisecond))

	assert.Eventually(t, func() bool {
		_, running := c.Running("s1")
		return !running
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, rec.Len())
}

func TestClockStopsWithContext(t *testing.T) {
	c := New(&fakeTicker{}, nil, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, c.Start(ctx, "s1", time.Millisecond))
	cancel()

	assert.Eventually(t, func() bool {
		_, running := c.Running("s1")
		return !running
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, c.Start(context.Background(), "s1", time.Millisecond), "a stopped session can be restarted")
	c.StopAll()
}

func TestClockStopAll(t *testing.T) {
	ticker := &fakeTicker{}
	c := New(ticker, nil, zerolog.Nop())

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, c.Start(context.Background(), id, time.Millisecond))
	}
	c.StopAll()

	for _, id := range []string{"a", "b", "c"} {
		_, running := c.Running(id)
		assert.False(t, running)
	}
}
