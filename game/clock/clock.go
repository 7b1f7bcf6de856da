// Package clock drives sessions forward on a timer.
//
// The engine never advances on its own. A Clock runs one goroutine per
// started session that calls the game service once per interval and
// publishes the resulting snapshot.
package clock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wricardo/mcp-training/blockfall/game/engine"
	"github.com/wricardo/mcp-training/blockfall/game/service"
)

var ErrAlreadyRunning = errors.New("clock already running for session")

// Ticker is the part of the game service the clock needs.
type Ticker interface {
	Tick(ctx context.Context, sessionID string, count int) (*service.TickResult, error)
}

// Publisher receives every snapshot produced by a clock tick.
type Publisher interface {
	Publish(sessionID string, snap *engine.Snapshot)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(sessionID string, snap *engine.Snapshot)

func (f PublisherFunc) Publish(sessionID string, snap *engine.Snapshot) { f(sessionID, snap) }

// Clock owns the running tick loops.
type Clock struct {
	ticker    Ticker
	publisher Publisher
	logger    zerolog.Logger

	mu      sync.Mutex
	running map[string]*loop
	wg      sync.WaitGroup
}

type loop struct {
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// New returns a clock that ticks through t and publishes to p. p may be nil.
func New(t Ticker, p Publisher, logger zerolog.Logger) *Clock {
	if p == nil {
		p = PublisherFunc(func(string, *engine.Snapshot) {})
	}
	return &Clock{
		ticker:    t,
		publisher: p,
		logger:    logger,
		running:   make(map[string]*loop),
	}
}

// Start begins ticking sessionID every interval until Stop is called, ctx is
// done, the game ends or a tick fails.
func (c *Clock) Start(ctx context.Context, sessionID string, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("interval must be positive")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.running[sessionID]; ok {
		return ErrAlreadyRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	l := &loop{interval: interval, cancel: cancel, done: make(chan struct{})}
	c.running[sessionID] = l

	c.wg.Add(1)
	go c.run(loopCtx, sessionID, l)

	c.logger.Info().Str("session", sessionID).Dur("interval", interval).Msg("clock started")
	return nil
}

func (c *Clock) run(ctx context.Context, sessionID string, l *loop) {
	defer c.wg.Done()
	defer close(l.done)
	defer c.forget(sessionID, l)

	t := time.NewTicker(l.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			result, err := c.ticker.Tick(ctx, sessionID, 1)
			if err != nil {
				if ctx.Err() == nil {
					c.logger.Warn().Err(err).Str("session", sessionID).Msg("clock stopped")
				}
				return
			}
			c.publisher.Publish(sessionID, result.Snapshot)
			if result.GameOver {
				c.logger.Info().Str("session", sessionID).Int("score", result.Snapshot.Score).Msg("clock stopped at game over")
				return
			}
		}
	}
}

// forget removes l from the running set if it is still the current loop.
func (c *Clock) forget(sessionID string, l *loop) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running[sessionID] == l {
		delete(c.running, sessionID)
	}
}

// Stop halts the loop for sessionID and waits for it to exit. It reports
// whether a loop was running.
func (c *Clock) Stop(sessionID string) bool {
	c.mu.Lock()
	l, ok := c.running[sessionID]
	if ok {
		delete(c.running, sessionID)
	}
	c.mu.Unlock()

	if !ok {
		return false
	}
	l.cancel()
	<-l.done
	c.logger.Info().Str("session", sessionID).Msg("clock stopped")
	return true
}

// Running reports whether sessionID is being ticked and at what interval.
func (c *Clock) Running(sessionID string) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.running[sessionID]
	if !ok {
		return 0, false
	}
	return l.interval, true
}

// StopAll halts every loop and waits for them to exit.
func (c *Clock) StopAll() {
	c.mu.Lock()
	loops := c.running
	c.running = make(map[string]*loop)
	c.mu.Unlock()

	for _, l := range loops {
		l.cancel()
	}
	c.wg.Wait()
}
