// Command bruteforcer plays Blockfall sessions through the REST API. For every
// piece it tries all rotations and columns, keeps the placement with the best
// board score, then steers the piece there with intents and single ticks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/blockfall/game/engine"
	"github.com/wricardo/mcp-training/blockfall/game/render"
)

// options controls a run.
type options struct {
	configID  string
	sessionID string
	pieces    int
	attempts  int
}

// AttemptResult summarizes one game.
type AttemptResult struct {
	Attempt      int
	Pieces       int
	Lines        int
	Score        int
	Ticks        int
	GameOver     bool
	SessionID    string
	ElapsedTicks int
	Final        *engine.Snapshot
}

// Bot plays one session.
type Bot struct {
	client *Client
	logger zerolog.Logger
	delay  time.Duration
}

func NewBot(client *Client, logger zerolog.Logger, delay time.Duration) *Bot {
	return &Bot{client: client, logger: logger, delay: delay}
}

// Run plays up to opts.attempts games of at most opts.pieces pieces each,
// resetting between games.
func (b *Bot) Run(ctx context.Context, opts options) ([]AttemptResult, error) {
	var (
		snap *engine.Snapshot
		err  error
	)
	if opts.sessionID != "" {
		snap, err = b.client.UseSession(ctx, opts.sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to resume session %s: %w", opts.sessionID, err)
		}
		b.logger.Info().Str("session", opts.sessionID).Msg("resumed session")
	} else {
		snap, err = b.client.CreateSession(ctx, opts.configID)
		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		b.logger.Info().Str("session", b.client.sessionID).Str("config", opts.configID).Msg("session created")
	}

	var results []AttemptResult
	for attempt := 1; attempt <= opts.attempts; attempt++ {
		if attempt > 1 || snap.GameOver {
			if snap, err = b.client.Reset(ctx); err != nil {
				return results, fmt.Errorf("failed to reset: %w", err)
			}
		}

		startTicks := snap.Ticks
		startPieces := snap.PiecesLocked
		for snap.PiecesLocked-startPieces < opts.pieces && !snap.GameOver {
			if snap, err = b.PlayPiece(ctx, snap); err != nil {
				return results, err
			}
		}

		result := AttemptResult{
			Attempt:      attempt,
			Pieces:       snap.PiecesLocked - startPieces,
			Lines:        snap.LinesCleared,
			Score:        snap.Score,
			Ticks:        snap.Ticks,
			GameOver:     snap.GameOver,
			SessionID:    b.client.sessionID,
			ElapsedTicks: snap.Ticks - startTicks,
			Final:        snap,
		}
		results = append(results, result)
		b.logger.Info().
			Int("attempt", attempt).
			Int("pieces", result.Pieces).
			Int("lines", result.Lines).
			Int("score", result.Score).
			Bool("game_over", result.GameOver).
			Msg("attempt finished")
	}
	return results, nil
}

// PlayPiece moves the current piece to its best placement and locks it. It
// returns the snapshot after the lock, which shows the next piece.
func (b *Bot) PlayPiece(ctx context.Context, snap *engine.Snapshot) (*engine.Snapshot, error) {
	plan, ok := BestPlacement(snap)
	if !ok {
		plan = Plan{Rotation: snap.Rotation, X: snap.Anchor.X}
	}
	b.logger.Debug().
		Str("kind", snap.Kind.String()).
		Int("rotation", plan.Rotation).
		Int("x", plan.X).
		Int("lines", plan.Lines).
		Float64("score", plan.Score).
		Msg("placement chosen")

	var err error
	for i := rotationsNeeded(snap.Rotation, plan.Rotation); i > 0; i-- {
		if _, err = b.client.Rotate(ctx); err != nil {
			return nil, err
		}
		if snap, err = b.step(ctx); err != nil {
			return nil, err
		}
		if snap.GameOver {
			return snap, nil
		}
	}

	locked := snap.PiecesLocked
	blocked := false
	for i := 0; i < maxTicksPerPiece; i++ {
		if snap.GameOver || snap.PiecesLocked > locked {
			return snap, nil
		}

		if snap.Landed && (blocked || snap.Anchor.X == plan.X) {
			next, ok, err := b.client.Lock(ctx)
			if err != nil {
				return nil, err
			}
			if ok {
				return next, nil
			}
			snap = next
		}

		want := engine.IntentDown
		switch {
		case blocked:
		case snap.Anchor.X < plan.X:
			want = engine.IntentRight
		case snap.Anchor.X > plan.X:
			want = engine.IntentLeft
		}
		if snap.Intent != want {
			if _, err = b.client.SetIntent(ctx, want); err != nil {
				return nil, err
			}
		}

		before := snap.Anchor
		if snap, err = b.step(ctx); err != nil {
			return nil, err
		}
		if want != engine.IntentDown && snap.Anchor == before {
			blocked = true
		}
	}

	// Out of ticks. Lock wherever it is so the game keeps going.
	next, _, err := b.client.Lock(ctx)
	return next, err
}

// maxTicksPerPiece bounds the steering loop for one piece.
const maxTicksPerPiece = 4 * (engine.Width + engine.Height)

func (b *Bot) step(ctx context.Context) (*engine.Snapshot, error) {
	if b.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(b.delay):
		}
	}
	return b.client.Tick(ctx, 1)
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "bruteforcer",
		Usage: "play Blockfall through the REST API with a placement search",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "game server URL", Sources: cli.EnvVars("BLOCKFALL_API_URL")},
			&cli.StringFlag{Name: "config", Usage: "preset for new sessions"},
			&cli.StringFlag{Name: "continue", Usage: "play an existing session by ID"},
			&cli.IntFlag{Name: "pieces", Value: 200, Usage: "maximum pieces per attempt"},
			&cli.IntFlag{Name: "attempts", Value: 1, Usage: "games to play"},
			&cli.DurationFlag{Name: "delay", Usage: "pause before every tick, to watch the game"},
			&cli.BoolFlag{Name: "v", Usage: "log every placement"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			level := zerolog.InfoLevel
			if cmd.Bool("v") {
				level = zerolog.DebugLevel
			}
			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
				Level(level).With().Timestamp().Logger()

			logger.Info().Str("url", cmd.String("url")).Msg("connecting to game server")
			bot := NewBot(NewClient(cmd.String("url")), logger, cmd.Duration("delay"))
			results, err := bot.Run(ctx, options{
				configID:  cmd.String("config"),
				sessionID: cmd.String("continue"),
				pieces:    cmd.Int("pieces"),
				attempts:  max(cmd.Int("attempts"), 1),
			})
			printResults(results)
			return err
		},
	}
}

func printResults(results []AttemptResult) {
	best := -1
	for i, r := range results {
		status := "stopped"
		if r.GameOver {
			status = "game over"
		}
		fmt.Printf("Attempt %d: pieces=%d lines=%d score=%d ticks=%d (%s)\n",
			r.Attempt, r.Pieces, r.Lines, r.Score, r.ElapsedTicks, status)
		if best < 0 || r.Score > results[best].Score {
			best = i
		}
	}
	if best >= 0 {
		fmt.Printf("Best: attempt %d with %d points, session %s\n",
			results[best].Attempt, results[best].Score, results[best].SessionID)
		if results[best].Final != nil {
			fmt.Print(render.Board(results[best].Final, render.DefaultOptions))
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
