// Command blockfall runs the Blockfall falling-block game.
//
// It has three modes:
//  1. "server" (default) runs the HTTP server exposing the REST API, the
//     WebSocket hub and an /mcp streamable HTTP endpoint
//  2. "mcp" runs an MCP stdio server, reusing a running API server or
//     starting an internal one
//  3. "play" runs a local game in the terminal
//
// Flags control host/port, the preset directory, logging and optional ngrok
// tunneling. Every flag can also be set from the environment or a .env file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/blockfall/game/config"
	"github.com/wricardo/mcp-training/blockfall/terminal"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Blockfall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("blockfall exited")
	}
}

// newCommand builds the CLI. Flags on the root command are shared by every
// subcommand.
func newCommand() *cli.Command {
	return &cli.Command{
		Name:           "blockfall",
		Usage:          "falling-block game server, MCP bridge and terminal client",
		Version:        Version,
		DefaultCommand: "server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "directory containing game presets",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "log level (trace, debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "human-readable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			loadDotEnv()
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "run the HTTP server with REST API, WebSocket and MCP endpoint",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "ngrok",
						Usage:   "expose the server through an ngrok tunnel",
						Sources: cli.EnvVars("NGROK_ENABLED"),
					},
					&cli.StringFlag{
						Name:    "ngrok-auth",
						Usage:   "ngrok auth token",
						Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
					},
					&cli.StringFlag{
						Name:    "ngrok-domain",
						Usage:   "custom ngrok domain (optional)",
						Sources: cli.EnvVars("NGROK_DOMAIN"),
					},
					&cli.StringFlag{
						Name:    "default-preset",
						Usage:   "preset used when a session names none",
						Sources: cli.EnvVars("DEFAULT_PRESET"),
					},
					&cli.DurationFlag{
						Name:    "session-ttl",
						Value:   24 * time.Hour,
						Usage:   "delete sessions idle for longer than this",
						Sources: cli.EnvVars("SESSION_TTL"),
					},
					&cli.DurationFlag{
						Name:    "cleanup-interval",
						Value:   time.Hour,
						Usage:   "how often idle sessions are pruned",
						Sources: cli.EnvVars("SESSION_CLEANUP_INTERVAL"),
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					setupLogging(cmd.String("log-level"), cmd.Bool("debug"), os.Stdout)
					return runServer(ctx, serverOptions{
						addr:            fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port")),
						configDir:       cmd.String("config-dir"),
						defaultPreset:   cmd.String("default-preset"),
						ngrok:           cmd.Bool("ngrok"),
						ngrokAuth:       cmd.String("ngrok-auth"),
						ngrokDomain:     cmd.String("ngrok-domain"),
						sessionTTL:      cmd.Duration("session-ttl"),
						cleanupInterval: cmd.Duration("cleanup-interval"),
					})
				},
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "run an MCP stdio server backed by the REST API",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "api-url",
						Value:   "http://localhost:8080",
						Usage:   "API server to proxy to; an internal one starts if it is unreachable",
						Sources: cli.EnvVars("BLOCKFALL_API_URL"),
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					// stdout carries the protocol.
					setupLogging(cmd.String("log-level"), cmd.Bool("debug"), os.Stderr)
					return runStdioMCP(ctx, cmd.String("api-url"), cmd.String("config-dir"))
				},
			},
			{
				Name:  "play",
				Usage: "play in the terminal",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "preset",
						Usage:   "preset to play (defaults to the directory default)",
						Sources: cli.EnvVars("BLOCKFALL_PRESET"),
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					// The terminal belongs to the game.
					setupLogging(cmd.String("log-level"), cmd.Bool("debug"), io.Discard)
					preset, err := loadPreset(cmd.String("config-dir"), cmd.String("preset"))
					if err != nil {
						return err
					}
					return terminal.Run(ctx, preset)
				},
			},
		},
	}
}

// loadDotEnv loads .env from the working directory when present.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Msg("failed to load .env file")
		}
		return
	}
	log.Debug().Msg("loaded environment variables from .env file")
}

// setupLogging configures the global zerolog logger. Debug mode switches to
// the console writer and lowers the level to debug.
func setupLogging(level string, debug bool, out io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if debug && lvl > zerolog.DebugLevel {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if debug {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Str("app", "blockfall").Logger()
	return log.Logger
}

// loadPreset returns the named preset, or the directory default when name is
// empty. A missing directory falls back to the built-in preset.
func loadPreset(configDir, name string) (*config.Preset, error) {
	manager, err := config.NewManager(configDir)
	if err != nil {
		if name != "" {
			return nil, err
		}
		return config.MinimalPreset(), nil
	}
	if name == "" {
		return manager.GetDefault(), nil
	}
	return manager.LoadConfig(name)
}
