package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/blockfall/api"
	"github.com/wricardo/mcp-training/blockfall/game/clock"
	"github.com/wricardo/mcp-training/blockfall/game/config"
	"github.com/wricardo/mcp-training/blockfall/game/service"
	"github.com/wricardo/mcp-training/blockfall/game/session"
	"github.com/wricardo/mcp-training/blockfall/transport/mcp"
	"github.com/wricardo/mcp-training/blockfall/transport/websocket"
)

type serverOptions struct {
	addr            string
	configDir       string
	defaultPreset   string
	ngrok           bool
	ngrokAuth       string
	ngrokDomain     string
	sessionTTL      time.Duration
	cleanupInterval time.Duration
}

// app holds the wired services shared by the server and MCP modes.
type app struct {
	sessions *session.Manager
	configs  *config.Manager
	service  service.GameService
	hub      *websocket.Hub
	clock    *clock.Clock
	api      *api.Server
}

// initializeServices wires the session and preset managers, the game service,
// the WebSocket hub and the tick clock behind one API server.
func initializeServices(configDir string, logger zerolog.Logger) (*app, error) {
	configs, err := config.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	sessions := session.NewManager()
	gameService := service.NewGameService(sessions, configs,
		service.WithLogger(logger.With().Str("component", "service").Logger()))
	hub := websocket.NewHub(logger.With().Str("component", "websocket").Logger())
	clk := clock.New(gameService, hub, logger.With().Str("component", "clock").Logger())

	return &app{
		sessions: sessions,
		configs:  configs,
		service:  gameService,
		hub:      hub,
		clock:    clk,
		api:      api.NewServer(gameService, hub, clk, logger.With().Str("component", "api").Logger()),
	}, nil
}

// runServer serves the API, WebSocket hub and /mcp endpoint until ctx ends.
func runServer(ctx context.Context, opts serverOptions) error {
	a, err := initializeServices(opts.configDir, log.Logger)
	if err != nil {
		return err
	}
	if opts.defaultPreset != "" {
		if err := a.configs.SetDefault(opts.defaultPreset); err != nil {
			return fmt.Errorf("failed to set default preset: %w", err)
		}
		log.Info().Str("preset", opts.defaultPreset).Msg("default preset selected")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		reloadPresetsOnHangup(ctx, a.configs, opts.defaultPreset)
	}()
	go func() {
		defer wg.Done()
		a.hub.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		sessionCleanupRoutine(ctx, a.sessions, a.clock, opts.cleanupInterval, opts.sessionTTL)
	}()

	mcpClient := mcp.NewClient("http://" + opts.addr)
	a.api.Router().Handle("/mcp", mcpClient.HTTPHandler())

	httpServer := &http.Server{
		Addr:        opts.addr,
		Handler:     a.api,
		ReadTimeout: 15 * time.Second,
		// No write timeout: WebSocket and streamable MCP connections are long-lived.
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", opts.addr).
			Str("api", "http://"+opts.addr+"/api").
			Str("websocket", "ws://"+opts.addr+"/ws?session=<session_id>").
			Str("mcp", "http://"+opts.addr+"/mcp").
			Msgf("%s v%s listening", AppName, Version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if opts.ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := serveTunnel(ctx, opts, a.api); err != nil {
				log.Error().Err(err).Msg("ngrok tunnel failed")
			}
		}()
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err = <-errCh:
		log.Error().Err(err).Msg("HTTP server failed")
	}

	a.clock.StopAll()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Warn().Err(shutdownErr).Msg("HTTP server shutdown error")
	}

	cancel()
	wg.Wait()
	log.Info().Msg("server stopped")
	return err
}

// serveTunnel exposes handler through ngrok until ctx ends.
func serveTunnel(ctx context.Context, opts serverOptions, handler http.Handler) error {
	if opts.ngrokAuth == "" {
		log.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN or NGROK_AUTH_TOKEN)")
		return nil
	}

	var endpoint ngrokConfig.Tunnel
	if opts.ngrokDomain != "" {
		endpoint = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.ngrokDomain))
	} else {
		endpoint = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, endpoint, ngrok.WithAuthtoken(opts.ngrokAuth))
	if err != nil {
		return fmt.Errorf("failed to start ngrok tunnel: %w", err)
	}

	url := tun.URL()
	log.Info().
		Str("url", url).
		Str("api", url+"/api").
		Str("mcp", url+"/mcp").
		Msg("ngrok tunnel established")

	srv := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	if err := srv.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info().Msg("ngrok tunnel closed")
	return nil
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within ttl and stops their clocks.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, clk *clock.Clock, interval, ttl time.Duration) {
	if interval <= 0 || ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := manager.CleanupExpiredSessions(ttl)
			for _, id := range removed {
				clk.Stop(id)
			}
			if len(removed) > 0 {
				log.Info().
					Strs("sessions", removed).
					Int("remaining", manager.Count()).
					Msg("cleaned up expired sessions")
			}
		}
	}
}

// reloadPresetsOnHangup drops the preset cache whenever the process receives
// SIGHUP, so edited preset files apply to sessions created afterwards.
// defaultPreset, when set, is selected again after every reload.
func reloadPresetsOnHangup(ctx context.Context, configs *config.Manager, defaultPreset string) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := configs.RefreshCache(); err != nil {
				log.Error().Err(err).Msg("failed to reload presets")
				continue
			}
			if defaultPreset != "" {
				if err := configs.SetDefault(defaultPreset); err != nil {
					log.Warn().Err(err).Str("preset", defaultPreset).Msg("default preset missing after reload")
				}
			}
			log.Info().Str("default", configs.GetDefault().Name).Msg("presets reloaded")
		}
	}
}

// runStdioMCP serves MCP over stdio. It reuses the API at apiURL when it
// answers, otherwise it starts an internal API on a random loopback port.
func runStdioMCP(ctx context.Context, apiURL, configDir string) error {
	baseURL := apiURL
	if !apiReachable(ctx, apiURL) {
		log.Info().Str("api", apiURL).Msg("no API server found, starting internal HTTP server")

		a, err := initializeServices(configDir, log.Logger)
		if err != nil {
			return err
		}
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		go a.hub.Run(ctx)
		httpServer := &http.Server{Handler: a.api}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("internal HTTP server error")
			}
		}()
		defer func() {
			a.clock.StopAll()
			httpServer.Close()
		}()

		baseURL = "http://" + listener.Addr().String()
	}

	log.Info().Str("api", baseURL).Msg("MCP stdio server ready")
	return server.ServeStdio(mcp.NewClient(baseURL).GetMCPServer())
}

func apiReachable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
