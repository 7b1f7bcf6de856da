package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/wricardo/mcp-training/blockfall/game/clock"
	"github.com/wricardo/mcp-training/blockfall/game/config"
	"github.com/wricardo/mcp-training/blockfall/game/engine"
	"github.com/wricardo/mcp-training/blockfall/game/service"
	"github.com/wricardo/mcp-training/blockfall/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	clock   *clock.Clock
	router  *mux.Router
	handler http.Handler
	logger  zerolog.Logger
}

// NewServer creates a new API server. hub and clk may be nil; without a
// clock the start and stop routes answer 503. When a hub is given the server
// registers itself as its input handler, so NewServer must run before the
// hub's Run loop starts.
func NewServer(gameService service.GameService, hub *websocket.Hub, clk *clock.Clock, logger zerolog.Logger) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		clock:   clk,
		router:  mux.NewRouter(),
		logger:  logger,
	}

	s.setupRoutes()
	s.handler = s.withLogging(s.router)
	if hub != nil {
		hub.OnInput(s.handleInput)
	}
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Game operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetState).Methods("GET")
	api.HandleFunc("/sessions/{id}/intent", s.handleSetIntent).Methods("POST")
	api.HandleFunc("/sessions/{id}/rotate", s.handleRotate).Methods("POST")
	api.HandleFunc("/sessions/{id}/lock", s.handleLock).Methods("POST")
	api.HandleFunc("/sessions/{id}/tick", s.handleTick).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")

	// Server-side clock
	api.HandleFunc("/sessions/{id}/start", s.handleStart).Methods("POST")
	api.HandleFunc("/sessions/{id}/stop", s.handleStop).Methods("POST")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// withLogging wraps h with request-scoped zerolog access logging.
func (s *Server) withLogging(h http.Handler) http.Handler {
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})(h)
	h = hlog.RemoteAddrHandler("ip")(h)
	h = hlog.RequestIDHandler("req_id", "Request-Id")(h)
	return hlog.NewHandler(s.logger)(h)
}

// Router exposes the route table so callers can mount extra handlers.
func (s *Server) Router() *mux.Router {
	return s.router
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondErr writes err with the status code its sentinel maps to.
func respondErr(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, config.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidArgument), errors.Is(err, config.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrGameOver), errors.Is(err, clock.ErrAlreadyRunning):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody decodes an optional JSON body into v. An empty body is fine.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) broadcast(sessionID string, snap *engine.Snapshot) {
	if s.hub != nil && snap != nil {
		s.hub.BroadcastToSession(sessionID, snap)
	}
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID   string `json:"config_id,omitempty"`
		ConfigName string `json:"config_name,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	configID := req.ConfigID
	if configID == "" {
		configID = req.ConfigName
	}

	session, err := s.service.CreateSession(r.Context(), configID)
	if err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	total := len(sessions)

	query := r.URL.Query()
	sortBy := query.Get("sort") // "created" or "accessed" (default)
	order := query.Get("order") // "asc" or "desc" (default)
	if sortBy != "created" {
		sortBy = "accessed"
	}
	if order != "asc" {
		order = "desc"
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		ti, tj := sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		}
		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 && l < len(sessions) {
		sessions = sessions[:l]
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if s.clock != nil {
		s.clock.Stop(sessionID)
	}
	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondErr(w, err)
		return
	}
	if s.hub != nil {
		s.hub.BroadcastEvent(sessionID, "session_deleted", nil)
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Game Operation Handlers

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.GetSnapshot(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSetIntent(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Intent string `json:"intent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.SetIntent(r.Context(), sessionID, req.Intent)
	if err != nil {
		respondErr(w, err)
		return
	}

	s.broadcast(sessionID, result.Snapshot)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleRotate(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	result, err := s.service.Rotate(r.Context(), sessionID)
	if err != nil {
		respondErr(w, err)
		return
	}

	s.broadcast(sessionID, result.Snapshot)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	result, err := s.service.Lock(r.Context(), sessionID)
	if err != nil {
		respondErr(w, err)
		return
	}

	s.broadcast(sessionID, result.Snapshot)
	hlog.FromRequest(r).Info().
		Str("session", sessionID).
		Str("action", "lock").
		Bool("locked", result.Locked).
		Str("next", result.NextKind).
		Int("score", result.Snapshot.Score).
		Msg("lock")

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Count int `json:"count"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.Tick(r.Context(), sessionID, req.Count)
	if err != nil {
		respondErr(w, err)
		return
	}

	s.broadcast(sessionID, result.Snapshot)
	hlog.FromRequest(r).Info().
		Str("session", sessionID).
		Str("action", "tick").
		Int("ran", result.TicksRun).
		Int("requested", result.Requested).
		Int("lines", result.LinesCleared).
		Int("score_delta", result.ScoreDelta).
		Bool("game_over", result.GameOver).
		Msg("tick")

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	snap, err := s.service.Reset(r.Context(), sessionID)
	if err != nil {
		respondErr(w, err)
		return
	}

	s.broadcast(sessionID, snap)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Game reset successfully",
		"snapshot": snap,
	})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if p, err := strconv.Atoi(query.Get("page")); err == nil && p > 0 {
		opts.Page = p
	}
	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 {
		opts.Limit = l
	}
	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}
	opts.Type = query.Get("type")

	history, err := s.service.GetEventHistory(r.Context(), mux.Vars(r)["id"], opts)
	if err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// Clock Handlers

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if s.clock == nil {
		respondError(w, http.StatusServiceUnavailable, "clock is not enabled")
		return
	}
	sessionID := mux.Vars(r)["id"]

	var req struct {
		IntervalMS int `json:"interval_ms,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondErr(w, err)
		return
	}
	if info.Snapshot.GameOver {
		respondErr(w, service.ErrGameOver)
		return
	}

	interval := info.Preset.TickInterval()
	if req.IntervalMS != 0 {
		interval = time.Duration(req.IntervalMS) * time.Millisecond
		if interval < config.MinTickInterval || interval > config.MaxTickInterval {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("interval_ms must be between %d and %d",
				config.MinTickInterval.Milliseconds(), config.MaxTickInterval.Milliseconds()))
			return
		}
	}

	// The loop outlives this request; it ends on Stop, game over or shutdown.
	if err := s.clock.Start(context.WithoutCancel(r.Context()), info.ID, interval); err != nil {
		respondErr(w, err)
		return
	}

	watchers := 0
	if s.hub != nil {
		watchers = s.hub.ClientCount(info.ID)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Clock started",
		"session_id":  info.ID,
		"interval_ms": interval.Milliseconds(),
		"watchers":    watchers,
	})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if s.clock == nil {
		respondError(w, http.StatusServiceUnavailable, "clock is not enabled")
		return
	}

	info, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondErr(w, err)
		return
	}

	interval, _ := s.clock.Running(info.ID)
	stopped := s.clock.Stop(info.ID)
	resp := map[string]interface{}{
		"message":    "Clock was not running",
		"session_id": info.ID,
		"stopped":    stopped,
	}
	if stopped {
		resp["message"] = "Clock stopped"
		resp["interval_ms"] = interval.Milliseconds()
	}
	respondJSON(w, http.StatusOK, resp)
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	preset, err := s.service.LoadConfig(r.Context(), name)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, preset)
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var preset config.Preset
	if err := json.NewDecoder(r.Body).Decode(&preset); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if preset.Name == "" {
		respondError(w, http.StatusBadRequest, "Config name is required")
		return
	}

	if err := s.service.SaveConfig(r.Context(), preset.Name, &preset); err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Configuration saved successfully",
		"config_id": preset.Name,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "websocket is not enabled", http.StatusServiceUnavailable)
		return
	}
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, info.ID)
	s.broadcast(info.ID, info.Snapshot)
}

// handleInput applies a WebSocket client message to the session and
// broadcasts the resulting snapshot.
func (s *Server) handleInput(ctx context.Context, sessionID string, msg *websocket.ClientMessage) error {
	var snap *engine.Snapshot
	switch action := strings.ToLower(strings.TrimSpace(msg.Action)); action {
	case "rotate":
		result, err := s.service.Rotate(ctx, sessionID)
		if err != nil {
			return err
		}
		snap = result.Snapshot
	case "lock":
		result, err := s.service.Lock(ctx, sessionID)
		if err != nil {
			return err
		}
		snap = result.Snapshot
	case "tick":
		result, err := s.service.Tick(ctx, sessionID, msg.Count)
		if err != nil {
			return err
		}
		snap = result.Snapshot
	case "reset":
		result, err := s.service.Reset(ctx, sessionID)
		if err != nil {
			return err
		}
		snap = result
	default:
		result, err := s.service.SetIntent(ctx, sessionID, action)
		if err != nil {
			return err
		}
		snap = result.Snapshot
	}

	s.broadcast(sessionID, snap)
	return nil
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
