package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wricardo/mcp-training/blockfall/game/config"
	"github.com/wricardo/mcp-training/blockfall/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	logger   zerolog.Logger
	now      func() time.Time
	mu       sync.RWMutex
}

// Option customizes the game service.
type Option func(*gameServiceImpl)

// WithLogger sets the logger used for game events.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *gameServiceImpl) { s.logger = logger }
}

// WithClock replaces time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *gameServiceImpl) { s.now = now }
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var preset *config.Preset
	configID := configName
	if configName != "" {
		var err error
		preset, err = s.configs.LoadConfig(configName)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				if infos, listErr := s.configs.ListConfigs(); listErr == nil && len(infos) > 0 {
					ids := make([]string, 0, len(infos))
					for _, info := range infos {
						ids = append(ids, info.ConfigID)
					}
					return nil, fmt.Errorf("config '%s': %w. Available configs: %v", configName, err, ids)
				}
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		preset = s.configs.GetDefault()
		configID = config.DefaultPresetName
	}

	sess, err := s.sessions.Create("", preset)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	sess.ConfigID = configID

	s.logger.Info().Str("session", sess.ID).Str("config", configID).Msg("session created")
	return s.info(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return s.info(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.info(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	s.logger.Info().Str("session", sessionID).Msg("session deleted")
	return nil
}

// SetIntent stores the directional intent applied on the next tick
func (s *gameServiceImpl) SetIntent(ctx context.Context, sessionID, intent string) (*ActionResult, error) {
	parsed, err := engine.ParseIntent(intent)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.playable(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Engine.SetIntent(parsed); err != nil {
		return nil, err
	}

	return &ActionResult{
		Snapshot: sess.Engine.Snapshot(),
		Message:  fmt.Sprintf("Intent set to %s", parsed),
	}, nil
}

// Rotate requests a rotation and holds the piece in place for the next tick
func (s *gameServiceImpl) Rotate(ctx context.Context, sessionID string) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.playable(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Engine.RequestRotation()
	if err := sess.Engine.SetIntent(engine.IntentNone); err != nil {
		return nil, err
	}

	return &ActionResult{
		Snapshot: sess.Engine.Snapshot(),
		Message:  fmt.Sprintf("Rotation %d requested, applied on the next tick", sess.Engine.Rotation()),
	}, nil
}

// Lock merges a landed piece into the pile and spawns a random next kind
func (s *gameServiceImpl) Lock(ctx context.Context, sessionID string) (*LockResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.playable(sessionID)
	if err != nil {
		return nil, err
	}

	firstEvent := sess.TotalEvents
	locked, next, err := s.lock(sess)
	if err != nil {
		return nil, err
	}

	result := &LockResult{
		Locked:   locked,
		Snapshot: sess.Engine.Snapshot(),
		Message:  "Piece has not landed yet",
	}
	if locked {
		result.NextKind = next.String()
		result.Message = fmt.Sprintf("Piece locked, next piece is %s", next)
		result.Events = s.eventsSince(sess, firstEvent)
	}
	return result, nil
}

// Tick advances the game up to count ticks, stopping early at game over
func (s *gameServiceImpl) Tick(ctx context.Context, sessionID string, count int) (*TickResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.playable(sessionID)
	if err != nil {
		return nil, err
	}

	if count < 1 {
		count = 1
	}
	result := &TickResult{Requested: count}
	if count > MaxTicksPerCall {
		count = MaxTicksPerCall
		result.Truncated = true
	}

	eng := sess.Engine
	startScore := eng.Score()
	firstEvent := sess.TotalEvents

	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			result.StoppedReason = "cancelled"
			break
		}

		before := eng.LinesCleared()
		if err := eng.AdvanceTick(); err != nil {
			s.logger.Error().Err(err).Str("session", sess.ID).Msg("tick failed")
			return nil, fmt.Errorf("tick %d: %w", eng.Ticks(), err)
		}
		result.TicksRun++

		if cleared := eng.LinesCleared() - before; cleared > 0 {
			result.LinesCleared += cleared
			s.record(sess, EventLineClear, fmt.Sprintf("Cleared %d line(s)", cleared), func(ev *GameEvent) {
				ev.Lines = cleared
			})
		}

		if eng.IsGameOver() {
			result.StoppedReason = EventGameOver
			s.record(sess, EventGameOver, fmt.Sprintf("Game over with %d points", eng.Score()), nil)
			break
		}

		if sess.Preset != nil && sess.Preset.AutoLock && eng.Landed() {
			locked, _, err := s.lock(sess)
			if err != nil {
				return nil, err
			}
			if locked {
				result.AutoLocks++
			}
		}
	}

	result.ScoreDelta = eng.Score() - startScore
	result.GameOver = eng.IsGameOver()
	result.Snapshot = eng.Snapshot()
	result.Events = s.eventsSince(sess, firstEvent)
	return result, nil
}

// Reset starts a fresh game in the same session
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Engine.Reset()
	first := engine.KindJ
	if sess.Preset != nil {
		first = sess.Preset.First()
	}
	if err := sess.Engine.SetKind(first); err != nil {
		return nil, err
	}
	s.record(sess, EventReset, "Game reset to initial state", nil)
	return sess.Engine.Snapshot(), nil
}

// GetSnapshot returns the current game view
func (s *gameServiceImpl) GetSnapshot(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.Snapshot(), nil
}

// GetEventHistory returns paginated session events
func (s *gameServiceImpl) GetEventHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Events
	if opts.Type != "" {
		filtered := make([]GameEvent, 0, len(history))
		for _, ev := range history {
			if ev.Type == opts.Type {
				filtered = append(filtered, ev)
			}
		}
		history = filtered
	}
	total := len(history)

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	events := []GameEvent{}
	if opts.Order == "desc" {
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			events = append(events, history[i])
		}
	} else if start < total {
		events = append(events, history[start:end]...)
	}

	return &HistoryResponse{
		Events:      events,
		TotalEvents: total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available presets
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*config.PresetInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific preset
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*config.Preset, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a preset to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, preset *config.Preset) error {
	return s.configs.SaveConfig(configName, preset)
}

// lookup finds a session without touching its access time, so it is safe
// under the read lock.
func (s *gameServiceImpl) lookup(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return sess, nil
}

// get finds a session and marks it as accessed. Callers hold the write
// lock.
func (s *gameServiceImpl) get(sessionID string) (*Session, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	_ = s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// playable is get for operations that change a running game.
func (s *gameServiceImpl) playable(sessionID string) (*Session, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Engine.IsGameOver() {
		return nil, fmt.Errorf("%w: session %s scored %d", ErrGameOver, sess.ID, sess.Engine.Score())
	}
	return sess, nil
}

func (s *gameServiceImpl) lock(sess *Session) (bool, engine.Kind, error) {
	if !sess.Engine.RequestLock() {
		return false, 0, nil
	}
	next := sess.Picker.Next()
	if err := sess.Engine.SetKind(next); err != nil {
		return false, 0, err
	}
	s.record(sess, EventLock, fmt.Sprintf("Piece locked, next is %s", next), func(ev *GameEvent) {
		ev.Kind = next.String()
	})
	return true, next, nil
}

func (s *gameServiceImpl) record(sess *Session, typ, msg string, fill func(*GameEvent)) {
	snap := sess.Engine.Snapshot()
	sess.TotalEvents++
	ev := GameEvent{
		Seq:       sess.TotalEvents,
		Type:      typ,
		Message:   msg,
		Tick:      snap.Ticks,
		Score:     snap.Score,
		Timestamp: s.now(),
	}
	if fill != nil {
		fill(&ev)
	}

	sess.Events = append(sess.Events, ev)
	if len(sess.Events) > MaxEventsKept {
		sess.Events = append([]GameEvent(nil), sess.Events[len(sess.Events)-MaxEventsKept:]...)
	}

	s.logger.Debug().
		Str("session", sess.ID).
		Str("event", typ).
		Int("tick", ev.Tick).
		Int("score", ev.Score).
		Msg(msg)
}

// eventsSince returns the events recorded after the first seq events.
func (s *gameServiceImpl) eventsSince(sess *Session, seq int) []GameEvent {
	var out []GameEvent
	for _, ev := range sess.Events {
		if ev.Seq > seq {
			out = append(out, ev)
		}
	}
	return out
}

func (s *gameServiceImpl) info(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Snapshot:       sess.Engine.Snapshot(),
		Preset:         sess.Preset,
	}
}
