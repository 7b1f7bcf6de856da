package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/mcp-training/blockfall/game/config"
	"github.com/wricardo/mcp-training/blockfall/game/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrGameOver        = errors.New("game is over")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	SetIntent(ctx context.Context, sessionID, intent string) (*ActionResult, error)
	Rotate(ctx context.Context, sessionID string) (*ActionResult, error)
	Lock(ctx context.Context, sessionID string) (*LockResult, error)
	Tick(ctx context.Context, sessionID string, count int) (*TickResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.Snapshot, error)

	// Game State
	GetSnapshot(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	GetEventHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*config.PresetInfo, error)
	LoadConfig(ctx context.Context, configName string) (*config.Preset, error)
	SaveConfig(ctx context.Context, configName string, preset *config.Preset) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, preset *config.Preset) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles preset loading
type ConfigManager interface {
	LoadConfig(name string) (*config.Preset, error)
	ListConfigs() ([]*config.PresetInfo, error)
	GetDefault() *config.Preset
	SaveConfig(name string, preset *config.Preset) error
}

// Session represents an active game session. Its fields are guarded by the
// service lock.
type Session struct {
	ID             string
	ConfigID       string
	Engine         *engine.GameEngine
	Preset         *config.Preset
	Picker         *KindPicker
	Events         []GameEvent
	TotalEvents    int
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
