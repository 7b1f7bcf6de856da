package service

import (
	"time"

	"github.com/wricardo/mcp-training/blockfall/game/config"
	"github.com/wricardo/mcp-training/blockfall/game/engine"
)

const (
	MaxTicksPerCall = 100
	// MaxEventsKept bounds the per-session event log; older events are
	// dropped but still counted.
	MaxEventsKept = 1000
)

// Event types recorded in the session history.
const (
	EventLock      = "lock"
	EventLineClear = "line_clear"
	EventGameOver  = "game_over"
	EventReset     = "reset"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string           `json:"id"`
	ConfigName     string           `json:"config_name"`
	CreatedAt      time.Time        `json:"created_at"`
	LastAccessedAt time.Time        `json:"last_accessed_at"`
	Snapshot       *engine.Snapshot `json:"snapshot"`
	Preset         *config.Preset   `json:"preset"`
}

// ActionResult is returned by input operations that do not advance time.
type ActionResult struct {
	Snapshot *engine.Snapshot `json:"snapshot"`
	Message  string           `json:"message"`
}

// LockResult reports a lock request.
type LockResult struct {
	Locked   bool             `json:"locked"`
	NextKind string           `json:"next_kind,omitempty"`
	Snapshot *engine.Snapshot `json:"snapshot"`
	Message  string           `json:"message"`
	Events   []GameEvent      `json:"events,omitempty"`
}

// TickResult summarizes one or more ticks.
type TickResult struct {
	Requested     int              `json:"requested"`
	TicksRun      int              `json:"ticks_run"`
	LinesCleared  int              `json:"lines_cleared"`
	ScoreDelta    int              `json:"score_delta"`
	AutoLocks     int              `json:"auto_locks"`
	Truncated     bool             `json:"truncated,omitempty"`
	GameOver      bool             `json:"game_over"`
	StoppedReason string           `json:"stopped_reason,omitempty"`
	Snapshot      *engine.Snapshot `json:"snapshot"`
	Events        []GameEvent      `json:"events,omitempty"`
}

// GameEvent is something notable that happened in a session.
type GameEvent struct {
	Seq       int       `json:"seq"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Tick      int       `json:"tick"`
	Score     int       `json:"score"`
	Kind      string    `json:"kind,omitempty"`
	Lines     int       `json:"lines,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryOptions configures event history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
	Type  string `json:"type,omitempty"`
}

// HistoryResponse contains paginated event history
type HistoryResponse struct {
	Events      []GameEvent `json:"events"`
	TotalEvents int         `json:"total_events"`
	Page        int         `json:"page"`
	PageSize    int         `json:"page_size"`
	TotalPages  int         `json:"total_pages"`
	HasNext     bool        `json:"has_next"`
	HasPrevious bool        `json:"has_previous"`
}
