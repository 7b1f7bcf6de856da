package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/blockfall/game/engine"
)

const (
	MinTickInterval     = 20 * time.Millisecond
	MaxTickInterval     = 5 * time.Second
	DefaultTickInterval = 100 * time.Millisecond
	DefaultPresetName   = "classic"
)

// Preset describes how a session is played. The grid and the piece set are
// fixed by the engine and cannot be changed here.
type Preset struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	TickIntervalMS int    `json:"tick_interval_ms"`
	// AutoLock locks a landed piece at the end of every tick.
	AutoLock bool `json:"auto_lock"`
	// Seed drives piece selection. Zero picks a random seed per session.
	Seed uint64 `json:"seed,omitempty"`
	// FirstKind is the first piece of every game. Empty means J.
	FirstKind string `json:"first_kind,omitempty"`
}

// PresetInfo is the listing view of a preset file.
type PresetInfo struct {
	Filename       string `json:"filename"`
	ConfigID       string `json:"config_id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	TickIntervalMS int    `json:"tick_interval_ms"`
	AutoLock       bool   `json:"auto_lock"`
}

// TickInterval returns the clock period, falling back to the default when
// unset.
func (p *Preset) TickInterval() time.Duration {
	if p.TickIntervalMS <= 0 {
		return DefaultTickInterval
	}
	return time.Duration(p.TickIntervalMS) * time.Millisecond
}

// First returns the kind every game of this preset starts with.
func (p *Preset) First() engine.Kind {
	if p.FirstKind == "" {
		return engine.KindJ
	}
	kind, err := engine.ParseKind(p.FirstKind)
	if err != nil {
		return engine.KindJ
	}
	return kind
}

// ValidatePreset checks a preset and returns every problem found, joined.
func ValidatePreset(p *Preset) error {
	if p == nil {
		return fmt.Errorf("%w: preset cannot be nil", ErrInvalidConfig)
	}

	var problems []string
	if strings.TrimSpace(p.Name) == "" {
		problems = append(problems, "name is required")
	}
	if p.TickIntervalMS != 0 {
		interval := time.Duration(p.TickIntervalMS) * time.Millisecond
		if interval < MinTickInterval || interval > MaxTickInterval {
			problems = append(problems, fmt.Sprintf("tick_interval_ms must be between %d and %d, got %d",
				MinTickInterval.Milliseconds(), MaxTickInterval.Milliseconds(), p.TickIntervalMS))
		}
	}
	if p.FirstKind != "" {
		if _, err := engine.ParseKind(p.FirstKind); err != nil {
			problems = append(problems, fmt.Sprintf("first_kind: %v", err))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// ValidName reports whether name is safe to use as a preset file name.
func ValidName(name string) bool {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return false
	}
	return true
}
