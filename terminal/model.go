// Package terminal is a local Blockfall player built on bubbletea.
//
// It drives an engine in-process, with no server involved, and ticks it at
// the preset interval.
//
// Keys: w/s/a/d or the arrows set the intent (none/down/left/right), z or up
// rotates, f or space locks, p pauses, r resets and q quits.
package terminal

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wricardo/mcp-training/blockfall/game/config"
	"github.com/wricardo/mcp-training/blockfall/game/engine"
	"github.com/wricardo/mcp-training/blockfall/game/service"
)

type tickMsg struct{}

// Model is the bubbletea model for one local game.
type Model struct {
	engine   *engine.GameEngine
	picker   *service.KindPicker
	preset   *config.Preset
	interval time.Duration
	paused   bool
	message  string
	err      error
	width    int
	height   int
	styles   styles
}

// New builds a model for preset. A nil preset plays the built-in default.
func New(preset *config.Preset) (Model, error) {
	if preset == nil {
		preset = config.MinimalPreset()
	}
	e, err := engine.NewEngine(preset.First())
	if err != nil {
		return Model{}, err
	}
	return Model{
		engine:   e,
		picker:   service.NewKindPicker(preset.Seed),
		preset:   preset,
		interval: preset.TickInterval(),
		styles:   defaultStyles(),
	}, nil
}

// Run plays preset in the terminal until the player quits or ctx ends.
func Run(ctx context.Context, preset *config.Preset) error {
	m, err := New(preset)
	if err != nil {
		return err
	}
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok && fm.err != nil {
		return fm.err
	}
	return nil
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m Model) Init() tea.Cmd {
	return tickCmd(m.interval)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if !m.paused && !m.engine.IsGameOver() {
			if err := m.step(); err != nil {
				m.err = err
				return m, tea.Quit
			}
		}
		return m, tickCmd(m.interval)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// step advances one tick and applies the preset's auto-lock.
func (m *Model) step() error {
	lines := m.engine.LinesCleared()
	if err := m.engine.AdvanceTick(); err != nil {
		return fmt.Errorf("tick %d: %w", m.engine.Ticks(), err)
	}
	if cleared := m.engine.LinesCleared() - lines; cleared > 0 {
		m.message = fmt.Sprintf("+%d lines", cleared)
	}
	if m.engine.IsGameOver() {
		m.message = "Game over, r to restart"
		return nil
	}
	if m.preset.AutoLock && m.engine.Landed() {
		m.lock()
	}
	return nil
}

func (m *Model) lock() {
	if !m.engine.RequestLock() {
		m.message = "Not landed yet"
		return
	}
	next := m.picker.Next()
	// Kinds from the picker are always valid.
	_ = m.engine.SetKind(next)
	m.message = fmt.Sprintf("Next: %s", next)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.engine.Reset()
		_ = m.engine.SetKind(m.preset.First())
		m.paused = false
		m.message = "New game"
		return m, nil
	case "p":
		m.paused = !m.paused
		return m, nil
	}

	if m.paused || m.engine.IsGameOver() {
		return m, nil
	}

	switch msg.String() {
	case "w":
		m.setIntent(engine.IntentNone)
	case "s", "down":
		m.setIntent(engine.IntentDown)
	case "a", "left":
		m.setIntent(engine.IntentLeft)
	case "d", "right":
		m.setIntent(engine.IntentRight)
	case "z", "up":
		m.engine.RequestRotation()
		m.setIntent(engine.IntentNone)
	case "f", " ":
		m.lock()
	}
	return m, nil
}

func (m *Model) setIntent(intent engine.Intent) {
	// Only the four named intents reach here.
	_ = m.engine.SetIntent(intent)
}
