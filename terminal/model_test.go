package terminal

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/blockfall/game/config"
	"github.com/wricardo/mcp-training/blockfall/game/engine"
)

func newModel(t *testing.T, preset *config.Preset) Model {
	t.Helper()
	m, err := New(preset)
	require.NoError(t, err)
	return m
}

func press(t *testing.T, m Model, key tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(key)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func tick(t *testing.T, m Model, n int) Model {
	t.Helper()
	for i := 0; i < n; i++ {
		next, cmd := m.Update(tickMsg{})
		require.NotNil(t, cmd, "ticking always schedules the next tick")
		m = next.(Model)
	}
	return m
}

func TestNewDefaultsToMinimalPreset(t *testing.T) {
	m := newModel(t, nil)
	assert.Equal(t, config.DefaultPresetName, m.preset.Name)
	assert.Equal(t, config.DefaultTickInterval, m.interval)
	assert.Equal(t, engine.KindJ, m.engine.Kind())
	assert.NotNil(t, m.Init())
}

func TestNewUsesPresetFirstKind(t *testing.T) {
	m := newModel(t, &config.Preset{Name: "t", FirstKind: "I", TickIntervalMS: 40})
	assert.Equal(t, engine.KindI, m.engine.Kind())
	assert.Equal(t, int64(40), m.interval.Milliseconds())
}

func TestIntentKeys(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want engine.Intent
	}{
		{runes("w"), engine.IntentNone},
		{runes("s"), engine.IntentDown},
		{runes("a"), engine.IntentLeft},
		{runes("d"), engine.IntentRight},
		{tea.KeyMsg{Type: tea.KeyDown}, engine.IntentDown},
		{tea.KeyMsg{Type: tea.KeyLeft}, engine.IntentLeft},
		{tea.KeyMsg{Type: tea.KeyRight}, engine.IntentRight},
	}
	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			m := newModel(t, nil)
			m, _ = press(t, m, tt.key)
			assert.Equal(t, tt.want, m.engine.Intent())
		})
	}
}

func TestRotateHoldsPiece(t *testing.T) {
	m := newModel(t, nil)

	m, _ = press(t, m, runes("z"))
	assert.Equal(t, 1, m.engine.Rotation())
	assert.Equal(t, engine.IntentNone, m.engine.Intent())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 2, m.engine.Rotation())
}

func TestTickMovesPiece(t *testing.T) {
	m := newModel(t, nil)
	m = tick(t, m, 3)
	assert.Equal(t, engine.SpawnPoint.Y+3, m.engine.Anchor().Y)
	assert.Equal(t, 3, m.engine.Ticks())
}

func TestPauseStopsTicks(t *testing.T) {
	m := newModel(t, nil)
	m, _ = press(t, m, runes("p"))
	m = tick(t, m, 3)
	assert.Equal(t, 0, m.engine.Ticks())

	m, _ = press(t, m, runes("a"))
	assert.Equal(t, engine.IntentDown, m.engine.Intent(), "input is ignored while paused")

	m, _ = press(t, m, runes("p"))
	m = tick(t, m, 1)
	assert.Equal(t, 1, m.engine.Ticks())
}

func TestLockKey(t *testing.T) {
	m := newModel(t, &config.Preset{Name: "seeded", Seed: 11})

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, 0, m.engine.PiecesLocked())
	assert.Equal(t, "Not landed yet", m.message)

	m = tick(t, m, engine.Height+2)
	require.True(t, m.engine.Landed())

	m, _ = press(t, m, runes("f"))
	assert.Equal(t, 1, m.engine.PiecesLocked())
	assert.Equal(t, engine.SpawnPoint, m.engine.Anchor())
	assert.Contains(t, m.message, "Next: ")
}

func TestAutoLockPreset(t *testing.T) {
	m := newModel(t, &config.Preset{Name: "auto", AutoLock: true, Seed: 5})
	m = tick(t, m, engine.Height+2)
	assert.GreaterOrEqual(t, m.engine.PiecesLocked(), 1)
}

func TestResetKey(t *testing.T) {
	m := newModel(t, &config.Preset{Name: "o", FirstKind: "O", Seed: 2})
	m = tick(t, m, engine.Height+2)
	m, _ = press(t, m, runes("f"))

	m, _ = press(t, m, runes("r"))
	assert.Equal(t, 0, m.engine.Ticks())
	assert.Equal(t, 0, m.engine.PiecesLocked())
	assert.Equal(t, engine.KindO, m.engine.Kind())
	assert.Equal(t, 0, m.engine.Pile().Len())
}

func TestQuitKeys(t *testing.T) {
	for _, key := range []tea.KeyMsg{runes("q"), {Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		m := newModel(t, nil)
		_, cmd := press(t, m, key)
		require.NotNil(t, cmd, key.String())
		assert.IsType(t, tea.QuitMsg{}, cmd(), key.String())
	}
}

func TestViewShowsStatus(t *testing.T) {
	m := newModel(t, nil)
	out := m.View()
	assert.Contains(t, out, "BLOCKFALL")
	assert.Contains(t, out, "Score")
	assert.Contains(t, out, "classic")

	m, _ = press(t, m, runes("p"))
	assert.Contains(t, m.View(), "PAUSED")

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(Model)
	assert.Equal(t, 120, m.width)
	assert.NotEmpty(t, m.View())
}
