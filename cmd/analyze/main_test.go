package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/blockfall/game/config"
	"github.com/wricardo/mcp-training/blockfall/game/engine"
)

func TestAnalyzeShape(t *testing.T) {
	tests := []struct {
		kind     engine.Kind
		rotation int
		want     ShapeStats
	}{
		{engine.KindJ, 0, ShapeStats{Cells: 4, Width: 2, Height: 3, MinAnchorX: 1, MaxAnchorX: 13, AboveBoard: 1, DropTicks: 14}},
		{engine.KindI, 0, ShapeStats{Cells: 4, Width: 4, Height: 1, MinAnchorX: 1, MaxAnchorX: 11, AboveBoard: 0, DropTicks: 15}},
		{engine.KindI, 1, ShapeStats{Cells: 4, Width: 1, Height: 4, MinAnchorX: 0, MaxAnchorX: 13, AboveBoard: 1, DropTicks: 13}},
		{engine.KindO, 2, ShapeStats{Cells: 4, Width: 2, Height: 2, MinAnchorX: 0, MaxAnchorX: 12, AboveBoard: 0, DropTicks: 14}},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			got := analyzeShape(tt.kind, tt.rotation)
			tt.want.Kind = tt.kind
			tt.want.Rotation = tt.rotation
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEveryShapeHasFourCells(t *testing.T) {
	for _, kind := range engine.Kinds() {
		for rotation := 0; rotation < 4; rotation++ {
			s := analyzeShape(kind, rotation)
			assert.Equal(t, 4, s.Cells, "%s/%d", kind, rotation)
			assert.LessOrEqual(t, s.MinAnchorX, engine.SpawnPoint.X, "%s/%d", kind, rotation)
			assert.GreaterOrEqual(t, s.MaxAnchorX, engine.SpawnPoint.X, "%s/%d", kind, rotation)
		}
	}
}

func TestAnalyzePreset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slow.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"name":"slow","tick_interval_ms":400,"first_kind":"O","auto_lock":true}`), 0644))

	summary, err := analyzePreset(path)
	require.NoError(t, err)
	assert.Equal(t, "slow", summary.Name)
	assert.Equal(t, 400*time.Millisecond, summary.Interval)
	assert.True(t, summary.AutoLock)
	assert.Equal(t, engine.KindO, summary.FirstKind)
	assert.Equal(t, 14*400*time.Millisecond, summary.FirstDrop)
}

func TestAnalyzePreset_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := analyzePreset(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"name":`), 0644))
	_, err = analyzePreset(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`{"name":"invalid","tick_interval_ms":1}`), 0644))
	_, err = analyzePreset(invalid)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
