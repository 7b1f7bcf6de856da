// Command analyze prints quick, human-readable facts about the piece set and
// the presets in the project's configs directory: the footprint of every kind
// and rotation, the anchor columns where it fits, how many of its cells start
// above the board and how long it takes to fall from the spawn point.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/blockfall/game/config"
	"github.com/wricardo/mcp-training/blockfall/game/engine"
	"github.com/wricardo/mcp-training/blockfall/game/render"
)

// ShapeStats summarizes one kind in one rotation state.
type ShapeStats struct {
	Kind     engine.Kind
	Rotation int
	// Cells counts distinct cells. Anything other than 4 is a broken layout.
	Cells  int
	Width  int
	Height int
	// MinAnchorX and MaxAnchorX bound the anchor columns that keep every
	// cell on the board.
	MinAnchorX int
	MaxAnchorX int
	// AboveBoard counts cells above row 0 at the spawn point.
	AboveBoard int
	// DropTicks is the number of down moves from spawn to the floor.
	DropTicks int
}

// PresetSummary is what analyze reports for a preset file.
type PresetSummary struct {
	Name      string
	Interval  time.Duration
	AutoLock  bool
	FirstKind engine.Kind
	// FirstDrop is how long the first piece takes to reach the floor of an
	// empty board.
	FirstDrop time.Duration
}

func main() {
	configDir := "configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	fmt.Printf("=== Pieces (%dx%d board, spawn %d,%d) ===\n",
		engine.Width, engine.Height, engine.SpawnPoint.X, engine.SpawnPoint.Y)
	for _, kind := range engine.Kinds() {
		for rotation := 0; rotation < 4; rotation++ {
			printShape(analyzeShape(kind, rotation))
		}
	}

	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil || len(files) == 0 {
		fmt.Printf("\nNo presets found in %s\n", configDir)
		return
	}
	for _, file := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
		summary, err := analyzePreset(file)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		fmt.Printf("Name: %s\n", summary.Name)
		fmt.Printf("Tick interval: %s\n", summary.Interval)
		fmt.Printf("Auto-lock: %t\n", summary.AutoLock)
		fmt.Printf("First piece: %s, reaches the floor after %s\n", summary.FirstKind, summary.FirstDrop)
	}
}

func analyzeShape(kind engine.Kind, rotation int) ShapeStats {
	offsets := engine.Shape(kind, rotation, engine.Cell{})

	distinct := make(map[engine.Cell]struct{}, len(offsets))
	minX, maxX, minY, maxY := offsets[0].X, offsets[0].X, offsets[0].Y, offsets[0].Y
	for _, c := range offsets {
		distinct[c] = struct{}{}
		minX = min(minX, c.X)
		maxX = max(maxX, c.X)
		minY = min(minY, c.Y)
		maxY = max(maxY, c.Y)
	}

	above := 0
	for _, c := range engine.Shape(kind, rotation, engine.SpawnPoint) {
		if c.Y < 0 {
			above++
		}
	}

	return ShapeStats{
		Kind:       kind,
		Rotation:   rotation,
		Cells:      len(distinct),
		Width:      maxX - minX + 1,
		Height:     maxY - minY + 1,
		MinAnchorX: -minX,
		MaxAnchorX: engine.MaxX - maxX,
		AboveBoard: above,
		DropTicks:  engine.MaxY - maxY - engine.SpawnPoint.Y,
	}
}

func printShape(s ShapeStats) {
	fmt.Printf("\n%s rotation %d: %d cells, %dx%d, anchor x %d..%d, %d above board, %d ticks to floor\n",
		s.Kind, s.Rotation, s.Cells, s.Width, s.Height, s.MinAnchorX, s.MaxAnchorX, s.AboveBoard, s.DropTicks)
	for _, line := range strings.Split(strings.TrimRight(render.PiecePreview(s.Kind, s.Rotation), "\n"), "\n") {
		fmt.Println("  " + line)
	}
}

func analyzePreset(path string) (*PresetSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	var preset config.Preset
	if err := json.Unmarshal(data, &preset); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if err := config.ValidatePreset(&preset); err != nil {
		return nil, err
	}

	first := preset.First()
	drop := analyzeShape(first, 0).DropTicks
	return &PresetSummary{
		Name:      preset.Name,
		Interval:  preset.TickInterval(),
		AutoLock:  preset.AutoLock,
		FirstKind: first,
		FirstDrop: time.Duration(drop) * preset.TickInterval(),
	}, nil
}
