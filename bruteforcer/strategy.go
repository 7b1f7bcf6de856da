package main

import (
	"github.com/wricardo/mcp-training/blockfall/game/engine"
)

// Weights for the placement heuristic. Cleared lines are rewarded, height,
// holes and uneven columns are penalized.
const (
	weightLines     = 80.0
	weightHeight    = -5.0
	weightHoles     = -35.0
	weightBumpiness = -2.0
)

// Plan is where the strategy wants the current piece to end up.
type Plan struct {
	Rotation int // target rotation state, 0-3
	X        int // target anchor column
	Y        int // anchor row after dropping
	Lines    int // rows the placement completes
	Score    float64
}

// BestPlacement tries every rotation and column for the snapshot's piece,
// drops it straight down onto the pile and returns the best scoring result.
// ok is false when no placement fits.
func BestPlacement(snap *engine.Snapshot) (best Plan, ok bool) {
	pile := engine.NewPile()
	for _, c := range snap.Pile {
		pile.Add(c)
	}

	for rotation := 0; rotation < 4; rotation++ {
		for x := 0; x <= engine.MaxX; x++ {
			y, fits := dropRow(snap.Kind, rotation, x, pile)
			if !fits {
				continue
			}
			cells := engine.Shape(snap.Kind, rotation, engine.Cell{X: x, Y: y})
			lines, score := evaluate(pile, cells)
			if !ok || score > best.Score {
				best = Plan{Rotation: rotation, X: x, Y: y, Lines: lines, Score: score}
				ok = true
			}
		}
	}
	return best, ok
}

// dropRow returns the lowest anchor row the piece reaches when dropped from
// the spawn row in column x.
func dropRow(kind engine.Kind, rotation, x int, pile *engine.Pile) (int, bool) {
	fits := func(y int) bool {
		cells := engine.Shape(kind, rotation, engine.Cell{X: x, Y: y})
		for _, c := range cells {
			if c.X < 0 || c.X > engine.MaxX || c.Y > engine.MaxY {
				return false
			}
		}
		return !pile.HasAny(cells[:])
	}

	y := engine.SpawnPoint.Y
	if !fits(y) {
		return 0, false
	}
	for fits(y + 1) {
		y++
	}
	return y, true
}

// evaluate scores the board after placing cells on pile.
func evaluate(pile *engine.Pile, cells [4]engine.Cell) (int, float64) {
	placed := pile.Clone()
	for _, c := range cells {
		placed.Add(c)
	}

	lines := 0
	full := make(map[int]bool)
	for y := 0; y <= engine.MaxY; y++ {
		if placed.RowComplete(y) {
			full[y] = true
			lines++
		}
	}

	// Column stats ignore completed rows, which are about to be cleared.
	var heights [engine.Width]int
	holes := 0
	for x := 0; x <= engine.MaxX; x++ {
		top := -1
		for y := -4; y <= engine.MaxY; y++ {
			if full[y] || !placed.Has(engine.Cell{X: x, Y: y}) {
				continue
			}
			if top < 0 {
				top = y
			}
		}
		if top < 0 {
			continue
		}
		heights[x] = engine.Height - top
		for y := top + 1; y <= engine.MaxY; y++ {
			if !full[y] && !placed.Has(engine.Cell{X: x, Y: y}) {
				holes++
			}
		}
	}

	aggregate, bumpiness := 0, 0
	for x, h := range heights {
		aggregate += h
		if x > 0 {
			bumpiness += abs(h - heights[x-1])
		}
	}

	score := weightLines*float64(lines) +
		weightHeight*float64(aggregate) +
		weightHoles*float64(holes) +
		weightBumpiness*float64(bumpiness)
	return lines, score
}

// rotationsNeeded is how many single rotations take current to target.
func rotationsNeeded(current, target int) int {
	return ((target-current)%4 + 4) % 4
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
