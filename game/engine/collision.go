package engine

import "fmt"

// correctMoveIntoPile rolls back the last move when it pushed the piece into
// the pile. It is a single reactive step.
func (e *GameEngine) correctMoveIntoPile() {
	if e.pile.HasAny(e.cells[:]) {
		e.anchor = rollback(e.intent, e.anchor)
		e.refresh()
	}
}

// correctSpinIntoPile lifts the piece one row at a time until it no longer
// overlaps the pile.
func (e *GameEngine) correctSpinIntoPile() error {
	for step := 0; e.pile.HasAny(e.cells[:]); step++ {
		if step == maxLiftSteps {
			return fmt.Errorf("%w: lift stopped at anchor (%d,%d) after %d steps",
				ErrCorrectionExhausted, e.anchor.X, e.anchor.Y, step)
		}
		e.anchor.Y--
		e.refresh()
	}
	return nil
}

// escapeStep applies one prioritized bounds correction and reports whether
// the anchor changed.
func (e *GameEngine) escapeStep() bool {
	cells := e.cells[:]
	switch {
	case anyCell(cells, func(c Cell) bool { return c.X < 0 }):
		e.anchor.X++
	case anyCell(cells, func(c Cell) bool { return c.X > MaxX }):
		e.anchor.X--
	case anyCell(cells, func(c Cell) bool { return c.Y > MaxY }):
		e.anchor.Y--
	default:
		return false
	}
	e.refresh()
	return true
}

// correctEscape keeps the piece inside the walls and above the floor. A
// horizontal I next to a wall can overshoot by two columns, so the single
// step repeats until the piece is contained. When a correction pushes the
// piece back into the pile, the lift pass runs again.
func (e *GameEngine) correctEscape() error {
	moved := false
	for step := 0; e.escapeStep(); step++ {
		moved = true
		if step == maxEscapeSteps {
			return fmt.Errorf("%w: piece still outside the playfield at anchor (%d,%d)",
				ErrCorrectionExhausted, e.anchor.X, e.anchor.Y)
		}
	}
	if moved {
		return e.correctSpinIntoPile()
	}
	return nil
}
