package engine

// resolveMove returns the anchor after applying intent. The wall check looks
// at the cells the piece occupies before the move; the pile is not consulted.
func resolveMove(intent Intent, cells []Cell, anchor Cell) Cell {
	switch intent {
	case IntentDown:
		if allCells(cells, func(c Cell) bool { return c.Y < MaxY }) {
			anchor.Y++
		}
	case IntentLeft:
		if allCells(cells, func(c Cell) bool { return c.X > 0 }) {
			anchor.X--
		}
	case IntentRight:
		if allCells(cells, func(c Cell) bool { return c.X < MaxX }) {
			anchor.X++
		}
	}
	return anchor
}

// rollback undoes one step of intent.
func rollback(intent Intent, anchor Cell) Cell {
	switch intent {
	case IntentDown:
		anchor.Y--
	case IntentLeft:
		anchor.X++
	case IntentRight:
		anchor.X--
	}
	return anchor
}

func allCells(cells []Cell, pred func(Cell) bool) bool {
	for _, c := range cells {
		if !pred(c) {
			return false
		}
	}
	return true
}

func anyCell(cells []Cell, pred func(Cell) bool) bool {
	for _, c := range cells {
		if pred(c) {
			return true
		}
	}
	return false
}
