package engine

// clearLines removes every complete row, bottom first, and returns how many
// rows were cleared. A cleared row index is examined again because the rows
// above have just shifted into it.
func (e *GameEngine) clearLines() int {
	cleared := 0
	for y := MaxY; y >= 0; {
		if e.pile.RowComplete(y) {
			e.pile.ClearRow(y)
			e.score += LineScore
			cleared++
			continue
		}
		y--
	}
	e.linesCleared += cleared
	return cleared
}

// overflowed reports whether the pile reaches the sentinel row. Cells that
// were lifted even higher count as well.
func (e *GameEngine) overflowed() bool {
	cells := e.pile.Cells()
	return len(cells) > 0 && cells[0].Y <= SentinelRow
}
