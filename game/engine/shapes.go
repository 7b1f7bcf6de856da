package engine

// Offsets are relative to the anchor, one layout per rotation state. The
// layouts are authored by hand and are not derived from a rotation matrix.
// I and O repeat their geometry but still carry all four states.
var shapeTable = [kindCount][4][4]Cell{
	KindL: {
		{{0, -1}, {0, 0}, {0, 1}, {1, 1}},
		{{-1, 0}, {0, 0}, {1, 0}, {1, -1}},
		{{-1, -1}, {0, -1}, {0, 0}, {0, 1}},
		{{-1, 1}, {-1, 0}, {0, 0}, {1, 0}},
	},
	KindJ: {
		{{0, -1}, {0, 0}, {0, 1}, {-1, 1}},
		{{-1, 0}, {0, 0}, {1, 0}, {1, 1}},
		{{1, -1}, {0, -1}, {0, 0}, {0, 1}},
		{{-1, -1}, {-1, 0}, {0, 0}, {1, 0}},
	},
	KindI: {
		{{-1, 0}, {0, 0}, {1, 0}, {2, 0}},
		{{0, -1}, {0, 0}, {0, 1}, {0, 2}},
		{{-1, 0}, {0, 0}, {1, 0}, {2, 0}},
		{{0, -1}, {0, 0}, {0, 1}, {0, 2}},
	},
	KindO: {
		{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
	},
	KindS: {
		{{-1, 0}, {0, 0}, {0, -1}, {1, -1}},
		{{-1, -1}, {-1, 0}, {0, 0}, {0, 1}},
		{{-1, 0}, {0, 0}, {0, -1}, {1, -1}},
		{{-1, -1}, {-1, 0}, {0, 0}, {0, 1}},
	},
	KindZ: {
		{{-1, -1}, {0, -1}, {0, 0}, {1, 0}},
		{{1, -1}, {1, 0}, {0, 0}, {0, 1}},
		{{-1, -1}, {0, -1}, {0, 0}, {1, 0}},
		{{1, -1}, {1, 0}, {0, 0}, {0, 1}},
	},
	KindT: {
		{{0, -1}, {0, 0}, {-1, 0}, {1, 0}},
		{{-1, 0}, {0, 0}, {0, -1}, {0, 1}},
		{{-1, 0}, {0, 0}, {1, 0}, {0, 1}},
		{{0, -1}, {0, 0}, {0, 1}, {1, 0}},
	},
}

// Shape returns the four cells a piece of the given kind covers at anchor.
// The rotation counter is reduced mod 4; negative counters wrap.
func Shape(kind Kind, rotation int, anchor Cell) [4]Cell {
	var cells [4]Cell
	if !kind.Valid() {
		return cells
	}
	for i, off := range shapeTable[kind][rotationIndex(rotation)] {
		cells[i] = Cell{X: anchor.X + off.X, Y: anchor.Y + off.Y}
	}
	return cells
}

func rotationIndex(rotation int) int {
	return ((rotation % 4) + 4) % 4
}
