package engine

import (
	"cmp"
	"slices"

	"github.com/kamstrup/intmap"
)

// Pile is the set of settled cells. Each cell is stored once, keyed by its
// packed coordinates.
type Pile struct {
	set *intmap.Set[int64]
}

func NewPile() *Pile {
	return &Pile{set: intmap.NewSet[int64](Width * Height)}
}

func cellKey(c Cell) int64 {
	return int64(c.Y)<<32 | int64(uint32(c.X))
}

func keyCell(k int64) Cell {
	return Cell{X: int(int32(uint32(k))), Y: int(k >> 32)}
}

// Add inserts c and reports whether it was not already present.
func (p *Pile) Add(c Cell) bool {
	k := cellKey(c)
	if p.set.Has(k) {
		return false
	}
	p.set.Add(k)
	return true
}

func (p *Pile) Has(c Cell) bool {
	return p.set.Has(cellKey(c))
}

func (p *Pile) Len() int {
	return p.set.Len()
}

// HasAny reports whether any of cells is in the pile.
func (p *Pile) HasAny(cells []Cell) bool {
	for _, c := range cells {
		if p.Has(c) {
			return true
		}
	}
	return false
}

// RowComplete reports whether every column of row y is filled.
func (p *Pile) RowComplete(y int) bool {
	for x := 0; x < Width; x++ {
		if !p.Has(Cell{X: x, Y: y}) {
			return false
		}
	}
	return true
}

// ClearRow removes row y and moves every cell above it down one row.
func (p *Pile) ClearRow(y int) {
	cells := p.Cells()
	p.set.Clear()
	for _, c := range cells {
		switch {
		case c.Y == y:
			continue
		case c.Y < y:
			c.Y++
		}
		p.set.Add(cellKey(c))
	}
}

// Cells returns the pile ordered by row, then column.
func (p *Pile) Cells() []Cell {
	cells := make([]Cell, 0, p.set.Len())
	for k := range p.set.All() {
		cells = append(cells, keyCell(k))
	}
	slices.SortFunc(cells, func(a, b Cell) int {
		if c := cmp.Compare(a.Y, b.Y); c != 0 {
			return c
		}
		return cmp.Compare(a.X, b.X)
	})
	return cells
}

func (p *Pile) Clear() {
	p.set.Clear()
}

func (p *Pile) Clone() *Pile {
	clone := NewPile()
	p.set.ForEach(func(k int64) bool {
		clone.set.Add(k)
		return true
	})
	return clone
}
