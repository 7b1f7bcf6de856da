package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillRow(p *Pile, y int) {
	for x := 0; x < Width; x++ {
		p.Add(Cell{X: x, Y: y})
	}
}

func TestPileAddRejectsDuplicates(t *testing.T) {
	p := NewPile()
	assert.True(t, p.Add(Cell{X: 1, Y: 2}))
	assert.False(t, p.Add(Cell{X: 1, Y: 2}))
	assert.Equal(t, 1, p.Len())
	assert.True(t, p.Has(Cell{X: 1, Y: 2}))
	assert.False(t, p.Has(Cell{X: 2, Y: 1}))
}

func TestPileKeysHandleNegativeCoordinates(t *testing.T) {
	for _, c := range []Cell{{0, -1}, {-1, -3}, {13, 15}, {-2, 4}} {
		assert.Equal(t, c, keyCell(cellKey(c)))
	}

	p := NewPile()
	p.Add(Cell{X: 4, Y: SentinelRow})
	assert.True(t, p.Has(Cell{X: 4, Y: -1}))
	assert.False(t, p.Has(Cell{X: 4, Y: 0}))
}

func TestPileCellsSortedRowMajor(t *testing.T) {
	p := NewPile()
	p.Add(Cell{X: 5, Y: 3})
	p.Add(Cell{X: 1, Y: 9})
	p.Add(Cell{X: 0, Y: 3})
	p.Add(Cell{X: 2, Y: -1})

	assert.Equal(t, []Cell{{2, -1}, {0, 3}, {5, 3}, {1, 9}}, p.Cells())
}

func TestPileClearRowShiftsRowsAbove(t *testing.T) {
	p := NewPile()
	fillRow(p, 15)
	p.Add(Cell{X: 3, Y: 14})
	p.Add(Cell{X: 4, Y: 10})

	require.True(t, p.RowComplete(15))
	require.False(t, p.RowComplete(14))

	p.ClearRow(15)

	assert.Equal(t, []Cell{{4, 11}, {3, 15}}, p.Cells())
}

func TestPileClearRowKeepsRowsBelow(t *testing.T) {
	p := NewPile()
	fillRow(p, 10)
	p.Add(Cell{X: 0, Y: 12})
	p.Add(Cell{X: 0, Y: 9})

	p.ClearRow(10)

	assert.Equal(t, []Cell{{0, 10}, {0, 12}}, p.Cells())
}

func TestPileCloneIsIndependent(t *testing.T) {
	p := NewPile()
	p.Add(Cell{X: 1, Y: 1})
	clone := p.Clone()
	clone.Add(Cell{X: 2, Y: 2})

	assert.Equal(t, 1, p.Len())
	assert.Equal(t, 2, clone.Len())
	assert.True(t, clone.HasAny([]Cell{{5, 5}, {1, 1}}))
	assert.True(t, clone.Has(Cell{X: 2, Y: 2}))
	assert.False(t, p.Has(Cell{X: 2, Y: 2}))
}
