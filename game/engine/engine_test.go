package engine

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// placePiece puts the active piece at anchor without running a tick.
func placePiece(e *GameEngine, kind Kind, rotation int, anchor Cell) {
	e.kind = kind
	e.rotation = rotation
	e.anchor = anchor
	e.refresh()
}

func requireInBounds(t *testing.T, e *GameEngine) {
	t.Helper()
	for _, c := range e.ActiveCells() {
		require.Truef(t, c.InBounds(), "active cell %v out of bounds (anchor %v, kind %s, rotation %d)",
			c, e.Anchor(), e.Kind(), e.Rotation())
	}
}

func TestNewEngine(t *testing.T) {
	e, err := NewEngine(KindT)
	require.NoError(t, err)

	assert.Equal(t, SpawnPoint, e.Anchor())
	assert.Equal(t, Cell{X: 7, Y: 0}, e.Anchor())
	assert.Equal(t, 0, e.Rotation())
	assert.Equal(t, IntentDown, e.Intent())
	assert.Equal(t, KindT, e.Kind())
	assert.Equal(t, 0, e.Score())
	assert.Equal(t, 0, e.Pile().Len())
	assert.False(t, e.IsGameOver())

	_, err = NewEngine(Kind(99))
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestNewEngineWithDefaults(t *testing.T) {
	e := NewEngineWithDefaults()
	assert.Equal(t, KindJ, e.Kind())
	assert.Equal(t, []Cell{{7, -1}, {7, 0}, {7, 1}, {6, 1}}, e.ActiveCells())
}

func TestSetIntentAndKindRejectInvalidInput(t *testing.T) {
	e := NewEngineWithDefaults()

	assert.ErrorIs(t, e.SetIntent(Intent(9)), ErrInvalidIntent)
	assert.Equal(t, IntentDown, e.Intent())

	assert.ErrorIs(t, e.SetKind(Kind(-3)), ErrInvalidArgument)
	assert.Equal(t, KindJ, e.Kind())

	require.NoError(t, e.SetKind(KindO))
	assert.Equal(t, []Cell{{7, 0}, {8, 0}, {8, 1}, {7, 1}}, e.ActiveCells())
}

func TestEndToEndIPieceDropAndLock(t *testing.T) {
	e, err := NewEngine(KindI)
	require.NoError(t, err)
	assert.Equal(t, []Cell{{6, 0}, {7, 0}, {8, 0}, {9, 0}}, e.ActiveCells())

	require.NoError(t, e.SetIntent(IntentDown))
	for i := 0; i < 100 && !e.Landed(); i++ {
		require.NoError(t, e.AdvanceTick())
		requireInBounds(t, e)
	}
	require.True(t, e.Landed())
	assert.Equal(t, Cell{X: 7, Y: 15}, e.Anchor())
	assert.Equal(t, 15, e.Snapshot().Ticks)

	require.True(t, e.RequestLock())
	assert.Equal(t, 4, e.Pile().Len())
	assert.Equal(t, []Cell{{6, 15}, {7, 15}, {8, 15}, {9, 15}}, e.Pile().Cells())
	assert.Equal(t, SpawnPoint, e.Anchor())
	assert.Equal(t, 0, e.Rotation())
	assert.Equal(t, IntentDown, e.Intent())
	assert.Equal(t, 1, e.Snapshot().PiecesLocked)
}

func TestRequestLockRequiresLanding(t *testing.T) {
	e := NewEngineWithDefaults()
	assert.False(t, e.Landed())
	assert.False(t, e.RequestLock())
	assert.Equal(t, 0, e.Pile().Len())
}

func TestLandedOnPile(t *testing.T) {
	e := NewEngineWithDefaults()
	placePiece(e, KindO, 0, Cell{X: 3, Y: 8})
	assert.False(t, e.Landed())

	e.pile.Add(Cell{X: 4, Y: 10})
	assert.True(t, e.Landed())

	require.True(t, e.RequestLock())
	assert.Equal(t, 5, e.Pile().Len())
}

func TestRequestLockRefusesOverlappingPiece(t *testing.T) {
	e := NewEngineWithDefaults()
	// Spawned J covers (6,1); (7,2) makes it look landed.
	e.pile.Add(Cell{X: 6, Y: 1})
	e.pile.Add(Cell{X: 7, Y: 2})
	require.True(t, e.Landed())

	assert.False(t, e.RequestLock())
	assert.Equal(t, 2, e.Pile().Len())
}

func TestLockedPieceAddsExactlyFourCells(t *testing.T) {
	e := NewEngineWithDefaults()
	require.NoError(t, e.SetKind(KindS))
	for _, x := range []int{0, 13} {
		placePiece(e, KindS, 0, Cell{X: x, Y: 15})
		before := e.Pile().Len()
		require.NoError(t, e.SetIntent(IntentNone))
		require.NoError(t, e.AdvanceTick())
		requireInBounds(t, e)
		require.True(t, e.RequestLock())
		assert.Equal(t, before+4, e.Pile().Len())
	}
}

func TestRowCompleteClearsAndScores(t *testing.T) {
	e, err := NewEngine(KindO)
	require.NoError(t, err)
	fillRow(e.pile, 15)
	e.pile.Add(Cell{X: 0, Y: 14})
	e.pile.Add(Cell{X: 5, Y: 12})

	require.NoError(t, e.AdvanceTick())

	assert.Equal(t, LineScore, e.Score())
	assert.Equal(t, []Cell{{5, 13}, {0, 15}}, e.Pile().Cells())
	assert.Equal(t, 1, e.Snapshot().LinesCleared)
}

func TestMultipleRowsScoreIndependently(t *testing.T) {
	e, err := NewEngine(KindO)
	require.NoError(t, err)
	fillRow(e.pile, 15)
	fillRow(e.pile, 14)

	require.NoError(t, e.AdvanceTick())

	assert.Equal(t, 2*LineScore, e.Score())
	assert.Equal(t, 0, e.Pile().Len())
}

func TestClearedRowIsExaminedAgain(t *testing.T) {
	e, err := NewEngine(KindO)
	require.NoError(t, err)
	fillRow(e.pile, 15)
	e.pile.Add(Cell{X: 0, Y: 14})
	fillRow(e.pile, 13)

	require.NoError(t, e.AdvanceTick())

	assert.Equal(t, 2*LineScore, e.Score())
	assert.Equal(t, []Cell{{0, 15}}, e.Pile().Cells())
}

func TestWallContainment(t *testing.T) {
	for _, kind := range Kinds() {
		e := NewEngineWithDefaults()
		placePiece(e, kind, 0, Cell{X: 0, Y: 5})
		require.NoError(t, e.SetIntent(IntentLeft))
		for i := 0; i < 20; i++ {
			require.NoError(t, e.AdvanceTick())
			requireInBounds(t, e)
		}
	}
}

func TestRotationAgainstRightWall(t *testing.T) {
	e := NewEngineWithDefaults()
	placePiece(e, KindI, 1, Cell{X: 13, Y: 5})
	require.NoError(t, e.SetIntent(IntentNone))

	e.RequestRotation()
	require.NoError(t, e.AdvanceTick())

	requireInBounds(t, e)
	assert.Equal(t, Cell{X: 11, Y: 5}, e.Anchor())
	assert.Equal(t, []Cell{{10, 5}, {11, 5}, {12, 5}, {13, 5}}, e.ActiveCells())
}

func TestRotationAgainstFloor(t *testing.T) {
	e := NewEngineWithDefaults()
	placePiece(e, KindI, 0, Cell{X: 5, Y: 15})
	require.NoError(t, e.SetIntent(IntentNone))

	e.RequestRotation()
	require.NoError(t, e.AdvanceTick())

	requireInBounds(t, e)
	assert.Equal(t, Cell{X: 5, Y: 13}, e.Anchor())
	assert.True(t, e.Landed())
}

func TestMoveIntoPileRollsBack(t *testing.T) {
	t.Run("down", func(t *testing.T) {
		e := NewEngineWithDefaults()
		placePiece(e, KindI, 0, Cell{X: 7, Y: 4})
		e.pile.Add(Cell{X: 7, Y: 5})
		require.NoError(t, e.SetIntent(IntentDown))

		require.NoError(t, e.AdvanceTick())

		assert.Equal(t, Cell{X: 7, Y: 4}, e.Anchor())
		assert.False(t, e.pile.HasAny(e.ActiveCells()))
	})

	t.Run("left", func(t *testing.T) {
		e := NewEngineWithDefaults()
		placePiece(e, KindO, 0, Cell{X: 4, Y: 10})
		e.pile.Add(Cell{X: 3, Y: 10})
		require.NoError(t, e.SetIntent(IntentLeft))

		require.NoError(t, e.AdvanceTick())

		assert.Equal(t, Cell{X: 4, Y: 10}, e.Anchor())
	})

	t.Run("right", func(t *testing.T) {
		e := NewEngineWithDefaults()
		placePiece(e, KindO, 0, Cell{X: 4, Y: 10})
		e.pile.Add(Cell{X: 6, Y: 11})
		require.NoError(t, e.SetIntent(IntentRight))

		require.NoError(t, e.AdvanceTick())

		assert.Equal(t, Cell{X: 4, Y: 10}, e.Anchor())
	})
}

func TestSpinIntoPileLifts(t *testing.T) {
	e := NewEngineWithDefaults()
	placePiece(e, KindT, 0, Cell{X: 5, Y: 10})
	e.pile.Add(Cell{X: 5, Y: 11})
	require.NoError(t, e.SetIntent(IntentNone))

	e.RequestRotation()
	require.NoError(t, e.AdvanceTick())

	assert.Equal(t, Cell{X: 5, Y: 9}, e.Anchor())
	assert.Equal(t, 1, e.Rotation())
	assert.False(t, e.pile.HasAny(e.ActiveCells()))
}

func TestSpinLiftIsBounded(t *testing.T) {
	e := NewEngineWithDefaults()
	for y := -40; y <= MaxY; y++ {
		e.pile.Add(Cell{X: 7, Y: y})
	}

	err := e.AdvanceTick()
	assert.ErrorIs(t, err, ErrCorrectionExhausted)
}

func TestGameOverFromSentinelRow(t *testing.T) {
	e := NewEngineWithDefaults()
	e.pile.Add(Cell{X: 2, Y: SentinelRow})
	assert.False(t, e.IsGameOver())

	require.NoError(t, e.AdvanceTick())
	assert.True(t, e.IsGameOver())

	ticks := e.Snapshot().Ticks
	require.NoError(t, e.AdvanceTick())
	assert.Equal(t, ticks, e.Snapshot().Ticks, "ticks after game over are ignored")
	assert.False(t, e.RequestLock())
}

func TestStackingToTheTopEndsTheGame(t *testing.T) {
	e, err := NewEngine(KindO)
	require.NoError(t, err)

	for i := 0; i < 50 && !e.IsGameOver(); i++ {
		for j := 0; j < 40 && !e.Landed(); j++ {
			require.NoError(t, e.AdvanceTick())
		}
		e.RequestLock()
		require.NoError(t, e.AdvanceTick())
	}

	assert.True(t, e.IsGameOver())
	assert.Equal(t, 0, e.Score())
}

func TestOIgnoresRotation(t *testing.T) {
	e, err := NewEngine(KindO)
	require.NoError(t, err)
	require.NoError(t, e.SetIntent(IntentNone))
	require.NoError(t, e.AdvanceTick())
	want := e.ActiveCells()

	for i := 0; i < 4; i++ {
		e.RequestRotation()
		require.NoError(t, e.AdvanceTick())
		assert.Equal(t, want, e.ActiveCells())
	}
}

func TestReset(t *testing.T) {
	e, err := NewEngine(KindO)
	require.NoError(t, err)
	fillRow(e.pile, 15)
	require.NoError(t, e.AdvanceTick())
	e.pile.Add(Cell{X: 1, Y: 1})
	require.Equal(t, LineScore, e.Score())

	e.Reset()

	snap := e.Snapshot()
	assert.Empty(t, snap.Pile)
	assert.Equal(t, 0, snap.Score)
	assert.Equal(t, 0, snap.Ticks)
	assert.Equal(t, SpawnPoint, snap.Anchor)
	assert.Equal(t, KindO, snap.Kind)
	assert.False(t, snap.GameOver)
}

// Random play must never break the bounds invariant or duplicate a pile
// cell.
func TestRandomPlayInvariants(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewPCG(seed, seed*31))
		e := NewEngineWithDefaults()

		for step := 0; step < 3000 && !e.IsGameOver(); step++ {
			switch r := rng.IntN(10); {
			case r < 5:
				require.NoError(t, e.SetIntent(IntentDown))
			case r < 7:
				require.NoError(t, e.SetIntent(IntentLeft))
			case r < 9:
				require.NoError(t, e.SetIntent(IntentRight))
			default:
				e.RequestRotation()
				require.NoError(t, e.SetIntent(IntentNone))
			}

			require.NoError(t, e.AdvanceTick(), "seed %d step %d", seed, step)
			if !e.IsGameOver() {
				requireInBounds(t, e)
			}

			if e.Landed() && e.RequestLock() {
				require.NoError(t, e.SetKind(Kinds()[rng.IntN(len(Kinds()))]))
			}

			snap := e.Snapshot()
			require.Equal(t, 4*snap.PiecesLocked-Width*snap.LinesCleared, e.Pile().Len(),
				"seed %d step %d: pile lost or duplicated cells", seed, step)
		}
	}
}
