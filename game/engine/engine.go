package engine

import "fmt"

// Engine is the contract the game service drives. Implementations are not
// safe for concurrent use.
type Engine interface {
	AdvanceTick() error
	SetIntent(intent Intent) error
	RequestRotation()
	RequestLock() bool
	SetKind(kind Kind) error
	Snapshot() *Snapshot
	IsGameOver() bool
	Landed() bool
	Reset()
}

// GameEngine holds one falling-block game.
type GameEngine struct {
	pile     *Pile
	anchor   Cell
	rotation int
	kind     Kind
	intent   Intent
	cells    [4]Cell

	score        int
	gameOver     bool
	ticks        int
	linesCleared int
	piecesLocked int
}

// NewEngine starts a game with the given first piece.
func NewEngine(first Kind) (*GameEngine, error) {
	if !first.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidKind, int(first))
	}
	e := &GameEngine{pile: NewPile()}
	e.start(first)
	return e, nil
}

// NewEngineWithDefaults starts a game with a J piece falling.
func NewEngineWithDefaults() *GameEngine {
	e := &GameEngine{pile: NewPile()}
	e.start(KindJ)
	return e
}

func (e *GameEngine) start(first Kind) {
	e.pile.Clear()
	e.kind = first
	e.score = 0
	e.gameOver = false
	e.ticks = 0
	e.linesCleared = 0
	e.piecesLocked = 0
	e.spawn()
}

func (e *GameEngine) spawn() {
	e.anchor = SpawnPoint
	e.rotation = 0
	e.intent = IntentDown
	e.refresh()
}

// refresh re-derives the active cells. Every change to anchor, rotation or
// kind must be followed by a refresh before the cells are read.
func (e *GameEngine) refresh() {
	e.cells = Shape(e.kind, e.rotation, e.anchor)
}

// AdvanceTick runs one step of the pipeline: move, derive cells for the
// requested rotation, the three collision passes, the overflow check and
// line clearing. It is a no-op once the game is over.
func (e *GameEngine) AdvanceTick() error {
	if e.gameOver {
		return nil
	}
	e.ticks++

	e.anchor = resolveMove(e.intent, e.cells[:], e.anchor)
	e.refresh()

	e.correctMoveIntoPile()
	if err := e.correctSpinIntoPile(); err != nil {
		return err
	}
	if err := e.correctEscape(); err != nil {
		return err
	}

	if e.overflowed() {
		e.gameOver = true
	}
	e.clearLines()
	return nil
}

func (e *GameEngine) SetIntent(intent Intent) error {
	if !intent.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidIntent, int(intent))
	}
	e.intent = intent
	return nil
}

// RequestRotation advances the rotation counter. The new layout is derived
// and checked against the pile on the next tick.
func (e *GameEngine) RequestRotation() {
	e.rotation = (e.rotation + 1) % 4
}

// Landed reports whether the active piece rests on the floor or on the pile.
func (e *GameEngine) Landed() bool {
	return anyCell(e.cells[:], func(c Cell) bool {
		return c.Y == MaxY || e.pile.Has(c.Down())
	})
}

// RequestLock merges the active piece into the pile when it has landed and
// respawns at the spawn point. The caller picks the next kind with SetKind.
// A piece that still overlaps the pile (a fresh spawn into a full stack)
// cannot lock until a tick has lifted it clear.
func (e *GameEngine) RequestLock() bool {
	if e.gameOver || !e.Landed() || e.pile.HasAny(e.cells[:]) {
		return false
	}
	for _, c := range e.cells {
		e.pile.Add(c)
	}
	e.piecesLocked++
	e.spawn()
	return true
}

// SetKind replaces the kind of the active piece.
func (e *GameEngine) SetKind(kind Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidKind, int(kind))
	}
	e.kind = kind
	e.refresh()
	return nil
}

func (e *GameEngine) IsGameOver() bool {
	return e.gameOver
}

func (e *GameEngine) Score() int {
	return e.score
}

func (e *GameEngine) Ticks() int {
	return e.ticks
}

func (e *GameEngine) LinesCleared() int {
	return e.linesCleared
}

func (e *GameEngine) PiecesLocked() int {
	return e.piecesLocked
}

func (e *GameEngine) Kind() Kind {
	return e.kind
}

func (e *GameEngine) Anchor() Cell {
	return e.anchor
}

func (e *GameEngine) Rotation() int {
	return e.rotation
}

func (e *GameEngine) Intent() Intent {
	return e.intent
}

// ActiveCells returns the cells of the falling piece.
func (e *GameEngine) ActiveCells() []Cell {
	return append([]Cell(nil), e.cells[:]...)
}

// Pile exposes the settled cells. Callers must not mutate it while a tick is
// running.
func (e *GameEngine) Pile() *Pile {
	return e.pile
}

// Reset starts a fresh game keeping the current piece kind.
func (e *GameEngine) Reset() {
	e.start(e.kind)
}

func (e *GameEngine) Snapshot() *Snapshot {
	return &Snapshot{
		Pile:         e.pile.Cells(),
		Active:       e.ActiveCells(),
		Score:        e.score,
		Kind:         e.kind,
		Anchor:       e.anchor,
		Rotation:     e.rotation,
		Intent:       e.intent,
		Landed:       e.Landed(),
		GameOver:     e.gameOver,
		Width:        Width,
		Height:       Height,
		Ticks:        e.ticks,
		LinesCleared: e.linesCleared,
		PiecesLocked: e.piecesLocked,
	}
}

var _ Engine = (*GameEngine)(nil)
