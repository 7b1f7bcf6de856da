package engine

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// Playfield dimensions. The grid size is fixed.
	Width  = 14
	Height = 16

	MaxX = Width - 1
	MaxY = Height - 1

	// SentinelRow is the row directly above the visible playfield.
	SentinelRow = -1

	// LineScore is awarded for every cleared row.
	LineScore = 1000

	// maxLiftSteps caps the spin-into-pile correction. A piece reaches
	// pile-free territory well before this when the pile has no cells
	// above the sentinel row.
	maxLiftSteps = Height + 8

	// maxEscapeSteps caps the escape-prevention correction. The widest
	// layout offset is 2, so two steps per axis are always enough.
	maxEscapeSteps = 4
)

var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrInvalidKind         = fmt.Errorf("%w: unknown piece kind", ErrInvalidArgument)
	ErrInvalidIntent       = fmt.Errorf("%w: unknown intent", ErrInvalidArgument)
	ErrCorrectionExhausted = errors.New("collision correction did not converge")
)

// Cell is a single grid coordinate. Y grows downward; y=0 is the top row.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Down returns the cell one row below c.
func (c Cell) Down() Cell {
	return Cell{X: c.X, Y: c.Y + 1}
}

func (c Cell) InBounds() bool {
	return c.X >= 0 && c.X <= MaxX && c.Y <= MaxY
}

// SpawnPoint is the anchor every new piece starts from.
var SpawnPoint = Cell{X: Width / 2, Y: 0}

// Kind identifies a piece shape.
type Kind int

const (
	KindL Kind = iota
	KindJ
	KindI
	KindO
	KindS
	KindZ
	KindT
	kindCount
)

var kindNames = [kindCount]string{"L", "J", "I", "O", "S", "Z", "T"}

// Kinds returns all piece kinds in table order.
func Kinds() []Kind {
	return []Kind{KindL, KindJ, KindI, KindO, KindS, KindZ, KindT}
}

func (k Kind) Valid() bool {
	return k >= 0 && k < kindCount
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidKind, int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind accepts a kind letter in either case.
func ParseKind(s string) (Kind, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// Intent is the directional request applied on the next tick.
type Intent int

const (
	IntentNone Intent = iota
	IntentDown
	IntentLeft
	IntentRight
)

var intentNames = map[Intent]string{
	IntentNone:  "none",
	IntentDown:  "down",
	IntentLeft:  "left",
	IntentRight: "right",
}

func (i Intent) Valid() bool {
	_, ok := intentNames[i]
	return ok
}

func (i Intent) String() string {
	if name, ok := intentNames[i]; ok {
		return name
	}
	return fmt.Sprintf("Intent(%d)", int(i))
}

func (i Intent) MarshalText() ([]byte, error) {
	if !i.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidIntent, int(i))
	}
	return []byte(i.String()), nil
}

func (i *Intent) UnmarshalText(text []byte) error {
	parsed, err := ParseIntent(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// ParseIntent maps an intent name to its value. "stop" is accepted as an
// alias for none.
func ParseIntent(s string) (Intent, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "stop":
		return IntentNone, nil
	case "down":
		return IntentDown, nil
	case "left":
		return IntentLeft, nil
	case "right":
		return IntentRight, nil
	}
	return IntentNone, fmt.Errorf("%w: %q", ErrInvalidIntent, s)
}

// Snapshot is a read-only view of the game after the last operation.
type Snapshot struct {
	Pile         []Cell `json:"pile"`
	Active       []Cell `json:"active"`
	Score        int    `json:"score"`
	Kind         Kind   `json:"kind"`
	Anchor       Cell   `json:"anchor"`
	Rotation     int    `json:"rotation"`
	Intent       Intent `json:"intent"`
	Landed       bool   `json:"landed"`
	GameOver     bool   `json:"game_over"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Ticks        int    `json:"ticks"`
	LinesCleared int    `json:"lines_cleared"`
	PiecesLocked int    `json:"pieces_locked"`
}

func (s *Snapshot) InPile(c Cell) bool {
	for _, p := range s.Pile {
		if p == c {
			return true
		}
	}
	return false
}

func (s *Snapshot) IsActive(c Cell) bool {
	for _, a := range s.Active {
		if a == c {
			return true
		}
	}
	return false
}
