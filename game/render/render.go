// Package render draws engine snapshots as text.
package render

import (
	"fmt"
	"strings"

	"github.com/wricardo/mcp-training/blockfall/game/engine"
)

// Glyphs used by Board.
const (
	Filled = '@'
	Piece  = '@'
	Empty  = ' '
)

// Options tweaks Board output.
type Options struct {
	// Indent is prepended to every line.
	Indent string
	// Distinct draws the falling piece with '#' instead of '@'.
	Distinct bool
	// HideScore drops the score footer.
	HideScore bool
}

// DefaultOptions matches the classic terminal frame.
var DefaultOptions = Options{Indent: "     "}

// Board renders the playfield framed by "<!" and "!>" with a floor line and
// a score footer.
func Board(snap *engine.Snapshot, opts Options) string {
	var b strings.Builder
	occupied := make(map[engine.Cell]rune, len(snap.Pile)+len(snap.Active))
	for _, c := range snap.Pile {
		occupied[c] = Filled
	}
	pieceGlyph := Piece
	if opts.Distinct {
		pieceGlyph = '#'
	}
	for _, c := range snap.Active {
		occupied[c] = pieceGlyph
	}

	width, height := snap.Width, snap.Height
	if width == 0 || height == 0 {
		width, height = engine.Width, engine.Height
	}

	for y := 0; y < height; y++ {
		b.WriteString(opts.Indent)
		b.WriteString("<!")
		for x := 0; x < width; x++ {
			if r, ok := occupied[engine.Cell{X: x, Y: y}]; ok {
				b.WriteRune(r)
			} else {
				b.WriteRune(Empty)
			}
		}
		b.WriteString("!>\n")
	}
	fmt.Fprintf(&b, "%s<!%s!>\n", opts.Indent, strings.Repeat("=", width))
	fmt.Fprintf(&b, "%s  %s\n", opts.Indent, strings.Repeat(`\/`, width/2))

	if !opts.HideScore {
		fmt.Fprintf(&b, "\n%s   Score: %d\n", opts.Indent, snap.Score)
		if snap.GameOver {
			fmt.Fprintf(&b, "%s   GAME OVER\n", opts.Indent)
		}
	}
	return b.String()
}

// PiecePreview draws a single kind and rotation on a small grid centred on its
// anchor, which is marked with '+' when it is not covered.
func PiecePreview(kind engine.Kind, rotation int) string {
	anchor := engine.Cell{X: 2, Y: 1}
	cells := engine.Shape(kind, rotation, anchor)
	covered := make(map[engine.Cell]bool, 4)
	for _, c := range cells {
		covered[c] = true
	}

	var b strings.Builder
	for y := 0; y < 4; y++ {
		for x := 0; x < 5; x++ {
			c := engine.Cell{X: x, Y: y}
			switch {
			case covered[c]:
				b.WriteRune(Filled)
			case c == anchor:
				b.WriteRune('+')
			default:
				b.WriteRune('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Rows returns one string per playfield row using the given glyphs, with no
// frame. Useful for compact API and tool output.
func Rows(snap *engine.Snapshot, filled, piece, empty rune) []string {
	rows := make([][]rune, engine.Height)
	for y := range rows {
		rows[y] = []rune(strings.Repeat(string(empty), engine.Width))
	}
	for _, c := range snap.Pile {
		if c.Y >= 0 && c.Y < engine.Height && c.X >= 0 && c.X < engine.Width {
			rows[c.Y][c.X] = filled
		}
	}
	for _, c := range snap.Active {
		if c.Y >= 0 && c.Y < engine.Height && c.X >= 0 && c.X < engine.Width {
			rows[c.Y][c.X] = piece
		}
	}
	out := make([]string, len(rows))
	for y, r := range rows {
		out[y] = string(r)
	}
	return out
}
