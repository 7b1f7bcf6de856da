package mcp

import (
	"fmt"
	"strings"

	"github.com/wricardo/mcp-training/blockfall/game/config"
	"github.com/wricardo/mcp-training/blockfall/game/engine"
	"github.com/wricardo/mcp-training/blockfall/game/render"
	"github.com/wricardo/mcp-training/blockfall/game/service"
)

// Glyphs for tool output. Distinct glyphs keep the falling piece readable for
// agents, unlike the classic frame which draws both as '@'.
const (
	pileGlyph   = '#'
	pieceGlyph  = '@'
	emptyGlyph  = '.'
	columnRuler = "    0123456789ABCD"
)

const gameInstructions = `Blockfall - Complete Instructions

OBJECTIVE:
Fill complete rows to clear them. Each cleared row scores 1000 points. The
game ends when the pile reaches above the top of the board.

BOARD:
- 14 columns (x 0-13) by 16 rows (y 0-15); y grows downward, row 15 is the floor.
- Pieces spawn with their anchor at (7,0).
- In game_state: '@' is the falling piece, '#' is the pile, '.' is empty.
  Columns 10-13 are labelled A-D on the ruler.

PIECES:
L, J, I, O, S, Z and T, four cells each. O never changes shape when rotated.

TIME:
Nothing moves until the game ticks. Each tick:
1. moves the piece one cell in the current intent (walls block the move),
2. applies the rotation requested since the last tick,
3. undoes a move into the pile,
4. lifts the piece up while it overlaps the pile after a rotation,
5. pushes it back inside the walls if a rotation poked out,
6. ends the game if the pile reaches above the top row,
7. clears complete rows from the bottom up.

CONTROLS:
- set_intent: none, down, left or right. The intent stays until changed.
- rotate: one quarter turn clockwise, applied on the next tick. It also sets
  intent to none so the piece stays put while turning.
- lock: only works once the piece has landed (it cannot move down). The piece
  joins the pile and a random next piece spawns. Presets with auto_lock lock
  for you at the end of each tick.
- tick: advance 1 to 100 ticks at once. Ticking stops early at game over.

STRATEGY:
1. Read the state before moving. Use describe_cell when a row looks full.
2. Steer with left/right while intent is none, then set down.
3. Rotate early, near the top, where there is room to turn.
4. Tick in small batches near the pile and lock as soon as the piece lands.
5. Keep the surface flat and leave one column open for an I piece.`

func formatSnapshot(snap *engine.Snapshot) string {
	if snap == nil {
		return "No game state available"
	}

	var b strings.Builder
	status := "falling"
	switch {
	case snap.GameOver:
		status = "GAME OVER"
	case snap.Landed:
		status = "landed, ready to lock"
	}

	fmt.Fprintf(&b, "Score: %d | Lines: %d | Pieces: %d | Ticks: %d\n",
		snap.Score, snap.LinesCleared, snap.PiecesLocked, snap.Ticks)
	fmt.Fprintf(&b, "Piece: %s rotation %d at (%d,%d) | Intent: %s | Status: %s\n\n",
		snap.Kind, snap.Rotation, snap.Anchor.X, snap.Anchor.Y, snap.Intent, status)

	b.WriteString(columnRuler + "\n")
	for y, row := range render.Rows(snap, pileGlyph, pieceGlyph, emptyGlyph) {
		fmt.Fprintf(&b, "%2d |%s|\n", y, row)
	}
	b.WriteString("   +" + strings.Repeat("-", engine.Width) + "+\n")

	if len(snap.Active) > 0 {
		cells := make([]string, len(snap.Active))
		for i, c := range snap.Active {
			cells[i] = fmt.Sprintf("(%d,%d)", c.X, c.Y)
		}
		fmt.Fprintf(&b, "Active cells: %s\n", strings.Join(cells, " "))
	}
	return b.String()
}

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\nLast accessed: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		session.LastAccessedAt.Format("2006-01-02 15:04:05"),
		formatSnapshot(session.Snapshot))
}

func formatSessionList(count int, sessions []*service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", count)
	for _, s := range sessions {
		score, over := 0, false
		if s.Snapshot != nil {
			score, over = s.Snapshot.Score, s.Snapshot.GameOver
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Score: %d, Game over: %t, Created: %s)\n",
			s.ID, s.ConfigName, score, over, s.CreatedAt.Format("15:04:05"))
	}
	return b.String()
}

func formatTickResult(result *service.TickResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ran %d of %d ticks", result.TicksRun, result.Requested)
	if result.Truncated {
		fmt.Fprintf(&b, " (capped at %d)", service.MaxTicksPerCall)
	}
	b.WriteString("\n")
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped: %s\n", result.StoppedReason)
	}
	fmt.Fprintf(&b, "Lines cleared: %d | Score delta: %+d | Auto locks: %d\n",
		result.LinesCleared, result.ScoreDelta, result.AutoLocks)
	if len(result.Events) > 0 {
		b.WriteString("Events:\n")
		for _, e := range result.Events {
			fmt.Fprintf(&b, "  - %s\n", formatEvent(e))
		}
	}
	b.WriteString("\n")
	b.WriteString(formatSnapshot(result.Snapshot))
	return b.String()
}

func formatLockResult(result *service.LockResult) string {
	var b strings.Builder
	b.WriteString(result.Message + "\n")
	for _, e := range result.Events {
		fmt.Fprintf(&b, "  - %s\n", formatEvent(e))
	}
	b.WriteString("\n")
	b.WriteString(formatSnapshot(result.Snapshot))
	return b.String()
}

func formatEvent(e service.GameEvent) string {
	return fmt.Sprintf("#%d [%s] tick %d score %d: %s", e.Seq, e.Type, e.Tick, e.Score, e.Message)
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Event History (Page %d/%d), total events: %d\n\n",
		history.Page, history.TotalPages, history.TotalEvents)
	if len(history.Events) == 0 {
		b.WriteString("(no events)\n")
	}
	for _, e := range history.Events {
		b.WriteString(formatEvent(e) + "\n")
	}
	return b.String()
}

func formatConfigs(configs []*config.PresetInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Available Presets (%d):\n\n", len(configs))
	for _, c := range configs {
		lock := "manual lock"
		if c.AutoLock {
			lock = "auto lock"
		}
		fmt.Fprintf(&b, "- %s: %s (%dms per tick, %s)\n", c.ConfigID, c.Description, c.TickIntervalMS, lock)
	}
	return b.String()
}

// describeCell reports the occupant of cell and the fill of its row.
func describeCell(snap *engine.Snapshot, cell engine.Cell) string {
	occupant := "empty"
	switch {
	case snap.IsActive(cell):
		occupant = fmt.Sprintf("active piece (%s)", snap.Kind)
	case snap.InPile(cell):
		occupant = "pile"
	}

	filled := 0
	for x := 0; x < engine.Width; x++ {
		if snap.InPile(engine.Cell{X: x, Y: cell.Y}) {
			filled++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Cell (%d,%d): %s\n", cell.X, cell.Y, occupant)
	fmt.Fprintf(&b, "Row %d: %d/%d pile cells", cell.Y, filled, engine.Width)
	if filled == engine.Width-1 {
		b.WriteString(", one more clears it")
	}
	b.WriteString("\n")

	below := cell.Down()
	switch {
	case cell.Y == engine.MaxY:
		b.WriteString("Below: floor\n")
	case snap.InPile(below):
		b.WriteString("Below: pile\n")
	default:
		b.WriteString("Below: empty\n")
	}
	return b.String()
}
