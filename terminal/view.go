package terminal

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wricardo/mcp-training/blockfall/game/engine"
	"github.com/wricardo/mcp-training/blockfall/game/render"
)

// cellWidth is the number of terminal columns per board cell.
const cellWidth = 2

type styles struct {
	board   lipgloss.Style
	pile    lipgloss.Style
	piece   lipgloss.Style
	empty   lipgloss.Style
	title   lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	help    lipgloss.Style
	alert   lipgloss.Style
	preview lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		board: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("15")),
		pile:    lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		piece:   lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true),
		empty:   lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		title:   lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		label:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		value:   lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true),
		help:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		alert:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		preview: lipgloss.NewStyle().Foreground(lipgloss.Color("51")).MarginTop(1),
	}
}

func (m Model) View() string {
	snap := m.engine.Snapshot()
	content := lipgloss.JoinHorizontal(lipgloss.Top,
		m.viewBoard(snap),
		lipgloss.NewStyle().MarginLeft(2).Render(m.viewPanel(snap)),
	)
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) viewBoard(snap *engine.Snapshot) string {
	const (
		filled = '#'
		piece  = '@'
		empty  = '.'
	)
	var b strings.Builder
	for y, row := range render.Rows(snap, filled, piece, empty) {
		if y > 0 {
			b.WriteByte('\n')
		}
		for _, r := range row {
			switch r {
			case filled:
				b.WriteString(m.styles.pile.Render(strings.Repeat("█", cellWidth)))
			case piece:
				b.WriteString(m.styles.piece.Render(strings.Repeat("█", cellWidth)))
			default:
				b.WriteString(m.styles.empty.Render(string(empty) + strings.Repeat(" ", cellWidth-1)))
			}
		}
	}
	return m.styles.board.Render(b.String())
}

func (m Model) viewPanel(snap *engine.Snapshot) string {
	line := func(label string, value interface{}) string {
		return m.styles.label.Render(fmt.Sprintf("%-8s", label)) + m.styles.value.Render(fmt.Sprint(value))
	}

	lines := []string{
		m.styles.title.Render("BLOCKFALL"),
		m.styles.label.Render(m.preset.Name),
		"",
		line("Score", snap.Score),
		line("Lines", snap.LinesCleared),
		line("Pieces", snap.PiecesLocked),
		line("Ticks", snap.Ticks),
		"",
		line("Piece", snap.Kind),
		line("Intent", snap.Intent),
	}
	if snap.Landed && !snap.GameOver {
		lines = append(lines, m.styles.value.Render("landed"))
	}

	preview := render.PiecePreview(snap.Kind, snap.Rotation)
	preview = strings.NewReplacer(".", " ", "+", " ").Replace(preview)
	lines = append(lines, m.styles.preview.Render(strings.TrimRight(preview, "\n")))

	switch {
	case snap.GameOver:
		lines = append(lines, "", m.styles.alert.Render("GAME OVER"))
	case m.paused:
		lines = append(lines, "", m.styles.alert.Render("PAUSED"))
	}
	if m.message != "" {
		lines = append(lines, "", m.styles.value.Render(m.message))
	}

	lines = append(lines, "",
		m.styles.help.Render("a/d move  s drop  w hold"),
		m.styles.help.Render("z rotate  f lock"),
		m.styles.help.Render("p pause  r reset  q quit"),
	)
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
